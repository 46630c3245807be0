package generation

import "strings"

// Postprocess normalizes raw model output: strips an "assistant:" prefix
// and surrounding quotes, normalizes line endings, and collapses runs of
// blank lines to a single one.
func Postprocess(text string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if cleaned == "" {
		return ""
	}

	if strings.HasPrefix(strings.ToLower(cleaned), "assistant:") {
		if _, rest, found := strings.Cut(cleaned, ":"); found {
			cleaned = strings.TrimSpace(rest)
		}
	}

	if len(cleaned) >= 2 {
		first, last := cleaned[0], cleaned[len(cleaned)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			if inner := strings.TrimSpace(cleaned[1 : len(cleaned)-1]); inner != "" {
				cleaned = inner
			}
		}
	}

	lines := strings.Split(cleaned, "\n")
	collapsed := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks <= 1 {
				collapsed = append(collapsed, "")
			}
			continue
		}
		blanks = 0
		collapsed = append(collapsed, line)
	}
	return strings.TrimSpace(strings.Join(collapsed, "\n"))
}

package domain

import "errors"

var (
	// ErrInsufficientHistory is returned while the history window has not
	// reached the warm-up floor.
	ErrInsufficientHistory = errors.New("history window below warm-up floor")

	// ErrChannelCountMismatch is returned when a history row does not match
	// the configured channel set.
	ErrChannelCountMismatch = errors.New("row length does not match channel count")

	// ErrMissingAPIToken is returned when the inference client has no API token.
	ErrMissingAPIToken = errors.New("inference API token is required")

	// ErrMissingModelID is returned when the inference client has no model configured.
	ErrMissingModelID = errors.New("inference model id is required")

	// ErrEmptyPrompt is returned when a generation request has no prompt.
	ErrEmptyPrompt = errors.New("prompt is required")

	// ErrEmptyQuestion is returned when a chat request has no question.
	ErrEmptyQuestion = errors.New("question is required")
)

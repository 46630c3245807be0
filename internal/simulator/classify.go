package simulator

import "github.com/ironreach/reactor-twin/internal/domain"

// Classify maps a raw value against a channel's static thresholds. Values
// outside [low, high] are warnings; values more than 5% beyond a threshold
// are critical. Total over all float64 inputs.
func Classify(value, low, high float64) domain.Status {
	if value > high*1.05 || value < low*0.95 {
		return domain.StatusCritical
	}
	if value > high || value < low {
		return domain.StatusWarning
	}
	return domain.StatusNormal
}

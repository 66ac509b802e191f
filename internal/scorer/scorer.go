// Package scorer assigns each trade a significance score and a
// human-readable reason string. Score is a pure function: no I/O, no state,
// identical output for identical input. The score is a relative ranking,
// not a probability.
package scorer

import (
	"math"
	"strings"
)

// Size-tier thresholds, checked in descending order; first match wins.
const (
	MegaWhaleUSD = 25000
	WhaleUSD     = 10000
	LargeUSD     = 2000
	MidUSD       = 500
)

// Price-tier modifiers, applied after the size tier.
const (
	LateStagePrice  = 0.85
	ContrarianPrice = 0.15
	NearEvenLow     = 0.45
	NearEvenHigh    = 0.55
)

// StandardLabel is the alert text when no reason fired.
const StandardLabel = "Standard trade"

// Score maps a trade's USD notional and execution price to a significance
// score and the ordered list of reasons that contributed to it.
func Score(usdValue, price float64) (float64, []string) {
	var score float64
	var reasons []string

	switch {
	case usdValue >= MegaWhaleUSD:
		score += 5.0
		reasons = append(reasons, "MEGA WHALE")
	case usdValue >= WhaleUSD:
		score += 4.0
		reasons = append(reasons, "WHALE")
	case usdValue >= LargeUSD:
		score += 2.5
		reasons = append(reasons, "Large")
	case usdValue >= MidUSD:
		score += 1.5
		reasons = append(reasons, "Mid")
	default:
		score += 0.5
	}

	if price >= LateStagePrice {
		score += 2.0
		reasons = append(reasons, "Late-stage sniper")
	}
	if price <= ContrarianPrice {
		score += 1.5
		reasons = append(reasons, "Low-prob contrarian")
	}
	if price >= NearEvenLow && price <= NearEvenHigh {
		score += 0.5
		reasons = append(reasons, "Near 50/50")
	}

	return math.Round(score*100) / 100, reasons
}

// AlertText joins reasons in evaluation order, falling back to the standard
// label when none fired.
func AlertText(reasons []string) string {
	if len(reasons) == 0 {
		return StandardLabel
	}
	return strings.Join(reasons, " | ")
}

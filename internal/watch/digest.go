package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/polyinsider/sonar/internal/store"
)

// formatDigest renders the periodic activity summary as one message.
func formatDigest(sum store.Summary, since, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📋 Sonar digest (%s)\n", formatWindow(now.Sub(since)))
	fmt.Fprintf(&b, "Trades: %d | Volume: $%.2f | Whales: %d\n", sum.TradeCount, sum.VolumeUSD, sum.WhaleCount)

	if len(sum.TopMarkets) > 0 {
		b.WriteString("Top markets:\n")
		for i, m := range sum.TopMarkets {
			fmt.Fprintf(&b, "%d. %s: $%.2f\n", i+1, m.Name, m.VolumeUSD)
		}
	} else {
		b.WriteString("No qualifying trades this period.\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatWindow(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("last %.0fh", d.Hours())
	}
	return fmt.Sprintf("last %.0fm", d.Minutes())
}

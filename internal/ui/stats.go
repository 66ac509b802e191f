package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/polyinsider/sonar/internal/store"
)

// StatsView is the one-line activity strip at the top of the dashboard.
type StatsView struct {
	text *tview.TextView
}

// NewStatsView creates the stats strip.
func NewStatsView() *StatsView {
	text := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	text.SetTitle(" Sonar ").SetBorder(true)

	return &StatsView{text: text}
}

// Widget returns the tview primitive.
func (v *StatsView) Widget() tview.Primitive {
	return v.text
}

// Update redraws the strip from the 24h summary.
func (v *StatsView) Update(sum store.Summary, marketCount int) {
	top := "-"
	if len(sum.TopMarkets) > 0 {
		top = truncateName(sum.TopMarkets[0].Name, 32)
	}
	v.text.SetText(fmt.Sprintf(
		"[white]Trades (24h): [yellow]%d[white]  |  Volume: [yellow]$%.0f[white]  |  Whales: [red]%d[white]  |  Markets: [yellow]%d[white]  |  Top: [yellow]%s",
		sum.TradeCount, sum.VolumeUSD, sum.WhaleCount, marketCount, top))
}

package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/polyinsider/sonar/internal/store"
)

// whaleFeedMaxRows caps the feed length.
const whaleFeedMaxRows = 50

// WhaleFeedView displays high-score trades only, newest first.
type WhaleFeedView struct {
	text *tview.TextView
}

// NewWhaleFeedView creates the whale feed panel.
func NewWhaleFeedView() *WhaleFeedView {
	text := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	text.SetTitle(" Whale Feed ").SetBorder(true)

	return &WhaleFeedView{text: text}
}

// Widget returns the tview primitive.
func (v *WhaleFeedView) Widget() tview.Primitive {
	return v.text
}

// Update redraws the feed with trades at or above minScore.
func (v *WhaleFeedView) Update(trades []store.Trade, minScore float64) {
	v.text.Clear()

	shown := 0
	for i := len(trades) - 1; i >= 0 && shown < whaleFeedMaxRows; i-- {
		t := trades[i]
		if t.Score < minScore {
			continue
		}
		shown++

		color := "yellow"
		if t.USDValue >= 25000 {
			color = "red"
		}
		fmt.Fprintf(v.text, "[%s]%s $%.0f[white] %s %s @ %.3f\n  [gray]%s[white]\n",
			color,
			t.Timestamp.Local().Format("15:04:05"),
			t.USDValue,
			t.Side,
			t.Outcome,
			t.Price,
			truncateName(t.MarketName, 44),
		)
	}

	v.text.SetTitle(fmt.Sprintf(" Whale Feed (%d) ", shown))
}

package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/polyinsider/sonar/internal/store"
)

// liveTradesMaxRows caps the feed so a busy tape stays scannable.
const liveTradesMaxRows = 100

// LiveTradesView displays the most recent trades, newest first.
type LiveTradesView struct {
	table *tview.Table
}

var liveTradeHeaders = []string{"Time", "Market", "Side", "Outcome", "Price", "Value", "Score"}

// NewLiveTradesView creates the live trades table.
func NewLiveTradesView() *LiveTradesView {
	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0)
	table.SetTitle(" Live Trades ").SetBorder(true)

	v := &LiveTradesView{table: table}
	v.setHeaders()
	return v
}

// Widget returns the tview primitive.
func (v *LiveTradesView) Widget() tview.Primitive {
	return v.table
}

func (v *LiveTradesView) setHeaders() {
	for col, header := range liveTradeHeaders {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false)
		v.table.SetCell(0, col, cell)
	}
}

// Update redraws the table with the newest trades first.
func (v *LiveTradesView) Update(trades []store.Trade) {
	v.table.Clear()
	v.setHeaders()

	shown := 0
	for i := len(trades) - 1; i >= 0 && shown < liveTradesMaxRows; i-- {
		t := trades[i]
		row := shown + 1
		shown++

		cells := []string{
			t.Timestamp.Local().Format("15:04:05"),
			truncateName(t.MarketName, 40),
			t.Side,
			t.Outcome,
			fmt.Sprintf("%.3f", t.Price),
			fmt.Sprintf("$%.0f", t.USDValue),
			fmt.Sprintf("%.1f", t.Score),
		}
		for col, text := range cells {
			cell := tview.NewTableCell(text).SetAlign(tview.AlignLeft)
			if col == len(cells)-1 && t.Score >= 3.0 {
				cell.SetTextColor(tview.Styles.TertiaryTextColor)
			}
			v.table.SetCell(row, col, cell)
		}
	}

	v.table.SetTitle(fmt.Sprintf(" Live Trades (%d) ", shown))
}

// truncateName shortens a market name to fit its column.
func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

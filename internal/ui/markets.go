package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/polyinsider/sonar/internal/store"
)

// MarketsView displays the tracked markets ordered by 24h volume.
type MarketsView struct {
	table *tview.Table
}

var marketHeaders = []string{"#", "Market", "24h Volume", "Last Seen"}

// NewMarketsView creates the tracked markets table.
func NewMarketsView() *MarketsView {
	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0)
	table.SetTitle(" Tracked Markets ").SetBorder(true)

	v := &MarketsView{table: table}
	v.setHeaders()
	return v
}

// Widget returns the tview primitive.
func (v *MarketsView) Widget() tview.Primitive {
	return v.table
}

func (v *MarketsView) setHeaders() {
	for col, header := range marketHeaders {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false)
		v.table.SetCell(0, col, cell)
	}
}

// Update redraws the table from the current market set.
func (v *MarketsView) Update(markets []store.Market) {
	v.table.Clear()
	v.setHeaders()

	for i, m := range markets {
		row := i + 1
		cells := []string{
			fmt.Sprintf("%d", row),
			truncateName(m.Name, 60),
			fmt.Sprintf("$%.0f", m.Volume24h),
			m.LastSeen.Local().Format("15:04:05"),
		}
		for col, text := range cells {
			v.table.SetCell(row, col, tview.NewTableCell(text).SetAlign(tview.AlignLeft))
		}
	}

	v.table.SetTitle(fmt.Sprintf(" Tracked Markets (%d) ", len(markets)))
}

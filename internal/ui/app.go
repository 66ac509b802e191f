// Package ui provides the terminal dashboard. It is a read-only view over
// the store; the ingestion engine and watchers run as separate processes.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/polyinsider/sonar/internal/store"
)

// LookbackWindow is how far back the dashboard reads trades.
const LookbackWindow = 24 * time.Hour

// App is the dashboard application.
type App struct {
	app    *tview.Application
	layout *tview.Flex

	// Views
	stats      *StatsView
	liveTrades *LiveTradesView
	whaleFeed  *WhaleFeedView
	markets    *MarketsView

	// Data
	st       store.Store
	interval time.Duration
	whaleUSD float64
	minScore float64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the dashboard over st, refreshing at interval.
func NewApp(st store.Store, interval time.Duration, whaleUSD, minScore float64) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:      tview.NewApplication(),
		st:       st,
		interval: interval,
		whaleUSD: whaleUSD,
		minScore: minScore,
		ctx:      ctx,
		cancel:   cancel,
	}

	a.stats = NewStatsView()
	a.liveTrades = NewLiveTradesView()
	a.whaleFeed = NewWhaleFeedView()
	a.markets = NewMarketsView()

	a.setupLayout()
	a.setupKeyboard()

	return a
}

// setupLayout arranges the 4-panel layout.
func (a *App) setupLayout() {
	// Top: stats strip.
	// Middle: live trades (left) | whale feed (right).
	// Bottom: tracked markets.
	middleRow := tview.NewFlex().
		AddItem(a.liveTrades.Widget(), 0, 3, false).
		AddItem(a.whaleFeed.Widget(), 0, 2, false)

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.stats.Widget(), 3, 0, false).
		AddItem(middleRow, 0, 3, false).
		AddItem(a.markets.Widget(), 0, 1, false)

	a.app.SetRoot(a.layout, true)
}

// setupKeyboard configures keyboard shortcuts.
func (a *App) setupKeyboard() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			a.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				a.Stop()
				return nil
			case 'r', 'R':
				go a.refresh()
				return nil
			}
		}
		return event
	})
}

// Run starts the dashboard (blocking).
func (a *App) Run() error {
	go a.updateLoop()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the application.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// updateLoop refreshes the views from the store at the configured rate.
func (a *App) updateLoop() {
	a.refresh()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.refresh()
		}
	}
}

// refresh loads a fresh snapshot and redraws every view. Store errors leave
// the previous frame on screen.
func (a *App) refresh() {
	since := time.Now().Add(-LookbackWindow)

	trades, err := a.st.TradesSince(a.ctx, since)
	if err != nil {
		slog.Warn("dashboard_trades_query_failed", "error", err)
		return
	}
	sum, err := a.st.Summary(a.ctx, since, a.whaleUSD)
	if err != nil {
		slog.Warn("dashboard_summary_query_failed", "error", err)
		return
	}
	markets, err := a.st.Markets(a.ctx)
	if err != nil {
		slog.Warn("dashboard_markets_query_failed", "error", err)
		return
	}

	a.app.QueueUpdateDraw(func() {
		a.stats.Update(sum, len(markets))
		a.liveTrades.Update(trades)
		a.whaleFeed.Update(trades, a.minScore)
		a.markets.Update(markets)
	})
}

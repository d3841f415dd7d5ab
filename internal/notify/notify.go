// Package notify delivers trading event notifications.
package notify

import (
	"fmt"
	"io"
	"os"

	"trading-robot/internal/models"
	"trading-robot/pkg/utils"
)

// Notifier receives trading lifecycle events.
type Notifier interface {
	TradeOpened(p *models.Position)
	PositionClosed(p *models.Position, reason string)
	RiskAlert(message string)
}

// Terminal writes human-readable notifications to a writer, stdout by
// default.
type Terminal struct {
	w io.Writer
}

// NewTerminal creates a terminal notifier.
func NewTerminal() *Terminal {
	return &Terminal{w: os.Stdout}
}

// NewTerminalWriter creates a terminal notifier writing to w.
func NewTerminalWriter(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// TradeOpened implements Notifier.
func (t *Terminal) TradeOpened(p *models.Position) {
	fmt.Fprintf(t.w, "🟢 OPENED %s %s x%d @ %s (stop %s, target %s) [%s]\n",
		p.Action, p.Symbol, p.Quantity,
		utils.FormatIndianCurrency(p.EntryPrice),
		utils.FormatIndianCurrency(p.StopLoss),
		utils.FormatIndianCurrency(p.Target),
		p.Strategy)
}

// PositionClosed implements Notifier.
func (t *Terminal) PositionClosed(p *models.Position, reason string) {
	icon := "🔴"
	if p.PnL >= 0 {
		icon = "🟢"
	}
	fmt.Fprintf(t.w, "%s CLOSED %s x%d @ %s | P&L %s (%s) | %s\n",
		icon, p.Symbol, p.Quantity,
		utils.FormatIndianCurrency(p.CurrentPrice),
		utils.FormatPnL(p.PnL),
		utils.FormatPercent(p.PnLPercent),
		reason)
}

// RiskAlert implements Notifier.
func (t *Terminal) RiskAlert(message string) {
	fmt.Fprintf(t.w, "⚠️  RISK: %s\n", message)
}

// Nop discards all notifications.
type Nop struct{}

// TradeOpened implements Notifier.
func (Nop) TradeOpened(*models.Position) {}

// PositionClosed implements Notifier.
func (Nop) PositionClosed(*models.Position, string) {}

// RiskAlert implements Notifier.
func (Nop) RiskAlert(string) {}

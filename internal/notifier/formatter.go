package notifier

import (
	"fmt"
	"strings"

	"TrendWarden/internal/indicator"
	"TrendWarden/internal/model"
)

// FormatEntry builds the entry notification message.
func FormatEntry(symbol string, pos model.Position, quote string) string {
	return fmt.Sprintf("📥 ENTRY %s @ %.2f %s | stop %.2f | size ~%.6f",
		symbol, pos.Entry, quote, pos.Stop, pos.Qty)
}

// FormatExit builds the exit notification message.
func FormatExit(symbol string, price, pnl float64, reason, quote string) string {
	return fmt.Sprintf("📤 EXIT %s @ %.2f %s | reason: %s | PnL: %.2f %s",
		symbol, price, quote, reason, pnl, quote)
}

// FormatAnalysisLine renders one symbol's indicator reading.
func FormatAnalysisLine(symbol string, price float64, s indicator.Snapshot) string {
	signal := "HOLD"
	if s.EnterLong {
		signal = "LONG"
	} else if s.ExitLong {
		signal = "EXIT"
	}
	return fmt.Sprintf("%s px=%.2f | ema_fast=%.2f ema_slow=%.2f | signal=%s",
		symbol, price, s.EMAFast, s.EMASlow, signal)
}

// FormatAnalysis bundles the per-symbol lines into one message.
func FormatAnalysis(lines []string) string {
	return "🔎 Analysis:\n" + strings.Join(lines, "\n")
}

// FormatRunSummary renders the end-of-run equity line.
func FormatRunSummary(equity float64, quote string, day model.DayRisk) string {
	return fmt.Sprintf("Run done. Equity: %.2f %s | day PnL %.2f, trades %d",
		equity, quote, day.PnL, day.Trades)
}

// FormatAuditSummary renders the short audit verdict pushed to the sink,
// with at most maxLines per-symbol lines.
func FormatAuditSummary(passed bool, ts string, symbolLines []string, maxLines int) string {
	verdict := "PASS"
	if !passed {
		verdict = "FAIL"
	}
	if len(symbolLines) > maxLines {
		symbolLines = symbolLines[:maxLines]
	}
	return fmt.Sprintf("📋 Audit %s — %s\n%s", verdict, ts, strings.Join(symbolLines, "\n"))
}

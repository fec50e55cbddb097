package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"TrendWarden/internal/config"
	"TrendWarden/internal/exchange"
	"TrendWarden/internal/indicator"
	"TrendWarden/internal/model"
	"TrendWarden/internal/sizing"
)

const (
	markOK   = "✅"
	markWarn = "⚠️"
	markErr  = "❌"
)

// defaultTakerBps is the assumed taker fee when the tier cannot be read.
const defaultTakerBps = 26.0

// ErrAPICheck reports a hard API/credential failure. It short-circuits all
// per-symbol checks; the CLI maps it to exit code 1.
var ErrAPICheck = errors.New("api credential check failed")

// feeFetcher is implemented by venues exposing the account's taker fee.
type feeFetcher interface {
	TakerFeeBps(ctx context.Context, symbol string) (float64, error)
}

// Report is the outcome of one pre-flight audit.
type Report struct {
	GeneratedAt time.Time
	Lines       []string
	Summary     []string
	Passed      bool
}

func (r *Report) mark(mark, text string) {
	r.Lines = append(r.Lines, mark+" "+text)
}

// Render produces the Markdown report body.
func (r *Report) Render() string {
	verdict := "PASS"
	if !r.Passed {
		verdict = "FAIL"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Pre-Flight Audit — %s\n\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC")))
	b.WriteString(strings.Join(r.Lines, "\n"))
	b.WriteString("\n\n---\n\nOverall verdict: " + verdict + "\n")
	return b.String()
}

// Auditor validates API credentials, fee assumptions, market availability,
// and minimum-order-size feasibility against live data. It is read-only:
// no orders are placed and no persisted state is touched.
type Auditor struct {
	cfg *config.Config
	ex  exchange.Exchange
}

// New creates an Auditor.
func New(cfg *config.Config, ex exchange.Exchange) *Auditor {
	return &Auditor{cfg: cfg, ex: ex}
}

// Run performs all checks and returns the report. ErrAPICheck is returned
// when credentials fail before any per-symbol work.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	r := &Report{GeneratedAt: time.Now(), Passed: true}
	quote := a.cfg.QuoteCurrency

	// 1) API sanity.
	balance, err := a.ex.FetchBalance(ctx, quote)
	if err != nil {
		r.mark(markErr, fmt.Sprintf("API credentials rejected or insufficient permissions: %v", err))
		r.Passed = false
		return r, ErrAPICheck
	}
	r.mark(markOK, "API credentials valid: balance query ok.")

	// 2) Fee tier, best-effort.
	a.checkFees(ctx, r)

	// 3) Market availability.
	markets, err := a.ex.ListMarkets(ctx)
	if err != nil {
		r.mark(markErr, fmt.Sprintf("market listing failed: %v", err))
		r.Passed = false
		return r, nil
	}
	var missing []string
	for _, sym := range a.cfg.Symbols {
		if _, ok := markets[sym]; !ok {
			missing = append(missing, sym)
		}
	}
	if len(missing) > 0 {
		r.mark(markErr, "pairs missing on exchange: "+strings.Join(missing, ", "))
		r.Passed = false
	}

	// 4) Balance and equity reference.
	r.mark(markOK, fmt.Sprintf("%s balance: %.2f %s.", quote, balance, quote))
	equityRef := balance
	if equityRef <= 0 {
		equityRef = a.cfg.Paper.StartCash
	}
	if equityRef <= 0 {
		r.mark(markErr, "no usable equity reference: zero balance and no paper starting cash")
		r.Passed = false
		return r, nil
	}

	// 5) Dry-run sizing against each symbol's live data.
	for _, sym := range a.cfg.Symbols {
		lim, ok := markets[sym]
		if !ok {
			continue
		}
		a.checkSymbol(ctx, r, sym, lim, equityRef)
	}
	return r, nil
}

func (a *Auditor) checkFees(ctx context.Context, r *Report) {
	ff, ok := a.ex.(feeFetcher)
	if !ok || len(a.cfg.Symbols) == 0 {
		r.mark(markWarn, fmt.Sprintf("fee tier not queryable; assuming taker %.2f%%.", defaultTakerBps/100))
		return
	}
	bps, err := ff.TakerFeeBps(ctx, a.cfg.Symbols[0])
	if err != nil {
		r.mark(markWarn, fmt.Sprintf("fee tier read failed (%v); assuming taker %.2f%%.", err, defaultTakerBps/100))
		return
	}
	r.mark(markOK, fmt.Sprintf("taker fee ≈ %.2f%%.", bps/100))
}

func (a *Auditor) checkSymbol(ctx context.Context, r *Report, sym string, lim model.MarketLimits, equityRef float64) {
	bars, err := a.ex.FetchSeries(ctx, sym, a.cfg.Timeframe, 300)
	if err != nil {
		r.mark(markErr, fmt.Sprintf("%s: data fetch error — %v", sym, err))
		r.Summary = append(r.Summary, fmt.Sprintf("%s: data error", sym))
		r.Passed = false
		return
	}
	if len(bars) < a.cfg.Strategy.EMASlow {
		r.mark(markErr, fmt.Sprintf("%s: insufficient history (%d bars, need %d).", sym, len(bars), a.cfg.Strategy.EMASlow))
		r.Summary = append(r.Summary, fmt.Sprintf("%s: insufficient history", sym))
		r.Passed = false
		return
	}

	snaps, err := indicator.Compute(bars, indicator.Params{
		FastPeriod: a.cfg.Strategy.EMAFast,
		SlowPeriod: a.cfg.Strategy.EMASlow,
		VolPeriod:  a.cfg.Strategy.ATRPeriod,
		VolMult:    a.cfg.Strategy.ATRMult,
	})
	if err != nil {
		r.mark(markErr, fmt.Sprintf("%s: indicator error — %v", sym, err))
		r.Summary = append(r.Summary, fmt.Sprintf("%s: indicator error", sym))
		r.Passed = false
		return
	}

	last := snaps[len(snaps)-1]
	px := bars[len(bars)-1].Close
	riskBudget := float64(a.cfg.Risk.PerTradeBps) / 1e4 * equityRef

	qty, err := sizing.Size(riskBudget, last.StopDistance, px, lim)
	switch {
	case errors.Is(err, sizing.ErrInvalidStop):
		r.mark(markErr, fmt.Sprintf("%s: NOT tradable — stop distance not positive.", sym))
		r.Summary = append(r.Summary, fmt.Sprintf("%s: NOT tradable (stop distance <= 0)", sym))
		r.Passed = false
		return
	case errors.Is(err, sizing.ErrBelowTradableFloor):
		r.mark(markErr, fmt.Sprintf("%s: NOT tradable — notional below the 1 %s floor.", sym, a.cfg.QuoteCurrency))
		r.Summary = append(r.Summary, fmt.Sprintf("%s: NOT tradable (below tradable floor)", sym))
		r.Passed = false
		return
	case err != nil:
		r.mark(markErr, fmt.Sprintf("%s: sizing error — %v", sym, err))
		r.Summary = append(r.Summary, fmt.Sprintf("%s: sizing error", sym))
		r.Passed = false
		return
	}

	// A raw size under the venue minimums means the minimums would force
	// more risk than budgeted, so the symbol is flagged non-tradable.
	rawQty := riskBudget / last.StopDistance
	var reasons []string
	if lim.MinNotional != nil && rawQty*px < *lim.MinNotional {
		reasons = append(reasons, fmt.Sprintf("notional %.2f < min_notional %.2f", rawQty*px, *lim.MinNotional))
	}
	if lim.MinQuantity != nil && rawQty < *lim.MinQuantity {
		reasons = append(reasons, fmt.Sprintf("qty %.8f < min_qty %.8f", rawQty, *lim.MinQuantity))
	}
	if len(reasons) > 0 {
		r.mark(markErr, fmt.Sprintf("%s: NOT tradable — %s.", sym, strings.Join(reasons, ", ")))
		r.Summary = append(r.Summary, fmt.Sprintf("%s: NOT tradable (%s)", sym, strings.Join(reasons, "; ")))
		r.Passed = false
		return
	}

	r.mark(markOK, fmt.Sprintf("%s: tradable. qty≈%.8f, notional≈%.2f %s, stop≈%.2f.", sym, qty, qty*px, a.cfg.QuoteCurrency, last.StopDistance))
	r.Summary = append(r.Summary, fmt.Sprintf("%s: tradable qty≈%.6f, notional≈%.2f %s", sym, qty, qty*px, a.cfg.QuoteCurrency))
}

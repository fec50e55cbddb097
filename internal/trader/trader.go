package trader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"TrendWarden/internal/config"
	"TrendWarden/internal/exchange"
	"TrendWarden/internal/fills"
	"TrendWarden/internal/indicator"
	"TrendWarden/internal/model"
	"TrendWarden/internal/notifier"
	"TrendWarden/internal/recorder"
	"TrendWarden/internal/risk"
	"TrendWarden/internal/sizing"
)

// seriesLimit is how many bars are fetched per symbol per cycle.
const seriesLimit = 300

// Trader evaluates all configured symbols once per run, moving each
// symbol's position between FLAT and LONG and mutating the persisted state.
type Trader struct {
	cfg     *config.Config
	ex      exchange.Exchange
	gov     *risk.Governor
	fillLog *fills.Log
	sink    notifier.Sink
	rec     recorder.Recorder
	now     func() time.Time
}

// New creates a Trader.
func New(cfg *config.Config, ex exchange.Exchange, gov *risk.Governor, fillLog *fills.Log, sink notifier.Sink, rec recorder.Recorder) *Trader {
	return &Trader{
		cfg:     cfg,
		ex:      ex,
		gov:     gov,
		fillLog: fillLog,
		sink:    sink,
		rec:     rec,
		now:     time.Now,
	}
}

// Run executes one evaluation pass over the configured symbols, mutating
// st in place. Per-symbol failures are isolated; only market-listing
// failures are fatal to the run.
func (t *Trader) Run(ctx context.Context, st *model.BotState) error {
	now := t.now()
	risk.ResetIfNewDay(&st.Today, now)

	gateRef := t.cfg.Paper.StartCash
	if st.Equity != nil {
		gateRef = *st.Equity
	}
	if !t.gov.Allowed(st.Today, gateRef) {
		log.Printf("[WARN] daily loss limit hit (day pnl %.2f, equity ref %.2f), skipping run", st.Today.PnL, gateRef)
		return nil
	}
	if !t.gov.InSession(now) {
		log.Printf("[INFO] outside trading session window (utc hour %d), skipping run", now.UTC().Hour())
		return nil
	}

	markets, err := t.ex.ListMarkets(ctx)
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}

	equityRef := t.equityRef(ctx, st)
	prices := make(map[string]float64, len(t.cfg.Symbols))
	var analysis []string

	for _, symbol := range t.cfg.Symbols {
		if err := t.evalSymbol(ctx, st, symbol, markets, equityRef, prices, &analysis); err != nil {
			log.Printf("[WARN] %s: %v", symbol, err)
		}
	}

	t.recomputeEquity(ctx, st, prices)

	if len(analysis) > 0 {
		t.sink.Notify(ctx, notifier.FormatAnalysis(analysis))
	}
	if st.Equity != nil {
		log.Printf("[INFO] %s", notifier.FormatRunSummary(*st.Equity, t.cfg.QuoteCurrency, st.Today))
		cash := 0.0
		if st.Cash != nil {
			cash = *st.Cash
		}
		if err := t.rec.RecordRun(&recorder.RunSnapshot{
			Equity:  *st.Equity,
			Cash:    cash,
			DayPnL:  st.Today.PnL,
			Trades:  st.Today.Trades,
			Symbols: len(t.cfg.Symbols),
		}); err != nil {
			log.Printf("[ERROR] record run: %v", err)
		}
	}
	return nil
}

// equityRef resolves the sizing basis: last run's equity, else the live
// quote balance, else the configured paper starting cash.
func (t *Trader) equityRef(ctx context.Context, st *model.BotState) float64 {
	if st.Equity != nil {
		return *st.Equity
	}
	bal, err := t.ex.FetchBalance(ctx, t.cfg.QuoteCurrency)
	if err != nil {
		log.Printf("[WARN] balance fetch for risk budget: %v", err)
		return t.cfg.Paper.StartCash
	}
	if bal <= 0 {
		return t.cfg.Paper.StartCash
	}
	return bal
}

func (t *Trader) evalSymbol(ctx context.Context, st *model.BotState, symbol string, markets map[string]model.MarketLimits, equityRef float64, prices map[string]float64, analysis *[]string) error {
	lim, ok := markets[symbol]
	if !ok {
		log.Printf("[WARN] %s not listed on %s, skipping", symbol, t.ex.Name())
		return nil
	}

	bars, err := t.ex.FetchSeries(ctx, symbol, t.cfg.Timeframe, seriesLimit)
	if err != nil {
		return fmt.Errorf("fetch series: %w", err)
	}
	snaps, err := indicator.Compute(bars, indicator.Params{
		FastPeriod: t.cfg.Strategy.EMAFast,
		SlowPeriod: t.cfg.Strategy.EMASlow,
		VolPeriod:  t.cfg.Strategy.ATRPeriod,
		VolMult:    t.cfg.Strategy.ATRMult,
	})
	if err != nil {
		return err
	}

	bar := bars[len(bars)-1]
	last := snaps[len(snaps)-1]
	prices[symbol] = bar.Close
	*analysis = append(*analysis, notifier.FormatAnalysisLine(symbol, bar.Close, last))

	if t.cfg.AnalysisOnly {
		return nil
	}

	pos := st.Positions[symbol]
	wasOpen := pos.Open()

	if wasOpen {
		reason := ""
		switch {
		case bar.Low <= pos.Stop:
			// Intrabar stop breach takes priority over the signal exit.
			reason = "stop"
		case last.ExitLong:
			reason = "signal_exit"
		}
		if reason != "" {
			if err := t.exit(ctx, st, symbol, pos, bar.Close, reason); err != nil {
				return err // position untouched, retried next cycle
			}
		}
	}

	// Entry requires the symbol flat at cycle start: an exit this cycle
	// does not free the slot until the next run.
	if !wasOpen && last.EnterLong {
		if err := t.enter(ctx, st, symbol, bar.Close, last.StopDistance, lim, equityRef); err != nil {
			if errors.Is(err, sizing.ErrInvalidStop) || errors.Is(err, sizing.ErrBelowTradableFloor) {
				log.Printf("[INFO] %s: entry skipped: %v", symbol, err)
				return nil
			}
			return err
		}
	}
	return nil
}

func (t *Trader) enter(ctx context.Context, st *model.BotState, symbol string, px, stopDist float64, lim model.MarketLimits, equityRef float64) error {
	riskBudget := float64(t.cfg.Risk.PerTradeBps) / 1e4 * equityRef
	qty, err := sizing.Size(riskBudget, stopDist, px, lim)
	if err != nil {
		return err
	}

	fill, err := t.ex.PlaceMarketOrder(ctx, symbol, exchange.SideBuy, qty)
	if err != nil {
		// Attempt abandoned for this cycle; nothing is recorded.
		return fmt.Errorf("entry order: %w", err)
	}
	fillPx := fill.Price
	if fillPx <= 0 {
		fillPx = px
	}
	fillQty := fill.Qty
	if fillQty <= 0 {
		fillQty = qty
	}

	pos := model.Position{
		Qty:   fillQty,
		Entry: fillPx,
		// The stop sits the signal-time distance below the realized fill.
		Stop:   fillPx - stopDist,
		Risked: riskBudget,
	}
	st.Positions[symbol] = pos

	note := fmt.Sprintf("stop=%.2f", pos.Stop)
	t.logFill(model.Fill{Time: t.now(), Symbol: symbol, Action: model.ActionEntry, Qty: pos.Qty, Price: pos.Entry, Note: note})
	t.record(&recorder.FillEvent{Symbol: symbol, Action: string(model.ActionEntry), Qty: pos.Qty, Price: pos.Entry, Note: note})
	t.sink.Notify(ctx, notifier.FormatEntry(symbol, pos, t.cfg.QuoteCurrency))
	log.Printf("[INFO] ENTRY %s qty=%.6f @ %.2f stop=%.2f", symbol, pos.Qty, pos.Entry, pos.Stop)
	return nil
}

func (t *Trader) exit(ctx context.Context, st *model.BotState, symbol string, pos model.Position, px float64, reason string) error {
	fill, err := t.ex.PlaceMarketOrder(ctx, symbol, exchange.SideSell, pos.Qty)
	if err != nil {
		return fmt.Errorf("exit order: %w", err)
	}
	fillPx := fill.Price
	if fillPx <= 0 {
		fillPx = px
	}
	fillQty := fill.Qty
	if fillQty <= 0 {
		fillQty = pos.Qty
	}

	pnl := (fillPx - pos.Entry) * fillQty
	risk.RecordExit(&st.Today, pnl)
	st.Positions[symbol] = model.Position{}

	t.logFill(model.Fill{Time: t.now(), Symbol: symbol, Action: model.ActionExit, Qty: fillQty, Price: fillPx, Note: reason, PnL: &pnl})
	t.record(&recorder.FillEvent{Symbol: symbol, Action: string(model.ActionExit), Qty: fillQty, Price: fillPx, Note: reason, PnL: pnl})
	t.sink.Notify(ctx, notifier.FormatExit(symbol, fillPx, pnl, reason, t.cfg.QuoteCurrency))
	log.Printf("[INFO] EXIT %s qty=%.6f @ %.2f reason=%s pnl=%.2f", symbol, fillQty, fillPx, reason, pnl)
	return nil
}

// recomputeEquity refreshes cash and total equity after all symbol
// decisions: quote balance plus each base balance at the last seen price.
// Symbols whose fetch failed this run contribute price 0.
func (t *Trader) recomputeEquity(ctx context.Context, st *model.BotState, prices map[string]float64) {
	cash, err := t.ex.FetchBalance(ctx, t.cfg.QuoteCurrency)
	if err != nil {
		log.Printf("[ERROR] equity recompute: fetch %s balance: %v", t.cfg.QuoteCurrency, err)
		return
	}
	eq := cash
	for _, symbol := range t.cfg.Symbols {
		base := symbol
		if i := strings.Index(symbol, "/"); i > 0 {
			base = symbol[:i]
		}
		qty, err := t.ex.FetchBalance(ctx, base)
		if err != nil {
			log.Printf("[WARN] equity recompute: fetch %s balance: %v", base, err)
			continue
		}
		eq += qty * prices[symbol]
	}
	st.Cash = &cash
	st.Equity = &eq
}

func (t *Trader) logFill(f model.Fill) {
	if err := t.fillLog.Append(f); err != nil {
		log.Printf("[ERROR] append fill log: %v", err)
	}
}

func (t *Trader) record(evt *recorder.FillEvent) {
	if err := t.rec.RecordFill(evt); err != nil {
		log.Printf("[ERROR] record fill: %v", err)
	}
}

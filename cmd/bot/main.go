package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"TrendWarden/internal/config"
	"TrendWarden/internal/exchange"
	"TrendWarden/internal/fills"
	"TrendWarden/internal/notifier"
	"TrendWarden/internal/recorder"
	"TrendWarden/internal/risk"
	"TrendWarden/internal/store"
	"TrendWarden/internal/trader"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] TrendWarden starting...")

	// Load .env without overriding existing env
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("[WARN] load .env: %v", err)
		}
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	kraken := exchange.NewKraken(cfg.Kraken.BaseURL, cfg.Kraken.APIKey, cfg.Kraken.APISecret, cfg.Proxy)
	sink := notifier.FromConfig(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	gov := risk.NewGovernor(cfg.Risk.MaxDailyDrawdownBps, cfg.Risk.SessionStartHour, cfg.Risk.SessionEndHour)

	fillLog, err := fills.NewLog(cfg.FillLog, cfg.Timezone)
	if err != nil {
		log.Fatalf("[FATAL] init fill log: %v", err)
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	st := store.New(cfg.StateFile)
	lockPath := cfg.StateFile + ".lock"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One full pass: lock, read state, trade, write state.
	runOnce := func() {
		release, err := store.AcquireLock(lockPath)
		if err != nil {
			log.Printf("[WARN] %v, skipping run", err)
			return
		}
		defer release()

		state, err := st.Load()
		if err != nil {
			log.Printf("[ERROR] load state: %v", err)
			return
		}

		ex := exchange.Exchange(kraken)
		if cfg.Paper.Enabled {
			cash := cfg.Paper.StartCash
			if state.Cash != nil {
				cash = *state.Cash
			}
			paper := exchange.NewPaperBroker(kraken, cfg.QuoteCurrency, cash, cfg.Paper.FeeBps, cfg.Paper.SlippageBps)
			for sym, pos := range state.Positions {
				if pos.Open() {
					paper.SeedHolding(sym, pos.Qty)
				}
			}
			ex = paper
		}
		ex = exchange.NewInstrumented(ex)

		tr := trader.New(cfg, ex, gov, fillLog, sink, rec)
		if err := tr.Run(ctx, state); err != nil {
			log.Printf("[ERROR] run aborted: %v", err)
			return
		}
		if err := st.Save(state); err != nil {
			log.Printf("[ERROR] save state: %v", err)
		}
	}

	mode := "paper"
	if !cfg.Paper.Enabled {
		mode = "live"
	}
	if cfg.AnalysisOnly {
		mode += " (analysis only)"
	}
	log.Printf("[INFO] mode: %s, symbols: %v, timeframe: %s", mode, cfg.Symbols, cfg.Timeframe)

	// Default is one run per invocation; a schedule turns the bot into a daemon.
	if cfg.Schedule == "" {
		runOnce()
		log.Println("[INFO] TrendWarden run complete")
		return
	}

	if cfg.MetricsListen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("[INFO] metrics listening on %s", cfg.MetricsListen)
			if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
				log.Printf("[ERROR] metrics listener: %v", err)
			}
		}()
	}

	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(cfg.Schedule, runOnce); err != nil {
		log.Fatalf("[FATAL] register schedule %q: %v", cfg.Schedule, err)
	}
	c.Start()
	defer c.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing run now")
		go runOnce()
	}

	log.Println("[INFO] TrendWarden is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] TrendWarden stopped")
}

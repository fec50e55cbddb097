package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"TrendWarden/internal/audit"
	"TrendWarden/internal/config"
	"TrendWarden/internal/exchange"
	"TrendWarden/internal/notifier"
)

// Exit codes: 0 pass, 1 hard API/credential failure, 2 symbol or balance
// check failed.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] pre-flight audit starting...")

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

	kraken := exchange.NewKraken(cfg.Kraken.BaseURL, cfg.Kraken.APIKey, cfg.Kraken.APISecret, cfg.Proxy)
	sink := notifier.FromConfig(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	ctx := context.Background()
	auditor := audit.New(cfg, kraken)
	report, runErr := auditor.Run(ctx)

	if err := os.WriteFile(cfg.AuditReport, []byte(report.Render()), 0o644); err != nil {
		log.Printf("[ERROR] write audit report: %v", err)
	} else {
		log.Printf("[INFO] wrote audit report: %s", cfg.AuditReport)
	}

	ts := report.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC")
	if errors.Is(runErr, audit.ErrAPICheck) {
		sink.Notify(ctx, "❌ Audit failed: API credentials invalid or insufficient permissions.")
		log.Println("[ERROR] API credential check failed")
		os.Exit(1)
	}
	sink.Notify(ctx, notifier.FormatAuditSummary(report.Passed, ts, report.Summary, 6))

	if !report.Passed {
		log.Println("[WARN] audit finished: FAIL")
		os.Exit(2)
	}
	log.Println("[INFO] audit finished: PASS")
}

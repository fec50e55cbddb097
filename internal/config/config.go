package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbols   []string `yaml:"symbols"`
	Timeframe string   `yaml:"timeframe"`
	Strategy  struct {
		EMAFast   int     `yaml:"ema_fast"`
		EMASlow   int     `yaml:"ema_slow"`
		ATRPeriod int     `yaml:"atr_period"`
		ATRMult   float64 `yaml:"atr_mult"`
	} `yaml:"strategy"`
	Risk struct {
		PerTradeBps         int `yaml:"per_trade_bps"`
		MaxDailyDrawdownBps int `yaml:"max_daily_drawdown_bps"`
		SessionStartHour    int `yaml:"session_start_hour"`
		SessionEndHour      int `yaml:"session_end_hour"`
	} `yaml:"risk"`
	Paper struct {
		Enabled     bool    `yaml:"enabled"`
		StartCash   float64 `yaml:"start_cash"`
		FeeBps      int     `yaml:"fee_bps"`
		SlippageBps int     `yaml:"slippage_bps"`
	} `yaml:"paper"`
	Kraken struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"-"`
		APISecret string `yaml:"-"`
	} `yaml:"kraken"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	QuoteCurrency string `yaml:"quote_currency"`
	AnalysisOnly  bool   `yaml:"analysis_only"`
	Timezone      string `yaml:"timezone"`
	Schedule      string `yaml:"schedule"`
	MetricsListen string `yaml:"metrics_listen"`
	StateFile     string `yaml:"state_file"`
	FillLog       string `yaml:"fill_log"`
	AuditReport   string `yaml:"audit_report"`
	Proxy         string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides (secrets are env-only)
	cfg.Kraken.APIKey = os.Getenv("KRAKEN_API_KEY")
	cfg.Kraken.APISecret = os.Getenv("KRAKEN_API_SECRET")
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("PAPER_TRADING"); v != "" {
		cfg.Paper.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("ANALYSIS_ONLY"); v != "" {
		cfg.AnalysisOnly = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("BASE_CCY"); v != "" {
		cfg.QuoteCurrency = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"XBT/EUR", "ETH/EUR"}
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = "5m"
	}
	if cfg.Strategy.EMAFast == 0 {
		cfg.Strategy.EMAFast = 20
	}
	if cfg.Strategy.EMASlow == 0 {
		cfg.Strategy.EMASlow = 50
	}
	if cfg.Strategy.ATRPeriod == 0 {
		cfg.Strategy.ATRPeriod = 14
	}
	if cfg.Strategy.ATRMult == 0 {
		cfg.Strategy.ATRMult = 2.5
	}
	if cfg.Risk.PerTradeBps == 0 {
		cfg.Risk.PerTradeBps = 25
	}
	if cfg.Risk.MaxDailyDrawdownBps == 0 {
		cfg.Risk.MaxDailyDrawdownBps = 100
	}
	if cfg.Risk.SessionEndHour == 0 {
		cfg.Risk.SessionEndHour = 24
	}
	if cfg.Paper.StartCash == 0 {
		cfg.Paper.StartCash = 100
	}
	if cfg.Paper.FeeBps == 0 {
		cfg.Paper.FeeBps = 26
	}
	if cfg.Paper.SlippageBps == 0 {
		cfg.Paper.SlippageBps = 5
	}
	if cfg.QuoteCurrency == "" {
		cfg.QuoteCurrency = "EUR"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "data/state.json"
	}
	if cfg.FillLog == "" {
		cfg.FillLog = "data/fills.csv"
	}
	if cfg.AuditReport == "" {
		cfg.AuditReport = "audit_report.md"
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	for _, s := range c.Symbols {
		if !strings.Contains(s, "/") {
			return fmt.Errorf("symbol %q must be BASE/QUOTE (e.g. XBT/EUR)", s)
		}
	}
	if c.Strategy.EMAFast <= 0 || c.Strategy.EMASlow <= 0 {
		return fmt.Errorf("strategy.ema_fast and strategy.ema_slow must be positive")
	}
	if c.Strategy.EMAFast >= c.Strategy.EMASlow {
		return fmt.Errorf("strategy.ema_fast must be shorter than strategy.ema_slow")
	}
	if c.Strategy.ATRPeriod <= 0 {
		return fmt.Errorf("strategy.atr_period must be positive")
	}
	if c.Strategy.ATRMult < 0 {
		return fmt.Errorf("strategy.atr_mult must not be negative")
	}
	if c.Risk.PerTradeBps <= 0 {
		return fmt.Errorf("risk.per_trade_bps must be positive")
	}
	if c.Risk.MaxDailyDrawdownBps <= 0 {
		return fmt.Errorf("risk.max_daily_drawdown_bps must be positive")
	}
	if c.Risk.SessionStartHour < 0 || c.Risk.SessionEndHour > 24 ||
		c.Risk.SessionStartHour >= c.Risk.SessionEndHour {
		return fmt.Errorf("risk session window must satisfy 0 <= start < end <= 24")
	}
	if !c.Paper.Enabled && (c.Kraken.APIKey == "" || c.Kraken.APISecret == "") {
		return fmt.Errorf("live trading requires KRAKEN_API_KEY and KRAKEN_API_SECRET")
	}
	return nil
}

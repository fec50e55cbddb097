package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"TrendWarden/internal/model"
)

const defaultKrakenURL = "https://api.kraken.com"

// minRequestGap spaces REST calls so the public rate limiter is never hit.
const minRequestGap = 500 * time.Millisecond

// Kraken implements Exchange against the Kraken spot REST API.
type Kraken struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Client    *http.Client

	mu       sync.Mutex
	lastCall time.Time
	nonce    int64
}

// NewKraken creates a Kraken client with optional proxy support. Key and
// secret may be empty for public-only use (paper mode data source).
func NewKraken(baseURL, apiKey, apiSecret, proxyURL string) *Kraken {
	if baseURL == "" {
		baseURL = defaultKrakenURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Kraken{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (k *Kraken) Name() string { return "kraken" }

// krakenEnvelope is the uniform response wrapper of the Kraken API.
type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (k *Kraken) FetchSeries(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	interval, err := timeframeMinutes(timeframe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	params := url.Values{}
	params.Set("pair", pairCode(symbol))
	params.Set("interval", strconv.Itoa(interval))

	raw, err := k.public(ctx, "/0/public/OHLC", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: decode ohlc: %v", ErrDataUnavailable, err)
	}

	var rows [][]any
	for key, v := range result {
		if key == "last" {
			continue
		}
		if err := json.Unmarshal(v, &rows); err != nil {
			return nil, fmt.Errorf("%w: decode ohlc rows: %v", ErrDataUnavailable, err)
		}
		break
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no ohlc data for %s", ErrDataUnavailable, symbol)
	}

	bars := make([]model.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(int64(toFloat(row[0])), 0).UTC(),
			Open:   toFloat(row[1]),
			High:   toFloat(row[2]),
			Low:    toFloat(row[3]),
			Close:  toFloat(row[4]),
			Volume: toFloat(row[6]),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

func (k *Kraken) ListMarkets(ctx context.Context) (map[string]model.MarketLimits, error) {
	raw, err := k.public(ctx, "/0/public/AssetPairs", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var pairs map[string]struct {
		Wsname   string `json:"wsname"`
		OrderMin string `json:"ordermin"`
		CostMin  string `json:"costmin"`
	}
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("%w: decode asset pairs: %v", ErrDataUnavailable, err)
	}

	markets := make(map[string]model.MarketLimits, len(pairs))
	for _, p := range pairs {
		if p.Wsname == "" {
			continue
		}
		var lim model.MarketLimits
		if v, err := strconv.ParseFloat(p.OrderMin, 64); err == nil && v > 0 {
			lim.MinQuantity = &v
		}
		if v, err := strconv.ParseFloat(p.CostMin, 64); err == nil && v > 0 {
			lim.MinNotional = &v
		}
		markets[p.Wsname] = lim
	}
	return markets, nil
}

func (k *Kraken) FetchBalance(ctx context.Context, currency string) (float64, error) {
	raw, err := k.private(ctx, "/0/private/Balance", url.Values{})
	if err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	var balances map[string]string
	if err := json.Unmarshal(raw, &balances); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	// Kraken prefixes fiat with Z and crypto with X (e.g. ZEUR, XXBT).
	for _, key := range []string{currency, "Z" + currency, "X" + currency} {
		if v, ok := balances[key]; ok {
			amount, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0, fmt.Errorf("parse balance %s: %w", key, err)
			}
			return amount, nil
		}
	}
	return 0, nil
}

func (k *Kraken) PlaceMarketOrder(ctx context.Context, symbol string, side Side, qty float64) (Fill, error) {
	params := url.Values{}
	params.Set("pair", pairCode(symbol))
	params.Set("type", string(side))
	params.Set("ordertype", "market")
	params.Set("volume", strconv.FormatFloat(qty, 'f', -1, 64))

	raw, err := k.private(ctx, "/0/private/AddOrder", params)
	if err != nil {
		return Fill{}, fmt.Errorf("%w: %v", ErrOrderRejected, err)
	}
	var result struct {
		Txid []string `json:"txid"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return Fill{}, fmt.Errorf("%w: decode order: %v", ErrOrderRejected, err)
	}
	if len(result.Txid) == 0 {
		return Fill{}, fmt.Errorf("%w: no transaction id returned", ErrOrderRejected)
	}
	// AddOrder does not report an average fill price; the caller falls
	// back to the signal price.
	return Fill{Qty: qty}, nil
}

// TakerFeeBps returns the account's taker fee for a pair in basis points.
// It is consumed best-effort by the pre-flight auditor.
func (k *Kraken) TakerFeeBps(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("pair", pairCode(symbol))
	raw, err := k.private(ctx, "/0/private/TradeVolume", params)
	if err != nil {
		return 0, fmt.Errorf("fetch trade volume: %w", err)
	}
	var result struct {
		Fees map[string]struct {
			Fee string `json:"fee"`
		} `json:"fees"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, fmt.Errorf("decode trade volume: %w", err)
	}
	for _, f := range result.Fees {
		pct, err := strconv.ParseFloat(f.Fee, 64)
		if err != nil {
			return 0, fmt.Errorf("parse fee: %w", err)
		}
		return pct * 100, nil
	}
	return 0, fmt.Errorf("no fee tier in response")
}

func (k *Kraken) public(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	k.throttle()
	endpoint := k.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return k.do(req)
}

func (k *Kraken) private(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if k.APIKey == "" || k.APISecret == "" {
		return nil, fmt.Errorf("api credentials not configured")
	}
	k.throttle()

	nonce := k.nextNonce()
	params.Set("nonce", strconv.FormatInt(nonce, 10))
	body := params.Encode()

	sig, err := k.sign(path, strconv.FormatInt(nonce, 10), body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.BaseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("API-Key", k.APIKey)
	req.Header.Set("API-Sign", sig)
	return k.do(req)
}

func (k *Kraken) do(req *http.Request) (json.RawMessage, error) {
	resp, err := k.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	var env krakenEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(env.Error) > 0 {
		return nil, fmt.Errorf("kraken api error: %s", strings.Join(env.Error, "; "))
	}
	return env.Result, nil
}

// sign computes API-Sign: HMAC-SHA512 of path + SHA256(nonce + postdata)
// keyed with the base64-decoded secret.
func (k *Kraken) sign(path, nonce, body string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(k.APISecret)
	if err != nil {
		return "", fmt.Errorf("decode api secret: %w", err)
	}
	digest := sha256.Sum256([]byte(nonce + body))
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (k *Kraken) nextNonce() int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := time.Now().UnixMilli()
	if n <= k.nonce {
		n = k.nonce + 1
	}
	k.nonce = n
	return n
}

func (k *Kraken) throttle() {
	k.mu.Lock()
	wait := minRequestGap - time.Since(k.lastCall)
	k.lastCall = time.Now().Add(wait)
	k.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}
}

// pairCode converts a BASE/QUOTE symbol to Kraken's request form (XBTEUR).
func pairCode(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

// timeframeMinutes parses timeframe strings like 1m, 5m, 1h, 4h, 1d.
func timeframeMinutes(tf string) (int, error) {
	if len(tf) < 2 {
		return 0, fmt.Errorf("bad timeframe %q", tf)
	}
	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad timeframe %q", tf)
	}
	switch tf[len(tf)-1] {
	case 'm':
		return n, nil
	case 'h':
		return n * 60, nil
	case 'd':
		return n * 1440, nil
	}
	return 0, fmt.Errorf("bad timeframe %q", tf)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

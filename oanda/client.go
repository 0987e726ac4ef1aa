// Package oanda fetches historical candles from the OANDA v20 REST API and
// serves them as a market.BarSource.
package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/propfirm/market"
)

const (
	// PracticeURL is the URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"

	// MaxCount is the most candles one request may ask for.
	MaxCount = 5000
)

// PriceComponent represents the price component for candles
type PriceComponent string

const (
	MidPrice PriceComponent = "M"
	BidPrice PriceComponent = "B"
	AskPrice PriceComponent = "A"
)

// APIError is a non-200 answer from the API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("oanda: http %d: %s", e.Status, e.Body)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the practice or live environment.
func NewClient(token string, practice bool) *Client {
	baseURL := LiveURL
	if practice {
		baseURL = PracticeURL
	}
	return New(baseURL, token, nil)
}

// New creates a client for baseURL. A nil hc gets a 30 second timeout.
func New(baseURL, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: hc,
	}
}

// CandlesRequest represents parameters for fetching historical candles
type CandlesRequest struct {
	Instrument  string
	Price       PriceComponent   // default MidPrice
	Granularity market.Timeframe // default Daily
	Count       int              // mutually exclusive with From/To
	From        time.Time
	To          time.Time
}

type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type apiCandle struct {
	Complete bool        `json:"complete"`
	Volume   int         `json:"volume"`
	Time     string      `json:"time"`
	Mid      *candleData `json:"mid,omitempty"`
	Bid      *candleData `json:"bid,omitempty"`
	Ask      *candleData `json:"ask,omitempty"`
}

type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// Bars implements market.BarSource. It returns the last count complete
// candles, aligned to UTC midnight and Monday weeks.
func (c *Client) Bars(ctx context.Context, instrument string, tf market.Timeframe, count int) ([]market.Bar, error) {
	bars, err := c.Candles(ctx, CandlesRequest{
		Instrument:  instrument,
		Granularity: tf,
		Count:       min(max(count, 1), MaxCount),
	})
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %s: %w", instrument, tf, market.ErrNoData)
	}
	return bars, nil
}

// Candles fetches complete candles. Incomplete candles are skipped.
func (c *Client) Candles(ctx context.Context, req CandlesRequest) ([]market.Bar, error) {
	if req.Instrument == "" {
		return nil, fmt.Errorf("oanda: instrument is required")
	}
	if c.token == "" {
		return nil, fmt.Errorf("oanda: missing token")
	}
	if req.Price == "" {
		req.Price = MidPrice
	}
	if req.Granularity == "" {
		req.Granularity = market.Daily
	}

	params := url.Values{}
	params.Set("price", string(req.Price))
	params.Set("granularity", string(req.Granularity))
	params.Set("alignmentTimezone", "UTC")
	params.Set("dailyAlignment", "0")
	params.Set("weeklyAlignment", "Monday")

	if req.Count > 0 {
		if req.Count > MaxCount {
			return nil, fmt.Errorf("oanda: count cannot exceed %d", MaxCount)
		}
		params.Set("count", strconv.Itoa(req.Count))
	} else {
		if !req.From.IsZero() {
			params.Set("from", req.From.UTC().Format(time.RFC3339))
		}
		if !req.To.IsZero() {
			params.Set("to", req.To.UTC().Format(time.RFC3339))
		}
	}

	apiURL := fmt.Sprintf("%s/v3/instruments/%s/candles?%s", c.baseURL, url.PathEscape(req.Instrument), params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept-Datetime-Format", "RFC3339")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("oanda candles %s: %w", req.Instrument, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var apiResp candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	bars := make([]market.Bar, 0, len(apiResp.Candles))
	for _, ac := range apiResp.Candles {
		if !ac.Complete {
			continue
		}
		bar, err := toBar(ac, req.Price)
		if err != nil {
			return nil, fmt.Errorf("%s candle %s: %w", req.Instrument, ac.Time, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func toBar(ac apiCandle, price PriceComponent) (market.Bar, error) {
	t, err := time.Parse(time.RFC3339Nano, ac.Time)
	if err != nil {
		return market.Bar{}, fmt.Errorf("parse time: %w", err)
	}

	data := ac.Mid
	switch price {
	case BidPrice:
		data = ac.Bid
	case AskPrice:
		data = ac.Ask
	}
	if data == nil {
		return market.Bar{}, fmt.Errorf("no %s prices", price)
	}

	var ohlc [4]float64
	for i, s := range []string{data.O, data.H, data.L, data.C} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("parse price %q: %w", s, err)
		}
		ohlc[i] = v
	}
	return market.Bar{
		Time:   t.UTC(),
		Open:   ohlc[0],
		High:   ohlc[1],
		Low:    ohlc[2],
		Close:  ohlc[3],
		Volume: float64(ac.Volume),
	}, nil
}

var _ market.BarSource = (*Client)(nil)

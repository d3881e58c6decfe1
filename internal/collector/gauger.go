package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"PercentileBoard/internal/model"
)

// GaugerFetcher implements Fetcher against the percentile REST service.
type GaugerFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewGaugerFetcher creates a new fetcher with optional proxy support.
func NewGaugerFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *GaugerFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GaugerFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *GaugerFetcher) Name() string { return "gauger" }

// percentileResponse is the JSON shape returned by the service: two parallel
// arrays aligned by index, oldest first.
type percentileResponse struct {
	Date       []json.RawMessage `json:"date"`
	Percentile []*float64        `json:"price_ratio_percentile"`
}

func (f *GaugerFetcher) FetchSeries(ctx context.Context, inst model.Instrument, window model.WindowSize) (*model.Series, error) {
	q := url.Values{}
	q.Set("ticker", string(inst))
	q.Set("window", strconv.Itoa(int(window)))
	endpoint := fmt.Sprintf("%s/percentile?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch percentile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch percentile: status %d, body: %s", resp.StatusCode, string(body))
	}

	var pr percentileResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode percentile: %w", err)
	}
	return toSeries(inst, window, &pr)
}

func toSeries(inst model.Instrument, window model.WindowSize, pr *percentileResponse) (*model.Series, error) {
	if len(pr.Date) != len(pr.Percentile) {
		return nil, fmt.Errorf("decode percentile: %d dates but %d values", len(pr.Date), len(pr.Percentile))
	}
	series := &model.Series{
		Instrument: inst,
		Window:     window,
		Points:     make([]model.Point, 0, len(pr.Date)),
	}
	for i, raw := range pr.Date {
		if pr.Percentile[i] == nil {
			continue // warm-up rows before the moving average is defined
		}
		date, err := decodeDate(raw)
		if err != nil {
			return nil, fmt.Errorf("decode date %d: %w", i, err)
		}
		series.Points = append(series.Points, model.Point{Date: date, Value: *pr.Percentile[i]})
	}
	return series, nil
}

// decodeDate keeps dates in their textual form; rows are matched on exact
// equality so no reformatting happens here. Numeric dates (epoch values) are
// kept as their literal digits.
func decodeDate(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return "", fmt.Errorf("unsupported date %s", string(raw))
	}
	return n.String(), nil
}

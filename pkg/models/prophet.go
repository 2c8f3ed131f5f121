package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const dayLayout = "2006-01-02"

// ProphetModel delegates seasonal forecasting to an external HTTP service
// running an additive trend + seasonality model (Prophet or compatible).
//
// The history is placed on a daily axis ending today and sent with daily,
// weekly and yearly seasonality disabled. The service must answer with
// exactly periods values.
type ProphetModel struct {
	endpoint  string
	healthURL string
	client    *http.Client
	now       func() time.Time
}

type prophetSeasonality struct {
	Daily  bool `json:"daily"`
	Weekly bool `json:"weekly"`
	Yearly bool `json:"yearly"`
}

type prophetFeature struct {
	DS    string  `json:"ds"`
	TS    int64   `json:"ts"`
	Value float64 `json:"value"`
}

type prophetRequest struct {
	Now         string             `json:"now"`
	Periods     int                `json:"periods"`
	StepSeconds int                `json:"stepSeconds"`
	Seasonality prophetSeasonality `json:"seasonality"`
	Features    []prophetFeature   `json:"features"`
	Future      []string           `json:"future"`
}

type prophetResponse struct {
	Values []float64 `json:"values"`
}

// NewProphetModel creates a model backed by the service at endpoint.
// healthURL is probed at startup; when empty, the root of endpoint is used.
// A nil client gets a plain client with a 30s timeout.
func NewProphetModel(endpoint, healthURL string, client *http.Client) *ProphetModel {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if healthURL == "" {
		healthURL = rootURL(endpoint)
	}

	return &ProphetModel{
		endpoint:  endpoint,
		healthURL: healthURL,
		client:    client,
		now:       time.Now,
	}
}

func rootURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	u.Path = "/"
	u.RawQuery = ""
	return u.String()
}

// Name returns the model identifier.
func (m *ProphetModel) Name() string {
	return "prophet"
}

// Probe checks that the remote service answers its health URL with a 2xx.
func (m *ProphetModel) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.healthURL, nil)
	if err != nil {
		return fmt.Errorf("prophet: create probe request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("prophet: probe %s: %w", m.healthURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("prophet: probe %s: http %d", m.healthURL, resp.StatusCode)
	}
	return nil
}

// Predict sends history to the remote service and returns its forecast.
func (m *ProphetModel) Predict(ctx context.Context, history []float64, periods int) ([]float64, error) {
	if len(history) < MinSeasonalPoints {
		return nil, insufficient(MinSeasonalPoints, len(history))
	}
	if periods < 0 {
		return nil, fmt.Errorf("periods must be >= 0, got %d", periods)
	}
	if periods == 0 {
		return []float64{}, nil
	}

	now := m.now()
	days, future := DailyAxis(len(history), periods, now)

	req := prophetRequest{
		Now:         now.UTC().Format(time.RFC3339),
		Periods:     periods,
		StepSeconds: int((24 * time.Hour).Seconds()),
		Features:    make([]prophetFeature, len(history)),
		Future:      make([]string, periods),
	}
	for i, v := range history {
		req.Features[i] = prophetFeature{
			DS:    days[i].Format(dayLayout),
			TS:    days[i].Unix(),
			Value: v,
		}
	}
	for i, d := range future {
		req.Future[i] = d.Format(dayLayout)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("prophet: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("prophet: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("prophet: http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("prophet: http %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var out prophetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("prophet: decode response: %w", err)
	}

	if len(out.Values) != periods {
		return nil, fmt.Errorf("prophet: expected %d predictions, got %d", periods, len(out.Values))
	}

	return out.Values, nil
}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"parking-guide-backend/config"
	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/parse"
)

const (
	pathLots          = "/api/lots/list"
	pathZones         = "/api/zones/list"
	pathZoneInfo      = "/api/zones/%s/info"
	pathPredictLot    = "/api/occupancy/predict-lot"
	pathRecommend     = "/api/parking/recommend"
	pathStatus        = "/api/status"
	pathFeedback      = "/api/feedback/submit"
	pathFeedbackStats = "/api/feedback/stats"

	maxBodyBytes = 4 << 20
)

// Client talks to the prediction backend. It is safe for concurrent use.
type Client struct {
	baseURL       string
	client        *http.Client
	formatter     parse.DatetimeFormatter
	durationHours int
	validate      *validator.Validate
	log           zerolog.Logger
}

// NewClient creates a backend client from configuration.
func NewClient(cfg config.BackendConfig, log zerolog.Logger) (*Client, error) {
	formatter, err := parse.NewDatetimeFormatter(cfg.DatetimeConvention, cfg.Timezone)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warn().Err(err).Str("proxy", cfg.HTTPProxy).Msg("invalid proxy URL, connecting directly")
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		formatter:     formatter,
		durationHours: cfg.DurationHours,
		validate:      validator.New(),
		log:           log,
	}, nil
}

// Formatter returns the datetime formatter applied to every request.
func (c *Client) Formatter() parse.DatetimeFormatter { return c.formatter }

// ListLots fetches the lot catalog.
func (c *Client) ListLots(ctx context.Context) ([]model.LotRecord, error) {
	var resp lotsResponse
	if err := c.do(ctx, http.MethodGet, pathLots, nil, &resp); err != nil {
		return nil, err
	}
	lots := make([]model.LotRecord, 0, len(resp.Lots))
	for _, w := range resp.Lots {
		lots = append(lots, w.toModel())
	}
	return lots, nil
}

// ListZones fetches the zone listing.
func (c *Client) ListZones(ctx context.Context) ([]model.Zone, error) {
	var resp zonesResponse
	if err := c.do(ctx, http.MethodGet, pathZones, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Zones, nil
}

// ZoneInfo fetches the lots belonging to one zone.
func (c *Client) ZoneInfo(ctx context.Context, zone string) (*model.ZoneInfo, error) {
	var info model.ZoneInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(pathZoneInfo, url.PathEscape(zone)), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Predict requests a prediction for key at instant using the endpoint that
// matches the key's kind.
func (c *Client) Predict(ctx context.Context, key model.PredictionKey, at time.Time) (*model.PredictionResult, error) {
	switch key.Kind {
	case model.ByZoneName:
		return c.Recommend(ctx, key.Zone, at, c.durationHours)
	default:
		return c.PredictLot(ctx, key.LotNumber, at, c.durationHours)
	}
}

// PredictLot calls the lot-level prediction endpoint.
func (c *Client) PredictLot(ctx context.Context, lotNumber int, at time.Time, durationHours int) (*model.PredictionResult, error) {
	req := predictLotRequest{
		LotNumber:            lotNumber,
		Datetime:             c.formatter.Format(at),
		ParkingDurationHours: durationHours,
	}
	var resp predictionWire
	if err := c.do(ctx, http.MethodPost, pathPredictLot, req, &resp); err != nil {
		return nil, err
	}
	res := resp.toModel(lotNumber)
	return &res, nil
}

// Recommend calls the zone-level recommendation endpoint.
func (c *Client) Recommend(ctx context.Context, zone string, at time.Time, durationHours int) (*model.PredictionResult, error) {
	req := recommendRequest{
		Zone:          zone,
		Datetime:      c.formatter.Format(at),
		DurationHours: durationHours,
	}
	var resp predictionWire
	if err := c.do(ctx, http.MethodPost, pathRecommend, req, &resp); err != nil {
		return nil, err
	}
	res := resp.toModel(0)
	if res.Zone == "" {
		res.Zone = zone
	}
	return &res, nil
}

// Status reports which backend models are active.
func (c *Client) Status(ctx context.Context) (*model.BackendStatus, error) {
	var status model.BackendStatus
	if err := c.do(ctx, http.MethodGet, pathStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SubmitFeedback forwards user feedback.
func (c *Client) SubmitFeedback(ctx context.Context, fb model.Feedback) (*model.FeedbackAck, error) {
	var ack model.FeedbackAck
	if err := c.do(ctx, http.MethodPost, pathFeedback, fb, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// FeedbackStats fetches aggregate feedback statistics.
func (c *Client) FeedbackStats(ctx context.Context) (*model.FeedbackStats, error) {
	var stats model.FeedbackStats
	if err := c.do(ctx, http.MethodGet, pathFeedbackStats, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request body: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: failed to read response body: %w", endpoint, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: eb.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformed(endpoint, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return malformed(endpoint, err)
	}
	return nil
}

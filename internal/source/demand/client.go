// internal/source/demand/client.go
package demand

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/andresuchdata/demand-planner/internal/config"
	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/source"
)

const dateLayout = "2006-01-02"

// Client fetches historical demand rows from the analytics API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg config.SourcesConfig) *Client {
	timeout := time.Duration(cfg.DemandTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.DemandBaseURL,
		apiKey:     cfg.DemandAPIKey,
	}
}

type demandRow struct {
	SKU       string  `json:"sku"`
	Channel   string  `json:"channel"`
	Country   string  `json:"country"`
	RingBasis string  `json:"ring_basis"`
	Units     float64 `json:"units"`
	Date      string  `json:"date"`
}

type demandResponse struct {
	Rows []demandRow `json:"rows"`
}

// FetchRange returns every demand observation in [start, end], both dates
// inclusive. The request always uses the export mode of the analytics API,
// which streams the full result instead of capping it at the interactive
// row limit.
func (c *Client) FetchRange(ctx context.Context, start, end time.Time) ([]domain.DemandObservation, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid demand source base url: %w", err)
	}
	endpoint = endpoint.JoinPath("v1", "shipments")

	q := endpoint.Query()
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))
	q.Set("mode", "export")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build demand request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch demand rows: %v", source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: demand source returned status %d", source.ErrUnavailable, resp.StatusCode)
	}

	var payload demandResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode demand response: %v", source.ErrUnavailable, err)
	}

	observations := make([]domain.DemandObservation, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		observed, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: demand row has malformed date %q", source.ErrUnavailable, row.Date)
		}
		observations = append(observations, domain.DemandObservation{
			SKU:          row.SKU,
			Channel:      row.Channel,
			Country:      row.Country,
			RingBasis:    row.RingBasis,
			Units:        row.Units,
			ObservedDate: observed,
		})
	}

	return observations, nil
}

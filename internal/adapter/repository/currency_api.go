package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rate-history-service/internal/domain/model"
	"rate-history-service/internal/metrics"
	"rate-history-service/pkg/logger"
)

// CurrencyAPI fetches historical rate snapshots from the @fawazahmed0
// currency-api CDN. Snapshots are addressed by calendar date and lowercase
// base currency; HTTP 404 is the API's documented signal for "no snapshot
// published for this date" and is returned as an unavailable snapshot rather
// than an error.
type CurrencyAPI struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	metrics    *metrics.Metrics
}

func NewCurrencyAPI(baseURL string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *CurrencyAPI {
	return &CurrencyAPI{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:     log,
		metrics: m,
	}
}

func (c *CurrencyAPI) snapshotURL(base model.Currency, date model.DateKey) string {
	return fmt.Sprintf("%s@%s/v1/currencies/%s.json", c.baseURL, date, base.Lower())
}

func (c *CurrencyAPI) currenciesURL() string {
	return fmt.Sprintf("%s@latest/v1/currencies.json", c.baseURL)
}

func (c *CurrencyAPI) FetchSnapshot(ctx context.Context, base model.Currency, date model.DateKey) (*model.RateSnapshot, error) {
	url := c.snapshotURL(base, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.SnapshotFetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.SnapshotFetchesTotal.WithLabelValues("not_found").Inc()
		c.log.Debug("No snapshot published", "base", base, "date", date)
		return model.NewUnavailableSnapshot(base, date), nil
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.SnapshotFetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("rates API returned non-OK status: %d", resp.StatusCode)
	}

	rates, err := decodeSnapshotBody(resp.Body, base)
	if err != nil {
		c.metrics.SnapshotFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	c.metrics.SnapshotFetchesTotal.WithLabelValues("ok").Inc()
	return model.NewRateSnapshot(base, date, rates), nil
}

// decodeSnapshotBody validates the response shape strictly: the body must be
// a JSON object carrying the lowercase base-currency key, mapping to an
// object of code→rate. Anything else is a fetch failure, never a silently
// empty snapshot.
func decodeSnapshotBody(body io.Reader, base model.Currency) (map[model.Currency]float64, error) {
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	raw, ok := payload[base.Lower()]
	if !ok {
		return nil, fmt.Errorf("malformed response: missing %q key", base.Lower())
	}

	var quotes map[string]float64
	if err := json.Unmarshal(raw, &quotes); err != nil {
		return nil, fmt.Errorf("malformed response: rates for %q are not a code-to-number map: %w", base.Lower(), err)
	}

	rates := make(map[model.Currency]float64, len(quotes))
	for code, rate := range quotes {
		rates[model.Currency(code)] = rate
	}

	return rates, nil
}

// FetchCurrencies returns the code→display-name map used by currency pickers.
func (c *CurrencyAPI) FetchCurrencies(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.currenciesURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API returned non-OK status: %d", resp.StatusCode)
	}

	var currencies map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&currencies); err != nil {
		return nil, fmt.Errorf("failed to decode currency list: %w", err)
	}

	return currencies, nil
}

// Package ingestion contains one adapter per upstream hazard feed. Every
// adapter maps its feed onto models.Hazard and reports failures as errors;
// deciding how to degrade is left to the caller.
package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/annwhocodes/ResQMap/internal/models"
)

const (
	SourceEarthquake = "earthquake"
	SourceWeather    = "weather"
	SourceLandslide  = "landslide"
	SourceReports    = "reports"
)

const (
	userAgent       = "resqmap/1.0 (+https://github.com/annwhocodes/ResQMap)"
	maxResponseSize = 8 << 20
)

var ErrNoAPIKey = errors.New("api key not configured")

// Source is a single hazard feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Hazard, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// getJSON performs a GET and decodes a JSON body into out.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10)) //nolint:errcheck // drain for connection reuse
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return nil
}

package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
)

// HTTPLocator resolves the current position from an IP geolocation
// endpoint returning ipapi style JSON.
type HTTPLocator struct {
	url  string
	http *http.Client
}

var _ app.Locator = (*HTTPLocator)(nil)

func NewHTTPLocator(url string, timeout time.Duration) *HTTPLocator {
	return &HTTPLocator{url: url, http: &http.Client{Timeout: timeout}}
}

type geoResponse struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryCode string   `json:"country_code"`
	Country     string   `json:"country"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

func (l *HTTPLocator) Locate(ctx context.Context) (domain.Location, error) {
	if strings.TrimSpace(l.url) == "" {
		return domain.Location{}, fmt.Errorf("locate: %w", domain.ErrUnsupported)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return domain.Location{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := l.http.Do(req)
	if err != nil {
		return domain.Location{}, fmt.Errorf("locate: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return domain.Location{}, fmt.Errorf("locate: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Location{}, fmt.Errorf("locate: %s returned %d", l.url, resp.StatusCode)
	}
	var g geoResponse
	if err := json.Unmarshal(data, &g); err != nil {
		return domain.Location{}, fmt.Errorf("locate: parsing response: %w", err)
	}
	if g.Error {
		return domain.Location{}, fmt.Errorf("locate: %s", firstOf(g.Reason, "lookup failed"))
	}
	if g.Latitude == nil || g.Longitude == nil {
		return domain.Location{}, fmt.Errorf("locate: response has no coordinates")
	}
	return domain.Location{
		Latitude:  *g.Latitude,
		Longitude: *g.Longitude,
		Label:     label(g),
	}, nil
}

func label(g geoResponse) string {
	country := firstOf(g.CountryCode, g.Country)
	switch {
	case g.City != "" && country != "":
		return g.City + ", " + country
	case g.City != "":
		return g.City
	case g.Region != "" && country != "":
		return g.Region + ", " + country
	}
	return country
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

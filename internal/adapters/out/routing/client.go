// Package routing calls the external routing collaborator that tracks rider
// positions and computes road distances.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
)

// Client implements the routing port over the collaborator's HTTP API.
// Any transport or protocol failure unwraps to errs.ErrDependencyUnavailable
// so callers can degrade instead of failing the request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a routing client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("baseURL")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("baseURL", err)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type distanceResponse struct {
	DistanceKm float64 `json:"distance_km"`
}

// DistanceToKm reports the rider's current road distance to the given point.
func (c *Client) DistanceToKm(
	ctx context.Context, riderID kernel.UUID, to kernel.GeoPoint,
) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v1/riders/%s/distance", c.baseURL, riderID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, errs.NewDependencyUnavailableError("routing", err)
	}

	query := req.URL.Query()
	query.Set("lat", strconv.FormatFloat(to.Latitude(), 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(to.Longitude(), 'f', -1, 64))
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errs.NewDependencyUnavailableError("routing", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errs.NewDependencyUnavailableError("routing",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload distanceResponse
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, errs.NewDependencyUnavailableError("routing", err)
	}

	if payload.DistanceKm < 0 {
		return 0, errs.NewDependencyUnavailableError("routing",
			fmt.Errorf("negative distance %f", payload.DistanceKm))
	}

	return payload.DistanceKm, nil
}

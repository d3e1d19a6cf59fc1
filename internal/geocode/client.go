package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/funkysandman/geowise/internal/model"
)

const defaultBaseURL = "https://atlas.microsoft.com"

// Client calls the Azure Maps fuzzy search API.
type Client struct {
	Key        string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a geocode search client with a 30 second request timeout.
func NewClient(key string) *Client {
	return &Client{
		Key:        key,
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type searchResponse struct {
	Results []map[string]any `json:"results"`
	Error   *searchError     `json:"error,omitempty"`
}

type searchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Search runs one fuzzy search for the query and returns the provider's
// candidates in ranked order. countryCode optionally constrains results to
// one country. Zero candidates is a valid outcome, not an error. There is no
// internal retry.
func (c *Client) Search(ctx context.Context, query, countryCode string) ([]model.GeoCandidate, error) {
	params := url.Values{}
	params.Set("api-version", "1.0")
	params.Set("query", query)
	params.Set("subscription-key", c.Key)
	if countryCode != "" {
		params.Set("countrySet", countryCode)
	}

	searchURL := c.BaseURL + "/search/fuzzy/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if searchResp.Error != nil {
		return nil, fmt.Errorf("search API error (%s): %s", searchResp.Error.Code, searchResp.Error.Message)
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body))
	}

	candidates := make([]model.GeoCandidate, 0, len(searchResp.Results))
	for _, result := range searchResp.Results {
		candidates = append(candidates, Flatten(result))
	}

	return candidates, nil
}

// Flatten collapses a nested provider record into dotted flat keys, e.g.
// {"position": {"lat": 1}} becomes {"position.lat": 1}. Arrays are kept as
// opaque values. Candidate prompts and persisted records both use this flat
// shape.
func Flatten(record map[string]any) model.GeoCandidate {
	flat := make(model.GeoCandidate, len(record))
	flattenInto(flat, "", record)
	return flat
}

func flattenInto(dst model.GeoCandidate, prefix string, src map[string]any) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(dst, key, nested)
			continue
		}
		dst[key] = v
	}
}

package hibp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

// BreachClient implements ports.BreachSource against /breachedaccount.
type BreachClient struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Client    *http.Client
}

func NewBreachClient(apiKey, userAgent string) *BreachClient {
	return &BreachClient{BaseURL: DefaultBreachesURL, APIKey: apiKey, UserAgent: userAgent}
}

func (c *BreachClient) Lookup(ctx context.Context, identity domain.Identity) (ports.BreachResult, error) {
	if c.APIKey == "" {
		return ports.BreachResult{}, fmt.Errorf("%w: HIBP_API_KEY", domain.ErrConfigurationMissing)
	}
	client := c.Client
	if client == nil {
		client = defaultHTTPClient(15 * time.Second)
	}
	endpoint := trimBase(c.BaseURL, DefaultBreachesURL) + "/breachedaccount/" + url.PathEscape(identity.String()) + "?truncateResponse=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.BreachResult{}, err
	}
	ua := c.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("hibp-api-key", c.APIKey)
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return ports.BreachResult{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ports.BreachResult{Found: false}, nil
	case resp.StatusCode != http.StatusOK:
		return ports.BreachResult{}, statusError(resp)
	}

	var findings []ports.RawFinding
	if err := json.NewDecoder(resp.Body).Decode(&findings); err != nil {
		return ports.BreachResult{}, fmt.Errorf("%w: decode breaches: %v", domain.ErrUpstreamUnavailable, err)
	}
	return ports.BreachResult{Found: len(findings) > 0, Findings: findings}, nil
}

package hibp

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"breachmonitor/internal/domain"
)

// PasswordClient implements ports.CredentialChecker against the Pwned
// Passwords range endpoint. It needs no API key.
type PasswordClient struct {
	BaseURL string
	Client  *http.Client
}

func NewPasswordClient() *PasswordClient {
	return &PasswordClient{BaseURL: DefaultPasswordsURL}
}

// Range returns every known suffix for prefix with its occurrence count.
// Padding entries (count 0) are dropped.
func (c *PasswordClient) Range(ctx context.Context, prefix string) (map[string]int, error) {
	if !validPrefix(prefix) {
		return nil, fmt.Errorf("%w: range prefix must be 5 hex characters", domain.ErrInvalidInput)
	}
	client := c.Client
	if client == nil {
		client = defaultHTTPClient(15 * time.Second)
	}
	endpoint := trimBase(c.BaseURL, DefaultPasswordsURL) + "/range/" + strings.ToUpper(prefix)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Add-Padding", "true")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	out := map[string]int{}
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		suffix, count, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n == 0 {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(suffix))] = n
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read range: %v", domain.ErrUpstreamUnavailable, err)
	}
	return out, nil
}

func validPrefix(p string) bool {
	if len(p) != 5 {
		return false
	}
	for _, r := range p {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

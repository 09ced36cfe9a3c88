// Package hibp talks to the Have I Been Pwned breach API and the Pwned
// Passwords range API.
package hibp

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"breachmonitor/internal/domain"
)

const (
	DefaultBreachesURL  = "https://haveibeenpwned.com/api/v3"
	DefaultPasswordsURL = "https://api.pwnedpasswords.com"
	defaultUserAgent    = "breachmonitor"
)

func defaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// statusError maps an unexpected upstream status to a domain error.
func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: upstream rejected credentials (%d)", domain.ErrConfigurationMissing, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
}

func trimBase(base, def string) string {
	if strings.TrimSpace(base) == "" {
		return def
	}
	return strings.TrimRight(base, "/")
}

package hibp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"breachmonitor/internal/domain"
)

func TestBreachLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("hibp-api-key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/breachedaccount/a@x.com":
			if r.URL.Query().Get("truncateResponse") != "false" {
				t.Errorf("expected untruncated response")
			}
			fmt.Fprint(w, `[{"Name":"LinkedIn","BreachDate":"2021-06-01","DataClasses":["Emails","Passwords"],"PwnCount":700000000}]`)
		case "/breachedaccount/down@x.com":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := &BreachClient{BaseURL: srv.URL, APIKey: "k", Client: srv.Client()}
	ctx := context.Background()

	res, err := c.Lookup(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !res.Found || len(res.Findings) != 1 || res.Findings[0]["Name"] != "LinkedIn" {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = c.Lookup(ctx, "clean@x.com")
	if err != nil || res.Found {
		t.Fatalf("404 should be a clean miss: %+v %v", res, err)
	}

	if _, err := c.Lookup(ctx, "down@x.com"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}

	bad := &BreachClient{BaseURL: srv.URL, APIKey: "wrong", Client: srv.Client()}
	if _, err := bad.Lookup(ctx, "a@x.com"); !errors.Is(err, domain.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}

	if _, err := (&BreachClient{BaseURL: srv.URL}).Lookup(ctx, "a@x.com"); !errors.Is(err, domain.ErrConfigurationMissing) {
		t.Fatalf("missing key: got %v", err)
	}
}

func TestPasswordRange(t *testing.T) {
	var gotPath, padding string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		padding = r.Header.Get("Add-Padding")
		fmt.Fprint(w, "1E4C9B93F3F0682250B6CF8331B7EE68FD8:3861493\r\n0018A45C4D1DEF81644B54AB7F969B88D65:0\r\nabcdef:2\r\ngarbage\r\n")
	}))
	defer srv.Close()

	c := &PasswordClient{BaseURL: srv.URL, Client: srv.Client()}
	got, err := c.Range(context.Background(), "5baa6")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if gotPath != "/range/5BAA6" || padding != "true" {
		t.Fatalf("request: path=%s padding=%s", gotPath, padding)
	}
	if got["1E4C9B93F3F0682250B6CF8331B7EE68FD8"] != 3861493 || got["ABCDEF"] != 2 {
		t.Fatalf("unexpected matches: %v", got)
	}
	if _, ok := got["0018A45C4D1DEF81644B54AB7F969B88D65"]; ok {
		t.Fatalf("padding entry should be dropped")
	}
}

func TestPasswordRangeRejectsBadPrefix(t *testing.T) {
	c := NewPasswordClient()
	for _, p := range []string{"", "5BAA", "5BAA61", "ZZZZZ"} {
		if _, err := c.Range(context.Background(), p); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("prefix %q: got %v", p, err)
		}
	}
}

func TestPasswordRangeUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := &PasswordClient{BaseURL: srv.URL, Client: srv.Client()}
	if _, err := c.Range(context.Background(), "5BAA6"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

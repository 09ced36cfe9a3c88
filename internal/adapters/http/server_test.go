package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/services/monitoring"
)

type stubChecker struct{ level domain.RiskLevel }

func (c stubChecker) Evaluate(_ context.Context, id domain.Identity, _ string) domain.RiskVerdict {
	return domain.RiskVerdict{Identity: id, RiskLevel: c.level, Records: []domain.BreachRecord{}}
}

type stubAlerts struct{}

func (stubAlerts) Check(_ context.Context, v domain.RiskVerdict) domain.NotificationOutcome {
	if v.RiskLevel == domain.RiskNone {
		return domain.NotificationOutcome{Status: domain.NotificationNotRequired}
	}
	return domain.NotificationOutcome{Status: domain.NotificationSent, Summary: "rotate now"}
}

type stubMonitor struct {
	saved []domain.Identity
}

func (m *stubMonitor) Save(_ context.Context, id domain.Identity) error {
	for _, s := range m.saved {
		if s == id {
			return domain.ErrAlreadyMonitored
		}
	}
	m.saved = append(m.saved, id)
	return nil
}

func (m *stubMonitor) List(context.Context) ([]domain.MonitoringEntry, error) {
	out := []domain.MonitoringEntry{}
	for _, id := range m.saved {
		out = append(out, domain.MonitoringEntry{Identity: id})
	}
	return out, nil
}

func (m *stubMonitor) RecheckAll(context.Context) (monitoring.Report, error) {
	rep := monitoring.Report{RunID: "run-1", StartedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, id := range m.saved {
		rep.Results = append(rep.Results, domain.RecheckResult{Identity: id, Escalated: true})
	}
	return rep, nil
}

func (m *stubMonitor) Recheck(_ context.Context, id domain.Identity) (domain.RecheckResult, error) {
	for _, s := range m.saved {
		if s == id {
			return domain.RecheckResult{Identity: id}, nil
		}
	}
	return domain.RecheckResult{}, domain.ErrNotMonitored
}

func newTestServer(level domain.RiskLevel) (*httptest.Server, *stubMonitor) {
	mon := &stubMonitor{}
	srv := httptest.NewServer(New(stubChecker{level: level}, stubAlerts{}, mon, nil).Routes())
	return srv, mon
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(domain.RiskNone)
	defer srv.Close()
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected: %d %v", resp.StatusCode, body)
	}
}

func TestCheck(t *testing.T) {
	srv, _ := newTestServer(domain.RiskHigh)
	defer srv.Close()

	resp, body := do(t, http.MethodPost, srv.URL+"/api/check", `{"identity":"  a@x.com ","credential":"hunter2"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	verdict := body["verdict"].(map[string]any)
	if verdict["identity"] != "a@x.com" || verdict["risk_level"] != "High" {
		t.Fatalf("unexpected verdict: %v", verdict)
	}
	if body["summary"] != "rotate now" {
		t.Fatalf("summary: %v", body["summary"])
	}
	if tips, _ := body["remediation_tips"].([]any); len(tips) == 0 {
		t.Fatalf("expected remediation tips")
	}
	if strings.Contains(toJSON(body), "hunter2") {
		t.Fatalf("credential echoed in response")
	}
}

func TestCheckNoneHasNoTips(t *testing.T) {
	srv, _ := newTestServer(domain.RiskNone)
	defer srv.Close()
	_, body := do(t, http.MethodPost, srv.URL+"/api/check", `{"identity":"a@x.com"}`)
	if _, ok := body["remediation_tips"]; ok {
		t.Fatalf("tips should be omitted for None")
	}
	if n := body["notification"].(map[string]any); n["status"] != string(domain.NotificationNotRequired) {
		t.Fatalf("notification: %v", n)
	}
}

func TestCheckRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(domain.RiskNone)
	defer srv.Close()
	for _, body := range []string{`{"identity":""}`, `{"identity":"   "}`, `not json`} {
		resp, _ := do(t, http.MethodPost, srv.URL+"/api/check", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status %d", body, resp.StatusCode)
		}
	}
}

func TestMonitoredLifecycle(t *testing.T) {
	srv, _ := newTestServer(domain.RiskNone)
	defer srv.Close()

	resp, _ := do(t, http.MethodPost, srv.URL+"/api/monitored", `{"identity":"a@x.com"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save: %d", resp.StatusCode)
	}
	resp, body := do(t, http.MethodPost, srv.URL+"/api/monitored", `{"identity":"a@x.com"}`)
	if resp.StatusCode != http.StatusConflict || body["code"] != "already_monitored" {
		t.Fatalf("duplicate save: %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/api/monitored", "")
	if resp.StatusCode != http.StatusOK || len(body["entries"].([]any)) != 1 {
		t.Fatalf("list: %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodPost, srv.URL+"/api/monitored/recheck", "")
	if resp.StatusCode != http.StatusOK || body["run_id"] != "run-1" || body["escalations"].(float64) != 1 {
		t.Fatalf("recheck all: %d %v", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/monitored/a@x.com/recheck", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recheck one: %d", resp.StatusCode)
	}
	resp, body = do(t, http.MethodPost, srv.URL+"/api/monitored/b@x.com/recheck", "")
	if resp.StatusCode != http.StatusNotFound || body["code"] != "not_monitored" {
		t.Fatalf("recheck unsaved: %d %v", resp.StatusCode, body)
	}
}

func toJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

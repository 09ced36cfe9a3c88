package breachstate

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

type fakeSource struct {
	mu     sync.Mutex
	result ports.BreachResult
	err    error
	block  bool
	calls  int
}

func (f *fakeSource) Lookup(ctx context.Context, _ domain.Identity) (ports.BreachResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return ports.BreachResult{}, ctx.Err()
	}
	return f.result, f.err
}

type fakeChecker struct {
	mu       sync.Mutex
	prefixes []string
	matches  map[string]int
	err      error
}

func (f *fakeChecker) Range(_ context.Context, prefix string) (map[string]int, error) {
	f.mu.Lock()
	f.prefixes = append(f.prefixes, prefix)
	f.mu.Unlock()
	return f.matches, f.err
}

func testPolicy() Policy {
	return Policy{Timeout: 50 * time.Millisecond, Retries: 0, Backoff: time.Millisecond}
}

func newTestEngine(src ports.BreachSource, chk ports.CredentialChecker) *Engine {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	return New(src, chk, WithPolicy(testPolicy()), WithClock(clock))
}

func found(findings ...ports.RawFinding) ports.BreachResult {
	return ports.BreachResult{Found: true, Findings: findings}
}

func TestEvaluateNoBreaches(t *testing.T) {
	e := newTestEngine(&fakeSource{result: ports.BreachResult{}}, nil)
	v := e.Evaluate(context.Background(), "clean@x.com", "")
	if v.RiskLevel != domain.RiskNone || v.BreachCount != 0 || v.Degraded {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	if v.CredentialExposureCount != nil {
		t.Fatalf("credential count should be absent when no credential supplied")
	}
}

func TestEvaluateSingleDisclosedBreachIsMedium(t *testing.T) {
	src := &fakeSource{result: found(ports.RawFinding{"Name": "LinkedIn", "BreachDate": "2021-06-01", "DataClasses": []any{"password"}})}
	v := newTestEngine(src, nil).Evaluate(context.Background(), "a@x.com", "")
	if v.RiskLevel != domain.RiskMedium {
		t.Fatalf("risk: got %s, want Medium", v.RiskLevel)
	}
	if v.Degraded {
		t.Fatalf("expected authoritative verdict")
	}
	if v.BreachCount != 1 || len(v.Records) != 1 {
		t.Fatalf("expected one record, got %d/%d", v.BreachCount, len(v.Records))
	}
	rec := v.Records[0]
	if rec.SourceName != "LinkedIn" || rec.OccurredAt != "2021-06-01" || !reflect.DeepEqual(rec.ExposedFields, []string{"password"}) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestEvaluateEmptyFieldsNormalizeToUndisclosed(t *testing.T) {
	src := &fakeSource{result: found(ports.RawFinding{"name": "Dropbox", "fields": []any{}})}
	v := newTestEngine(src, nil).Evaluate(context.Background(), "a@x.com", "")
	if !reflect.DeepEqual(v.Records[0].ExposedFields, []string{domain.UndisclosedField}) {
		t.Fatalf("fields: got %v", v.Records[0].ExposedFields)
	}
	if v.RiskLevel != domain.RiskHigh {
		t.Fatalf("risk: got %s, want High", v.RiskLevel)
	}
}

func TestEvaluateUpstreamTimeoutIsDegraded(t *testing.T) {
	src := &fakeSource{block: true}
	v := newTestEngine(src, nil).Evaluate(context.Background(), "a@x.com", "")
	if v.BreachCount != 0 || !v.Degraded || v.RiskLevel != domain.RiskNone {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	if !reflect.DeepEqual(v.DegradedSources, []string{SourceBreaches}) {
		t.Fatalf("degraded sources: %v", v.DegradedSources)
	}
}

func TestEvaluateRetriesTransientFailures(t *testing.T) {
	src := &fakeSource{err: errors.New("connection reset")}
	e := New(src, nil, WithPolicy(Policy{Timeout: 50 * time.Millisecond, Retries: 2, Backoff: time.Millisecond}))
	v := e.Evaluate(context.Background(), "a@x.com", "")
	if !v.Degraded {
		t.Fatalf("expected degraded verdict")
	}
	if src.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", src.calls)
	}
}

func TestEvaluateConfigurationErrorsAreNotRetried(t *testing.T) {
	src := &fakeSource{err: domain.ErrConfigurationMissing}
	e := New(src, nil, WithPolicy(Policy{Timeout: 50 * time.Millisecond, Retries: 3, Backoff: time.Millisecond}))
	_ = e.Evaluate(context.Background(), "a@x.com", "")
	if src.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", src.calls)
	}
}

func TestEvaluateCredentialSendsOnlyPrefix(t *testing.T) {
	secret := "hunter2"
	sum := sha1.Sum([]byte(secret))
	full := strings.ToUpper(hex.EncodeToString(sum[:]))
	chk := &fakeChecker{matches: map[string]int{full[5:]: 17, "0000000000000000000000000000000000A": 3}}
	v := newTestEngine(&fakeSource{}, chk).Evaluate(context.Background(), "a@x.com", secret)

	if len(chk.prefixes) != 1 || chk.prefixes[0] != full[:5] {
		t.Fatalf("unexpected prefixes sent: %v", chk.prefixes)
	}
	for _, p := range chk.prefixes {
		if len(p) != 5 || strings.Contains(p, secret) {
			t.Fatalf("prefix leaks more than five characters: %q", p)
		}
	}
	if v.CredentialExposureCount == nil || *v.CredentialExposureCount != 17 {
		t.Fatalf("exposure: got %v", v.CredentialExposureCount)
	}
	if v.RiskLevel != domain.RiskHigh {
		t.Fatalf("risk: got %s, want High", v.RiskLevel)
	}
}

func TestEvaluateCredentialNotFound(t *testing.T) {
	chk := &fakeChecker{matches: map[string]int{"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF": 2}}
	v := newTestEngine(&fakeSource{}, chk).Evaluate(context.Background(), "a@x.com", "correct horse battery staple")
	if v.CredentialExposureCount == nil || *v.CredentialExposureCount != 0 {
		t.Fatalf("exposure: got %v", v.CredentialExposureCount)
	}
	if v.RiskLevel != domain.RiskNone {
		t.Fatalf("risk: got %s, want None", v.RiskLevel)
	}
}

func TestEvaluateCriticalWithMultipleBreachesAndCredential(t *testing.T) {
	secret := "password1"
	_, suffix := credentialDigest(secret)
	src := &fakeSource{result: found(
		ports.RawFinding{"Title": "Adobe", "DataClasses": []any{"Email addresses"}},
		ports.RawFinding{"Title": "Canva", "leaks": "Passwords;Usernames"},
	)}
	chk := &fakeChecker{matches: map[string]int{suffix: 9}}
	v := newTestEngine(src, chk).Evaluate(context.Background(), "a@x.com", secret)
	if v.RiskLevel != domain.RiskCritical {
		t.Fatalf("risk: got %s, want Critical", v.RiskLevel)
	}
}

func TestEvaluateCredentialFailureDegradesOnlyThatSource(t *testing.T) {
	src := &fakeSource{result: found(ports.RawFinding{"Name": "A", "DataClasses": []any{"email"}})}
	chk := &fakeChecker{err: errors.New("503")}
	v := newTestEngine(src, chk).Evaluate(context.Background(), "a@x.com", "secret")
	if !v.Degraded || !reflect.DeepEqual(v.DegradedSources, []string{SourceCredentials}) {
		t.Fatalf("unexpected degradation: %+v", v)
	}
	if v.CredentialExposureCount != nil {
		t.Fatalf("exposure should be absent after a failed lookup")
	}
	if v.BreachCount != 1 || v.RiskLevel != domain.RiskMedium {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	src := &fakeSource{result: found(
		ports.RawFinding{"Name": "A", "BreachDate": "2020-01-01", "DataClasses": []any{"email", "password"}},
		ports.RawFinding{"Title": "B"},
	)}
	e := newTestEngine(src, nil)
	first := e.Evaluate(context.Background(), "a@x.com", "")
	second := e.Evaluate(context.Background(), "a@x.com", "")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("verdicts differ:\n%+v\n%+v", first, second)
	}
}

func TestEvaluateBreachCountMatchesRecords(t *testing.T) {
	for n := 0; n < 5; n++ {
		findings := make([]ports.RawFinding, n)
		for i := range findings {
			findings[i] = ports.RawFinding{}
		}
		v := newTestEngine(&fakeSource{result: found(findings...)}, nil).Evaluate(context.Background(), "a@x.com", "")
		if v.BreachCount != len(v.Records) || v.BreachCount != n {
			t.Fatalf("n=%d: breach_count %d, records %d", n, v.BreachCount, len(v.Records))
		}
	}
}

func TestEvaluateNotFoundIgnoresFindings(t *testing.T) {
	src := &fakeSource{result: ports.BreachResult{Found: false, Findings: []ports.RawFinding{{"Name": "stale"}}}}
	v := newTestEngine(src, nil).Evaluate(context.Background(), "a@x.com", "")
	if v.BreachCount != 0 {
		t.Fatalf("expected zero breaches, got %d", v.BreachCount)
	}
}

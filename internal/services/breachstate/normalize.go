package breachstate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

// Providers disagree on field names; candidates are tried in order and matched
// case-insensitively.
var (
	nameKeys   = []string{"Name", "Title", "source", "breach", "breachID"}
	dateKeys   = []string{"BreachDate", "breach_date", "date", "xposed_date", "AddedDate"}
	fieldKeys  = []string{"DataClasses", "data_classes", "fields", "leaks", "dataTypes", "data_types", "xposed_data"}
	countKeys  = []string{"PwnCount", "pwn_count", "records", "xposed_records"}
	fieldSplit = func(r rune) bool { return r == ';' || r == ',' }
)

// NormalizeFindings converts raw provider entries into breach records in
// upstream order.
func NormalizeFindings(findings []ports.RawFinding) []domain.BreachRecord {
	out := make([]domain.BreachRecord, 0, len(findings))
	for _, f := range findings {
		out = append(out, normalizeFinding(f))
	}
	return out
}

func normalizeFinding(f ports.RawFinding) domain.BreachRecord {
	rec := domain.BreachRecord{
		SourceName:    domain.UnknownValue,
		OccurredAt:    domain.UnknownValue,
		ExposedFields: []string{domain.UndisclosedField},
	}
	// An alias whose value normalizes to nothing falls through to the next.
	for _, v := range candidates(f, nameKeys) {
		if s := strings.TrimSpace(stringValue(v)); s != "" {
			rec.SourceName = s
			break
		}
	}
	for _, v := range candidates(f, dateKeys) {
		if s := normalizeDate(v); s != "" {
			rec.OccurredAt = s
			break
		}
	}
	for _, v := range candidates(f, fieldKeys) {
		if fields := fieldSet(v); len(fields) > 0 {
			rec.ExposedFields = fields
			break
		}
	}
	for _, v := range candidates(f, countKeys) {
		if n, ok := int64Value(v); ok {
			rec.PwnCount = &n
			break
		}
	}
	return rec
}

// candidates returns the non-nil values stored under keys, in key order. An
// exact key match comes before case-insensitive ones.
func candidates(f ports.RawFinding, keys []string) []any {
	var out []any
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			out = append(out, v)
		}
		for fk, v := range f {
			if v != nil && fk != k && strings.EqualFold(fk, k) {
				out = append(out, v)
			}
		}
	}
	return out
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func normalizeDate(v any) string {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.DateOnly)
	}
	s := strings.TrimSpace(stringValue(v))
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.DateOnly)
	}
	return s
}

// fieldSet returns exposed field names with duplicates (case-insensitive)
// removed, keeping first-seen order.
func fieldSet(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, stringValue(item))
		}
	case string:
		raw = strings.FieldsFunc(t, fieldSplit)
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, f := range raw {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		key := strings.ToLower(f)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

func int64Value(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

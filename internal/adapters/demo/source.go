// Package demo is an offline BreachSource backed by a YAML fixture file.
package demo

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Source answers lookups from an in-memory fixture set keyed by identity.
// Keys are matched case-insensitively.
type Source struct {
	entries map[string][]ports.RawFinding
}

// Load reads fixtures from path, or the built-in set when path is empty.
func Load(path string) (*Source, error) {
	data := defaultFixtures
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read demo fixtures: %w", err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*Source, error) {
	var raw map[string][]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse demo fixtures: %w", err)
	}
	s := &Source{entries: make(map[string][]ports.RawFinding, len(raw))}
	for id, findings := range raw {
		key := strings.ToLower(strings.TrimSpace(id))
		for _, f := range findings {
			s.entries[key] = append(s.entries[key], ports.RawFinding(f))
		}
	}
	return s, nil
}

func (s *Source) Lookup(ctx context.Context, identity domain.Identity) (ports.BreachResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.BreachResult{}, err
	}
	findings, ok := s.entries[strings.ToLower(identity.String())]
	if !ok || len(findings) == 0 {
		return ports.BreachResult{Found: false}, nil
	}
	out := make([]ports.RawFinding, len(findings))
	copy(out, findings)
	return ports.BreachResult{Found: true, Findings: out}, nil
}

// Len reports how many identities have fixtures.
func (s *Source) Len() int { return len(s.entries) }

// Package assemblyai produces breach risk summaries with the AssemblyAI LeMUR
// task endpoint.
package assemblyai

import (
	"context"
	"fmt"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"breachmonitor/internal/domain"
)

const (
	DefaultModel     = "anthropic/claude-3-5-sonnet"
	defaultMaxTokens = 400
)

const prompt = `You are a security analyst. In three short sentences, explain the risk to the account holder ` +
	`and the most important action to take. Do not repeat the identity. Plain text only.`

type Summarizer struct {
	client *aai.Client
	model  string
}

// Options configures the summarizer. BaseURL is only set in tests.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New returns nil when no API key is configured; callers treat a nil
// summarizer as "summary unavailable".
func New(opts Options) *Summarizer {
	if opts.APIKey == "" {
		return nil
	}
	clientOpts := []aai.ClientOption{aai.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, aai.WithBaseURL(opts.BaseURL))
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &Summarizer{client: aai.NewClientWithOptions(clientOpts...), model: model}
}

func (s *Summarizer) Summarize(ctx context.Context, identity domain.Identity, breachCount int, exposedFields []string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("%w: AAI_API_KEY", domain.ErrConfigurationMissing)
	}

	var params aai.LeMURTaskParams
	params.Prompt = aai.String(prompt)
	params.InputText = aai.String(inputText(identity, breachCount, exposedFields))
	params.FinalModel = aai.LeMURModel(s.model)
	params.MaxOutputSize = aai.Int64(defaultMaxTokens)
	params.Temperature = aai.Float64(0)

	resp, err := s.client.LeMUR.Task(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: lemur task: %v", domain.ErrUpstreamUnavailable, err)
	}
	if resp.Response == nil {
		return "", nil
	}
	return strings.TrimSpace(*resp.Response), nil
}

// inputText describes the exposure without the identity itself, only its domain.
func inputText(identity domain.Identity, breachCount int, exposedFields []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Breaches found: %d\n", breachCount)
	if d := identity.Domain(); d != "" {
		fmt.Fprintf(&b, "Account domain: %s\n", d)
	}
	if len(exposedFields) == 0 {
		b.WriteString("Exposed data: none reported\n")
	} else {
		fmt.Fprintf(&b, "Exposed data: %s\n", strings.Join(exposedFields, ", "))
	}
	return b.String()
}

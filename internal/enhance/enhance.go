// Package enhance implements the optional external enhancement pass: the
// pattern-based analysis plus a bounded excerpt of the original text is sent
// to an external completion service, and the structured suggestions that
// come back are merged into the local result. The pass is fail-open: any
// transport, parse, or validation failure leaves the local analysis
// authoritative.
package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rubricon/internal/rubric"
)

// DefaultTimeout bounds the external call. A timed-out call is treated the
// same as an unavailable service.
const DefaultTimeout = 60 * time.Second

// provider abstracts a completion backend behind a single call.
type provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options selects and configures a completion provider.
type Options struct {
	Provider string // "openai", "azure" or "gemini"
	APIKey   string
	Model    string
	Endpoint string // base URL; required for azure
	Timeout  time.Duration
}

// New builds an Enhancer from options. A missing API key disables the pass
// entirely: the returned Enhancer is nil and callers skip enhancement.
func New(ctx context.Context, opts Options, log *slog.Logger) (rubric.Enhancer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, nil
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	var p provider
	var err error
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "openai":
		p = newOpenAIProvider(opts.APIKey, opts.Model, opts.Endpoint, opts.Timeout)
	case "azure":
		p, err = newAzureProvider(opts.APIKey, opts.Model, opts.Endpoint, opts.Timeout)
	case "gemini":
		p, err = newGeminiProvider(ctx, opts.APIKey, opts.Model)
	default:
		err = fmt.Errorf("unsupported enhancement provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &Client{provider: p, timeout: opts.Timeout, log: log}, nil
}

// Client drives one provider and merges its suggestions into local results.
type Client struct {
	provider provider
	timeout  time.Duration
	log      *slog.Logger
}

// Enhance sends the local analysis and source excerpt to the external
// service and merges the validated response. It returns an error for every
// degraded path; callers keep the local analysis in that case.
func (c *Client) Enhance(ctx context.Context, local *rubric.AnalysisResult, sourceText string) (*rubric.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt, err := buildPrompt(local, sourceText)
	if err != nil {
		return nil, fmt.Errorf("building enhancement prompt: %w", err)
	}

	raw, err := c.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("external completion failed: %w", err)
	}

	external, err := decodeExternalResult(cleanJSONOutput(raw))
	if err != nil {
		return nil, fmt.Errorf("external response rejected: %w", err)
	}

	merged := Merge(local, external)
	c.log.Info("external enhancement merged",
		"local_sections", len(local.Sections),
		"external_sections", len(external.Sections),
		"merged_sections", len(merged.Sections),
	)
	return merged, nil
}

func buildPrompt(local *rubric.AnalysisResult, sourceText string) (string, error) {
	analysisJSON, err := json.MarshalIndent(localForPrompt(local), "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("You are an expert medical educator reviewing assessment criteria extracted from an OSCE rubric.\n\n")
	sb.WriteString("A pattern-based analyzer produced the following structured analysis:\n\n")
	sb.Write(analysisJSON)
	sb.WriteString("\n\nOriginal rubric text (excerpt):\n\n")
	sb.WriteString(sourceText)
	sb.WriteString("\n\nRefine the analysis: correct section names, fill in missing point values, and add ")
	sb.WriteString("verbalization examples a doctor would actually say while performing each criterion.\n\n")
	sb.WriteString("Respond with ONLY a JSON object of exactly this shape, no markdown fences or prose:\n")
	sb.WriteString(`{"sections": [{"name": "...", "maxPoints": 0, "items": [{"name": "...", "description": "...", "points": 0, "examples": ["..."]}]}], "totalPoints": 0, "metadata": {"matchedPatternCount": 0, "usedTrainingCorpus": false}}`)
	sb.WriteString("\n")
	return sb.String(), nil
}

// localForPrompt drops warnings from the payload sent out; they are
// pipeline-internal and only confuse the model.
func localForPrompt(local *rubric.AnalysisResult) rubric.AnalysisResult {
	out := *local
	out.Warnings = nil
	return out
}

func cleanJSONOutput(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

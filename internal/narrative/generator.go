package narrative

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/KaramelBytes/carscout/internal/ai"
	"github.com/KaramelBytes/carscout/internal/utils"
)

// Completion parameters used when Options leaves them unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 300
)

type Options struct {
	Provider      string
	Model         string
	Temperature   float64
	MaxTokens     int
	ReferenceYear int
}

// Narrative is a generated summary ready for display.
type Narrative struct {
	Subject   Subject
	Prompt    string
	Text      string
	HTML      template.HTML
	RequestID string
	Elapsed   time.Duration
}

// Generator issues one completion request per Describe call. Responses are
// never cached and failures are never retried.
type Generator struct {
	runtime ai.Runtime
	opts    Options
	log     zerolog.Logger
}

func NewGenerator(rt ai.Runtime, opts Options, log zerolog.Logger) *Generator {
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.ReferenceYear <= 0 {
		opts.ReferenceYear = DefaultReferenceYear
	}
	return &Generator{runtime: rt, opts: opts, log: log.With().Str("component", "narrative").Logger()}
}

// Model is the completion model name in use.
func (g *Generator) Model() string { return g.opts.Model }

func (g *Generator) Describe(ctx context.Context, s Subject) (*Narrative, error) {
	prompt := Prompt(s, g.opts.ReferenceYear)
	g.log.Debug().Str("car_model", s.Model).Int("prompt_tokens_est", utils.CountTokens(prompt)).Msg("requesting narrative")
	start := time.Now()
	resp, err := g.runtime.Generate(ctx, ai.GenerateRequest{
		Model:       g.opts.Model,
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		g.log.Error().Err(err).Str("car_model", s.Model).Int("status", ai.StatusCode(err)).Dur("elapsed", elapsed).Msg("completion failed")
		return nil, Explain(err, g.opts.Provider, g.opts.Model)
	}
	text, err := resp.Text()
	if err != nil {
		g.log.Warn().Str("car_model", s.Model).Str("request_id", resp.RequestID).Msg("empty completion")
		return nil, err
	}
	html, err := RenderHTML(text)
	if err != nil {
		return nil, fmt.Errorf("render narrative: %w", err)
	}
	g.log.Info().
		Str("car_model", s.Model).
		Str("request_id", resp.RequestID).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", elapsed).
		Msg("narrative generated")
	return &Narrative{
		Subject:   s,
		Prompt:    prompt,
		Text:      text,
		HTML:      html,
		RequestID: resp.RequestID,
		Elapsed:   elapsed,
	}, nil
}

// Explain wraps runtime errors with a hint the user can act on. The
// original error stays reachable through errors.As.
func Explain(err error, provider, model string) error {
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("the completion service did not answer in time: %w", err)
	case errors.As(err, &unreach):
		if provider == ai.ProviderOllama {
			return fmt.Errorf("Ollama not reachable at %s. Ensure it is running or set CARSCOUT_OLLAMA_HOST: %w", unreach.Host, err)
		}
		return fmt.Errorf("completion endpoint unreachable. Check your network and provider settings: %w", err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: check OPENAI_API_KEY / ANTHROPIC_API_KEY or api_key in ~/.carscout/config.yaml: %w", err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by provider, try again shortly: %w", err)
	case errors.As(err, &nfErr):
		if provider == ai.ProviderOllama {
			return fmt.Errorf("local model not available (%s). Install it with 'ollama pull %s': %w", model, model, err)
		}
		return fmt.Errorf("model not found (%s). Verify the model name: %w", model, err)
	case errors.As(err, &brErr):
		return fmt.Errorf("request rejected by provider: %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota/billing issue. Check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error): %w", err)
	default:
		return fmt.Errorf("narrative generation failed: %w", err)
	}
}

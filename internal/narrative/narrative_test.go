package narrative

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/carscout/internal/ai"
	"github.com/KaramelBytes/carscout/internal/catalog"
	"github.com/KaramelBytes/carscout/internal/dataset"
	"github.com/KaramelBytes/carscout/internal/filter"
)

type fakeRuntime struct {
	calls int
	last  ai.GenerateRequest
	resp  *ai.GenerateResponse
	err   error
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

func reply(text string) *ai.GenerateResponse {
	return &ai.GenerateResponse{
		Choices:   []ai.Choice{{Message: ai.Message{Role: "assistant", Content: text}}},
		RequestID: "req-42",
	}
}

const basePrompt = "Explain whether Civic (production years: 2006–2019) is a good used car choice in 2025. " +
	"Write for a buyer: describe its known features, strengths, weaknesses, and who it suits. " +
	"Avoid stating obvious facts (e.g., electric cars are not diesel)."

func TestPromptWithoutNarrowing(t *testing.T) {
	s := Subject{Model: "Civic", Years: dataset.YearSpan{From: 2006, To: 2019}}
	assert.Equal(t, basePrompt, Prompt(s, 2025))
}

func TestPromptFilterClauses(t *testing.T) {
	st := filter.Defaults(nil)
	st.Fuel = catalog.Fuel.CodesFor([]string{"Diesel", "Hybrid"})
	st.Drive = catalog.Drive.CodesFor([]string{"AWD"})
	st.Body = []int{3} // body never appears in the prompt

	got := Prompt(Subject{Model: "Civic", Years: dataset.YearSpan{From: 2006, To: 2019}, Filters: st.Narrowed()}, 2025)
	assert.Equal(t, basePrompt+" Filters applied: selected fuel: Diesel, Hybrid; drivetrain: AWD.", got)

	st.Gear = []int{2}
	got = Prompt(Subject{Model: "Civic", Years: dataset.YearSpan{From: 2006, To: 2019}, Filters: st.Narrowed()}, 2025)
	assert.True(t, strings.HasSuffix(got, " Filters applied: selected fuel: Diesel, Hybrid; gearbox type: AT; drivetrain: AWD."), got)
}

func TestPromptIgnoresEmptyAxis(t *testing.T) {
	st := filter.Defaults(nil)
	st.Gear = nil
	got := Prompt(Subject{Model: "Golf", Years: dataset.YearSpan{From: 2010, To: 2010}, Filters: st.Narrowed()}, 2025)
	assert.NotContains(t, got, "Filters applied")
}

func TestDescribeIssuesOneRequest(t *testing.T) {
	rt := &fakeRuntime{resp: reply("**Reliable** commuter.\n\n<script>alert(1)</script>")}
	var logs bytes.Buffer
	g := NewGenerator(rt, Options{Model: "gpt-3.5-turbo"}, zerolog.New(&logs))

	n, err := g.Describe(context.Background(), Subject{Model: "Civic", Years: dataset.YearSpan{From: 2006, To: 2019}})
	require.NoError(t, err)
	assert.Equal(t, 1, rt.calls)
	assert.Equal(t, 0.7, rt.last.Temperature)
	assert.Equal(t, 300, rt.last.MaxTokens)
	assert.Equal(t, "gpt-3.5-turbo", rt.last.Model)
	require.Len(t, rt.last.Messages, 1)
	assert.Equal(t, basePrompt, rt.last.Messages[0].Content)
	assert.Equal(t, "req-42", n.RequestID)
	assert.Contains(t, string(n.HTML), "<strong>Reliable</strong>")
	assert.NotContains(t, string(n.HTML), "<script>")
	assert.Contains(t, logs.String(), "narrative generated")
}

func TestDescribePropagatesErrors(t *testing.T) {
	apiErr := &ai.AuthError{APIError: &ai.APIError{StatusCode: 401, Message: "bad key"}}
	rt := &fakeRuntime{err: apiErr}
	g := NewGenerator(rt, Options{Model: "m"}, zerolog.Nop())

	_, err := g.Describe(context.Background(), Subject{Model: "Civic"})
	require.Error(t, err)
	var ae *ai.AuthError
	assert.True(t, errors.As(err, &ae))
	assert.Contains(t, err.Error(), "authentication failed")
	assert.Equal(t, 1, rt.calls)

	rt.err = nil
	rt.resp = reply("   ")
	_, err = g.Describe(context.Background(), Subject{Model: "Civic"})
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
	assert.Equal(t, 2, rt.calls)
}

func TestExplainKeepsCause(t *testing.T) {
	err := Explain(&ai.UnreachableError{Host: "http://127.0.0.1:11434", Err: errors.New("refused")}, ai.ProviderOllama, "llama3")
	assert.Contains(t, err.Error(), "Ollama not reachable")
	var ue *ai.UnreachableError
	assert.True(t, errors.As(err, &ue))

	err = Explain(&ai.ModelNotFoundError{APIError: &ai.APIError{StatusCode: 404}}, ai.ProviderOpenAI, "gpt-x")
	assert.Contains(t, err.Error(), "model not found (gpt-x)")
}

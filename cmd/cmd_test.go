package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/carscout/internal/ai"
	"github.com/KaramelBytes/carscout/internal/rank"
)

const testListings = "Price,Fuel,Body,Year,Odo,Gear,Drive,Model\n" +
	"10000,1,3,2015,50000,1,2,Civic\n" +
	"12000,1,3,2017,40000,2,2,Civic\n" +
	"8000,2,4,2012,120000,1,2,Golf\n" +
	"35000,6,3,2020,30000,2,3,Model 3\n"

const testRatings = "model_r,segment\nCivic,Compact\nGolf,Compact\nModel 3,Premium\n"

// setupCLI isolates HOME and the working directory, writes the reference
// files where the default config expects them, and clears cached config.
func setupCLI(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "CARSCOUT_API_KEY", "CARSCOUT_BASE_URL", "CARSCOUT_PROVIDER"} {
		t.Setenv(k, "")
	}
	files := map[string]string{
		"propositions.csv": testListings,
		"rating.csv":       testRatings,
		"ID.csv":           "id,model\n1,Civic\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	cfg = nil
	t.Cleanup(func() { cfg = nil })
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRankJSON(t *testing.T) {
	setupCLI(t)
	out, err := runCLI(t, "rank", "--json", "--fuel", "Petrol,Diesel")
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	var res rank.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(res.Models) != 2 || res.Models[0].Model != "Civic" || res.Models[0].Count != 2 {
		t.Fatalf("unexpected ranking: %+v", res)
	}
}

func TestSegments(t *testing.T) {
	setupCLI(t)
	out, err := runCLI(t, "segments")
	if err != nil {
		t.Fatalf("segments failed: %v", err)
	}
	if !strings.Contains(out, "Compact") || !strings.Contains(out, "2 models") || !strings.Contains(out, "Premium") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	setupCLI(t)
	if _, err := runCLI(t, "config", "set", "model", "gpt-4o-mini"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	cfg = nil
	out, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "model: gpt-4o-mini") || !strings.Contains(out, "api_key: (not set)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestProviderFlagPicksMatchingCredential(t *testing.T) {
	setupCLI(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-only")
	t.Setenv("OPENAI_API_KEY", "sk-openai-secret")
	t.Cleanup(func() {
		flagProvider = ""
		rootCmd.PersistentFlags().Lookup("provider").Changed = false
	})

	out, err := runCLI(t, "--provider", "anthropic", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "provider: anthropic") || !strings.Contains(out, "api_key: *******only") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if cfg.Credential() != "sk-ant-only" {
		t.Fatalf("credential = %q, want the Anthropic key", cfg.Credential())
	}
}

func TestFilterFlagsOnlyApplyWhenSet(t *testing.T) {
	var f filterFlags
	c := &cobra.Command{Use: "x"}
	addFilterFlags(c, &f)
	if err := c.ParseFlags([]string{"--gear", "AT", "--price-max", "15000"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	st := f.state(c, []string{"Compact"})
	if len(st.Gear) != 1 || st.Gear[0] != 2 {
		t.Fatalf("gear = %v", st.Gear)
	}
	if st.PriceMax != 15000 || st.PriceMin != 5000 {
		t.Fatalf("price = %d..%d", st.PriceMin, st.PriceMax)
	}
	if len(st.Fuel) != 9 || len(st.Segments) != 1 {
		t.Fatalf("unset axes should keep defaults: %+v", st)
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	setupCLI(t)
	if err := ensureConfig(); err != nil {
		t.Fatalf("config: %v", err)
	}
	if _, err := newGenerator(zerolog.Nop()); !errors.Is(err, ai.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	cfg.Provider = ai.ProviderOllama
	if _, err := newGenerator(zerolog.Nop()); err != nil {
		t.Fatalf("ollama needs no key: %v", err)
	}
}

func TestDetailsAgainstFakeProvider(t *testing.T) {
	setupCLI(t)
	var (
		mu      sync.Mutex
		prompts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ai.GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		prompts = append(prompts, req.Messages[0].Content)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "Great commuter."}}},
		})
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CARSCOUT_BASE_URL", srv.URL)
	t.Setenv("CARSCOUT_LOG_LEVEL", "disabled")

	out, err := runCLI(t, "details", "Civic", "--drive", "FWD")
	if err != nil {
		t.Fatalf("details failed: %v", err)
	}
	if !strings.Contains(out, "Great commuter.") || !strings.Contains(out, "(2015–2017)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(prompts) != 1 || !strings.HasSuffix(prompts[0], "Filters applied: drivetrain: FWD.") {
		t.Fatalf("prompts = %q", prompts)
	}

	if _, err := runCLI(t, "details", "Trabant"); err == nil {
		t.Fatalf("expected error for unknown model")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at fresh temp dirs and clears
// credential variables so the host environment cannot leak in.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "CARSCOUT_API_KEY", "CARSCOUT_PROVIDER", "CARSCOUT_MODEL"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Provider)
	assert.Equal(t, "gpt-3.5-turbo", c.Model)
	assert.Equal(t, 0.7, c.Temperature)
	assert.Equal(t, 300, c.MaxTokens)
	assert.Equal(t, 60, c.HTTPTimeoutSec)
	assert.Equal(t, "propositions.csv", c.ListingsPath)
	assert.Equal(t, "rating.csv", c.RatingsPath)
	assert.Equal(t, "ID.csv", c.IDsPath)
	assert.Equal(t, ":8501", c.ListenAddr)
	assert.Equal(t, 0, c.DetailsRatePerMin)
	assert.Empty(t, c.Credential())
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: from-file\nmax_tokens: 120\n"), 0o600))
	t.Setenv("CARSCOUT_MODEL", "from-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Model)
	assert.Equal(t, 120, c.MaxTokens)
}

func TestCredentialFallbacks(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", c.Credential())

	t.Setenv("CARSCOUT_PROVIDER", "anthropic")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", c.Credential())

	t.Setenv("CARSCOUT_API_KEY", "explicit")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "explicit", c.Credential())
}

func TestCredentialFollowsProviderChange(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "sk-openai", c.Credential())

	require.NoError(t, c.Set("provider", "anthropic"))
	assert.Equal(t, "sk-ant", c.Credential())

	require.NoError(t, os.Unsetenv("ANTHROPIC_API_KEY"))
	assert.Empty(t, c.Credential(), "anthropic must not fall back to the OpenAI key")
}

func TestDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.Unsetenv("OPENAI_API_KEY"))
	require.NoError(t, os.WriteFile(".env", []byte("OPENAI_API_KEY=sk-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("OPENAI_API_KEY") })

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", c.Credential())
}

func TestSaveDoesNotPersistEnvCredential(t *testing.T) {
	home := isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-env-only")

	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("model", "gpt-4o-mini"))
	require.NoError(t, Save(c, ""))

	b, err := os.ReadFile(filepath.Join(home, ".carscout", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "model: gpt-4o-mini")
	assert.NotContains(t, string(b), "sk-env-only")

	c2, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c2.Model)
}

func TestLoadRejectsZeroTemperature(t *testing.T) {
	isolate(t)
	t.Setenv("CARSCOUT_TEMPERATURE", "0")
	_, err := Load("")
	assert.ErrorContains(t, err, "temperature")
}

func TestSetValidates(t *testing.T) {
	c := &Global{MaxTokens: 300}
	assert.Error(t, c.Set("provider", "gemini"))
	assert.NoError(t, c.Set("provider", "Ollama"))
	assert.Equal(t, "ollama", c.Provider)
	assert.Error(t, c.Set("max_tokens", "-3"))
	assert.Equal(t, 300, c.MaxTokens)
	assert.Error(t, c.Set("temperature", "hot"))
	c.Temperature = 0.7
	assert.Error(t, c.Set("temperature", "0"))
	assert.Error(t, c.Set("temperature", "2.5"))
	assert.Equal(t, 0.7, c.Temperature)
	assert.NoError(t, c.Set("temperature", "0.2"))
	assert.Equal(t, 0.2, c.Temperature)
	assert.NoError(t, c.Set("details_rate_per_min", "0"))
	assert.Error(t, c.Set("details_rate_per_min", "-1"))
	assert.Error(t, c.Set("log_format", "xml"))
	assert.Error(t, c.Set("nope", "1"))
}

func TestGetMasksKey(t *testing.T) {
	c := &Global{APIKey: "sk-abcdef1234"}
	v, ok := c.Get("api_key")
	require.True(t, ok)
	assert.Equal(t, "*********1234", v)
	_, ok = c.Get("unknown")
	assert.False(t, ok)
	assert.Equal(t, "(not set)", MaskKey(""))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "config.yml", `
server:
  port: 9090
database:
  host: db.internal
recommendation:
  max_distinct: 25
  cache_ttl: 30s
assistant:
  default_suggestions: [Hi, Bye]
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Recommendation.MaxDistinct)
	assert.Equal(t, 30*time.Second, cfg.Recommendation.CacheTTL)
	assert.Equal(t, []string{"Hi", "Bye"}, cfg.Assistant.DefaultSuggestions)

	// untouched keys keep their defaults
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Recommendation.DefaultLimit)
	assert.Equal(t, 10, cfg.Assistant.RecentLimit)
	assert.Equal(t, DefaultHealthTips, cfg.Assistant.HealthTips)
	assert.Equal(t, "findings.urgent", cfg.Recommendation.UrgentChannel)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Server.CORSMaxAge)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yml", "database:\n  host: from-file\n")
	t.Setenv("KITTY_DB_HOST", "from-env")
	t.Setenv("KITTY_PORT", "7000")
	t.Setenv("KITTY_JWT_SECRET", "s3cret")
	t.Setenv("KITTY_REFERENCE_FILE", "/etc/kitty/reference.yml")
	t.Setenv("KITTY_CONVERSATION_KEY", "a2V5")
	t.Setenv("KITTY_CORS_ORIGINS", "https://app.example.com,https://admin.example.com")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "/etc/kitty/reference.yml", cfg.Reference.File)
	assert.Equal(t, "a2V5", cfg.Redis.EncryptionKey)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadFile_BadEnv(t *testing.T) {
	t.Setenv("KITTY_DB_PORT", "not-a-number")
	_, err := LoadFile(writeFile(t, "config.yml", "server:\n  port: 1\n"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "h", Port: 5433, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5433 user=u password=p dbname=n sslmode=disable", cfg.DSN())
}

func TestLoadReference_Default(t *testing.T) {
	ref, err := LoadReference("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blood Test", "Pharmacy", "X-Ray", "Ultrasound", "MRI", "ECG"}, ref.DocumentTypeNames())
	assert.Len(t, ref.IntentPatterns(), len(DefaultIntentPatterns))
}

func TestLoadReference_SampleFile(t *testing.T) {
	ref, err := LoadReference("reference.yml")
	require.NoError(t, err)

	def, err := DefaultReference()
	require.NoError(t, err)
	assert.Equal(t, def.DocumentTypes(), ref.DocumentTypes())
	assert.Equal(t, def.IntentPatterns(), ref.IntentPatterns())
}

func TestLoadReference_File(t *testing.T) {
	path := writeFile(t, "reference.yml", `
document_types:
  - name: Dental
    fields: [Tooth, Procedure]
  - name: Blood Test
    fields: [Hemoglobin]
`)

	ref, err := LoadReference(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Dental", "Blood Test"}, ref.DocumentTypeNames())
	dt, ok := ref.LookupDocumentType("dental")
	require.True(t, ok)
	assert.Equal(t, []string{"Tooth", "Procedure"}, dt.Fields)
	// patterns were not set so the built-in ones apply
	assert.Len(t, ref.IntentPatterns(), len(DefaultIntentPatterns))
}

func TestLoadReference_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "duplicate doc type",
			content: "document_types:\n  - name: ECG\n  - name: ecg\n",
		},
		{
			name:    "bad pattern",
			content: "intent_patterns:\n  - intent: broken\n    patterns: ['(']\n",
		},
		{
			name:    "blank doc type",
			content: "document_types:\n  - name: '--'\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReference(writeFile(t, "reference.yml", tt.content))
			assert.Error(t, err)
		})
	}
}

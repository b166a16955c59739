package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/libreq/internal/config"
)

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:5000", cfg.Server.BaseURL)
	assert.Equal(t, config.OrderStudentFirst, cfg.Form.Order)
	assert.Equal(t, config.ModeQuantity, cfg.Form.Mode)
	assert.Equal(t, 200*time.Millisecond, cfg.Form.Debounce.Students)
	assert.Equal(t, 300*time.Millisecond, cfg.Form.Debounce.Books)
	assert.Equal(t, 300*time.Millisecond, cfg.Scan.Interval)
}

func TestLoadFile_ReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
server:
  base_url: "https://library.example.org/"
  timeout: 5s
form:
  order: group-book-student
  mode: manual
  strict: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://library.example.org", cfg.Server.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.False(t, cfg.Form.StudentFirst())
	assert.False(t, cfg.Form.QuantityMode())
	assert.True(t, cfg.Form.Strict)
}

func TestLoadFile_RejectsUnknownMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("form:\n  mode: telepathy\n"), 0644))

	_, err := config.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mode")
}

func TestLoadFile_EnvOverride(t *testing.T) {
	t.Setenv("LIBREQ_SERVER_BASE_URL", "http://10.0.0.5:8080")

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8080", cfg.Server.BaseURL)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	cfg.Form.Mode = config.ModeManual
	cfg.Form.Debounce.Books = time.Second

	require.NoError(t, config.Save(cfg, path))

	again, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.ModeManual, again.Form.Mode)
	assert.Equal(t, time.Second, again.Form.Debounce.Books)
}

func TestEffectiveCollation(t *testing.T) {
	if got := (config.FormConfig{}).EffectiveCollation(); got != "ru" {
		t.Errorf("EffectiveCollation = %q, want %q", got, "ru")
	}
	if got := (config.FormConfig{Collation: "kk"}).EffectiveCollation(); got != "kk" {
		t.Errorf("EffectiveCollation = %q, want %q", got, "kk")
	}
}

func TestDefaultPath(t *testing.T) {
	p := config.DefaultPath()
	if !strings.HasSuffix(p, filepath.Join("libreq", "config.yml")) {
		t.Errorf("DefaultPath = %q, should end with libreq/config.yml", p)
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	cases := []struct{ in, want string }{
		{"~/foo/bar", filepath.Join(home, "foo", "bar")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}
	for _, c := range cases {
		if got := config.ExpandHome(c.in); got != c.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resilience.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, algorithms.DefaultMaxPaths, cfg.Analysis.MaxPaths)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  corsAllowedOrigins: ["https://ops.example.com"]
storage:
  driver: postgres
  dsn: postgres://localhost/resilience
analysis:
  bottleneckThreshold: 0.2
  maxPaths: 8
  wassermanFaust: true
  timeout: 10s
reports:
  interval: 1h
  format: yaml
  compress: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://ops.example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.InDelta(t, 0.2, cfg.Analysis.BottleneckThreshold, 1e-12)
	// Unset keys keep their defaults.
	assert.InDelta(t, algorithms.DefaultCriticalThreshold, cfg.Analysis.CriticalThreshold, 1e-12)
	assert.Equal(t, 8, cfg.Analysis.MaxPaths)
	assert.Equal(t, 10*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, time.Hour, cfg.Reports.Interval)
	assert.True(t, cfg.Reports.Compress)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")
	t.Setenv("RESILIENCE_ADDR", ":7070")
	t.Setenv("RESILIENCE_MAX_PATHS", "3")
	t.Setenv("RESILIENCE_STRICT_MISSING_TARGETS", "true")
	t.Setenv("RESILIENCE_CORS_ORIGINS", "a.example, b.example,")
	t.Setenv("RESILIENCE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Analysis.MaxPaths)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, algorithms.MissingTargetError, cfg.MissingTargetPolicy())
}

func TestEnvParseErrors(t *testing.T) {
	t.Setenv("RESILIENCE_MAX_PATHS", "many")
	t.Setenv("RESILIENCE_ANALYSIS_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESILIENCE_MAX_PATHS")
	assert.Contains(t, err.Error(), "RESILIENCE_ANALYSIS_TIMEOUT")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	require.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero bottleneck threshold", func(c *Config) { c.Analysis.BottleneckThreshold = 0 }, "analysis.bottleneckThreshold"},
		{"critical threshold above one", func(c *Config) { c.Analysis.CriticalThreshold = 1.5 }, "analysis.criticalThreshold"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"too many paths", func(c *Config) { c.Analysis.MaxPaths = 500 }, "analysis.maxPaths"},
		{"report without sink", func(c *Config) {
			c.Reports.Interval = time.Hour
			c.Reports.Dir = ""
		}, "reports"},
		{"alerts threshold out of range", func(c *Config) {
			c.Alerts.PublishAddr = "tcp://127.0.0.1:40899"
			c.Alerts.HealthThreshold = 101
		}, "alerts.healthThreshold"},
		{"tls without certificate", func(c *Config) { c.Server.TLS.Enabled = true }, "server.tls"},
		{"tls cert without key", func(c *Config) {
			c.Server.TLS.Enabled = true
			c.Server.TLS.CertFile = "server.crt"
		}, "server.tls"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestMetricsConfig(t *testing.T) {
	cfg := Default()
	cfg.Analysis.BottleneckThreshold = 0.3
	cfg.Analysis.WassermanFaust = true
	cfg.Analysis.StrictDanglingEdges = true

	mc := cfg.MetricsConfig()
	assert.InDelta(t, 0.3, mc.Classifier.BottleneckThreshold, 1e-12)
	assert.True(t, mc.Closeness.WassermanFaust)
	assert.Equal(t, graph.DanglingError, mc.Dangling)
	assert.Equal(t, algorithms.MissingTargetNoop, Default().MissingTargetPolicy())
}

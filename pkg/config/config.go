// Package config loads service configuration from an optional YAML file,
// then applies RESILIENCE_* environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

const envPrefix = "RESILIENCE_"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Reports  ReportsConfig  `yaml:"reports"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	ReadTimeout        time.Duration `yaml:"readTimeout"`
	WriteTimeout       time.Duration `yaml:"writeTimeout"`
	IdleTimeout        time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes       int64         `yaml:"maxBodyBytes"`
	CORSAllowedOrigins []string      `yaml:"corsAllowedOrigins"`
	// TrustedProxies lists CIDRs whose X-Forwarded-For header is believed.
	TrustedProxies []string `yaml:"trustedProxies"`
	// AnalysisRateLimit caps analytics requests per client per second; 0 disables it.
	AnalysisRateLimit float64 `yaml:"analysisRateLimit"`
	AnalysisBurst     int     `yaml:"analysisBurst"`
	// AuditBufferSize is how many change events GET /api/audit retains.
	AuditBufferSize int       `yaml:"auditBufferSize"`
	TLS             TLSConfig `yaml:"tls"`
}

// TLSConfig serves HTTPS when Enabled. Without cert and key files a
// self-signed certificate is generated if AutoGenerate is set.
type TLSConfig struct {
	Enabled      bool     `yaml:"enabled"`
	CertFile     string   `yaml:"certFile"`
	KeyFile      string   `yaml:"keyFile"`
	CAFile       string   `yaml:"caFile"`
	AutoGenerate bool     `yaml:"autoGenerate"`
	Hosts        []string `yaml:"hosts"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	DSN    string `yaml:"dsn"`
}

type AnalysisConfig struct {
	BottleneckThreshold  float64       `yaml:"bottleneckThreshold"`
	CriticalThreshold    float64       `yaml:"criticalThreshold"`
	MaxPaths             int           `yaml:"maxPaths"`
	TopRoutes            int           `yaml:"topRoutes"`
	WassermanFaust       bool          `yaml:"wassermanFaust"`
	StrictDanglingEdges  bool          `yaml:"strictDanglingEdges"`
	StrictMissingTargets bool          `yaml:"strictMissingTargets"`
	Timeout              time.Duration `yaml:"timeout"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

// ReportsConfig drives the periodic report job. An Interval of 0 disables it.
type ReportsConfig struct {
	Interval time.Duration `yaml:"interval"`
	Format   string        `yaml:"format"` // json | yaml
	Compress bool          `yaml:"compress"`
	Dir      string        `yaml:"dir"`
	S3       S3Config      `yaml:"s3"`
}

// AlertsConfig configures the pub/sub alert publisher. An empty PublishAddr disables it.
type AlertsConfig struct {
	PublishAddr     string        `yaml:"publishAddr"`
	HealthThreshold int           `yaml:"healthThreshold"`
	Interval        time.Duration `yaml:"interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

// Default returns a configuration that runs locally against SQLite.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    10 << 20,
			AnalysisBurst:   10,
			AuditBufferSize: 1000,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "resilience.db",
		},
		Analysis: AnalysisConfig{
			BottleneckThreshold: algorithms.DefaultBottleneckThreshold,
			CriticalThreshold:   algorithms.DefaultCriticalThreshold,
			MaxPaths:            algorithms.DefaultMaxPaths,
			TopRoutes:           algorithms.DefaultTopRoutes,
			Timeout:             30 * time.Second,
		},
		Reports: ReportsConfig{
			Format: "json",
			Dir:    "reports",
			S3:     S3Config{Region: "us-east-1", Prefix: "resilience/reports/"},
		},
		Alerts: AlertsConfig{
			HealthThreshold: 60,
			Interval:        5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("ADDR", &c.Server.Addr)
	dur("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)
	if v := os.Getenv(envPrefix + "CORS_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = splitList(v)
	}
	if v := os.Getenv(envPrefix + "TRUSTED_PROXIES"); v != "" {
		c.Server.TrustedProxies = splitList(v)
	}
	float("ANALYSIS_RATE_LIMIT", &c.Server.AnalysisRateLimit)
	integer("ANALYSIS_BURST", &c.Server.AnalysisBurst)
	integer("AUDIT_BUFFER_SIZE", &c.Server.AuditBufferSize)
	boolean("TLS_ENABLED", &c.Server.TLS.Enabled)
	str("TLS_CERT_FILE", &c.Server.TLS.CertFile)
	str("TLS_KEY_FILE", &c.Server.TLS.KeyFile)
	str("TLS_CA_FILE", &c.Server.TLS.CAFile)
	boolean("TLS_AUTO_GENERATE", &c.Server.TLS.AutoGenerate)

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("DATABASE_URL", &c.Storage.DSN)

	float("BOTTLENECK_THRESHOLD", &c.Analysis.BottleneckThreshold)
	float("CRITICAL_THRESHOLD", &c.Analysis.CriticalThreshold)
	integer("MAX_PATHS", &c.Analysis.MaxPaths)
	integer("TOP_ROUTES", &c.Analysis.TopRoutes)
	boolean("WASSERMAN_FAUST", &c.Analysis.WassermanFaust)
	boolean("STRICT_DANGLING_EDGES", &c.Analysis.StrictDanglingEdges)
	boolean("STRICT_MISSING_TARGETS", &c.Analysis.StrictMissingTargets)
	dur("ANALYSIS_TIMEOUT", &c.Analysis.Timeout)

	dur("REPORT_INTERVAL", &c.Reports.Interval)
	str("REPORT_FORMAT", &c.Reports.Format)
	boolean("REPORT_COMPRESS", &c.Reports.Compress)
	str("REPORT_DIR", &c.Reports.Dir)
	str("REPORT_S3_BUCKET", &c.Reports.S3.Bucket)
	str("REPORT_S3_REGION", &c.Reports.S3.Region)
	str("REPORT_S3_ENDPOINT", &c.Reports.S3.Endpoint)
	str("REPORT_S3_PREFIX", &c.Reports.S3.Prefix)
	str("REPORT_S3_ACCESS_KEY_ID", &c.Reports.S3.AccessKeyID)
	str("REPORT_S3_SECRET_ACCESS_KEY", &c.Reports.S3.SecretAccessKey)

	str("ALERTS_PUBLISH_ADDR", &c.Alerts.PublishAddr)
	integer("ALERTS_HEALTH_THRESHOLD", &c.Alerts.HealthThreshold)
	dur("ALERTS_INTERVAL", &c.Alerts.Interval)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks every section and reports all problems together.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("config").
		Required("server.addr", c.Server.Addr).
		MinDuration("server.shutdownTimeout", c.Server.ShutdownTimeout, time.Second).
		When(c.Server.AnalysisRateLimit > 0, func(cv *validation.ConfigValidator) {
			cv.Positive("server.analysisBurst", c.Server.AnalysisBurst)
		}).
		When(c.Server.TLS.Enabled, func(cv *validation.ConfigValidator) {
			cv.Custom("server.tls", func() error {
				if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
					return errors.New("certFile and keyFile must be set together")
				}
				if c.Server.TLS.CertFile == "" && !c.Server.TLS.AutoGenerate {
					return errors.New("certFile/keyFile or autoGenerate is required")
				}
				return nil
			})
		}).
		OneOf("storage.driver", c.Storage.Driver, []string{"sqlite", "postgres"}).
		Required("storage.dsn", c.Storage.DSN).
		RangeFloat("analysis.bottleneckThreshold", c.Analysis.BottleneckThreshold, 0, 1).
		RangeFloat("analysis.criticalThreshold", c.Analysis.CriticalThreshold, 0, 1).
		RangeInt("analysis.maxPaths", c.Analysis.MaxPaths, 1, validation.MaxPathsPerRequest).
		MinDuration("analysis.timeout", c.Analysis.Timeout, time.Second).
		OneOf("reports.format", c.Reports.Format, []string{"json", "yaml"}).
		When(c.Reports.Interval > 0, func(cv *validation.ConfigValidator) {
			cv.MinDuration("reports.interval", c.Reports.Interval, time.Minute)
			cv.Custom("reports", func() error {
				if c.Reports.Dir == "" && c.Reports.S3.Bucket == "" {
					return errors.New("either dir or s3.bucket is required when reports are scheduled")
				}
				return nil
			})
		}).
		When(c.Reports.S3.Bucket != "", func(cv *validation.ConfigValidator) {
			cv.Required("reports.s3.region", c.Reports.S3.Region)
		}).
		When(c.Alerts.PublishAddr != "", func(cv *validation.ConfigValidator) {
			cv.RangeInt("alerts.healthThreshold", c.Alerts.HealthThreshold, 0, 100)
			cv.MinDuration("alerts.interval", c.Alerts.Interval, time.Second)
		}).
		OneOf("logging.format", c.Logging.Format, []string{"json", "text"}).
		Validate()
}

// MetricsConfig translates the analysis section into aggregator settings.
func (c *Config) MetricsConfig() algorithms.MetricsConfig {
	cfg := algorithms.MetricsConfig{
		Classifier: algorithms.ClassifierConfig{
			BottleneckThreshold: c.Analysis.BottleneckThreshold,
			CriticalThreshold:   c.Analysis.CriticalThreshold,
		},
		Closeness: algorithms.ClosenessOptions{WassermanFaust: c.Analysis.WassermanFaust},
		TopRoutes: c.Analysis.TopRoutes,
	}
	if c.Analysis.StrictDanglingEdges {
		cfg.Dangling = graph.DanglingError
	}
	return cfg
}

// MissingTargetPolicy is the disruption policy selected by configuration.
func (c *Config) MissingTargetPolicy() algorithms.MissingTargetPolicy {
	if c.Analysis.StrictMissingTargets {
		return algorithms.MissingTargetError
	}
	return algorithms.MissingTargetNoop
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dasmlab/mtbridge/pkg/translate"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// EnvFileVar names a .env file that is tried before Options.EnvFile.
const EnvFileVar = "MTBRIDGE_ENV_FILE"

// Config is the process configuration, read from the environment.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"MT_LOG_FORMAT" default:"text"`

	GRPCPort int `envconfig:"MT_GRPC_PORT" default:"50051"`
	HTTPPort int `envconfig:"MT_HTTP_PORT" default:"8080"`

	Provider        string `envconfig:"MT_PROVIDER" default:"microsoft-cognitive"`
	MicrosoftID     string `envconfig:"MT_MICROSOFT_ID"`
	MicrosoftSecret string `envconfig:"MT_MICROSOFT_SECRET"`
	CognitiveKey    string `envconfig:"MT_MICROSOFT_COGNITIVE_KEY"`

	AuthURL        string `envconfig:"MT_MICROSOFT_AUTH_URL"`
	TokenURL       string `envconfig:"MT_MICROSOFT_TOKEN_URL"`
	BaseURL        string `envconfig:"MT_MICROSOFT_BASE_URL"`
	TerminologyURL string `envconfig:"MT_TERMINOLOGY_URL"`

	RequestTimeout time.Duration `envconfig:"MT_REQUEST_TIMEOUT" default:"10s"`
	TokenLease     time.Duration `envconfig:"MT_TOKEN_LEASE" default:"9m"`

	// LocaleTable replaces the built-in widening table when set.
	LocaleTable []string `envconfig:"MT_LOCALE_TABLE"`

	// EnvFile is the .env file Load applied, if any.
	EnvFile string `ignored:"true"`
}

// Options control Load.
type Options struct {
	// EnvFile is read into the process environment before it is processed.
	// A missing file is skipped.
	EnvFile   string
	// Overrides run after the environment is processed and before validation.
	Overrides []func(*Config)
	Logger    *logrus.Logger
}

// Load reads the env file and the environment, applies the overrides, then
// validates the result once.
func Load(opts Options) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	envFile, err := loadEnvFile(opts.EnvFile, logger)
	if err != nil {
		return nil, err
	}

	cfg := Config{EnvFile: envFile}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	for _, override := range opts.Overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile applies the first existing file among $MTBRIDGE_ENV_FILE and
// requested. Values from the file override the process environment.
func loadEnvFile(requested string, logger *logrus.Logger) (string, error) {
	candidates := []struct {
		origin string
		path   string
	}{
		{origin: EnvFileVar, path: os.Getenv(EnvFileVar)},
		{origin: "option", path: requested},
	}

	for _, c := range candidates {
		path := strings.TrimSpace(c.path)
		if path == "" {
			continue
		}
		fields := logrus.Fields{"origin": c.origin, "path": path}

		err := godotenv.Overload(path)
		switch {
		case err == nil:
			logger.WithFields(fields).Info("Loaded environment file")
			return path, nil
		case errors.Is(err, fs.ErrNotExist):
			logger.WithFields(fields).Debug("Environment file not found")
		default:
			return "", fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return "", nil
}

// Validate checks values that envconfig cannot. Provider credentials are
// checked when the provider is constructed.
func (c *Config) Validate() error {
	if _, err := translate.ParseProviderType(c.Provider); err != nil {
		return fmt.Errorf("MT_PROVIDER: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "text", "json":
	default:
		return fmt.Errorf("MT_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("MT_GRPC_PORT must be between 1 and 65535")
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("MT_HTTP_PORT must be between 0 and 65535")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("MT_REQUEST_TIMEOUT must be > 0")
	}
	if c.TokenLease <= 0 {
		return fmt.Errorf("MT_TOKEN_LEASE must be > 0")
	}
	if len(c.LocaleTable) > 0 {
		if _, err := translate.ParseLocaleTable(c.LocaleTable); err != nil {
			return fmt.Errorf("MT_LOCALE_TABLE: %w", err)
		}
	}
	return nil
}

// TranslateConfig converts c into the provider factory configuration.
func (c *Config) TranslateConfig(logger *logrus.Logger) (translate.Config, error) {
	provider, err := translate.ParseProviderType(c.Provider)
	if err != nil {
		return translate.Config{}, err
	}

	cfg := translate.Config{
		Provider:        provider,
		MicrosoftID:     c.MicrosoftID,
		MicrosoftSecret: c.MicrosoftSecret,
		CognitiveKey:    c.CognitiveKey,
		AuthURL:         c.AuthURL,
		TokenURL:        c.TokenURL,
		BaseURL:         c.BaseURL,
		TerminologyURL:  c.TerminologyURL,
		Timeout:         c.RequestTimeout,
		TokenLease:      c.TokenLease,
		Logger:          logger,
	}
	if len(c.LocaleTable) > 0 {
		table, err := translate.ParseLocaleTable(c.LocaleTable)
		if err != nil {
			return translate.Config{}, err
		}
		cfg.Locales = &table
	}
	return cfg, nil
}

// NewLogger builds the process logger from LOG_LEVEL and MT_LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if strings.EqualFold(strings.TrimSpace(c.LogFormat), "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

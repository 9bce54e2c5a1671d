package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dasmlab/mtbridge/pkg/translate"
	"github.com/sirupsen/logrus"
)

func validConfig() Config {
	return Config{
		Environment:    "local",
		LogLevel:       "info",
		LogFormat:      "text",
		GRPCPort:       50051,
		HTTPPort:       8080,
		Provider:       "microsoft-cognitive",
		CognitiveKey:   "key",
		RequestTimeout: 10 * time.Second,
		TokenLease:     9 * time.Minute,
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MT_PROVIDER", "terminology")
	t.Setenv("MT_REQUEST_TIMEOUT", "3s")
	t.Setenv("MT_TOKEN_LEASE", "5m")
	t.Setenv("MT_LOCALE_TABLE", "pt_BR,pt_PT")
	t.Setenv("MT_LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv(EnvFileVar, "")

	cfg, err := Load(Options{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout != 3*time.Second || cfg.TokenLease != 5*time.Minute {
		t.Fatalf("unexpected durations: %v %v", cfg.RequestTimeout, cfg.TokenLease)
	}
	if len(cfg.LocaleTable) != 2 || cfg.LocaleTable[0] != "pt_BR" {
		t.Fatalf("unexpected locale table: %v", cfg.LocaleTable)
	}

	tc, err := cfg.TranslateConfig(nil)
	if err != nil {
		t.Fatalf("translate config: %v", err)
	}
	if tc.Provider != translate.ProviderMicrosoftTerminology {
		t.Fatalf("unexpected provider: %q", tc.Provider)
	}
	if tc.Locales == nil || tc.Locales.Variants("pt")[0] != "pt_BR" {
		t.Fatalf("expected custom locale table to be applied")
	}

	logger := cfg.NewLogger()
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("unexpected log level: %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", logger.Formatter)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := validConfig()
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(*Config){
		"MT_PROVIDER":        func(c *Config) { c.Provider = "argos" },
		"LOG_LEVEL":          func(c *Config) { c.LogLevel = "loud" },
		"MT_LOG_FORMAT":      func(c *Config) { c.LogFormat = "xml" },
		"MT_GRPC_PORT":       func(c *Config) { c.GRPCPort = 0 },
		"MT_REQUEST_TIMEOUT": func(c *Config) { c.RequestTimeout = 0 },
		"MT_TOKEN_LEASE":     func(c *Config) { c.TokenLease = -time.Second },
		"MT_LOCALE_TABLE":    func(c *Config) { c.LocaleTable = []string{"123_456"} },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: expected validation error naming the variable, got %v", name, err)
		}
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeEnvFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoadEnvFileOrder(t *testing.T) {
	dir := t.TempDir()
	optionFile := writeEnvFile(t, dir, "option.env", "MT_TERMINOLOGY_URL=http://from-option\n")
	overrideFile := writeEnvFile(t, dir, "override.env", "MT_TERMINOLOGY_URL=http://from-override\n")

	t.Setenv("MT_TERMINOLOGY_URL", "http://from-process")
	t.Setenv(EnvFileVar, "")

	cfg, err := Load(Options{EnvFile: optionFile, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EnvFile != optionFile || cfg.TerminologyURL != "http://from-option" {
		t.Fatalf("unexpected result: file=%q url=%q", cfg.EnvFile, cfg.TerminologyURL)
	}

	t.Setenv(EnvFileVar, overrideFile)
	cfg, err = Load(Options{EnvFile: optionFile, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EnvFile != overrideFile || cfg.TerminologyURL != "http://from-override" {
		t.Fatalf("unexpected result: file=%q url=%q", cfg.EnvFile, cfg.TerminologyURL)
	}
}

func TestLoadMissingEnvFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvFileVar, filepath.Join(dir, "absent-override.env"))
	t.Setenv("MT_PROVIDER", "terminology")

	cfg, err := Load(Options{EnvFile: filepath.Join(dir, "absent.env"), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EnvFile != "" || cfg.Provider != "terminology" {
		t.Fatalf("unexpected result: file=%q provider=%q", cfg.EnvFile, cfg.Provider)
	}
}

func TestLoadUnreadableEnvFileFails(t *testing.T) {
	t.Setenv(EnvFileVar, "")

	// A directory opens but cannot be read as a file.
	dir := t.TempDir()
	_, err := Load(Options{EnvFile: dir, Logger: quietLogger()})
	if err == nil || !strings.Contains(err.Error(), "load env file") {
		t.Fatalf("expected env file error, got %v", err)
	}
}

func TestLoadOverridesRunBeforeValidation(t *testing.T) {
	t.Setenv(EnvFileVar, "")
	t.Setenv("MT_PROVIDER", "argos")

	if _, err := Load(Options{Logger: quietLogger()}); err == nil || !strings.Contains(err.Error(), "MT_PROVIDER") {
		t.Fatalf("expected invalid provider to fail, got %v", err)
	}

	cfg, err := Load(Options{
		Logger:    quietLogger(),
		Overrides: []func(*Config){
			func(c *Config) { c.Provider = "microsoft" },
			func(c *Config) { c.GRPCPort = 6000 },
		},
	})
	if err != nil {
		t.Fatalf("expected override to replace the invalid value, got %v", err)
	}
	if cfg.Provider != "microsoft" || cfg.GRPCPort != 6000 {
		t.Fatalf("unexpected overrides: provider=%q port=%d", cfg.Provider, cfg.GRPCPort)
	}

	_, err = Load(Options{
		Logger:    quietLogger(),
		Overrides: []func(*Config){
			func(c *Config) { c.Provider = "microsoft" },
			func(c *Config) { c.GRPCPort = 0 },
		},
	})
	if err == nil || !strings.Contains(err.Error(), "MT_GRPC_PORT") {
		t.Fatalf("expected overridden value to be validated, got %v", err)
	}
}

package translate

import (
	"fmt"
	"strings"
	"time"

	"github.com/dasmlab/mtbridge/pkg/token"
	"github.com/sirupsen/logrus"
)

// ProviderType selects the backend variant.
type ProviderType string

const (
	// ProviderMicrosoft uses the Translator V2 API with OAuth2 client credentials.
	ProviderMicrosoft ProviderType = "microsoft"
	// ProviderMicrosoftCognitive uses the Translator V2 API with a Cognitive Services key.
	ProviderMicrosoftCognitive ProviderType = "microsoft-cognitive"
	// ProviderMicrosoftTerminology uses the SOAP Terminology service.
	ProviderMicrosoftTerminology ProviderType = "microsoft-terminology"
)

// Config holds everything needed to construct a Machine.
type Config struct {
	// Provider specifies which backend to use.
	Provider ProviderType

	// MicrosoftID and MicrosoftSecret are the OAuth2 client credentials of ProviderMicrosoft.
	MicrosoftID     string
	MicrosoftSecret string
	// CognitiveKey is the subscription key of ProviderMicrosoftCognitive.
	CognitiveKey string

	// Endpoint overrides; empty values use the public Microsoft endpoints.
	AuthURL        string
	TokenURL       string
	BaseURL        string
	TerminologyURL string

	// Timeout bounds every request. Defaults to transport.DefaultTimeout.
	Timeout time.Duration
	// TokenLease overrides token.DefaultLease.
	TokenLease time.Duration
	// Clock is used for token expiry. Defaults to the system clock.
	Clock token.Clock

	// Locales is the widening table. Defaults to DefaultLocaleTable().
	Locales *LocaleTable
	// Reporter receives provider failures. Defaults to a LogReporter.
	Reporter ErrorReporter
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewMachine validates cfg, builds the configured backend and wraps it in a Machine.
// Missing credentials are reported as *ConfigError before any network activity.
func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	locales := DefaultLocaleTable()
	if cfg.Locales != nil {
		locales = *cfg.Locales
	}

	cfg.Logger.WithFields(logrus.Fields{
		"provider": cfg.Provider,
		"name":     backend.Name(),
		"locales":  locales.Len(),
	}).Info("Created translation provider")

	return New(backend, locales, cfg.Reporter, cfg.Logger), nil
}

// NewBackend builds the backend variant named by cfg.Provider.
func NewBackend(cfg Config) (Backend, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	switch cfg.Provider {
	case ProviderMicrosoft:
		return NewMicrosoftClient(cfg)
	case ProviderMicrosoftCognitive:
		return NewCognitiveClient(cfg)
	case ProviderMicrosoftTerminology:
		return NewTerminologyClient(cfg)
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"provider": cfg.Provider,
		}).Error("Unknown translation provider")
		return nil, fmt.Errorf("unknown translation provider: %s", cfg.Provider)
	}
}

// ParseProviderType parses a string into a ProviderType.
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "microsoft", "microsoft-translator":
		return ProviderMicrosoft, nil
	case "microsoft-cognitive", "cognitive":
		return ProviderMicrosoftCognitive, nil
	case "microsoft-terminology", "terminology":
		return ProviderMicrosoftTerminology, nil
	default:
		return "", fmt.Errorf("unknown provider type: %s (supported: microsoft, microsoft-cognitive, microsoft-terminology)", s)
	}
}

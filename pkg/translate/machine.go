package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxTextLength is the number of characters sent to a provider per request.
// Longer input is truncated silently.
const DefaultMaxTextLength = 5000

// Machine answers translation requests with one Backend. It is safe for
// concurrent use; each Machine owns its token cache and language set.
type Machine struct {
	backend    Backend
	negotiator *Negotiator
	reporter   ErrorReporter
	metrics    *MetricsCollector
	logger     *logrus.Logger
	maxLength  int
}

var _ Translator = (*Machine)(nil)

// New creates a Machine around backend. A nil reporter logs through logger.
func New(backend Backend, locales LocaleTable, reporter ErrorReporter, logger *logrus.Logger) *Machine {
	if logger == nil {
		logger = logrus.New()
	}
	if reporter == nil {
		reporter = NewLogReporter(logger)
	}

	maxLength := DefaultMaxTextLength
	if l, ok := backend.(textLimiter); ok && l.MaxTextLength() > 0 {
		maxLength = l.MaxTextLength()
	}

	return &Machine{
		backend:    backend,
		negotiator: NewNegotiator(backend, locales, reporter, logger),
		reporter:   reporter,
		metrics:    NewMetricsCollector(backend.Name()),
		logger:     logger,
		maxLength:  maxLength,
	}
}

// Name returns the backend name.
func (m *Machine) Name() string {
	return m.backend.Name()
}

// Translate returns candidate translations of text from source to target.
// Empty text, identical languages and unsupported pairs yield an empty result.
// Provider failures are reported and returned as *TranslationError.
func (m *Machine) Translate(ctx context.Context, source, target, text string) ([]Candidate, error) {
	if text == "" {
		return []Candidate{}, nil
	}

	source = m.backend.ConvertLanguage(source)
	target = m.backend.ConvertLanguage(target)
	if source == target {
		m.metrics.RecordNegotiation(outcomeSame)
		return []Candidate{}, nil
	}

	pair, ok := m.negotiator.Negotiate(ctx, source, target)
	if !ok {
		return []Candidate{}, nil
	}

	text = truncate(text, m.maxLength)
	length := len([]rune(text))

	m.logger.WithFields(logrus.Fields{
		"provider":    m.backend.Name(),
		"source_lang": pair.Source,
		"target_lang": pair.Target,
		"text_length": length,
	}).Debug("Requesting translations")

	startTime := time.Now()
	candidates, err := m.backend.DownloadTranslations(ctx, pair.Source, pair.Target, text)
	if err != nil {
		m.metrics.RecordTranslationRequest(time.Since(startTime), false, length, 0)
		safeReport(m.reporter, err, fmt.Sprintf("Failed to fetch translations from %s", m.backend.Name()))
		return nil, newTranslationError(err)
	}
	m.metrics.RecordTranslationRequest(time.Since(startTime), true, length, len(candidates))

	if candidates == nil {
		candidates = []Candidate{}
	}
	return candidates, nil
}

// TranslateFor translates text into target using the source language of origin.
func (m *Machine) TranslateFor(ctx context.Context, origin Origin, target, text string) ([]Candidate, error) {
	source := ""
	if origin != nil {
		source = origin.SourceLanguage()
	}
	return m.Translate(ctx, source, target, text)
}

// IsSupported reports whether the pair, after conversion, is supported without widening.
func (m *Machine) IsSupported(ctx context.Context, source, target string) bool {
	return m.negotiator.IsSupported(ctx, m.backend.ConvertLanguage(source), m.backend.ConvertLanguage(target))
}

// SupportedLanguages returns the sorted provider-native codes.
func (m *Machine) SupportedLanguages(ctx context.Context) ([]string, error) {
	return m.negotiator.Codes(ctx), nil
}

// CheckHealth downloads the supported languages if they are not cached yet.
func (m *Machine) CheckHealth(ctx context.Context) error {
	if _, err := m.negotiator.Load(ctx); err != nil {
		return fmt.Errorf("fetch supported languages: %w", err)
	}
	return nil
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Negotiator decides whether a language pair can be sent to a backend,
// widening bare codes with the locale table when the exact pair is unsupported.
// The supported-language set is downloaded once per Negotiator.
type Negotiator struct {
	backend  Backend
	locales  LocaleTable
	reporter ErrorReporter
	metrics  *MetricsCollector
	logger   *logrus.Logger

	mu        sync.RWMutex
	supported map[string]struct{}
	group     singleflight.Group
}

// NewNegotiator creates a negotiator over backend's supported languages.
func NewNegotiator(backend Backend, locales LocaleTable, reporter ErrorReporter, logger *logrus.Logger) *Negotiator {
	if logger == nil {
		logger = logrus.New()
	}
	if reporter == nil {
		reporter = NewLogReporter(logger)
	}
	return &Negotiator{
		backend:  backend,
		locales:  locales,
		reporter: reporter,
		metrics:  NewMetricsCollector(backend.Name()),
		logger:   logger,
	}
}

// Load returns the memoized supported set, downloading it on first use.
// Concurrent first callers share one download. A failed download is not memoized.
func (n *Negotiator) Load(ctx context.Context) (map[string]struct{}, error) {
	n.mu.RLock()
	set := n.supported
	n.mu.RUnlock()
	if set != nil {
		return set, nil
	}

	// The download is shared, so it must outlive the caller that started it.
	flight := context.WithoutCancel(ctx)
	ch := n.group.DoChan("languages", func() (interface{}, error) {
		n.mu.RLock()
		set := n.supported
		n.mu.RUnlock()
		if set != nil {
			return set, nil
		}

		codes, err := n.backend.DownloadLanguages(flight)
		if err != nil {
			n.metrics.RecordLanguageFetch(false)
			return nil, err
		}
		n.metrics.RecordLanguageFetch(true)

		set = toSet(codes)
		n.mu.Lock()
		n.supported = set
		n.mu.Unlock()

		n.logger.WithFields(logrus.Fields{
			"provider": n.backend.Name(),
			"count":    len(set),
		}).Info("Fetched supported languages")
		return set, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[string]struct{}), nil
	}
}

// Supported returns the supported set, falling back to the backend's static
// default list when the download fails.
func (n *Negotiator) Supported(ctx context.Context) map[string]struct{} {
	set, err := n.Load(ctx)
	if err == nil {
		return set
	}

	safeReport(n.reporter, err, fmt.Sprintf("Failed to fetch languages from %s, using defaults", n.backend.Name()))
	if d, ok := n.backend.(defaultLanguager); ok {
		return toSet(d.DefaultLanguages())
	}
	return map[string]struct{}{}
}

// Codes returns the supported set as a sorted slice.
func (n *Negotiator) Codes(ctx context.Context) []string {
	set := n.Supported(ctx)
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsSupported reports whether both codes are in the supported set.
func (n *Negotiator) IsSupported(ctx context.Context, source, target string) bool {
	set := n.Supported(ctx)
	return contains(set, source) && contains(set, target)
}

// Negotiate returns the pair to send to the backend. ok is false when the pair
// cannot be served or when both sides widen to the same language.
func (n *Negotiator) Negotiate(ctx context.Context, source, target string) (LanguagePair, bool) {
	set := n.Supported(ctx)
	if contains(set, source) && contains(set, target) {
		n.metrics.RecordNegotiation(outcomeExact)
		return LanguagePair{Source: source, Target: target}, true
	}

	widenedSource := n.widen(set, source)
	widenedTarget := n.widen(set, target)

	fields := logrus.Fields{
		"provider":       n.backend.Name(),
		"source":         source,
		"target":         target,
		"widened_source": widenedSource,
		"widened_target": widenedTarget,
	}

	if widenedSource == widenedTarget {
		n.metrics.RecordNegotiation(outcomeSame)
		n.logger.WithFields(fields).Debug("Language pair widened to the same language")
		return LanguagePair{}, false
	}
	if !contains(set, widenedSource) || !contains(set, widenedTarget) {
		n.metrics.RecordNegotiation(outcomeUnsupported)
		n.logger.WithFields(fields).Debug("Language pair not supported")
		return LanguagePair{}, false
	}

	n.metrics.RecordNegotiation(outcomeWidened)
	n.logger.WithFields(fields).Debug("Language pair supported after widening")
	return LanguagePair{Source: widenedSource, Target: widenedTarget}, true
}

// widen returns code when it is supported. A bare code is replaced by a
// region-qualified variant from the locale table, preferring a supported one;
// a region-qualified code is reduced to its base language when that is supported.
func (n *Negotiator) widen(set map[string]struct{}, code string) string {
	if code == "" || contains(set, code) {
		return code
	}

	if hasRegion(code) {
		if base := n.backend.ConvertLanguage(BaseLanguage(code)); contains(set, base) {
			return base
		}
		return code
	}

	first := ""
	for _, variant := range n.locales.Variants(code) {
		converted := n.backend.ConvertLanguage(variant)
		if first == "" {
			first = converted
		}
		if contains(set, converted) {
			return converted
		}
	}
	if first != "" {
		return first
	}
	return code
}

func toSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

func contains(set map[string]struct{}, code string) bool {
	_, ok := set[code]
	return ok
}

// safeReport hands err to reporter, swallowing any panic it raises.
func safeReport(reporter ErrorReporter, err error, message string) {
	if reporter == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	reporter.Report(err, message)
}

package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dasmlab/mtbridge/pkg/transport"
)

func newTestMachine(backend *stubBackend, reporter ErrorReporter) *Machine {
	return New(backend, DefaultLocaleTable(), reporter, quietLogger())
}

type projectOrigin struct {
	source string
}

func (p projectOrigin) SourceLanguage() string {
	return p.source
}

func TestTranslate_EmptyTextMakesNoCalls(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "stub", languages: []string{"en", "fr"}}
	m := newTestMachine(backend, nil)

	got, err := m.Translate(context.Background(), "en", "fr", "")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
	if langCalls, calls := backend.counts(); langCalls != 0 || calls != 0 {
		t.Fatalf("did not expect backend calls, got languages=%d translations=%d", langCalls, calls)
	}
}

func TestTranslate_SameLanguageMakesNoCalls(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "stub", codec: CognitiveCodec, languages: []string{"en", "fr"}}
	m := newTestMachine(backend, nil)

	got, err := m.Translate(context.Background(), "en", "en_US", "hello")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
	if langCalls, calls := backend.counts(); langCalls != 0 || calls != 0 {
		t.Fatalf("did not expect backend calls, got languages=%d translations=%d", langCalls, calls)
	}
}

func TestTranslate_SameLanguageAfterWideningSkipsTranslate(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "stub", languages: []string{"en", "fr"}}
	m := newTestMachine(backend, nil)

	got, err := m.Translate(context.Background(), "en_GB", "en_US", "colour")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
	if _, calls := backend.counts(); calls != 0 {
		t.Fatalf("did not expect translate calls, got %d", calls)
	}
}

func TestTranslate_UnsupportedPairIsEmptyResult(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "stub", languages: []string{"en", "fr"}}
	m := newTestMachine(backend, nil)

	got, err := m.Translate(context.Background(), "en", "xx", "hello")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
	if _, calls := backend.counts(); calls != 0 {
		t.Fatalf("did not expect translate calls, got %d", calls)
	}
}

func TestTranslate_ReturnsBackendCandidates(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{
		name:      "stub",
		languages: []string{"en", "fr"},
		candidates: []Candidate{
			{Text: "Bonjour", Quality: 100, Service: "stub", Source: "Hello"},
		},
	}
	m := newTestMachine(backend, nil)

	got, err := m.Translate(context.Background(), "en-US", "fr", "Hello")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(got) != 1 || got[0].Text != "Bonjour" || got[0].Quality != 100 {
		t.Fatalf("unexpected candidates: %#v", got)
	}
	if backend.lastSource != "en" || backend.lastTarget != "fr" {
		t.Fatalf("unexpected negotiated pair: %s -> %s", backend.lastSource, backend.lastTarget)
	}
}

func TestTranslate_TruncatesToCap(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "stub", languages: []string{"en", "fr"}}
	m := newTestMachine(backend, nil)

	text := strings.Repeat("é", DefaultMaxTextLength+250)
	if _, err := m.Translate(context.Background(), "en", "fr", text); err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got := len([]rune(backend.lastText)); got != DefaultMaxTextLength {
		t.Fatalf("unexpected transmitted length: got %d want %d", got, DefaultMaxTextLength)
	}

	short := "short text"
	if _, err := m.Translate(context.Background(), "en", "fr", short); err != nil {
		t.Fatalf("translate: %v", err)
	}
	if backend.lastText != short {
		t.Fatalf("did not expect short text to change, got %q", backend.lastText)
	}
}

func TestTranslate_TransportFailureBecomesTranslationError(t *testing.T) {
	t.Parallel()

	reporter := &recordingReporter{}
	cause := &transport.Error{StatusCode: 503, Message: "Service Unavailable"}
	backend := &stubBackend{name: "stub", languages: []string{"en", "fr"}, err: cause}
	m := newTestMachine(backend, reporter)

	got, err := m.Translate(context.Background(), "en", "fr", "hello")
	if got != nil {
		t.Fatalf("did not expect candidates on failure, got %#v", got)
	}

	var translationErr *TranslationError
	if !errors.As(err, &translationErr) {
		t.Fatalf("expected TranslationError, got %T (%v)", err, err)
	}
	if translationErr.Kind != "TransportError" {
		t.Fatalf("unexpected kind: %q", translationErr.Kind)
	}
	if !strings.HasPrefix(err.Error(), "TransportError: ") || !strings.Contains(err.Error(), "Service Unavailable") {
		t.Fatalf("unexpected error message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected the underlying error to stay reachable")
	}
	if reporter.count() != 1 {
		t.Fatalf("unexpected report count: got %d want 1", reporter.count())
	}
	if reporter.messages[0] != "Failed to fetch translations from stub" {
		t.Fatalf("unexpected report message: %q", reporter.messages[0])
	}
}

func TestTranslate_PlainErrorUsesTypeName(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "stub", languages: []string{"en", "fr"}, err: errors.New("boom")}
	m := newTestMachine(backend, ReporterFunc(func(error, string) {}))

	_, err := m.Translate(context.Background(), "en", "fr", "hello")
	if err == nil || err.Error() != "errorString: boom" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTranslate_PanickingReporterIsContained(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "stub", languages: []string{"en", "fr"}, err: errors.New("boom")}
	m := newTestMachine(backend, ReporterFunc(func(error, string) {
		panic("reporter down")
	}))

	_, err := m.Translate(context.Background(), "en", "fr", "hello")
	var translationErr *TranslationError
	if !errors.As(err, &translationErr) {
		t.Fatalf("expected TranslationError, got %T (%v)", err, err)
	}
}

func TestTranslateFor_UsesOriginSourceLanguage(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{
		name:       "stub",
		codec:      CognitiveCodec,
		languages:  []string{"de", "fr"},
		candidates: []Candidate{{Text: "Bonjour"}},
	}
	m := newTestMachine(backend, nil)

	got, err := m.TranslateFor(context.Background(), projectOrigin{source: "de_AT"}, "fr", "Hallo")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(got) != 1 || backend.lastSource != "de" {
		t.Fatalf("unexpected result %#v with source %q", got, backend.lastSource)
	}
}

func TestMachine_SupportedLanguagesAndHealth(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{name: "stub", languages: []string{"fr", "en"}}
	m := newTestMachine(backend, nil)

	if err := m.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	codes, err := m.SupportedLanguages(context.Background())
	if err != nil {
		t.Fatalf("supported languages: %v", err)
	}
	if strings.Join(codes, ",") != "en,fr" {
		t.Fatalf("unexpected codes: %v", codes)
	}
	if !m.IsSupported(context.Background(), "EN", "fr") {
		t.Fatalf("expected EN/fr to be supported")
	}
	if langCalls, _ := backend.counts(); langCalls != 1 {
		t.Fatalf("unexpected language download count: %d", langCalls)
	}

	failing := &stubBackend{name: "stub", langErr: errors.New("down")}
	if err := newTestMachine(failing, nil).CheckHealth(context.Background()); err == nil {
		t.Fatalf("expected health check to fail")
	}
}

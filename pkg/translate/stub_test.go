package translate

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type stubBackend struct {
	name      string
	codec     Codec
	languages []string
	defaults  []string
	langErr   error
	langGate  chan struct{}
	langStart chan struct{}

	candidates []Candidate
	err        error

	mu         sync.Mutex
	langCalls  int
	langCtxErr error
	calls      int
	lastSource string
	lastTarget string
	lastText   string
}

func (s *stubBackend) Name() string {
	return s.name
}

func (s *stubBackend) ConvertLanguage(code string) string {
	return s.codec.Convert(code)
}

func (s *stubBackend) DefaultLanguages() []string {
	return s.defaults
}

func (s *stubBackend) DownloadLanguages(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	s.langCalls++
	first := s.langCalls == 1
	s.mu.Unlock()
	if first && s.langStart != nil {
		close(s.langStart)
	}
	if s.langGate != nil {
		<-s.langGate
	}
	s.mu.Lock()
	s.langCtxErr = ctx.Err()
	s.mu.Unlock()
	if s.langErr != nil {
		return nil, s.langErr
	}
	return s.languages, nil
}

func (s *stubBackend) DownloadTranslations(_ context.Context, source, target, text string) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastSource = source
	s.lastTarget = target
	s.lastText = text
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

func (s *stubBackend) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.langCalls, s.calls
}

type recordingReporter struct {
	mu       sync.Mutex
	errs     []error
	messages []string
}

func (r *recordingReporter) Report(err error, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.messages = append(r.messages, message)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

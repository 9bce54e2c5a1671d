package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dasmlab/mtbridge/pkg/translate"
	"github.com/sirupsen/logrus"
)

type stubTranslator struct {
	candidates []translate.Candidate
	languages  []string
	err        error
	healthErr  error
}

func (s *stubTranslator) Name() string {
	return "stub"
}

func (s *stubTranslator) Translate(context.Context, string, string, string) ([]translate.Candidate, error) {
	return s.candidates, s.err
}

func (s *stubTranslator) SupportedLanguages(context.Context) ([]string, error) {
	return s.languages, nil
}

func (s *stubTranslator) CheckHealth(context.Context) error {
	return s.healthErr
}

func newTestServer(t *testing.T, translator translate.Translator) *httptest.Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv := httptest.NewServer(NewHTTPServer(translator, logger, 0).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postTranslate(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url+"/api/v1/translate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleTranslate(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubTranslator{candidates: []translate.Candidate{
		{Text: "Bonjour", Quality: 100, Service: "stub", Source: "Hello"},
	}})

	resp := postTranslate(t, srv.URL, `{"source_lang":"en","target_lang":"fr","text":"Hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var body TranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Provider != "stub" || len(body.Candidates) != 1 || body.Candidates[0].Text != "Bonjour" {
		t.Fatalf("unexpected response: %#v", body)
	}
}

func TestHandleTranslate_BadRequest(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubTranslator{})

	if resp := postTranslate(t, srv.URL, `{"source_lang":"en"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status for missing target: %d", resp.StatusCode)
	}
	if resp := postTranslate(t, srv.URL, `not json`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status for malformed body: %d", resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/api/v1/translate")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status for GET: %d", resp.StatusCode)
	}
}

func TestHandleTranslate_ProviderFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubTranslator{err: &translate.TranslationError{Kind: "AuthenticationError", Message: "invalid_client"}})

	resp := postTranslate(t, srv.URL, `{"source_lang":"en","target_lang":"fr","text":"Hello"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Kind != "AuthenticationError" || body.Error != "AuthenticationError: invalid_client" {
		t.Fatalf("unexpected error body: %#v", body)
	}
}

func TestHandleLanguagesAndHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubTranslator{languages: []string{"en", "fr"}})

	resp, err := http.Get(srv.URL + "/api/v1/languages")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body LanguagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Languages) != 2 || body.Languages[1] != "fr" {
		t.Fatalf("unexpected languages: %#v", body)
	}

	health, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("unexpected health status: %d", health.StatusCode)
	}
}

func TestHandleHealth_Unhealthy(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubTranslator{healthErr: errors.New("connection refused")})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &stubTranslator{})

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

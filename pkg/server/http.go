package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dasmlab/mtbridge/pkg/translate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// maxRequestBytes bounds the JSON body of a translate request.
const maxRequestBytes = 1 << 20

// TranslateRequest is the body of POST /api/v1/translate.
type TranslateRequest struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Text       string `json:"text"`
}

// TranslateResponse is the body returned by POST /api/v1/translate.
type TranslateResponse struct {
	Provider   string                `json:"provider"`
	Candidates []translate.Candidate `json:"candidates"`
}

// LanguagesResponse is the body returned by GET /api/v1/languages.
type LanguagesResponse struct {
	Provider  string   `json:"provider"`
	Languages []string `json:"languages"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HTTPServer exposes the translator over JSON endpoints, plus health and metrics.
type HTTPServer struct {
	translator translate.Translator
	logger     *logrus.Logger
	port       int
	server     *http.Server
}

// NewHTTPServer creates a new HTTP server for translator.
func NewHTTPServer(translator translate.Translator, logger *logrus.Logger, port int) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	s := &HTTPServer{
		translator: translator,
		logger:     logger,
		port:       port,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the request router.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/translate", s.handleTranslate)
	mux.HandleFunc("/api/v1/languages", s.handleLanguages)

	// Health check endpoint
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start starts the HTTP server and blocks until it stops.
// It returns nil after Shutdown.
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port": s.port,
	}).Info("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TranslateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.SourceLang == "" || req.TargetLang == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "source_lang and target_lang are required"})
		return
	}

	candidates, err := s.translator.Translate(r.Context(), req.SourceLang, req.TargetLang, req.Text)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"source_lang": req.SourceLang,
			"target_lang": req.TargetLang,
		}).Error("Translation failed")

		resp := errorResponse{Error: err.Error()}
		var translationErr *translate.TranslationError
		if errors.As(err, &translationErr) {
			resp.Kind = translationErr.Kind
		}
		s.writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	s.writeJSON(w, http.StatusOK, TranslateResponse{
		Provider:   s.translator.Name(),
		Candidates: candidates,
	})
}

func (s *HTTPServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	languages, err := s.translator.SupportedLanguages(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, LanguagesResponse{
		Provider:  s.translator.Name(),
		Languages: languages,
	})
}

// handleHealth reports whether the provider's language list can be fetched.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.translator.CheckHealth(ctx); err != nil {
		s.logger.WithError(err).Warn("Health check failed")
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

package service

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dasmlab/mtbridge/pkg/translate"
	"github.com/sirupsen/logrus"
)

// TranslationService implements the MachineTranslation gRPC service on top of
// a translate.Translator.
type TranslationService struct {
	// Translator is the configured provider.
	Translator translate.Translator

	// Logger for service operations.
	Logger *logrus.Logger
}

var _ MachineTranslationServer = (*TranslationService)(nil)

// NewTranslationService creates a new TranslationService instance.
func NewTranslationService(translator translate.Translator, logger *logrus.Logger) *TranslationService {
	if logger == nil {
		logger = logrus.New()
	}

	return &TranslationService{
		Translator: translator,
		Logger:     logger,
	}
}

// Translate returns the candidate translations for one text.
// An unsupported language pair is answered with an empty candidate list.
func (s *TranslationService) Translate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	source := stringField(req, FieldSourceLang)
	target := stringField(req, FieldTargetLang)
	text := stringField(req, FieldText)

	s.Logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": target,
		"text_length": len(text),
	}).Info("[gRPC] Translate request received")

	if source == "" {
		s.Logger.Error("[gRPC] Translate: source_lang is required")
		return nil, status.Error(codes.InvalidArgument, "source_lang is required")
	}
	if target == "" {
		s.Logger.Error("[gRPC] Translate: target_lang is required")
		return nil, status.Error(codes.InvalidArgument, "target_lang is required")
	}
	if s.Translator == nil {
		s.Logger.Error("[gRPC] Translate: translator not configured")
		return nil, status.Error(codes.FailedPrecondition, "translator not configured")
	}

	startTime := time.Now()
	candidates, err := s.Translator.Translate(ctx, source, target, text)
	if err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"source_lang": source,
			"target_lang": target,
		}).Error("[gRPC] Translation failed")
		return nil, toStatus(err)
	}

	s.Logger.WithFields(logrus.Fields{
		"candidates":  len(candidates),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("[gRPC] Translation completed successfully")

	resp, err := newTranslateResponse(s.Translator.Name(), candidates)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

// SupportedLanguages returns the provider-native language codes.
func (s *TranslationService) SupportedLanguages(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.Logger.Debug("[gRPC] SupportedLanguages request received")

	if s.Translator == nil {
		return nil, status.Error(codes.FailedPrecondition, "translator not configured")
	}

	codesList, err := s.Translator.SupportedLanguages(ctx)
	if err != nil {
		s.Logger.WithError(err).Error("[gRPC] Failed to list supported languages")
		return nil, toStatus(err)
	}

	resp, err := newLanguagesResponse(s.Translator.Name(), codesList)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

// toStatus maps provider failures to gRPC status errors.
func toStatus(err error) error {
	var translationErr *translate.TranslationError
	if errors.As(err, &translationErr) {
		return status.Error(codes.Unavailable, translationErr.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}

package translate

import (
	"context"
)

// Translator is the surface the gRPC and HTTP layers depend on.
// Machine is the only production implementation.
type Translator interface {
	// Name returns the human readable provider name.
	Name() string

	// Translate returns the candidate translations of text from source to target.
	// An unsupported language pair yields an empty result, not an error.
	Translate(ctx context.Context, source, target, text string) ([]Candidate, error)

	// SupportedLanguages returns the provider-native codes the backend accepts.
	SupportedLanguages(ctx context.Context) ([]string, error)

	// CheckHealth verifies that the provider can be reached.
	CheckHealth(ctx context.Context) error
}

// Backend is the capability set every provider variant implements.
// Variants are selected once, at construction, by NewBackend.
type Backend interface {
	Name() string

	// ConvertLanguage maps a caller locale identifier to the provider dialect.
	ConvertLanguage(code string) string

	// DownloadLanguages fetches the provider-native codes it supports.
	DownloadLanguages(ctx context.Context) ([]string, error)

	// DownloadTranslations fetches candidates for text, already truncated and
	// with both codes in the provider dialect.
	DownloadTranslations(ctx context.Context, source, target, text string) ([]Candidate, error)
}

// defaultLanguager is implemented by backends that know a static language list
// to fall back on when the download fails.
type defaultLanguager interface {
	DefaultLanguages() []string
}

// textLimiter is implemented by backends with a request size cap other than DefaultMaxTextLength.
type textLimiter interface {
	MaxTextLength() int
}

// Candidate is one suggested translation.
type Candidate struct {
	Text    string `json:"text"`
	Quality int    `json:"quality"`
	Service string `json:"service"`
	Source  string `json:"source"`
}

// LanguagePair is a source/target pair of language codes.
type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Origin is the context a translation request originates from; it knows the
// source language configured for the project.
type Origin interface {
	SourceLanguage() string
}

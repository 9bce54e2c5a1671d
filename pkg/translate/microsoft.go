package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dasmlab/mtbridge/pkg/token"
	"github.com/dasmlab/mtbridge/pkg/transport"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMicrosoftAuthURL is the OAuth2 token endpoint for client credentials.
	DefaultMicrosoftAuthURL = "https://datamarket.accesscontrol.windows.net/v2/OAuth2-13"
	// MicrosoftScope is requested with every client-credentials grant.
	MicrosoftScope = "https://api.microsofttranslator.com"
	// DefaultCognitiveTokenURL issues tokens in exchange for a subscription key.
	DefaultCognitiveTokenURL = "https://api.cognitive.microsoft.com/sts/v1.0/issueToken"
	// DefaultMicrosoftBaseURL is the Translator V2 AJAX API.
	DefaultMicrosoftBaseURL = "https://api.microsofttranslator.com/V2/Ajax.svc/"

	microsoftName = "Microsoft Translator"
)

// microsoftDefaultLanguages is used when GetLanguagesForTranslate fails.
var microsoftDefaultLanguages = []string{
	"af", "ar", "bs-Latn", "bg", "ca", "zh-CHS", "zh-CHT", "yue", "hr", "cs", "da", "nl", "en",
	"et", "fj", "fil", "fi", "fr", "de", "el", "ht", "he", "hi", "mww", "hu", "id", "it", "ja",
	"sw", "tlh", "tlh-Qaak", "ko", "lv", "lt", "mg", "ms", "mt", "yua", "no", "otq", "fa", "pl",
	"pt", "ro", "ru", "sm", "sr-Cyrl", "sr-Latn", "sk", "sl", "es", "sv", "ty", "th", "to", "tr",
	"uk", "ur", "vi", "cy",
}

// MicrosoftClient implements Backend on the Microsoft Translator REST API.
// The same client serves both authentication flavours; only the token
// exchange and the language codec differ.
type MicrosoftClient struct {
	codec   Codec
	baseURL string
	tokens  *token.Cache
	client  *transport.BearerClient
	logger  *logrus.Logger
}

// oauthResponse is the client-credentials token response.
type oauthResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// NewMicrosoftClient creates a backend authenticating with OAuth2 client credentials.
func NewMicrosoftClient(cfg Config) (*MicrosoftClient, error) {
	var missing []string
	if strings.TrimSpace(cfg.MicrosoftID) == "" {
		missing = append(missing, "MT_MICROSOFT_ID")
	}
	if strings.TrimSpace(cfg.MicrosoftSecret) == "" {
		missing = append(missing, "MT_MICROSOFT_SECRET")
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Provider: microsoftName, Missing: missing}
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = DefaultMicrosoftAuthURL
	}

	c := newMicrosoftClient(cfg, MicrosoftCodec)
	form := url.Values{
		"client_id":     {cfg.MicrosoftID},
		"client_secret": {cfg.MicrosoftSecret},
		"scope":         {MicrosoftScope},
		"grant_type":    {"client_credentials"},
	}
	c.tokens = c.newTokenCache(cfg, func(ctx context.Context) (string, error) {
		return c.fetchOAuthToken(ctx, authURL, form)
	})
	c.client = transport.NewBearerClient(c.tokens, cfg.Timeout, c.logger)
	return c, nil
}

// NewCognitiveClient creates a backend exchanging a Cognitive Services key for tokens.
func NewCognitiveClient(cfg Config) (*MicrosoftClient, error) {
	if strings.TrimSpace(cfg.CognitiveKey) == "" {
		return nil, &ConfigError{Provider: microsoftName, Missing: []string{"MT_MICROSOFT_COGNITIVE_KEY"}}
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultCognitiveTokenURL
	}

	c := newMicrosoftClient(cfg, CognitiveCodec)
	c.tokens = c.newTokenCache(cfg, func(ctx context.Context) (string, error) {
		return c.fetchCognitiveToken(ctx, tokenURL, cfg.CognitiveKey)
	})
	c.client = transport.NewBearerClient(c.tokens, cfg.Timeout, c.logger)
	return c, nil
}

func newMicrosoftClient(cfg Config, codec Codec) *MicrosoftClient {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultMicrosoftBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &MicrosoftClient{
		codec:   codec,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (c *MicrosoftClient) newTokenCache(cfg Config, fetch token.Fetcher) *token.Cache {
	return token.New(fetch,
		token.WithLease(cfg.TokenLease),
		token.WithClock(cfg.Clock),
		token.WithLogger(c.logger),
		token.WithName(microsoftName),
	)
}

// Name returns the provider name.
func (c *MicrosoftClient) Name() string {
	return microsoftName
}

// ConvertLanguage maps code through the client's codec.
func (c *MicrosoftClient) ConvertLanguage(code string) string {
	return c.codec.Convert(code)
}

// DefaultLanguages returns the languages assumed when the download fails.
func (c *MicrosoftClient) DefaultLanguages() []string {
	return microsoftDefaultLanguages
}

// MaxTextLength is the request size the Translate endpoint accepts.
func (c *MicrosoftClient) MaxTextLength() int {
	return DefaultMaxTextLength
}

// Tokens exposes the token cache.
func (c *MicrosoftClient) Tokens() *token.Cache {
	return c.tokens
}

// DownloadLanguages returns the codes from GetLanguagesForTranslate.
func (c *MicrosoftClient) DownloadLanguages(ctx context.Context) ([]string, error) {
	c.logger.Debug("Fetching supported languages from Microsoft Translator")

	var codes []string
	if err := c.client.JSON(ctx, transport.Request{URL: c.baseURL + "GetLanguagesForTranslate"}, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// DownloadTranslations returns the single machine translation of text.
func (c *MicrosoftClient) DownloadTranslations(ctx context.Context, source, target, text string) ([]Candidate, error) {
	body, err := c.client.Send(ctx, transport.Request{
		URL: c.baseURL + "Translate",
		Query: url.Values{
			"text":        {text},
			"from":        {source},
			"to":          {target},
			"contentType": {"text/plain"},
			"category":    {"general"},
		},
	})
	if err != nil {
		return nil, err
	}

	translated := decodeTranslatedText(body)
	c.logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": target,
	}).Info("Translation completed successfully")

	return []Candidate{{
		Text:    translated,
		Quality: 100,
		Service: c.Name(),
		Source:  text,
	}}, nil
}

func (c *MicrosoftClient) fetchOAuthToken(ctx context.Context, authURL string, form url.Values) (string, error) {
	var resp oauthResponse
	err := c.client.JSON(ctx, transport.Request{
		Method:   http.MethodPost,
		URL:      authURL,
		Form:     form,
		SkipAuth: true,
	}, &resp)
	if err != nil {
		// OAuth2 errors arrive with a 4xx status and a JSON body.
		var transportErr *transport.Error
		if errors.As(err, &transportErr) && transportErr.StatusCode != 0 {
			if jsonErr := json.Unmarshal([]byte(transportErr.Message), &resp); jsonErr == nil && resp.Error != "" {
				return "", oauthError(resp)
			}
		}
		return "", err
	}
	if resp.Error != "" {
		return "", oauthError(resp)
	}
	return resp.AccessToken, nil
}

func (c *MicrosoftClient) fetchCognitiveToken(ctx context.Context, tokenURL, key string) (string, error) {
	body, err := c.client.Send(ctx, transport.Request{
		Method:   http.MethodPost,
		URL:      tokenURL,
		Query:    url.Values{"Subscription-Key": {key}},
		SkipAuth: true,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(transport.StripBOM(body))), nil
}

func oauthError(resp oauthResponse) error {
	description := resp.ErrorDescription
	if description == "" {
		description = "No Error Description"
	}
	return &token.AuthError{
		Provider: microsoftName,
		Message:  fmt.Sprintf("%s: %s", resp.Error, description),
	}
}

// decodeTranslatedText accepts both the JSON string the AJAX endpoint returns
// and a bare text body.
func decodeTranslatedText(body []byte) string {
	body = transport.StripBOM(body)
	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(body))
}

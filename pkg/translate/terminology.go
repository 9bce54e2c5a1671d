package translate

import (
	"context"
	"strconv"
	"strings"

	"github.com/dasmlab/mtbridge/pkg/transport"
	"github.com/sirupsen/logrus"
)

const (
	// TerminologyBaseURL is the Microsoft Language Portal API host.
	TerminologyBaseURL = "http://api.terminology.microsoft.com"
	// DefaultTerminologyURL is the SOAP endpoint.
	DefaultTerminologyURL = TerminologyBaseURL + "/Terminology.svc"
	// TerminologyNamespace qualifies request and response elements.
	TerminologyNamespace = TerminologyBaseURL + "/terminology"
	// TerminologyMaxResults caps the candidates returned per request.
	TerminologyMaxResults = 5

	terminologyName    = "Microsoft Terminology"
	terminologyService = "Terminology"

	opGetLanguages    = "GetLanguages"
	opGetTranslations = "GetTranslations"
)

const getLanguagesEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <GetLanguages xmlns="{{.Namespace}}"/>
  </s:Body>
</s:Envelope>`

const getTranslationsEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" xmlns:a="http://www.w3.org/2005/08/addressing">
  <s:Header>
    <a:Action s:mustUnderstand="1">{{.Action}}</a:Action>
    <a:MessageID>urn:uuid:{{.MessageID}}</a:MessageID>
    <a:To s:mustUnderstand="1">{{.URL}}</a:To>
  </s:Header>
  <s:Body>
    <GetTranslations xmlns="{{.Namespace}}">
      <text>{{xml .Fields.text}}</text>
      <from>{{xml .Fields.from}}</from>
      <to>{{xml .Fields.to}}</to>
      <sensitivivity>CaseInsensitive</sensitivivity>
      <searchOperator>Contains</searchOperator>
      <sources>
        <TranslationSource>Terms</TranslationSource>
        <TranslationSource>UiStrings</TranslationSource>
      </sources>
      <maxTranslations>{{.Fields.max_translations}}</maxTranslations>
    </GetTranslations>
  </s:Body>
</s:Envelope>`

var terminologyOperations = []transport.Operation{
	{
		Name:     opGetLanguages,
		Template: getLanguagesEnvelope,
	},
	{
		Name:     opGetTranslations,
		Required: []string{"text", "from", "to"},
		Template: getTranslationsEnvelope,
	},
}

// TerminologyClient implements Backend on the Microsoft Terminology SOAP service.
type TerminologyClient struct {
	client *transport.EnvelopeClient
	logger *logrus.Logger
}

// NewTerminologyClient creates the SOAP backend. The service needs no credentials.
func NewTerminologyClient(cfg Config) (*TerminologyClient, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	endpoint := cfg.TerminologyURL
	if endpoint == "" {
		endpoint = DefaultTerminologyURL
	}

	client, err := transport.NewEnvelopeClient(endpoint, TerminologyNamespace, terminologyService, terminologyOperations, cfg.Timeout, logger)
	if err != nil {
		return nil, err
	}
	return &TerminologyClient{client: client, logger: logger}, nil
}

// Name returns the provider name.
func (c *TerminologyClient) Name() string {
	return terminologyName
}

// ConvertLanguage normalizes code into a culture code such as "pt-br".
func (c *TerminologyClient) ConvertLanguage(code string) string {
	return TerminologyCodec.Convert(code)
}

// DownloadLanguages returns the culture codes from GetLanguages.
func (c *TerminologyClient) DownloadLanguages(ctx context.Context) ([]string, error) {
	c.logger.Debug("Fetching supported languages from Microsoft Terminology")

	root, err := c.client.Call(ctx, opGetLanguages, nil)
	if err != nil {
		return nil, err
	}

	results := root.Find(TerminologyNamespace, "GetLanguagesResult")
	if results == nil {
		return nil, nil
	}

	children := results.Children()
	codes := make([]string, 0, len(children))
	for i := range children {
		if code := children[i].Find(TerminologyNamespace, "Code").Text(); code != "" {
			codes = append(codes, strings.ToLower(code))
		}
	}
	return codes, nil
}

// DownloadTranslations returns up to TerminologyMaxResults matches with the
// confidence the service reports.
func (c *TerminologyClient) DownloadTranslations(ctx context.Context, source, target, text string) ([]Candidate, error) {
	root, err := c.client.Call(ctx, opGetTranslations, map[string]string{
		"text":             text,
		"from":             source,
		"to":               target,
		"max_translations": strconv.Itoa(TerminologyMaxResults),
	})
	if err != nil {
		return nil, err
	}

	results := root.Find(TerminologyNamespace, "GetTranslationsResult")
	if results == nil {
		return []Candidate{}, nil
	}

	matches := results.Children()
	candidates := make([]Candidate, 0, len(matches))
	for i := range matches {
		if len(candidates) == TerminologyMaxResults {
			break
		}
		match := &matches[i]

		confidence := match.Find(TerminologyNamespace, "ConfidenceLevel").Text()
		quality, err := strconv.Atoi(confidence)
		if err != nil {
			return nil, &transport.ParseError{Message: "parse ConfidenceLevel " + strconv.Quote(confidence), Err: err}
		}

		candidates = append(candidates, Candidate{
			Text:    match.Find(TerminologyNamespace, "TranslatedText").Text(),
			Quality: quality,
			Service: c.Name(),
			Source:  match.Find(TerminologyNamespace, "OriginalText").Text(),
		})
	}

	c.logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": target,
		"count":       len(candidates),
	}).Info("Terminology lookup completed successfully")

	return candidates, nil
}

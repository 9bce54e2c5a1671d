package transport

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Operation declares one envelope-based call: its name, the fields that must be
// present before the envelope is built and the envelope template.
type Operation struct {
	Name     string
	Required []string
	Template string
}

// EnvelopeData is the value the operation template is executed with.
type EnvelopeData struct {
	Namespace string
	Action    string
	URL       string
	MessageID string
	Fields    map[string]string
}

// EnvelopeClient sends SOAP envelopes to a single service endpoint.
type EnvelopeClient struct {
	endpoint   string
	namespace  string
	actionBase string
	templates  map[string]*template.Template
	required   map[string][]string
	httpClient *http.Client
	logger     *logrus.Logger
	newID      func() string
}

// NewEnvelopeClient parses the operation templates and returns a client for endpoint.
// The SOAP action of operation Op is "<namespace>/<service>/<Op>".
func NewEnvelopeClient(endpoint, namespace, service string, ops []Operation, timeout time.Duration, logger *logrus.Logger) (*EnvelopeClient, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}

	c := &EnvelopeClient{
		endpoint:   endpoint,
		namespace:  namespace,
		actionBase: namespace + "/" + service + "/",
		templates:  make(map[string]*template.Template, len(ops)),
		required:   make(map[string][]string, len(ops)),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		newID:  func() string { return uuid.New().String() },
	}

	funcs := template.FuncMap{"xml": escapeXML}
	for _, op := range ops {
		tmpl, err := template.New(op.Name).Funcs(funcs).Option("missingkey=zero").Parse(op.Template)
		if err != nil {
			return nil, fmt.Errorf("parse %s envelope template: %w", op.Name, err)
		}
		c.templates[op.Name] = tmpl
		c.required[op.Name] = op.Required
	}

	return c, nil
}

// Namespace returns the XML namespace of the service.
func (c *EnvelopeClient) Namespace() string {
	return c.namespace
}

// Action returns the SOAP action string for op.
func (c *EnvelopeClient) Action(op string) string {
	return c.actionBase + op
}

// Build validates fields and renders the envelope for op without sending it.
func (c *EnvelopeClient) Build(op string, fields map[string]string) ([]byte, error) {
	tmpl, ok := c.templates[op]
	if !ok {
		return nil, &RequestError{Operation: op, Message: "unknown operation"}
	}

	var missing []string
	for _, name := range c.required[op] {
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &RequestError{Operation: op, Message: "missing fields: " + strings.Join(missing, ", ")}
	}

	data := EnvelopeData{
		Namespace: c.namespace,
		Action:    c.Action(op),
		URL:       c.endpoint,
		MessageID: c.newID(),
		Fields:    fields,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, &RequestError{Operation: op, Message: err.Error()}
	}
	return buf.Bytes(), nil
}

// Call sends op with fields and returns the decoded response document.
func (c *EnvelopeClient) Call(ctx context.Context, op string, fields map[string]string) (*Node, error) {
	payload, err := c.Build(op, fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &RequestError{Operation: op, Message: err.Error()}
	}
	req.Header.Set("SOAPAction", `"`+c.Action(op)+`"`)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"operation": op,
			"url":       c.endpoint,
		}).Error("SOAP request failed")
		return nil, &Error{URL: c.endpoint, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: c.endpoint, StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	c.logger.WithFields(logrus.Fields{
		"operation":   op,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Debug("SOAP request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := faultString(body)
		if msg == "" {
			msg = diagnostic(body, resp.Status)
		}
		c.logger.WithFields(logrus.Fields{
			"operation":   op,
			"status_code": resp.StatusCode,
			"fault":       msg,
		}).Error("SOAP request returned non-success status")
		return nil, &Error{URL: c.endpoint, StatusCode: resp.StatusCode, Message: msg}
	}

	return ParseXML(body)
}

// faultString extracts the SOAP 1.1 faultstring, if the body carries one.
func faultString(body []byte) string {
	root, err := ParseXML(body)
	if err != nil {
		return ""
	}
	return root.Find("", "faultstring").Text()
}

func escapeXML(s string) (string, error) {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

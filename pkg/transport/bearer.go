package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every request made by the transport clients.
const DefaultTimeout = 10 * time.Second

// TokenSource supplies the bearer token attached to authenticated requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Request describes one REST call.
type Request struct {
	// Method defaults to GET.
	Method string
	URL    string
	// Query is merged into the URL query string.
	Query url.Values
	// Form, when set, is sent form-encoded as the request body.
	Form url.Values
	// SkipAuth leaves the Authorization header off; used for the token requests themselves.
	SkipAuth bool
}

// BearerClient sends REST requests decorated with a bearer token.
type BearerClient struct {
	tokens     TokenSource
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewBearerClient creates a client that authorizes requests with tokens.
// tokens may be nil when every request is sent with SkipAuth.
func NewBearerClient(tokens TokenSource, timeout time.Duration, logger *logrus.Logger) *BearerClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &BearerClient{
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send performs the request and returns the raw response body.
func (c *BearerClient) Send(ctx context.Context, r Request) ([]byte, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := withQuery(r.URL, r.Query)
	if err != nil {
		return nil, &RequestError{Operation: method, Message: err.Error()}
	}

	var body io.Reader
	if r.Form != nil {
		body = strings.NewReader(r.Form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &RequestError{Operation: method, Message: err.Error()}
	}
	if r.Form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	if err := c.authorize(ctx, req, r.SkipAuth); err != nil {
		return nil, err
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"url":    r.URL,
		}).Error("Request failed")
		return nil, &Error{URL: r.URL, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: r.URL, StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	c.logger.WithFields(logrus.Fields{
		"method":      method,
		"url":         r.URL,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Debug("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"url":         r.URL,
			"status_code": resp.StatusCode,
			"response":    string(respBody),
		}).Error("Request returned non-success status")
		return nil, &Error{URL: r.URL, StatusCode: resp.StatusCode, Message: diagnostic(respBody, resp.Status)}
	}

	return respBody, nil
}

// JSON performs the request and decodes the JSON response body into out.
func (c *BearerClient) JSON(ctx context.Context, r Request, out interface{}) error {
	body, err := c.Send(ctx, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(StripBOM(body), out); err != nil {
		return &ParseError{Message: "decode response", Err: err}
	}
	return nil
}

// authorize attaches the bearer token unless the request is itself an authentication call.
func (c *BearerClient) authorize(ctx context.Context, req *http.Request, skipAuth bool) error {
	if skipAuth || c.tokens == nil {
		return nil
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// StripBOM removes a leading UTF-8 byte order mark, which the Microsoft endpoints emit.
func StripBOM(body []byte) []byte {
	return bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
}

func withQuery(raw string, query url.Values) (string, error) {
	if len(query) == 0 {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func diagnostic(body []byte, status string) string {
	msg := strings.TrimSpace(string(StripBOM(body)))
	if msg == "" {
		return status
	}
	return msg
}

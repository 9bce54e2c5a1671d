package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultLease is the validity window given to a freshly issued credential.
// It is shorter than the 10 minute lifetime of Microsoft access tokens.
const DefaultLease = 9 * time.Minute

var refreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mtbridge_token_refreshes_total",
		Help: "Total number of access token refreshes",
	},
	[]string{"provider", "result"},
)

// Credential is an access token and the instant it stops being usable.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the credential can still be used at now.
func (c Credential) Valid(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Fetcher performs the network authentication call and returns a new token.
type Fetcher func(ctx context.Context) (string, error)

// AuthError is returned when a token could not be obtained.
type AuthError struct {
	Provider string
	Message  string
	Err      error
}

func (e *AuthError) Error() string {
	if e.Provider == "" {
		return e.Message
	}
	return fmt.Sprintf("%s authentication failed: %s", e.Provider, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Kind names the failure class.
func (e *AuthError) Kind() string {
	return "AuthenticationError"
}

// Option configures a Cache.
type Option func(*Cache)

// WithLease overrides DefaultLease.
func WithLease(lease time.Duration) Option {
	return func(c *Cache) {
		if lease > 0 {
			c.lease = lease
		}
	}
}

// WithClock replaces the system clock, mostly for tests.
func WithClock(clock Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used for refresh events.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithName labels log lines and metrics with the owning provider.
func WithName(name string) Option {
	return func(c *Cache) {
		c.name = name
	}
}

// Cache holds the current credential of one provider and refreshes it on demand.
// Concurrent callers that find the credential missing or expired share a single
// authentication call.
type Cache struct {
	fetch  Fetcher
	lease  time.Duration
	clock  Clock
	logger *logrus.Logger
	name   string

	mu    sync.RWMutex
	cred  *Credential
	group singleflight.Group
}

// New creates an empty cache that obtains tokens through fetch.
func New(fetch Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetch:  fetch,
		lease:  DefaultLease,
		clock:  SystemClock,
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a valid access token, refreshing it first when none is held
// or the held one has expired.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if tok, ok := c.current(); ok {
		return tok, nil
	}

	// The refresh is shared, so it must outlive the caller that started it.
	// The transport timeout still bounds it.
	flight := context.WithoutCancel(ctx)
	ch := c.group.DoChan("token", func() (interface{}, error) {
		if tok, ok := c.current(); ok {
			return tok, nil
		}
		return c.refresh(flight)
	})

	select {
	case <-ctx.Done():
		return "", &AuthError{Provider: c.name, Message: ctx.Err().Error(), Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.WithField("provider", c.name).Debug("Shared in-flight token refresh")
		}
		return res.Val.(string), nil
	}
}

// Credential returns a snapshot of the held credential.
func (c *Cache) Credential() (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cred == nil {
		return Credential{}, false
	}
	return *c.cred, true
}

// Invalidate drops the held credential; the next Token call re-authenticates.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.cred = nil
	c.mu.Unlock()
}

func (c *Cache) current() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cred == nil || !c.cred.Valid(c.clock.Now()) {
		return "", false
	}
	return c.cred.Token, true
}

func (c *Cache) refresh(ctx context.Context) (string, error) {
	if c.fetch == nil {
		return "", &AuthError{Provider: c.name, Message: "no token fetcher configured"}
	}

	c.logger.WithField("provider", c.name).Debug("Refreshing access token")

	tok, err := c.fetch(ctx)
	if err == nil && tok == "" {
		err = errors.New("empty access token")
	}
	if err != nil {
		c.Invalidate()
		refreshesTotal.WithLabelValues(c.name, "error").Inc()
		c.logger.WithError(err).WithField("provider", c.name).Warn("Access token refresh failed")

		var authErr *AuthError
		if errors.As(err, &authErr) {
			return "", authErr
		}
		return "", &AuthError{Provider: c.name, Message: err.Error(), Err: err}
	}

	cred := &Credential{
		Token:     tok,
		ExpiresAt: c.clock.Now().Add(c.lease),
	}
	c.mu.Lock()
	c.cred = cred
	c.mu.Unlock()

	refreshesTotal.WithLabelValues(c.name, "success").Inc()
	c.logger.WithFields(logrus.Fields{
		"provider":   c.name,
		"expires_at": cred.ExpiresAt.Format(time.RFC3339),
	}).Info("Access token refreshed")

	return tok, nil
}

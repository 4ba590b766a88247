package graphbolt

import (
	"time"

	"github.com/arboracle/graphbolt/internal/boltlog"
)

// AuthToken is an opaque credential bundle forwarded to the server during
// the Bolt handshake. The core never inspects its contents.
type AuthToken struct {
	Scheme      string
	Principal   string
	Credentials string
}

// BasicAuth builds an AuthToken for username/password authentication.
func BasicAuth(username, password string) AuthToken {
	return AuthToken{Scheme: "basic", Principal: username, Credentials: password}
}

// NoAuth returns an AuthToken requesting no authentication.
func NoAuth() AuthToken {
	return AuthToken{Scheme: "none"}
}

// ObservabilityConfig controls whether OpenTelemetry tracing and metrics
// are emitted. Both default to disabled (no-op providers), so linking the
// dependency never imposes runtime cost unless explicitly turned on.
type ObservabilityConfig struct {
	EnableTracing bool
	EnableMetrics bool
}

// LoggingConfig selects the Logger implementation. It has no verbosity
// setting; verbosity is up to the Logger itself.
type LoggingConfig struct {
	Logger boltlog.Logger
}

// Config is the immutable, fully-resolved driver configuration built by
// applying a sequence of ConfigOption functions over defaults. It
// replaces the original driver's **config keyword-argument bag with a
// typed, discoverable surface.
type Config struct {
	Auth AuthToken

	Encrypted    bool
	encryptedSet bool
	Trust        TrustStrategy

	DEREncodedServerCertificate []byte
	UserAgent                   string

	MaxConnectionPoolSize        int
	ConnectionAcquisitionTimeout time.Duration
	SocketConnectTimeout         time.Duration
	MaxTransactionRetryTime      time.Duration

	Logger       boltlog.Logger
	Observability ObservabilityConfig
}

// ConfigOption mutates a Config being built by NewConfig.
type ConfigOption func(*Config)

// WithAuth sets the authentication token.
func WithAuth(token AuthToken) ConfigOption {
	return func(c *Config) { c.Auth = token }
}

// WithEncryption explicitly turns encryption on or off, overriding the
// TLS-availability-based default.
func WithEncryption(enabled bool) ConfigOption {
	return func(c *Config) {
		c.Encrypted = enabled
		c.encryptedSet = true
	}
}

// WithTrust selects the certificate trust strategy.
func WithTrust(trust TrustStrategy) ConfigOption {
	return func(c *Config) { c.Trust = trust }
}

// WithDEREncodedServerCertificate stores a server certificate in DER
// form on the Config. BuildSecurityPlan does not read it, so no
// certificate is pinned.
func WithDEREncodedServerCertificate(der []byte) ConfigOption {
	return func(c *Config) { c.DEREncodedServerCertificate = der }
}

// WithUserAgent overrides the user agent string sent during handshake.
func WithUserAgent(agent string) ConfigOption {
	return func(c *Config) { c.UserAgent = agent }
}

// WithMaxConnectionPoolSize bounds the number of connections a
// ConnectionPool will keep per address. The core spec defines no cap;
// this is the deployment-level knob spec.md §9 calls out as an
// implementer's decision. Zero means unbounded.
func WithMaxConnectionPoolSize(n int) ConfigOption {
	return func(c *Config) { c.MaxConnectionPoolSize = n }
}

// WithConnectionAcquisitionTimeout bounds how long Session acquisition
// waits for a pooled connection to free up. Zero means no timeout.
func WithConnectionAcquisitionTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.ConnectionAcquisitionTimeout = d }
}

// WithSocketConnectTimeout bounds the TCP dial performed by the Codec.
func WithSocketConnectTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.SocketConnectTimeout = d }
}

// WithMaxTransactionRetryTime bounds how long ExecuteRead/ExecuteWrite
// will keep retrying a transient failure.
func WithMaxTransactionRetryTime(d time.Duration) ConfigOption {
	return func(c *Config) { c.MaxTransactionRetryTime = d }
}

// WithLogger installs a custom Logger; the default discards all output.
func WithLogger(logger boltlog.Logger) ConfigOption {
	return func(c *Config) { c.Logger = logger }
}

// WithObservability enables tracing and/or metrics collection.
func WithObservability(o ObservabilityConfig) ConfigOption {
	return func(c *Config) { c.Observability = o }
}

// NewConfig builds a Config from defaults plus the given options.
func NewConfig(options ...ConfigOption) *Config {
	c := &Config{
		Trust:                        TrustSystemCASigned,
		UserAgent:                    "graphbolt/1.0",
		MaxConnectionPoolSize:        100,
		ConnectionAcquisitionTimeout: 60 * time.Second,
		SocketConnectTimeout:         5 * time.Second,
		MaxTransactionRetryTime:      30 * time.Second,
		Logger:                       boltlog.NoOp{},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

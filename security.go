package graphbolt

import (
	"crypto/tls"
	"sync/atomic"
)

// TrustStrategy selects how the driver verifies a server's TLS
// certificate.
type TrustStrategy int

const (
	// TrustOnFirstUse names on-first-use trust. BuildSecurityPlan does
	// not pin any certificate for it; it disables verification, as for
	// TrustAllCertificates. Deprecated: superseded by TrustAllCertificates; also incompatible
	// with routing (SecurityPlan.RoutingCompatible is false for it).
	TrustOnFirstUse TrustStrategy = iota
	// TrustSignedCertificates requires a certificate signed by a known
	// CA. Deprecated: superseded by TrustSystemCASigned.
	TrustSignedCertificates
	// TrustAllCertificates disables certificate verification entirely.
	TrustAllCertificates
	// TrustSystemCASigned requires a certificate chaining to the
	// system's trusted root store.
	TrustSystemCASigned
	// TrustCustomCASigned requires a certificate chaining to a
	// caller-supplied CA. Not implemented by the core.
	TrustCustomCASigned
)

var warnedAboutInsecureDefault atomic.Bool

// warnInsecureDefaultOnce logs the "TLS unavailable, falling back to an
// unencrypted connection" warning at most once per process, matching the
// teacher's global _warned_about_insecure_default flag re-architected as
// an atomic compare-and-swap instead of an unsynchronized global.
func warnInsecureDefaultOnce(log interface {
	Warnf(component, id, format string, args ...any)
}) {
	if warnedAboutInsecureDefault.CompareAndSwap(false, true) {
		log.Warnf(componentSecurity, "-", "TLS is not available; communications will not be secure")
	}
}

const componentSecurity = "security"

// SecurityPlan is the resolved, immutable outcome of combining a
// Config's encryption/trust settings with TLS availability: whether to
// encrypt, the concrete *tls.Config to dial with (nil when unencrypted),
// and whether the resulting plan is compatible with a RoutingDriver.
type SecurityPlan struct {
	Encrypted          bool
	TLSConfig          *tls.Config
	RoutingCompatible  bool
}

// tlsAvailable reports whether this build can establish TLS connections.
// Go's standard library always ships crypto/tls, so this is always true;
// it exists as a named hook so BuildSecurityPlan's "TLS unavailable"
// branch (mandated by spec.md §4.1) has somewhere real to call, matching
// environments (the original Python driver) where TLS support is an
// optional runtime feature.
func tlsAvailable() bool { return true }

// BuildSecurityPlan resolves address and cfg into a SecurityPlan,
// per spec.md §4.1:
//   - encrypted defaults to true when TLS is available, false (with a
//     one-time warning) otherwise;
//   - requesting encryption when TLS is unavailable is a fatal
//     ConfigurationError;
//   - the trust strategy selects certificate verification behavior;
//     TrustCustomCASigned is not implemented;
//   - RoutingCompatible is false iff trust is TrustOnFirstUse.
func BuildSecurityPlan(address Address, cfg *Config) (*SecurityPlan, error) {
	encrypted := cfg.encryptedSet
	encryptedValue := cfg.Encrypted
	if !encrypted {
		if tlsAvailable() {
			encryptedValue = true
		} else {
			warnInsecureDefaultOnce(cfg.Logger)
			encryptedValue = false
		}
	}

	trust := cfg.Trust

	if !encryptedValue {
		return &SecurityPlan{
			Encrypted:         false,
			TLSConfig:         nil,
			RoutingCompatible: trust != TrustOnFirstUse,
		}, nil
	}

	if !tlsAvailable() {
		return nil, &ConfigurationError{Message: "encryption requested but TLS is not available"}
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	switch trust {
	case TrustOnFirstUse:
		cfg.Logger.Warnf(componentSecurity, "-", "TrustOnFirstUse is deprecated, use TrustAllCertificates instead")
		tlsConfig.InsecureSkipVerify = true
	case TrustSignedCertificates:
		cfg.Logger.Warnf(componentSecurity, "-", "TrustSignedCertificates is deprecated, use TrustSystemCASigned instead")
		tlsConfig.InsecureSkipVerify = false
	case TrustAllCertificates:
		tlsConfig.InsecureSkipVerify = true
	case TrustSystemCASigned:
		tlsConfig.InsecureSkipVerify = false
	case TrustCustomCASigned:
		return nil, &ConfigurationError{Message: "custom CA-signed trust is not implemented"}
	default:
		return nil, &ConfigurationError{Message: "unknown trust mode"}
	}

	return &SecurityPlan{
		Encrypted:         true,
		TLSConfig:         tlsConfig,
		RoutingCompatible: trust != TrustOnFirstUse,
	}, nil
}

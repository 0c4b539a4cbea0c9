// internal/auth/provider.go
package auth

import "fmt"

// Provider is the closed set of identity issuers the core trusts. Tokens from
// any other issuer are rejected rather than dispatched by name.
type Provider int

const (
	ProviderGuest Provider = iota
	ProviderGoogle
	ProviderGitHub
)

const (
	issuerGuest  = "https://wikiracer.com"
	issuerGoogle = "https://accounts.google.com"
	issuerGitHub = "https://github.com"
)

func (p Provider) String() string {
	switch p {
	case ProviderGuest:
		return "guest"
	case ProviderGoogle:
		return "google"
	case ProviderGitHub:
		return "github"
	default:
		return "unknown"
	}
}

// Issuer returns the iss claim value for the provider.
func (p Provider) Issuer() string {
	switch p {
	case ProviderGoogle:
		return issuerGoogle
	case ProviderGitHub:
		return issuerGitHub
	default:
		return issuerGuest
	}
}

// ParseProvider maps an iss claim back onto the enumeration.
func ParseProvider(issuer string) (Provider, error) {
	switch issuer {
	case issuerGuest:
		return ProviderGuest, nil
	case issuerGoogle:
		return ProviderGoogle, nil
	case issuerGitHub:
		return ProviderGitHub, nil
	default:
		return 0, fmt.Errorf("unknown identity issuer %q", issuer)
	}
}

// Identity is the (subject, issuer) pair the core trusts as the player
// identity key, plus the preferred display name carried in the token.
type Identity struct {
	Subject     string
	Provider    Provider
	DisplayName string
}

// Resolver turns a bearer token into an Identity.
type Resolver interface {
	ResolveIdentity(token string) (Identity, error)
}

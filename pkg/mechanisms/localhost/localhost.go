package localhost

import (
	"errors"
	"net/netip"
	"strings"

	"github.com/dmitrymomot/ssokit/pkg/clientip"
	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// ErrInvalidNetwork is returned by New for a malformed CIDR.
var ErrInvalidNetwork = errors.New("localhost.invalid_network")

const hopsParam = "hops"

// Config lists the networks that count as "this host".
type Config struct {
	Networks  []string `env:"SSO_LOCAL_NETWORKS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
	ProfileID string   `env:"SSO_LOCAL_PROFILE_ID" envDefault:"localhost"`
}

// DefaultConfig trusts the IPv4 and IPv6 loopback networks.
func DefaultConfig() Config {
	return Config{
		Networks:  []string{"127.0.0.0/8", "::1/128"},
		ProfileID: "localhost",
	}
}

// Mechanism authenticates requests whose every hop, forwarded or direct,
// originates from an allowed network.
type Mechanism struct {
	networks  []netip.Prefix
	profileID string
}

var _ ssoauth.Mechanism = (*Mechanism)(nil)

// New parses the configured networks. An empty ProfileID falls back to
// "localhost".
func New(cfg Config) (*Mechanism, error) {
	m := &Mechanism{profileID: cfg.ProfileID}
	if m.profileID == "" {
		m.profileID = DefaultConfig().ProfileID
	}
	for _, cidr := range cfg.Networks {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, errors.Join(ErrInvalidNetwork, err)
		}
		m.networks = append(m.networks, p.Masked())
	}
	if len(m.networks) == 0 {
		return nil, errors.Join(ErrInvalidNetwork, errors.New("no networks configured"))
	}
	return m, nil
}

// ExtractCredentials collects the forwarding chain. A chain with an
// unparseable entry yields no credentials.
func (m *Mechanism) ExtractCredentials(rc webcontext.RequestContext) (*ssoauth.Credentials, error) {
	hops, ok := clientip.Chain(rc.Header, rc.RemoteAddr())
	if !ok {
		return nil, nil
	}
	return &ssoauth.Credentials{
		Value:  hops[0],
		Params: map[string]string{hopsParam: strings.Join(hops, ",")},
	}, nil
}

func (m *Mechanism) Authenticate(_ webcontext.RequestContext, creds *ssoauth.Credentials) error {
	for hop := range strings.SplitSeq(creds.Params[hopsParam], ",") {
		addr, err := netip.ParseAddr(hop)
		if err != nil || !m.allowed(addr.Unmap()) {
			return errors.Join(ssoauth.ErrInvalidCredentials, errors.New("remote hop "+hop))
		}
	}
	return nil
}

func (m *Mechanism) CreateProfile(_ webcontext.RequestContext, creds *ssoauth.Credentials) (*ssoauth.Profile, error) {
	return &ssoauth.Profile{
		ID: m.profileID,
		Attributes: map[string]any{
			"address": creds.Value,
		},
	}, nil
}

func (m *Mechanism) allowed(addr netip.Addr) bool {
	for _, p := range m.networks {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

package ssoauth

import (
	"errors"
	"strings"

	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// Credentials carry what a mechanism pulled from the request.
type Credentials struct {
	Value  string            // token, authorization code, client address
	Params map[string]string // mechanism-specific extras such as OAuth state
	Claims map[string]any    // filled by Authenticate
}

// Mechanism is one way of establishing identity.
type Mechanism interface {
	// ExtractCredentials returns nil when the request carries none.
	ExtractCredentials(rc webcontext.RequestContext) (*Credentials, error)

	// Authenticate validates creds. Rejected credentials return ErrInvalidCredentials.
	Authenticate(rc webcontext.RequestContext, creds *Credentials) error

	// CreateProfile builds the identity for validated creds. A nil profile means none.
	CreateProfile(rc webcontext.RequestContext, creds *Credentials) (*Profile, error)
}

// Redirector is implemented by indirect mechanisms that send the browser to
// an external party before credentials exist.
type Redirector interface {
	// CallbackURL is where the external party sends the browser back.
	CallbackURL(rc webcontext.RequestContext) string

	// RedirectURL is where the browser goes to start authentication.
	RedirectURL(rc webcontext.RequestContext) (string, error)
}

// Challenger supplies the WWW-Authenticate value for unauthorized responses.
type Challenger interface {
	Challenge() string
}

// Client is a named mechanism.
type Client struct {
	name      string
	mechanism Mechanism
}

// NewClient names m. Surrounding spaces in name are dropped.
func NewClient(name string, m Mechanism) *Client {
	return &Client{name: strings.TrimSpace(name), mechanism: m}
}

func (c *Client) Name() string         { return c.name }
func (c *Client) Mechanism() Mechanism { return c.mechanism }

// Indirect reports whether the client needs a browser redirect.
func (c *Client) Indirect() bool {
	_, ok := c.mechanism.(Redirector)
	return ok
}

func (c *Client) redirector() Redirector {
	r, _ := c.mechanism.(Redirector)
	return r
}

func (c *Client) challenge() string {
	if ch, ok := c.mechanism.(Challenger); ok {
		return ch.Challenge()
	}
	return ""
}

// Credentials extracts and validates credentials. It returns nil when they are
// missing or rejected.
func (c *Client) Credentials(rc webcontext.RequestContext) (*Credentials, error) {
	creds, err := c.mechanism.ExtractCredentials(rc)
	if err != nil || creds == nil {
		return nil, err
	}
	if err := c.mechanism.Authenticate(rc, creds); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, nil
		}
		return nil, err
	}
	return creds, nil
}

// Profile creates the profile for creds and tags it with the client name.
func (c *Client) Profile(rc webcontext.RequestContext, creds *Credentials) (*Profile, error) {
	p, err := c.mechanism.CreateProfile(rc, creds)
	if err != nil || p == nil {
		return nil, err
	}
	p.ClientName = c.name
	return p, nil
}

// Clients is the configured set of clients in declaration order.
type Clients struct {
	ordered []*Client
	byName  map[string]*Client
}

func NewClients(clients ...*Client) (*Clients, error) {
	cs := &Clients{byName: make(map[string]*Client, len(clients))}
	for _, c := range clients {
		if c == nil || c.name == "" || c.mechanism == nil {
			return nil, errors.Join(ErrClientNotFound, errors.New("client without name or mechanism"))
		}
		key := strings.ToLower(c.name)
		if _, dup := cs.byName[key]; dup {
			return nil, errors.Join(ErrDuplicateClient, errors.New(c.name))
		}
		cs.byName[key] = c
		cs.ordered = append(cs.ordered, c)
	}
	return cs, nil
}

// Lookup finds a client by name, ignoring case and surrounding space.
func (cs *Clients) Lookup(name string) (*Client, bool) {
	c, ok := cs.byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

func (cs *Clients) All() []*Client { return cs.ordered }
func (cs *Clients) Len() int       { return len(cs.ordered) }

func (cs *Clients) Names() []string {
	names := make([]string, len(cs.ordered))
	for i, c := range cs.ordered {
		names[i] = c.name
	}
	return names
}

package ssoauth

import (
	"errors"
	"strings"

	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// Finder resolves the clients that apply to a request.
type Finder struct {
	// ClientParam names the request parameter that selects a client.
	ClientParam string
	// DefaultClients is used when the caller names none.
	DefaultClients string
}

// Find resolves names in this order: requested, DefaultClients, the only
// configured client. A client selected through ClientParam must be among the
// resolved names and then becomes the only candidate.
func (f Finder) Find(all *Clients, rc webcontext.RequestContext, requested string) ([]*Client, error) {
	names := strings.TrimSpace(requested)
	if names == "" {
		names = strings.TrimSpace(f.DefaultClients)
	}
	if names == "" && all.Len() == 1 {
		names = all.All()[0].Name()
	}
	if names == "" {
		return nil, ErrNoClients
	}

	candidates := splitNames(names)

	if f.ClientParam != "" {
		if onRequest := strings.TrimSpace(rc.Param(f.ClientParam)); onRequest != "" {
			return f.selected(all, candidates, onRequest)
		}
	}

	out := make([]*Client, 0, len(candidates))
	for _, name := range candidates {
		c, ok := all.Lookup(name)
		if !ok {
			return nil, errors.Join(ErrClientNotFound, errors.New(name))
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrNoClients
	}
	return out, nil
}

func (f Finder) selected(all *Clients, candidates []string, onRequest string) ([]*Client, error) {
	var out []*Client
	for _, name := range splitNames(onRequest) {
		c, ok := all.Lookup(name)
		if !ok {
			return nil, errors.Join(ErrClientNotFound, errors.New(name))
		}
		if !containsFold(candidates, c.Name()) {
			return nil, errors.Join(ErrClientNotAllowed, errors.New(c.Name()))
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrNoClients
	}
	return out, nil
}

func splitNames(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

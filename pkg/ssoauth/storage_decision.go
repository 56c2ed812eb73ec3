package ssoauth

import "github.com/dmitrymomot/ssokit/pkg/webcontext"

// StorageDecision decides when profiles travel through the session store.
type StorageDecision interface {
	MustLoadProfiles(rc webcontext.RequestContext, clients []*Client) bool
	MustSaveProfile(rc webcontext.RequestContext, client *Client, profile Profile) bool
}

// DefaultStorageDecision loads profiles when forced or when any resolved
// client is indirect, and saves them when forced or when the client is
// indirect. Direct clients stay stateless unless configured otherwise.
type DefaultStorageDecision struct {
	LoadProfiles bool
	SaveProfiles bool
}

func (d DefaultStorageDecision) MustLoadProfiles(_ webcontext.RequestContext, clients []*Client) bool {
	if d.LoadProfiles || len(clients) == 0 {
		return true
	}
	for _, c := range clients {
		if c.Indirect() {
			return true
		}
	}
	return false
}

func (d DefaultStorageDecision) MustSaveProfile(_ webcontext.RequestContext, client *Client, _ Profile) bool {
	return d.SaveProfiles || client.Indirect()
}

package ssoauth

import (
	"github.com/dmitrymomot/ssokit/pkg/ssosession"
	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

const (
	// ProfilesKey is the session attribute holding the serialized Profiles.
	ProfilesKey = "sso_profiles"
	// RequestedURLKey holds the URL to replay after an indirect round trip.
	RequestedURLKey = "sso_requested_url"

	profilesAttribute = "ssoauth.profiles"
)

// ProfileManager keeps the request's profiles in a request attribute and,
// when asked, in the session store.
type ProfileManager struct {
	store *ssosession.Store
}

// NewProfileManager registers the Profiles decoder on store.
func NewProfileManager(store *ssosession.Store) *ProfileManager {
	store.RegisterDecoder(ProfilesKey, ssosession.JSONDecoder[Profiles]())
	return &ProfileManager{store: store}
}

// Load returns the request's profiles, consulting the session store only
// when fromSession is set and nothing was resolved earlier in the request.
func (m *ProfileManager) Load(rc webcontext.RequestContext, fromSession bool) (Profiles, error) {
	if v, ok := rc.Attribute(profilesAttribute); ok {
		ps, _ := v.(Profiles)
		return ps, nil
	}
	if !fromSession {
		return nil, nil
	}

	v, ok, err := m.store.Get(rc, ProfilesKey)
	if err != nil || !ok {
		return nil, err
	}
	ps, err := asProfiles(v)
	if err != nil {
		// An unreadable blob forces re-authentication.
		return nil, nil
	}
	rc.SetAttribute(profilesAttribute, ps)
	return ps, nil
}

// Save adds p to the request's profiles and optionally persists the set.
func (m *ProfileManager) Save(rc webcontext.RequestContext, p Profile, toSession, multi bool) (Profiles, error) {
	current, err := m.Load(rc, toSession && multi)
	if err != nil {
		return nil, err
	}
	ps := current.With(p, multi)
	rc.SetAttribute(profilesAttribute, ps)

	if toSession {
		if err := m.store.Set(rc, ProfilesKey, ps); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// Clear forgets the profiles in the request and in the session store.
func (m *ProfileManager) Clear(rc webcontext.RequestContext) error {
	rc.SetAttribute(profilesAttribute, nil)
	return m.store.Set(rc, ProfilesKey, nil)
}

// SaveRequestedURL remembers url for replay after a callback.
func (m *ProfileManager) SaveRequestedURL(rc webcontext.RequestContext, url string) error {
	return m.store.Set(rc, RequestedURLKey, url)
}

// PopRequestedURL returns and forgets the saved URL.
func (m *ProfileManager) PopRequestedURL(rc webcontext.RequestContext) (string, error) {
	v, ok, err := m.store.Get(rc, RequestedURLKey)
	if err != nil || !ok {
		return "", err
	}
	if err := m.store.Set(rc, RequestedURLKey, nil); err != nil {
		return "", err
	}
	url, _ := v.(string)
	return url, nil
}

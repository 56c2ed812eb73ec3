package ssoauth

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Profile is an authenticated identity produced by one client.
type Profile struct {
	ClientName string         `json:"client_name"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
	ExpiresAt  time.Time      `json:"expires_at,omitzero"`
}

// IsExpired reports whether the profile expired at now. A zero ExpiresAt never expires.
func (p Profile) IsExpired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

func (p Profile) Attribute(name string) (any, bool) {
	v, ok := p.Attributes[name]
	return v, ok
}

// Profiles is the ordered set of profiles for one session, at most one per client.
type Profiles []Profile

// Get returns the profile produced by clientName. Names compare case-insensitively.
func (ps Profiles) Get(clientName string) (Profile, bool) {
	for _, p := range ps {
		if strings.EqualFold(p.ClientName, clientName) {
			return p, true
		}
	}
	return Profile{}, false
}

// With returns the set with p added. In multi-profile mode p replaces only the
// profile of the same client; otherwise it replaces the whole set.
func (ps Profiles) With(p Profile, multi bool) Profiles {
	if !multi {
		return Profiles{p}
	}
	out := make(Profiles, 0, len(ps)+1)
	replaced := false
	for _, existing := range ps {
		if strings.EqualFold(existing.ClientName, p.ClientName) {
			if !replaced {
				out = append(out, p)
				replaced = true
			}
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, p)
	}
	return out
}

// Valid returns the profiles not expired at now.
func (ps Profiles) Valid(now time.Time) Profiles {
	out := make(Profiles, 0, len(ps))
	for _, p := range ps {
		if !p.IsExpired(now) {
			out = append(out, p)
		}
	}
	return out
}

func (ps Profiles) ClientNames() []string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.ClientName)
	}
	return names
}

// UnmarshalJSON accepts the canonical array and the flattened
// {"<client>": profile} object. Object entries are ordered by client name.
func (ps *Profiles) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*ps = nil
		return nil
	}

	if trimmed[0] != '{' {
		var list []Profile
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*ps = list
		return nil
	}

	var flat map[string]Profile
	if err := json.Unmarshal(trimmed, &flat); err != nil {
		return err
	}
	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make(Profiles, 0, len(flat))
	for _, name := range names {
		p := flat[name]
		if p.ClientName == "" {
			p.ClientName = name
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}

// asProfiles converts whatever a session returned into Profiles.
func asProfiles(v any) (Profiles, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Profiles:
		return t, nil
	case []Profile:
		return Profiles(t), nil
	case Profile:
		return Profiles{t}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var ps Profiles
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

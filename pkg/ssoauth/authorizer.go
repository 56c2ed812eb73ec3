package ssoauth

import (
	"fmt"

	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// NoAuthorizers disables the authorization step.
const NoAuthorizers = "none"

// Authorizer decides whether authenticated profiles may access the request.
type Authorizer interface {
	IsAuthorized(rc webcontext.RequestContext, profiles Profiles) (bool, error)
}

type AuthorizerFunc func(rc webcontext.RequestContext, profiles Profiles) (bool, error)

func (f AuthorizerFunc) IsAuthorized(rc webcontext.RequestContext, profiles Profiles) (bool, error) {
	return f(rc, profiles)
}

// IsAuthenticated grants access when at least one profile exists.
func IsAuthenticated() Authorizer {
	return AuthorizerFunc(func(_ webcontext.RequestContext, profiles Profiles) (bool, error) {
		return len(profiles) > 0, nil
	})
}

// RequireAttribute grants access when any profile carries attribute name with
// one of values. String slices match on any element.
func RequireAttribute(name string, values ...string) Authorizer {
	return AuthorizerFunc(func(_ webcontext.RequestContext, profiles Profiles) (bool, error) {
		for _, p := range profiles {
			v, ok := p.Attribute(name)
			if !ok {
				continue
			}
			if len(values) == 0 || attributeMatches(v, values) {
				return true, nil
			}
		}
		return false, nil
	})
}

func attributeMatches(v any, values []string) bool {
	switch t := v.(type) {
	case string:
		return containsFold(values, t)
	case []string:
		for _, s := range t {
			if containsFold(values, s) {
				return true
			}
		}
	case []any:
		for _, s := range t {
			if attributeMatches(s, values) {
				return true
			}
		}
	default:
		return containsFold(values, fmt.Sprint(t))
	}
	return false
}

package ssoauth

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/ssokit/pkg/webcontext"
)

// Matcher decides whether a request is subject to security at all.
type Matcher interface {
	Matches(rc webcontext.RequestContext) bool
}

type MatcherFunc func(rc webcontext.RequestContext) bool

func (f MatcherFunc) Matches(rc webcontext.RequestContext) bool { return f(rc) }

// ExcludePaths matches every request whose path is not under one of prefixes.
func ExcludePaths(prefixes ...string) Matcher {
	return MatcherFunc(func(rc webcontext.RequestContext) bool {
		return !hasPathPrefix(rc.Path(), prefixes)
	})
}

// IncludePaths matches only requests under one of prefixes.
func IncludePaths(prefixes ...string) Matcher {
	return MatcherFunc(func(rc webcontext.RequestContext) bool {
		return hasPathPrefix(rc.Path(), prefixes)
	})
}

// Methods matches requests with one of the given HTTP methods.
func Methods(methods ...string) Matcher {
	return MatcherFunc(func(rc webcontext.RequestContext) bool {
		return containsFold(methods, rc.Method())
	})
}

// SafeMethods matches GET, HEAD and OPTIONS.
func SafeMethods() Matcher {
	return Methods(http.MethodGet, http.MethodHead, http.MethodOptions)
}

func hasPathPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

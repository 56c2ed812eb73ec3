package ssosession

import "github.com/dmitrymomot/ssokit/pkg/webcontext"

// noopSession stands in when a request has no local session: reads miss and
// writes are discarded.
type noopSession struct{}

func (noopSession) Get(string) (any, bool) { return nil, false }
func (noopSession) Set(string, any) error  { return nil }
func (noopSession) Destroy() error         { return nil }
func (noopSession) Renew() error           { return nil }

func localSession(rc webcontext.RequestContext) (webcontext.LocalSession, bool) {
	if ls := rc.LocalSession(); ls != nil {
		return ls, true
	}
	return noopSession{}, false
}

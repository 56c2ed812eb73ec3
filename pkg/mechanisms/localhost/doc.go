// Package localhost is a direct mechanism that trusts requests made from the
// gateway's own host, such as health probes or local tooling.
//
// Every entry of X-Forwarded-For and the peer address must fall inside one of
// the configured networks. A single remote hop rejects the request, so a
// remote client cannot pass as local by prepending 127.0.0.1 to the header.
//
//	m, err := localhost.New(localhost.DefaultConfig())
//	client := ssoauth.NewClient("local", m)
package localhost

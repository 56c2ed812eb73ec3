package ssoauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssokit/pkg/ssoauth"
)

func names(clients []*ssoauth.Client) []string {
	out := make([]string, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.Name())
	}
	return out
}

func TestFinder(t *testing.T) {
	all, err := ssoauth.NewClients(
		ssoauth.NewClient("OidcClient", &MockIndirectMechanism{}),
		ssoauth.NewClient("Bearer", &MockMechanism{}),
		ssoauth.NewClient("Localhost", &MockMechanism{}),
	)
	require.NoError(t, err)
	finder := ssoauth.Finder{ClientParam: "client_name"}

	t.Run("requested names keep order", func(t *testing.T) {
		rc, _ := newRC(request("/", ""))
		got, err := finder.Find(all, rc, " bearer , oidcclient ")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bearer", "OidcClient"}, names(got))
	})

	t.Run("defaults when nothing requested", func(t *testing.T) {
		rc, _ := newRC(request("/", ""))
		got, err := ssoauth.Finder{DefaultClients: "Localhost"}.Find(all, rc, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Localhost"}, names(got))
	})

	t.Run("no names with several clients", func(t *testing.T) {
		rc, _ := newRC(request("/", ""))
		_, err := finder.Find(all, rc, "")
		assert.ErrorIs(t, err, ssoauth.ErrNoClients)

		_, err = finder.Find(all, rc, " , ")
		assert.ErrorIs(t, err, ssoauth.ErrNoClients)
	})

	t.Run("single configured client", func(t *testing.T) {
		one, err := ssoauth.NewClients(ssoauth.NewClient("only", &MockMechanism{}))
		require.NoError(t, err)
		rc, _ := newRC(request("/", ""))
		got, err := finder.Find(one, rc, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"only"}, names(got))
	})

	t.Run("unknown name", func(t *testing.T) {
		rc, _ := newRC(request("/", ""))
		_, err := finder.Find(all, rc, "Bearer,Kerberos")
		assert.ErrorIs(t, err, ssoauth.ErrClientNotFound)
	})

	t.Run("request parameter narrows", func(t *testing.T) {
		rc, _ := newRC(request("/?client_name=BEARER", ""))
		got, err := finder.Find(all, rc, "OidcClient,Bearer")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bearer"}, names(got))
	})

	t.Run("request parameter outside allowed set", func(t *testing.T) {
		rc, _ := newRC(request("/?client_name=Localhost", ""))
		_, err := finder.Find(all, rc, "OidcClient,Bearer")
		assert.ErrorIs(t, err, ssoauth.ErrClientNotAllowed)
	})

	t.Run("request parameter unknown", func(t *testing.T) {
		rc, _ := newRC(request("/?client_name=Nope", ""))
		_, err := finder.Find(all, rc, "OidcClient")
		assert.ErrorIs(t, err, ssoauth.ErrClientNotFound)
	})
}

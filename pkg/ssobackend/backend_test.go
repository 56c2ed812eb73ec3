package ssobackend_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssokit/pkg/ssobackend"
)

const suiteTTL = time.Hour

// runBackendSuite checks the contract every driver must honor. advance moves
// the backend's notion of time forward past ttl-relevant boundaries.
func runBackendSuite(t *testing.T, b ssobackend.Backend, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.CreateIndex(ctx, suiteTTL))

	t.Run("missing record", func(t *testing.T) {
		_, err := b.GetSession(ctx, "missing")
		assert.ErrorIs(t, err, ssobackend.ErrNotFound)

		err = b.UpdateSession(ctx, "missing", "k", "v")
		assert.ErrorIs(t, err, ssobackend.ErrNotFound)
	})

	t.Run("create and read empty record", func(t *testing.T) {
		require.NoError(t, b.CreateSession(ctx, "s1"))

		rec, err := b.GetSession(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", rec.ID)
		assert.Empty(t, rec.Fields)
		assert.False(t, rec.Created.IsZero())
	})

	t.Run("update fields independently", func(t *testing.T) {
		require.NoError(t, b.CreateSession(ctx, "s2"))
		require.NoError(t, b.UpdateSession(ctx, "s2", "a", "ct-a"))
		require.NoError(t, b.UpdateSession(ctx, "s2", "b", "ct-b"))
		require.NoError(t, b.UpdateSession(ctx, "s2", "a", "ct-a2"))

		rec, err := b.GetSession(ctx, "s2")
		require.NoError(t, err)
		v, ok := rec.Field("a")
		assert.True(t, ok)
		assert.Equal(t, "ct-a2", v)
		v, ok = rec.Field("b")
		assert.True(t, ok)
		assert.Equal(t, "ct-b", v)
		_, ok = rec.Field("c")
		assert.False(t, ok)
	})

	t.Run("reserved field names rejected", func(t *testing.T) {
		require.NoError(t, b.CreateSession(ctx, "s3"))
		for _, name := range []string{"", "_id", "created", "$set", "a.b"} {
			err := b.UpdateSession(ctx, "s3", name, "x")
			assert.ErrorIs(t, err, ssobackend.ErrInvalidField, "field %q", name)
		}
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, b.CreateSession(ctx, "s4"))
		require.NoError(t, b.UpdateSession(ctx, "s4", "k", "v"))
		require.NoError(t, b.DeleteSession(ctx, "s4"))

		_, err := b.GetSession(ctx, "s4")
		assert.ErrorIs(t, err, ssobackend.ErrNotFound)
		assert.ErrorIs(t, b.UpdateSession(ctx, "s4", "k", "v"), ssobackend.ErrNotFound)

		// deleting twice is fine
		assert.NoError(t, b.DeleteSession(ctx, "s4"))
	})

	t.Run("concurrent field updates", func(t *testing.T) {
		require.NoError(t, b.CreateSession(ctx, "s5"))

		var wg sync.WaitGroup
		fields := []string{"f0", "f1", "f2", "f3", "f4", "f5", "f6", "f7"}
		for _, f := range fields {
			wg.Add(1)
			go func(f string) {
				defer wg.Done()
				assert.NoError(t, b.UpdateSession(ctx, "s5", f, "v-"+f))
			}(f)
		}
		wg.Wait()

		rec, err := b.GetSession(ctx, "s5")
		require.NoError(t, err)
		assert.Len(t, rec.Fields, len(fields))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, b.Ping(ctx))
	})

	if advance == nil {
		return
	}

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, b.CreateSession(ctx, "s6"))
		require.NoError(t, b.UpdateSession(ctx, "s6", "k", "v"))

		advance(suiteTTL + time.Second)

		_, err := b.GetSession(ctx, "s6")
		assert.ErrorIs(t, err, ssobackend.ErrNotFound)
		assert.ErrorIs(t, b.UpdateSession(ctx, "s6", "k", "v2"), ssobackend.ErrNotFound)
	})
}

func TestRecord(t *testing.T) {
	now := time.Now()
	rec := &ssobackend.Record{ID: "x", Created: now.Add(-2 * time.Hour)}

	assert.True(t, rec.Expired(time.Hour, now))
	assert.False(t, rec.Expired(3*time.Hour, now))
	assert.False(t, rec.Expired(0, now))

	var nilRec *ssobackend.Record
	assert.True(t, nilRec.Expired(time.Hour, now))
	_, ok := nilRec.Field("k")
	assert.False(t, ok)
}

func TestValidateField(t *testing.T) {
	assert.NoError(t, ssobackend.ValidateField("sso_profiles"))
	assert.NoError(t, ssobackend.ValidateField("requested-url"))
	assert.ErrorIs(t, ssobackend.ValidateField("created"), ssobackend.ErrInvalidField)
	assert.ErrorIs(t, ssobackend.ValidateField("a.b"), ssobackend.ErrInvalidField)
	assert.ErrorIs(t, ssobackend.ValidateField("$x"), ssobackend.ErrInvalidField)
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, ssobackend.IsUnavailable(context.DeadlineExceeded))
	assert.True(t, ssobackend.IsUnavailable(ssobackend.ErrUnavailable))
	assert.False(t, ssobackend.IsUnavailable(ssobackend.ErrNotFound))
	assert.False(t, ssobackend.IsUnavailable(nil))
}

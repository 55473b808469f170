package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/coffee-shop-backend/internal/storage"
)

type roleFunc func(ctx context.Context, userID int) (string, error)

func (f roleFunc) RoleOf(ctx context.Context, userID int) (string, error) { return f(ctx, userID) }

func newTestGate(roles RoleLookup) *Gate {
	return NewGate(Options{
		Secret:            []byte("test-secret"),
		Revoked:           storage.NewMemory(),
		Roles:             roles,
		RoleLookupTimeout: 50 * time.Millisecond,
	})
}

func whoami(c *fiber.Ctx) error {
	s := FromCtx(c)
	if s == nil {
		return c.JSON(fiber.Map{"authenticated": false})
	}
	return c.JSON(fiber.Map{"authenticated": true, "userId": s.UserID, "role": s.Role})
}

func TestIssueAndParse(t *testing.T) {
	g := newTestGate(nil)
	tok, issued, err := g.Issue(7, "ana@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), issued.ExpiresAt, time.Minute)

	s, err := g.Parse(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, 7, s.UserID)
	assert.Equal(t, "ana@example.com", s.Email)
	assert.Equal(t, issued.TokenID, s.TokenID)

	_, err = g.Parse(context.Background(), tok+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewGate(Options{Secret: []byte("another-secret")})
	_, err = other.Parse(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	g := newTestGate(nil)
	tok, issued, err := g.Issue(7, "ana@example.com")
	require.NoError(t, err)

	require.NoError(t, g.Revoke(context.Background(), issued))
	_, err = g.Parse(context.Background(), tok)
	assert.ErrorIs(t, err, ErrRevoked)
}

type ttlKV struct {
	*storage.Memory
	ttls map[string]time.Duration
}

func (k *ttlKV) SetTTL(ctx context.Context, owner, key, value string, ttl time.Duration) error {
	k.ttls[key] = ttl
	return k.Memory.SetTTL(ctx, owner, key, value, ttl)
}

func TestRevoke_ExpiresWithToken(t *testing.T) {
	kv := &ttlKV{Memory: storage.NewMemory(), ttls: map[string]time.Duration{}}
	g := NewGate(Options{Secret: []byte("test-secret"), Revoked: kv})

	_, issued, err := g.Issue(7, "ana@example.com")
	require.NoError(t, err)
	require.NoError(t, g.Revoke(context.Background(), issued))

	ttl, ok := kv.ttls[issued.TokenID]
	require.True(t, ok, "revocation must be written with an expiry")
	assert.InDelta(t, (72 * time.Hour).Seconds(), ttl.Seconds(), 60)

	expired := &Session{UserID: 7, TokenID: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, g.Revoke(context.Background(), expired))
	assert.NotContains(t, kv.ttls, "old")
	assert.Equal(t, 1, kv.Len(RevokedOwner))
}

func TestRoleOf_DegradesToUser(t *testing.T) {
	admin := newTestGate(roleFunc(func(context.Context, int) (string, error) { return RoleAdmin, nil }))
	assert.Equal(t, RoleAdmin, admin.RoleOf(context.Background(), 1))

	failing := newTestGate(roleFunc(func(context.Context, int) (string, error) { return "", errors.New("db down") }))
	assert.Equal(t, RoleUser, failing.RoleOf(context.Background(), 1))

	slow := newTestGate(roleFunc(func(ctx context.Context, _ int) (string, error) {
		select {
		case <-time.After(time.Second):
			return RoleAdmin, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}))
	start := time.Now()
	assert.Equal(t, RoleUser, slow.RoleOf(context.Background(), 1))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	assert.Equal(t, RoleUser, newTestGate(nil).RoleOf(context.Background(), 1))
}

func TestResolve_AnonymousAndAuthenticated(t *testing.T) {
	g := newTestGate(roleFunc(func(_ context.Context, id int) (string, error) {
		if id == 1 {
			return RoleAdmin, nil
		}
		return RoleUser, nil
	}))
	app := fiber.New()
	app.Use(g.Resolve())
	app.Get("/whoami", whoami)

	res, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, false, body["authenticated"])

	bad := httptest.NewRequest("GET", "/whoami", nil)
	bad.Header.Set("Authorization", "Bearer not-a-token")
	res, _ = app.Test(bad)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	tok, _, err := g.Issue(1, "admin@example.com")
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res, _ = app.Test(req)
	body = nil
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, float64(1), body["userId"])
	assert.Equal(t, RoleAdmin, body["role"])
}

func TestResolve_RevokedTokenIsAnonymous(t *testing.T) {
	g := newTestGate(nil)
	app := fiber.New()
	app.Use(g.Resolve())
	app.Get("/whoami", whoami)

	tok, issued, err := g.Issue(3, "x@example.com")
	require.NoError(t, err)
	require.NoError(t, g.Revoke(context.Background(), issued))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res, _ := app.Test(req)
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, false, body["authenticated"])
}

func TestRequireAuthAndRole(t *testing.T) {
	g := newTestGate(nil)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		switch c.Get("X-Role") {
		case RoleAdmin:
			Attach(c, &Session{UserID: 1, Role: RoleAdmin})
		case RoleUser:
			Attach(c, &Session{UserID: 2, Role: RoleUser})
		}
		return c.Next()
	})
	app.Get("/me", g.RequireAuth(), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/admin", g.RequireRole(RoleAdmin), func(c *fiber.Ctx) error { return c.SendString("ok") })

	cases := []struct {
		path, role string
		want       int
	}{
		{"/me", "", fiber.StatusUnauthorized},
		{"/me", RoleUser, fiber.StatusOK},
		{"/admin", "", fiber.StatusUnauthorized},
		{"/admin", RoleUser, fiber.StatusForbidden},
		{"/admin", RoleAdmin, fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		if tc.role != "" {
			req.Header.Set("X-Role", tc.role)
		}
		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.want, res.StatusCode, "%s as %q", tc.path, tc.role)
	}
}

func TestSubscribe(t *testing.T) {
	g := newTestGate(nil)
	var got []string
	unsubA := g.Subscribe(func(e Event) { got = append(got, "a:"+string(e.Type)) })
	g.Subscribe(func(e Event) { got = append(got, "b:"+string(e.Type)) })

	g.Publish(Event{Type: SignedIn, Session: &Session{UserID: 1}})
	unsubA()
	g.Publish(Event{Type: SignedOut})

	assert.Equal(t, []string{"a:signed_in", "b:signed_in", "b:signed_out"}, got)
}

func TestSessionHelpers(t *testing.T) {
	var anon *Session
	assert.False(t, anon.Authenticated())
	assert.False(t, anon.IsMember())
	assert.False(t, anon.IsAdmin())

	s := &Session{UserID: 12, Role: RoleUser}
	assert.True(t, s.IsMember())
	assert.False(t, s.IsAdmin())
	assert.Equal(t, "user:12", s.Owner())
}

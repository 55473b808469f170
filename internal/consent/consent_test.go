package consent

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/coffee-shop-backend/internal/storage"
)

func TestGet_UndecidedAndUnreadable(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	svc := NewService(kv, nil)

	assert.Equal(t, State{}, svc.Get(ctx, "anon:1"))

	require.NoError(t, kv.Set(ctx, "anon:1", StorageKey, "maybe"))
	assert.Equal(t, State{}, svc.Get(ctx, "anon:1"))

	_, err := svc.Set(ctx, "anon:1", false)
	require.NoError(t, err)
	assert.Equal(t, State{Accepted: false, Decided: true}, svc.Get(ctx, "anon:1"))
}

func TestConsentRoutes(t *testing.T) {
	svc := NewService(storage.NewMemory(), nil)
	app := fiber.New()
	NewHandler(svc, func(c *fiber.Ctx) string { return "anon:" + c.Get("X-Cart-ID") }).RegisterRoutes(app)

	get := func() State {
		req := httptest.NewRequest("GET", "/api/v1/consent", nil)
		req.Header.Set("X-Cart-ID", "v1")
		res, err := app.Test(req)
		require.NoError(t, err)
		var s State
		require.NoError(t, json.NewDecoder(res.Body).Decode(&s))
		return s
	}

	assert.False(t, get().Decided)

	req := httptest.NewRequest("PUT", "/api/v1/consent", strings.NewReader(`{"accepted":true}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Cart-ID", "v1")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, State{Accepted: true, Decided: true}, get())

	bad := httptest.NewRequest("PUT", "/api/v1/consent", strings.NewReader(`{}`))
	bad.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(bad)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wichananm65/coffee-shop-backend/internal/storage"
)

// RevokedOwner is the storage namespace holding revoked token ids.
const RevokedOwner = "session"

const defaultTTL = 72 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevoked      = errors.New("token has been revoked")
)

// RoleLookup returns the role stored in a user's profile record.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID int) (string, error)
}

type Options struct {
	Secret            []byte
	TTL               time.Duration
	Revoked           storage.KV
	Roles             RoleLookup
	RoleLookupTimeout time.Duration
	Log               *zap.Logger
}

// Gate issues tokens and turns bearer tokens into sessions.
type Gate struct {
	secret      []byte
	ttl         time.Duration
	revoked     storage.KV
	roles       RoleLookup
	roleTimeout time.Duration
	log         *zap.Logger

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func NewGate(opts Options) *Gate {
	g := &Gate{
		secret:      opts.Secret,
		ttl:         opts.TTL,
		revoked:     opts.Revoked,
		roles:       opts.Roles,
		roleTimeout: opts.RoleLookupTimeout,
		log:         opts.Log,
		listeners:   make(map[int]Listener),
	}
	if g.ttl <= 0 {
		g.ttl = defaultTTL
	}
	if g.roleTimeout <= 0 {
		g.roleTimeout = 3 * time.Second
	}
	if g.revoked == nil {
		g.revoked = storage.NewMemory()
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	return g
}

// SetRoleLookup replaces the role source. The user service is built after the
// gate, so main wires it in late.
func (g *Gate) SetRoleLookup(roles RoleLookup) {
	g.mu.Lock()
	g.roles = roles
	g.mu.Unlock()
}

// Issue signs a new token for the user.
func (g *Gate) Issue(userID int, email string) (string, *Session, error) {
	now := time.Now()
	s := &Session{
		UserID:    userID,
		Email:     email,
		Role:      RoleUser,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(g.ttl),
	}
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"jti":     s.TokenID,
		"iat":     now.Unix(),
		"exp":     s.ExpiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, s, nil
}

// Parse verifies a raw token and checks it against the revocation list. The
// returned session carries no role; see RoleOf.
func (g *Gate) Parse(ctx context.Context, raw string) (*Session, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return g.fromToken(ctx, tok)
}

func (g *Gate) fromToken(ctx context.Context, tok *jwt.Token) (*Session, error) {
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	s := &Session{Role: RoleUser}
	switch v := claims["user_id"].(type) {
	case float64:
		s.UserID = int(v)
	case int:
		s.UserID = v
	}
	if s.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	s.Email, _ = claims["email"].(string)
	s.TokenID, _ = claims["jti"].(string)
	if exp, ok := claims["exp"].(float64); ok {
		s.ExpiresAt = time.Unix(int64(exp), 0)
	}

	if s.TokenID != "" {
		_, revoked, err := g.revoked.Get(ctx, RevokedOwner, s.TokenID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrRevoked
		}
	}
	return s, nil
}

// Revoke adds the session's token id to the revocation list until the token
// would have expired anyway.
func (g *Gate) Revoke(ctx context.Context, s *Session) error {
	if s == nil || s.TokenID == "" {
		return nil
	}
	ttl := g.ttl
	if !s.ExpiresAt.IsZero() {
		ttl = time.Until(s.ExpiresAt)
		if ttl <= 0 {
			// already rejected as expired
			return nil
		}
	}
	return g.revoked.SetTTL(ctx, RevokedOwner, s.TokenID, s.ExpiresAt.UTC().Format(time.RFC3339), ttl)
}

// RoleOf reads the user's role within the configured timeout. Any failure
// degrades to RoleUser.
func (g *Gate) RoleOf(ctx context.Context, userID int) string {
	g.mu.RLock()
	roles := g.roles
	g.mu.RUnlock()
	if roles == nil {
		return RoleUser
	}

	ctx, cancel := context.WithTimeout(ctx, g.roleTimeout)
	defer cancel()

	type result struct {
		role string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		role, err := roles.RoleOf(ctx, userID)
		done <- result{role, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			g.log.Warn("role lookup failed", zap.Int("user_id", userID), zap.Error(r.err))
			return RoleUser
		}
		if r.role == "" {
			return RoleUser
		}
		return r.role
	case <-ctx.Done():
		g.log.Warn("role lookup timed out", zap.Int("user_id", userID), zap.Duration("timeout", g.roleTimeout))
		return RoleUser
	}
}

// Resolve attaches a Session to requests carrying a valid bearer token.
// Missing, invalid and revoked tokens leave the request anonymous.
func (g *Gate) Resolve() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: g.secret,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Next()
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			tok, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return c.Next()
			}
			s, err := g.fromToken(c.UserContext(), tok)
			if err != nil {
				if !errors.Is(err, ErrRevoked) && !errors.Is(err, ErrInvalidToken) {
					g.log.Warn("session resolve failed", zap.Error(err))
				}
				return c.Next()
			}
			s.Role = g.RoleOf(c.UserContext(), s.UserID)
			Attach(c, s)
			return c.Next()
		},
	})
}

func (g *Gate) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if FromCtx(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		return c.Next()
	}
}

func (g *Gate) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := FromCtx(c)
		if s == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		if s.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden"})
		}
		return c.Next()
	}
}

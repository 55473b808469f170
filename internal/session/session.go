// Package session resolves who is behind a request. It issues and verifies
// JWTs, keeps the revocation list, looks up roles, and lets other components
// subscribe to sign-in and sign-out changes.
package session

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	localsKey = "session"
)

// Session is the resolved identity of a request. A nil *Session means an
// anonymous visitor.
type Session struct {
	UserID    int
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID > 0
}

// IsMember reports whether the visitor gets member pricing. Every signed-in
// user is a member.
func (s *Session) IsMember() bool {
	return s.Authenticated()
}

func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}

// Owner is the storage namespace of a signed-in user.
func (s *Session) Owner() string {
	return "user:" + strconv.Itoa(s.UserID)
}

// Attach stores s on the request.
func Attach(c *fiber.Ctx, s *Session) {
	c.Locals(localsKey, s)
}

// FromCtx returns the session resolved for the request, or nil.
func FromCtx(c *fiber.Ctx) *Session {
	s, _ := c.Locals(localsKey).(*Session)
	if !s.Authenticated() {
		return nil
	}
	return s
}

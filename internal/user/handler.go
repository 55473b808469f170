package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/coffee-shop-backend/internal/session"
)

// cartIDHeader is read on sign-in so listeners can move the anonymous cart.
const cartIDHeader = "X-Cart-ID"

type Handler struct {
	service *Service
	gate    *session.Gate
	log     *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewHandler(service *Service, gate *session.Gate, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, gate: gate, log: log}
}

// RegisterPublicRoutes expects r to run session.Gate.Resolve first.
func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/api/v1/sign-in", h.login)
	r.Post("/api/v1/sign-up", h.register)
	r.Get("/api/v1/session", h.getSession)
}

// RegisterProtectedRoutes expects r to require a signed-in session.
func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/api/v1/sign-out", h.logout)
	r.Post("/api/v1/refresh", h.refresh)
	r.Get("/api/v1/profile", h.getProfile)
	// PATCH and PUT both accept partial payloads
	r.Put("/api/v1/profile", h.updateProfile)
	r.Patch("/api/v1/profile", h.updateProfile)
}

func (h *Handler) issue(c *fiber.Ctx, user User) (string, *session.Session, error) {
	token, s, err := h.gate.Issue(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}
	s.Role = h.gate.RoleOf(c.UserContext(), user.ID)
	return token, s, nil
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	user, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
	}

	token, s, err := h.issue(c, user)
	if err != nil {
		h.log.Error("token issue failed", zap.Int("user_id", user.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	h.gate.Publish(session.Event{Type: session.SignedIn, Session: s, CartID: c.Get(cartIDHeader)})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
		"role":    s.Role,
		"token":   token,
	})
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(SignUpInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.SignUp(c.UserContext(), *payload)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing or invalid fields", "errors": verr.Fields})
		case errors.Is(err, ErrEmailExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already exists"})
		}
		h.log.Error("sign-up failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not create account"})
	}

	token, s, err := h.issue(c, created)
	if err != nil {
		h.log.Error("token issue failed", zap.Int("user_id", created.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	h.gate.Publish(session.Event{Type: session.SignedUp, Session: s, CartID: c.Get(cartIDHeader)})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  created,
		"role":  s.Role,
		"token": token,
	})
}

func (h *Handler) logout(c *fiber.Ctx) error {
	s := session.FromCtx(c)
	if s == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	if err := h.gate.Revoke(c.UserContext(), s); err != nil {
		h.log.Error("token revoke failed", zap.Int("user_id", s.UserID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to sign out"})
	}
	h.gate.Publish(session.Event{Type: session.SignedOut, Session: s})
	return c.JSON(fiber.Map{"message": "Signed out"})
}

func (h *Handler) refresh(c *fiber.Ctx) error {
	old := session.FromCtx(c)
	if old == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	token, s, err := h.gate.Issue(old.UserID, old.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	s.Role = old.Role
	if err := h.gate.Revoke(c.UserContext(), old); err != nil {
		h.log.Warn("revoking refreshed token failed", zap.Int("user_id", old.UserID), zap.Error(err))
	}
	h.gate.Publish(session.Event{Type: session.TokenRefreshed, Session: s})
	return c.JSON(fiber.Map{"token": token, "expiresAt": s.ExpiresAt})
}

// getSession never answers 401: anonymous visitors get authenticated=false.
func (h *Handler) getSession(c *fiber.Ctx) error {
	s := session.FromCtx(c)
	if s == nil {
		return c.JSON(fiber.Map{
			"authenticated": false,
			"role":          "guest",
			"isMember":      false,
		})
	}
	return c.JSON(fiber.Map{
		"authenticated": true,
		"userId":        s.UserID,
		"email":         s.Email,
		"role":          s.Role,
		"isMember":      s.IsMember(),
	})
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	s := session.FromCtx(c)
	if s == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	user, err := h.service.GetByID(c.UserContext(), s.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
	}

	return c.JSON(fiber.Map{"user": user, "role": s.Role})
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	s := session.FromCtx(c)
	if s == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	var payload ProfileUpdate
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	updated, err := h.service.UpdateProfile(c.UserContext(), s.UserID, payload)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": verr.Fields})
		case errors.Is(err, ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"user": updated})
}

package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/coffee-shop-backend/internal/notification"
)

const minPasswordLength = 8

// ValidationError lists every rejected field of a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "invalid sign-up request"
}

type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type Service struct {
	repo     Repository
	notifier notification.Notifier
	log      *zap.Logger
}

func NewService(repo Repository, notifier notification.Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, notifier: notifier, log: log}
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	return sanitizeUser(user), nil
}

// RoleOf satisfies session.RoleLookup.
func (s *Service) RoleOf(ctx context.Context, id int) (string, error) {
	return s.repo.RoleOf(ctx, id)
}

// ValidatePassword enforces the password policy: at least eight characters
// with at least one letter and one digit.
func ValidatePassword(pw string) string {
	if len(pw) < minPasswordLength {
		return "password must be at least 8 characters"
	}
	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return "password must contain a letter and a digit"
	}
	return ""
}

func (in SignUpInput) validate() *ValidationError {
	errs := map[string]string{}
	if in.Email == "" {
		errs["email"] = "email is required"
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		errs["email"] = "email is invalid"
	}
	if in.Password == "" {
		errs["password"] = "password is required"
	} else if msg := ValidatePassword(in.Password); msg != "" {
		errs["password"] = msg
	}
	if strings.TrimSpace(in.FullName) == "" {
		errs["fullName"] = "full name is required"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// SignUp creates the account and a "user" profile, then sends a welcome
// email. A failed email does not fail the sign-up.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if verr := in.validate(); verr != nil {
		return User{}, verr
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	created, err := s.repo.Create(ctx, User{
		Email:    in.Email,
		Password: string(hashed),
		FullName: strings.TrimSpace(in.FullName),
		Phone:    in.Phone,
	}, RoleUser)
	if err != nil {
		return User{}, err
	}

	s.sendWelcome(ctx, created)
	return sanitizeUser(created), nil
}

func (s *Service) sendWelcome(ctx context.Context, u User) {
	if s.notifier == nil {
		return
	}
	email, err := notification.Welcome(u.Email, u.FullName)
	if err == nil {
		_, err = s.notifier.Send(ctx, email)
	}
	if err != nil {
		s.log.Warn("welcome email failed", zap.Int("user_id", u.ID), zap.Error(err))
	}
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("user lookup failed", zap.Error(err))
		}
		return User{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

type ProfileUpdate struct {
	FullName *string `json:"fullName,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UpdateProfile applies a partial update. A new password goes through the
// same policy as sign-up.
func (s *Service) UpdateProfile(ctx context.Context, id int, upd ProfileUpdate) (User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	existing.Password = ""
	if upd.FullName != nil {
		if strings.TrimSpace(*upd.FullName) == "" {
			return User{}, &ValidationError{Fields: map[string]string{"fullName": "full name is required"}}
		}
		existing.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.Phone != nil {
		existing.Phone = *upd.Phone
	}
	if upd.Password != nil {
		if msg := ValidatePassword(*upd.Password); msg != "" {
			return User{}, &ValidationError{Fields: map[string]string{"password": msg}}
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		existing.Password = string(hashed)
	}

	updated, err := s.repo.Update(ctx, id, existing)
	if err != nil {
		return User{}, err
	}
	return sanitizeUser(updated), nil
}

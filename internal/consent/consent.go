// Package consent stores the visitor's cookie consent decision next to their
// cart in client storage.
package consent

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/wichananm65/coffee-shop-backend/internal/storage"
)

// StorageKey holds "true" or "false" once the visitor has decided.
const StorageKey = "cookie-consent"

// State is what the banner needs to know.
type State struct {
	Accepted bool `json:"accepted"`
	Decided  bool `json:"decided"`
}

type Service struct {
	kv  storage.KV
	log *zap.Logger
}

func NewService(kv storage.KV, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{kv: kv, log: log}
}

// Get reads the owner's decision. Missing or unreadable values are undecided.
func (s *Service) Get(ctx context.Context, owner string) State {
	raw, ok, err := s.kv.Get(ctx, owner, StorageKey)
	if err != nil {
		s.log.Warn("consent read failed", zap.String("owner", owner), zap.Error(err))
		return State{}
	}
	if !ok {
		return State{}
	}
	accepted, err := strconv.ParseBool(raw)
	if err != nil {
		return State{}
	}
	return State{Accepted: accepted, Decided: true}
}

func (s *Service) Set(ctx context.Context, owner string, accepted bool) (State, error) {
	if err := s.kv.Set(ctx, owner, StorageKey, strconv.FormatBool(accepted)); err != nil {
		return State{}, err
	}
	return State{Accepted: accepted, Decided: true}, nil
}

package prefs

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// #region service
// Service reads and writes the guide's preferences. Stored values that are not
// recognized fall back to defaults instead of failing.
type Service struct {
	kv     KV
	logger *zap.Logger
}

// NewService wraps kv. A nil kv gets an in-memory store.
func NewService(kv KV, logger *zap.Logger) *Service {
	if kv == nil {
		kv = NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{kv: kv, logger: logger}
}

// Analogy returns the stored analogy, or DefaultAnalogy when it is missing,
// invalid or unreadable.
func (s *Service) Analogy(ctx context.Context) Analogy {
	raw, ok, err := s.kv.Get(ctx, KeyAnalogy)
	if err != nil {
		s.logger.Warn("read analogy preference", zap.Error(err))
		return DefaultAnalogy
	}
	a := Analogy(raw)
	if !ok || !a.Valid() {
		return DefaultAnalogy
	}
	return a
}

// SetAnalogy stores a.
func (s *Service) SetAnalogy(ctx context.Context, a Analogy) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAnalogy, a)
	}
	if err := s.kv.Set(ctx, KeyAnalogy, string(a)); err != nil {
		return fmt.Errorf("set analogy: %w", err)
	}
	s.logger.Debug("analogy changed", zap.String("analogy", string(a)))
	return nil
}

// Theme returns the stored theme, or DefaultTheme.
func (s *Service) Theme(ctx context.Context) Theme {
	raw, ok, err := s.kv.Get(ctx, KeyTheme)
	if err != nil {
		s.logger.Warn("read theme preference", zap.Error(err))
		return DefaultTheme
	}
	t := Theme(raw)
	if !ok || !t.Valid() {
		return DefaultTheme
	}
	return t
}

// SetTheme stores t.
func (s *Service) SetTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	if err := s.kv.Set(ctx, KeyTheme, string(t)); err != nil {
		return fmt.Errorf("set theme: %w", err)
	}
	return nil
}

// ResolveKey maps a short name ("analogy", "theme") or a full key to the stored key.
func ResolveKey(key string) (string, error) {
	switch key {
	case KeyAnalogy, "analogy":
		return KeyAnalogy, nil
	case KeyTheme, "theme":
		return KeyTheme, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Get reads a raw preference by key.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	k, err := ResolveKey(key)
	if err != nil {
		return "", err
	}
	if k == KeyAnalogy {
		return string(s.Analogy(ctx)), nil
	}
	return string(s.Theme(ctx)), nil
}

// Set writes a raw preference by key, validating known keys.
func (s *Service) Set(ctx context.Context, key, value string) error {
	k, err := ResolveKey(key)
	if err != nil {
		return err
	}
	if k == KeyAnalogy {
		return s.SetAnalogy(ctx, Analogy(value))
	}
	return s.SetTheme(ctx, Theme(value))
}

// #endregion service

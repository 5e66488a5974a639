package prefs

import (
	"context"
	"errors"
	"time"
)

// Storage keys, shared with the browser guide's local storage.
const (
	KeyAnalogy = "rlhf-guide-analogy"
	KeyTheme   = "rlhf-guide-theme"
)

var (
	// ErrInvalidAnalogy is returned when setting an analogy outside the known set.
	ErrInvalidAnalogy = errors.New("invalid analogy")
	// ErrInvalidTheme is returned when setting a theme outside the known set.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrUnknownKey is returned for preference keys the service does not manage.
	ErrUnknownKey = errors.New("unknown preference")
)

// #region kv
// KV is the key-value persistence a Service reads and writes through.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// #endregion kv

// #region analogy
// Analogy selects which set of explanations the guide shows.
type Analogy string

const (
	AnalogyAtari     Analogy = "atari"
	AnalogyWriting   Analogy = "writing"
	AnalogyReasoning Analogy = "reasoning"
	AnalogyAdvanced  Analogy = "advanced"
)

// DefaultAnalogy is used when nothing valid is stored.
const DefaultAnalogy = AnalogyAtari

// Analogies lists the accepted analogies in menu order.
func Analogies() []Analogy {
	return []Analogy{AnalogyAtari, AnalogyWriting, AnalogyReasoning, AnalogyAdvanced}
}

// Valid reports whether a is one of Analogies.
func (a Analogy) Valid() bool {
	for _, known := range Analogies() {
		if a == known {
			return true
		}
	}
	return false
}

// Next returns the analogy after a, wrapping around.
func (a Analogy) Next() Analogy {
	all := Analogies()
	for i, known := range all {
		if a == known {
			return all[(i+1)%len(all)]
		}
	}
	return DefaultAnalogy
}

// #endregion analogy

// #region theme
// Theme is the color scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DefaultTheme is used when nothing valid is stored.
const DefaultTheme = ThemeSystem

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// #endregion theme

// #region change
// Change is one row of preference history.
type Change struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	ChangedAt time.Time `json:"changedAt"`
}

// #endregion change

package prefs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func tempStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("disk on fire")
}

func TestSQLiteStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)

	_, ok, err := s.Get(ctx, KeyAnalogy)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyAnalogy, "writing"))
	require.NoError(t, s.Set(ctx, KeyAnalogy, "reasoning"))

	v, ok, err := s.Get(ctx, KeyAnalogy)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "reasoning", v)
}

func TestSQLiteStoreHistory(t *testing.T) {
	ctx := context.Background()
	s := tempStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, v := range []string{"atari", "writing", "advanced"} {
		require.NoError(t, s.Set(ctx, KeyAnalogy, v))
	}
	require.NoError(t, s.Set(ctx, KeyTheme, "dark"))

	hist, err := s.History(ctx, KeyAnalogy, 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "advanced", hist[0].Value)
	assert.Equal(t, "writing", hist[1].Value)
	assert.True(t, base.Add(3*time.Second).Equal(hist[0].ChangedAt))
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyTheme, "light"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", v)
}

func TestServiceAnalogyDefaults(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	svc := NewService(kv, nil)

	assert.Equal(t, AnalogyAtari, svc.Analogy(ctx), "missing value")

	require.NoError(t, kv.Set(ctx, KeyAnalogy, "pinball"))
	assert.Equal(t, AnalogyAtari, svc.Analogy(ctx), "unknown stored value")

	require.NoError(t, svc.SetAnalogy(ctx, AnalogyWriting))
	assert.Equal(t, AnalogyWriting, svc.Analogy(ctx))
}

func TestServiceRejectsInvalidAnalogy(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	svc := NewService(kv, nil)

	err := svc.SetAnalogy(ctx, Analogy("pinball"))
	assert.ErrorIs(t, err, ErrInvalidAnalogy)
	_, ok, _ := kv.Get(ctx, KeyAnalogy)
	assert.False(t, ok, "invalid analogy must not be stored")
}

func TestServiceTheme(t *testing.T) {
	ctx := context.Background()
	svc := NewService(nil, nil)

	assert.Equal(t, ThemeSystem, svc.Theme(ctx))
	require.NoError(t, svc.SetTheme(ctx, ThemeDark))
	assert.Equal(t, ThemeDark, svc.Theme(ctx))
	assert.ErrorIs(t, svc.SetTheme(ctx, Theme("sepia")), ErrInvalidTheme)
}

func TestServiceRawKeys(t *testing.T) {
	ctx := context.Background()
	svc := NewService(tempStore(t), nil)

	require.NoError(t, svc.Set(ctx, "analogy", "advanced"))
	v, err := svc.Get(ctx, KeyAnalogy)
	require.NoError(t, err)
	assert.Equal(t, "advanced", v)

	_, err = svc.Get(ctx, "font")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.ErrorIs(t, svc.Set(ctx, "font", "mono"), ErrUnknownKey)
}

func TestServiceReadFailureFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewService(failingKV{}, zap.New(core))

	assert.Equal(t, DefaultAnalogy, svc.Analogy(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("read analogy preference").Len())
	assert.Error(t, svc.SetAnalogy(context.Background(), AnalogyWriting))
}

func TestAnalogyNext(t *testing.T) {
	assert.Equal(t, AnalogyWriting, AnalogyAtari.Next())
	assert.Equal(t, AnalogyAtari, AnalogyAdvanced.Next())
	assert.Equal(t, AnalogyAtari, Analogy("bogus").Next())
}

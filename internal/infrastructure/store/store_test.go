package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGet(t *testing.T) {
	s := NewMemory(0)

	s.Set("a", 1, time.Minute)
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestMemoryDelete(t *testing.T) {
	s := NewMemory(0)

	s.Set("a", 1, time.Minute)
	s.Delete("a")
	_, ok := s.Get("a")
	assert.False(t, ok)

	// Deleting an absent key is a no-op.
	s.Delete("missing")
}

func TestMemoryTTL(t *testing.T) {
	s := NewMemory(0)

	s.Set("short", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	_, ok := s.Get("short")
	assert.False(t, ok)
}

func TestMemoryKeysPrefix(t *testing.T) {
	s := NewMemory(0)

	s.Set("session:1", 1, time.Minute)
	s.Set("session:2", 2, time.Minute)
	s.Set("consent:1", 3, time.Minute)

	keys := s.Keys("session:")
	assert.ElementsMatch(t, []string{"session:1", "session:2"}, keys)
	assert.Empty(t, s.Keys("code:"))
}

package redisclient

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PingAndRaw(t *testing.T) {
	s := miniredis.RunT(t)

	c := New(Config{Addr: s.Addr()})
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Ping(context.Background()))

	require.NoError(t, c.Raw().Set(context.Background(), "k", "v", 0).Err())
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestClient_PingFailsWhenDown(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	c := New(Config{Addr: addr})
	t.Cleanup(func() { _ = c.Close() })

	assert.Error(t, c.Ping(context.Background()))
}

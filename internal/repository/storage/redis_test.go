package storage

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/vanishing-tictactoe/testing/suite"
)

func TestNewRedisStorage(t *testing.T) {
	t.Run("Connects to a running server", func(t *testing.T) {
		ctx, st := suite.New(t)

		redisStorage, err := NewRedisStorage(ctx, st.Addr)
		require.NoError(t, err)

		require.NoError(t, redisStorage.Connection.Set(ctx, "probe", "ok", 0).Err())
		assert.Equal(t, "ok", st.Storage.Get(ctx, "probe").Val())

		require.NoError(t, redisStorage.Close())
	})

	t.Run("Fails when nothing listens", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := listener.Addr().String()
		require.NoError(t, listener.Close())

		_, err = NewRedisStorage(context.Background(), addr)

		require.Error(t, err)
	})
}

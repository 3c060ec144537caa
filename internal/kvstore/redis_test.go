package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_GetSetRemove(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewRedis(rdb, "")
	ctx := context.Background()

	mock.ExpectGet("emarket:@token").RedisNil()
	mock.ExpectSet("emarket:@token", "abc", 0).SetVal("OK")
	mock.ExpectGet("emarket:@token").SetVal("abc")
	mock.ExpectDel("emarket:@token").SetVal(1)

	_, ok, err := s.Get(ctx, "@token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "@token", "abc"))

	v, ok, err := s.Get(ctx, "@token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Remove(ctx, "@token"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_BatchOperations(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewRedis(rdb, "app")
	ctx := context.Background()

	mock.ExpectMSet("app:@theme", "dark").SetVal("OK")
	mock.ExpectMGet("app:@theme", "app:@user").SetVal([]any{"dark", nil})
	mock.ExpectDel("app:@theme", "app:@user").SetVal(1)

	require.NoError(t, s.MultiSet(ctx, map[string]string{"@theme": "dark"}))

	got, err := s.MultiGet(ctx, []string{"@theme", "@user"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"@theme": "dark"}, got)

	require.NoError(t, s.MultiRemove(ctx, []string{"@theme", "@user"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_EmptyBatchesSkipRoundTrip(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewRedis(rdb, "")
	ctx := context.Background()

	got, err := s.MultiGet(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, s.MultiSet(ctx, nil))
	require.NoError(t, s.MultiRemove(ctx, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_PropagatesErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewRedis(rdb, "")

	mock.ExpectGet("emarket:@user").SetErr(errors.New("connection reset"))

	_, _, err := s.Get(context.Background(), "@user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

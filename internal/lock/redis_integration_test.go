//go:build integration

package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/nhle/juscheck/internal/lock"
)

type RedisLockerSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
}

func TestRedisLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockerSuite))
}

func (s *RedisLockerSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(url)
	s.Require().NoError(err)
	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(ctx).Err())
}

func (s *RedisLockerSuite) TearDownSuite() {
	ctx := context.Background()
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(ctx)
	}
}

func (s *RedisLockerSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisLockerSuite) TestAcquireRelease() {
	ctx := context.Background()
	l := lock.NewRedisLockerWithClient(s.client, time.Minute, 200*time.Millisecond)

	release, err := l.Acquire(ctx, "42")
	s.Require().NoError(err)

	s.Run("second holder times out", func() {
		_, err := l.Acquire(ctx, "42")
		s.ErrorIs(err, lock.ErrTimeout)
	})

	s.Run("other keys are free", func() {
		other, err := l.Acquire(ctx, "43")
		s.Require().NoError(err)
		other()
	})

	release()

	s.Run("released lock can be taken again", func() {
		again, err := l.Acquire(ctx, "42")
		s.Require().NoError(err)
		again()
	})
}

func (s *RedisLockerSuite) TestExpiredLockIsNotReleasedByStaleHolder() {
	ctx := context.Background()
	l := lock.NewRedisLockerWithClient(s.client, 100*time.Millisecond, time.Second)

	stale, err := l.Acquire(ctx, "9")
	s.Require().NoError(err)

	time.Sleep(150 * time.Millisecond)
	fresh, err := l.Acquire(ctx, "9")
	s.Require().NoError(err)

	stale()
	exists, err := s.client.Exists(ctx, "juscheck:lock:9").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)

	fresh()
}

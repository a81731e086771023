package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const sessionKeyPrefix = "liftlog-session||"

// errNoSession is returned by a SessionStore when the record is absent or expired.
var errNoSession = errors.New("session not found")

// SessionStore keeps server-side session records keyed by session ID.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (uuid.UUID, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisStore keeps sessions in Redis with a per-key TTL.
type RedisStore struct {
	redisClient *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redisClient: redisClient}
}

func (rs *RedisStore) Save(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error {
	cmd := rs.redisClient.Set(ctx, sessionKeyPrefix+sessionID, userID.String(), ttl)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (rs *RedisStore) Load(ctx context.Context, sessionID string) (uuid.UUID, error) {
	cmd := rs.redisClient.Get(ctx, sessionKeyPrefix+sessionID)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, errNoSession
		}
		return uuid.Nil, fmt.Errorf("loading session: %w", err)
	}
	id, err := uuid.Parse(cmd.Val())
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing session user: %w", err)
	}
	return id, nil
}

func (rs *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := rs.redisClient.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CacheStore keeps sessions in an in-process freecache. Sessions do not
// survive a restart.
type CacheStore struct {
	cache *freecache.Cache
}

// NewCacheStore allocates a cache of cacheSize bytes (freecache minimum is 512KB).
func NewCacheStore(cacheSize int) *CacheStore {
	return &CacheStore{cache: freecache.NewCache(cacheSize)}
}

func (cs *CacheStore) Save(_ context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error {
	secs := int(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}
	if err := cs.cache.Set([]byte(sessionKeyPrefix+sessionID), userID[:], secs); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (cs *CacheStore) Load(_ context.Context, sessionID string) (uuid.UUID, error) {
	val, err := cs.cache.Get([]byte(sessionKeyPrefix + sessionID))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return uuid.Nil, errNoSession
		}
		return uuid.Nil, fmt.Errorf("loading session: %w", err)
	}
	return uuid.FromBytes(val)
}

func (cs *CacheStore) Delete(_ context.Context, sessionID string) error {
	cs.cache.Del([]byte(sessionKeyPrefix + sessionID))
	return nil
}

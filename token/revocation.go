package token

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "refresh_tokens"

// RevocationStore tracks live refresh tokens in redis. Each token is
// one key, prefix:userID:jti, holding the owning user id with the
// refresh TTL, so expiry cleans up after itself and revoking all of a
// user's tokens only touches that user's prefix.
type RevocationStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRevocationStore returns a RevocationStore on client. keyPrefix may
// be empty; the default is "refresh_tokens".
func NewRevocationStore(client redis.UniversalClient, keyPrefix string) (*RevocationStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RevocationStore{client: client, keyPrefix: keyPrefix}, nil
}

func (s *RevocationStore) key(userID, jti string) string {
	return s.keyPrefix + ":" + userID + ":" + jti
}

// Put registers a freshly issued refresh token.
func (s *RevocationStore) Put(ctx context.Context, userID, jti string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(userID, jti), userID, ttl).Err()
}

// Owner returns the user id recorded for the token, and whether the
// token is still live.
func (s *RevocationStore) Owner(ctx context.Context, userID, jti string) (string, bool, error) {
	owner, err := s.client.Get(ctx, s.key(userID, jti)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return owner, true, nil
}

// Delete removes one token. Deleting an absent token is not an error.
func (s *RevocationStore) Delete(ctx context.Context, userID, jti string) error {
	return s.client.Del(ctx, s.key(userID, jti)).Err()
}

// DeleteAll removes every live token of the user by iterating the
// user's own key prefix.
func (s *RevocationStore) DeleteAll(ctx context.Context, userID string) error {
	iter := s.client.Scan(ctx, 0, s.keyPrefix+":"+userID+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

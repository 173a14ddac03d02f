package revocation

import (
	"context"
	"fmt"
	"time"

	platformredis "gatepass/internal/platform/redis"
)

const keyPrefix = "gatepass:revoked:"

// Redis stores revoked token IDs with a TTL matching the token's remaining
// lifetime, so the denylist survives restarts and cleans itself up.
type Redis struct {
	client *platformredis.Client
}

func NewRedis(client *platformredis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, keyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Redis) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}

// Package reports keeps the most recent role sweep report of every organization.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"

	"github.com/partnerbot/backend/internal/roles"
	apperrors "github.com/partnerbot/backend/pkg/errors"
	redisclient "github.com/partnerbot/backend/pkg/redis"
)

// RedisStore stores sweep reports in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a report store. Reports expire after ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(org snowflake.ID) string {
	return redisclient.Key("sweep-report", org.String())
}

// Save replaces the organization's last report.
func (s *RedisStore) Save(ctx context.Context, rep roles.Report) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.client.Set(ctx, s.key(rep.OrganizationID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

// Last returns the organization's last report.
func (s *RedisStore) Last(ctx context.Context, org snowflake.ID) (*roles.Report, error) {
	raw, err := s.client.Get(ctx, s.key(org)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFoundError("sweep report", org.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	var rep roles.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

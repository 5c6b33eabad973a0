package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vcissuer/internal/credentials/models"
	dErrors "vcissuer/pkg/domain-errors"
)

const redisKeyPrefix = "statuslist:"

// RedisPublisher stores the signed status-list JWT under statuslist:{id} so
// an edge cache or any replica can answer resolution requests.
type RedisPublisher struct {
	client  redis.Cmdable
	baseURL string
	ttl     time.Duration
}

// NewRedis creates a publisher; ttl 0 keeps keys until unpublished.
func NewRedis(client redis.Cmdable, baseURL string, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{client: client, baseURL: baseURL, ttl: ttl}
}

// CanHandle accepts formats whose signed form is a compact JWS.
func (p *RedisPublisher) CanHandle(format models.CredentialFormat) bool {
	return format == models.FormatVC1JWT || format == models.FormatVC2JOSE
}

func (p *RedisPublisher) Publish(ctx context.Context, resource *models.VerifiableCredentialResource) (string, error) {
	if resource == nil || resource.ID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "status list credential id is required")
	}
	if resource.Credential.RawVC == "" {
		return "", dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("status list credential '%s' has no signed form", resource.ID))
	}
	if err := p.client.Set(ctx, redisKeyPrefix+resource.ID, resource.Credential.RawVC, p.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set status list: %w", err)
	}
	return URLFor(p.baseURL, resource.ID), nil
}

func (p *RedisPublisher) Unpublish(ctx context.Context, resource *models.VerifiableCredentialResource) error {
	if err := p.client.Del(ctx, redisKeyPrefix+resource.ID).Err(); err != nil {
		return fmt.Errorf("redis del status list: %w", err)
	}
	return nil
}

// Lookup returns the published JWT for id, or ok=false when none is stored.
func (p *RedisPublisher) Lookup(ctx context.Context, id string) (string, bool, error) {
	raw, err := p.client.Get(ctx, redisKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get status list: %w", err)
	}
	return raw, true, nil
}

package reports

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	p := strings.TrimSpace(prefix)
	if p == "" {
		p = "despensa:cache:"
	}
	return &RedisCache{client: client, prefix: p}
}

func (c *RedisCache) key(month string) string {
	return c.prefix + "report:monthly:" + month
}

func (c *RedisCache) GetReport(ctx context.Context, month string) (*MonthlyReport, bool, error) {
	val, err := c.client.Get(ctx, c.key(month)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	var report MonthlyReport
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *RedisCache) SetReport(ctx context.Context, month string, report *MonthlyReport, ttl time.Duration) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(month), payload, ttl).Err()
}

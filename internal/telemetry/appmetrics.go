package telemetry

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InitAppMetrics registers observable gauges for the shared backends:
// connection pool usage, redis availability and live session count.
func InitAppMetrics(serviceName string, pool *pgxpool.Pool, redisClient *redis.Client, sessionPrefix string) {
	meter := otel.Meter(serviceName + "/app")

	poolTotal, err := meter.Int64ObservableGauge(
		"despensa_db_pool_total_conns",
		metric.WithDescription("Conexoes abertas no pool do banco"),
	)
	if err != nil {
		return
	}
	poolIdle, err := meter.Int64ObservableGauge(
		"despensa_db_pool_idle_conns",
		metric.WithDescription("Conexoes ociosas no pool do banco"),
	)
	if err != nil {
		return
	}
	redisUp, err := meter.Int64ObservableGauge(
		"despensa_redis_up",
		metric.WithDescription("Disponibilidade do redis (1 ok, 0 down)"),
	)
	if err != nil {
		return
	}
	sessionsActive, err := meter.Int64ObservableGauge(
		"despensa_sessions_active",
		metric.WithDescription("Sessoes ativas no redis"),
	)
	if err != nil {
		return
	}

	_, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			if pool != nil {
				stat := pool.Stat()
				o.ObserveInt64(poolTotal, int64(stat.TotalConns()))
				o.ObserveInt64(poolIdle, int64(stat.IdleConns()))
			}
			if redisClient != nil {
				up := int64(1)
				if err := redisClient.Ping(ctx).Err(); err != nil {
					up = 0
				}
				o.ObserveInt64(redisUp, up)
				if up == 1 {
					o.ObserveInt64(sessionsActive, countKeys(ctx, redisClient, sessionPrefix))
				}
			}
			return nil
		},
		poolTotal, poolIdle, redisUp, sessionsActive,
	)
	if err != nil {
		return
	}
}

func countKeys(ctx context.Context, client *redis.Client, prefix string) int64 {
	var count int64
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			return count
		}
		count += int64(len(keys))
		if next == 0 {
			return count
		}
		cursor = next
	}
}

package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Metric names emitted by the delivery engine.
const (
	MetricDeliveryLatencyMS = "notification_delivery_latency_ms"
	MetricDeliveryCount     = "notification_delivery_count"
	MetricSLACompliance     = "notification_sla_compliance"
)

// RedisRecorder accumulates delivery metrics in Redis hashes keyed by
// metric name plus sorted dimension pairs. Every write is best-effort
// with a short deadline so a slow Redis never stalls a delivery call.
type RedisRecorder struct {
	client *redis.Client
	prefix string
}

func NewRedisRecorder(client *redis.Client) *RedisRecorder {
	return &RedisRecorder{
		client: client,
		prefix: "metrics",
	}
}

func (r *RedisRecorder) Record(ctx context.Context, name string, dims map[string]string, value float64) {
	if r.client == nil {
		return
	}

	opCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := r.key(name, dims)
	pipe := r.client.Pipeline()
	pipe.HIncrByFloat(opCtx, key, "sum", value)
	pipe.HIncrBy(opCtx, key, "count", 1)

	if _, err := pipe.Exec(opCtx); err != nil {
		logrus.Warnf("Failed to record metric %s: %v", name, err)
	}
}

func (r *RedisRecorder) key(name string, dims map[string]string) string {
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := r.prefix + ":" + name
	for _, k := range keys {
		key += fmt.Sprintf(":%s=%s", k, dims[k])
	}
	return key
}

package testkit

import (
	"context"
	"os"
	"testing"

	"github.com/civicpulse/civicpulse/connector"
)

// GetRedisConnector 获取已连接的 Redis 连接器。
// 通过 REDIS_ADDR 环境变量开启，未设置时跳过测试。
func GetRedisConnector(t *testing.T) connector.RedisConnector {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis-backed test")
	}

	conn, err := connector.NewRedis(&connector.RedisConfig{Addr: addr}, connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create redis connector: %v", err)
	}
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

package testkit

import (
	"context"
	"testing"

	"github.com/civicpulse/civicpulse/connector"
)

// GetSQLiteConnector 获取已连接的内存 SQLite 连接器，
// 生命周期由 t.Cleanup 管理
func GetSQLiteConnector(t *testing.T) connector.SQLiteConnector {
	t.Helper()

	conn, err := connector.NewSQLite(&connector.SQLiteConfig{Path: ":memory:"}, connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("failed to create sqlite connector: %v", err)
	}
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("failed to connect to sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

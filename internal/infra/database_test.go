package infra

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを作成する。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// インメモリDBは接続ごとに別になるため1本に固定する
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	sql := `
		CREATE TABLE configs (id TEXT PRIMARY KEY, body BLOB NOT NULL);
		CREATE TABLE subscriptions (id TEXT PRIMARY KEY, url TEXT NOT NULL);
	`
	if err := db.Exec(sql).Error; err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}

	return db
}

func TestGormInspector_PingAndInspect(t *testing.T) {
	ctx := context.Background()
	inspector := NewGormInspector(setupTestDB(t))
	defer inspector.Close(ctx)

	if err := inspector.Ping(ctx); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}

	info, err := inspector.Inspect(ctx)
	if err != nil {
		t.Fatalf("unexpected inspect error: %v", err)
	}
	if len(info.Collections) != 2 {
		t.Errorf("want 2 tables, got %v", info.Collections)
	}
	if info.Server == nil || info.Server.Version == "" {
		t.Errorf("want server version, got %+v", info.Server)
	}
}

func TestGormInspector_PingAfterClose(t *testing.T) {
	ctx := context.Background()
	inspector := NewGormInspector(setupTestDB(t))

	if err := inspector.Close(ctx); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := inspector.Ping(ctx); err == nil {
		t.Error("want error after close")
	}
}

func TestIsMongoURI(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"mongodb://localhost:27017/app", true},
		{"mongodb+srv://user:pw@cluster0.example.net/app", true},
		{"root:pw@tcp(localhost:3306)/app", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsMongoURI(tt.uri); got != tt.want {
			t.Errorf("IsMongoURI(%q): want %v, got %v", tt.uri, tt.want, got)
		}
	}
}

func TestInspectorFactory_InvalidMongoURI(t *testing.T) {
	factory := InspectorFactory(nil, 0)
	if _, err := factory(context.Background(), "mongodb://"); err == nil {
		t.Error("want error for invalid mongodb uri")
	}
}

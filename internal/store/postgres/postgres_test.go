package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/JonMunkholm/csvorganizer/internal/store"
	"github.com/JonMunkholm/csvorganizer/internal/store/storetest"
)

// Requires a disposable database: the test drops column_templates.
func TestTemplateStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	s, err := store.New(ctx, store.Config{Kind: "postgres", DSN: dsn, MaxConns: 2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)

	pg := s.(*TemplateStore)
	if _, err := pg.pool.Exec(ctx, `TRUNCATE column_templates`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pg.pool.Exec(context.Background(), `DROP TABLE IF EXISTS column_templates`)
	})

	storetest.Run(t, s)
}

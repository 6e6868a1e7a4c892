package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests run against a real database. Point TEST_DATABASE_URL at a
// database with the schema loaded; without it the package exits cleanly.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		fmt.Println("TEST_DATABASE_URL not set, skipping integration tests")
		os.Exit(0)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		fmt.Printf("connect to test database: %v\n", err)
		os.Exit(1)
	}
	testPool = pool

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

// cleanupTable empties tables in the given order; callers list children before
// parents so foreign keys hold.
func cleanupTable(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		_, err := testPool.Exec(context.Background(), "DELETE FROM "+table)
		if err != nil {
			t.Fatalf("cleanup %s: %v", table, err)
		}
	}
}

func cleanupAll(t *testing.T) {
	t.Helper()
	cleanupTable(t,
		"order_items", "orders",
		"cart_items", "carts",
		"reviews", "product_variants", "products", "categories",
		"articles", "users",
	)
}

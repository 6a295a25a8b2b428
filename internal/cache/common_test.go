package cache_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var (
	testMr  *miniredis.Miniredis
	testRdb *redis.Client
)

func TestMain(m *testing.M) {
	mr, err := miniredis.Run()
	if err != nil {
		log.Fatalf("Failed to start miniredis: %v", err)
	}
	testMr = mr
	testRdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	code := m.Run()

	testRdb.Close()
	mr.Close()
	os.Exit(code)
}

func getTestRdb() *redis.Client {
	if testRdb == nil {
		panic("testRdb is not initialized. Make sure TestMain has run.")
	}
	return testRdb
}

func clearRedis(ctx context.Context) {
	if err := testRdb.FlushDB(ctx).Err(); err != nil {
		panic(err)
	}
}

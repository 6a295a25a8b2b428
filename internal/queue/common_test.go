package queue_test

import (
	"log"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testRdb *redis.Client

func TestMain(m *testing.M) {
	mr, err := miniredis.Run()
	if err != nil {
		log.Fatalf("start miniredis: %v", err)
	}
	testRdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	code := m.Run()
	testRdb.Close()
	mr.Close()
	os.Exit(code)
}

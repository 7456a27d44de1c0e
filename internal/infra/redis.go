package infra

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a redis client from a URL. Callers treat redis as an
// optional dependency: a nil client makes the rate limiter fall back to its
// in-process limiter.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

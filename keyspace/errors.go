package keyspace

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by reads of a key or member that does not exist
var ErrNotFound = errors.New("keyspace: not found")

// IsNotFound reports whether err is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// notFound maps redis.Nil onto ErrNotFound and passes other errors through
func notFound(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	return err
}

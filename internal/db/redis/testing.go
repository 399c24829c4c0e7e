package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps a rueidis client, typically a rueidis/mock client, in a Store.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c, driver: "redis"}
}

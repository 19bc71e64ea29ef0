package session

import (
	"github.com/vonout/Backend/internal/cookies"
	"github.com/vonout/Backend/internal/redis"

	"github.com/gorilla/sessions"
	goredis "github.com/redis/go-redis/v9"
)

// NewStore keeps sessions server side in Redis when a client is given and in
// the cookie otherwise.
func NewStore(keys cookies.Keys, opts *sessions.Options, client *goredis.Client) sessions.Store {
	if client != nil {
		return redis.NewSessionStore(client, opts, keys.Hash, keys.Block)
	}
	return NewCookieStore(keys, opts)
}

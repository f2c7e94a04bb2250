package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc                    *redis.Client
	hSetIfNotExistsScript string
	expireDuration        time.Duration
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc: rc,
		hSetIfNotExistsScript: rc.ScriptLoad(context.Background(), `
			if redis.call('EXISTS', KEYS[1]) == 1 then
				return 0
			end
			redis.call('HSET', KEYS[1], unpack(ARGV))
			return 1
		`).Val(),
		expireDuration: expireDuration,
	}
}

package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

// hSetIfNotExists writes the whole hash only when the key does not exist yet.
// Returns true when the hash was created.
func (r repo) hSetIfNotExists(ctx context.Context, key string, fieldValues []any) (bool, error) {
	res, err := r.rc.EvalSha(ctx, r.hSetIfNotExistsScript, []string{key}, fieldValues...).Int()
	if err != nil {
		return false, err
	}

	return res == 1, nil
}

func boolToField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func fieldToBool(field string) bool {
	return field == "1"
}

func fieldToInt(field string) int {
	i, _ := strconv.Atoi(field)
	return i
}

package captcha

import (
	"context"
	"strings"
	"time"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore shares captcha answers between replicas.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	expiration time.Duration
	log        zerolog.Logger
}

var _ base64Captcha.Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		client:     client,
		prefix:     prefix + "captcha:",
		expiration: DefaultExpiration,
		log:        log,
	}
}

func (s *RedisStore) Set(id string, value string) error {
	return s.client.Set(context.Background(), s.prefix+id, value, s.expiration).Err()
}

func (s *RedisStore) Get(id string, clear bool) string {
	ctx := context.Background()
	var (
		v   string
		err error
	)
	if clear {
		v, err = s.client.GetDel(ctx, s.prefix+id).Result()
	} else {
		v, err = s.client.Get(ctx, s.prefix+id).Result()
	}
	if err != nil {
		if err != redis.Nil {
			s.log.Error().Err(err).Str("captcha_id", id).Msg("captcha store read failed")
		}
		return ""
	}
	return v
}

func (s *RedisStore) Verify(id, answer string, clear bool) bool {
	v := s.Get(id, clear)
	return v != "" && strings.EqualFold(v, answer)
}

// Package lock implementa el lock de cortesía de registros: Redis cuando hay
// REDIS_URL y un mapa en proceso en su defecto.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
)

var _ ports.RecordLocker = (*RedisLocker)(nil)

// acquireScript toma el lock si está libre o lo renueva si ya es de ARGV[1].
var acquireScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
  return {1, ARGV[1]}
end
if cur == ARGV[1] then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
  return {1, cur}
end
return {0, cur}
`)

// releaseScript borra el lock solo si pertenece a ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker locks con expiración sobre Redis.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker conecta a redisURL y verifica la conexión.
func NewRedisLocker(redisURL string) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisLockerWithClient(client), nil
}

// NewRedisLockerWithClient usa un cliente existente.
func NewRedisLockerWithClient(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, prefix: "lock:"}
}

func (l *RedisLocker) key(k string) string { return l.prefix + k }

func (l *RedisLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, string, error) {
	res, err := acquireScript.Run(ctx, l.client, []string{l.key(key)}, owner, ttl.Milliseconds()).Slice()
	if err != nil {
		return false, "", fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if len(res) != 2 {
		return false, "", fmt.Errorf("acquire lock %s: respuesta inesperada %v", key, res)
	}
	ok, _ := res[0].(int64)
	holder, _ := res[1].(string)
	return ok == 1, holder, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, owner string) (bool, error) {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key(key)}, owner).Int64()
	if err != nil {
		return false, fmt.Errorf("release lock %s: %w", key, err)
	}
	return n == 1, nil
}

func (l *RedisLocker) Holder(ctx context.Context, key string) (string, time.Duration, error) {
	k := l.key(key)
	holder, err := l.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("lock holder %s: %w", key, err)
	}
	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return "", 0, fmt.Errorf("lock ttl %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return holder, ttl, nil
}

// Close cierra la conexión.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

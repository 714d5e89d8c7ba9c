// Package audit 记录每次成功生成的脚本摘要（不含脚本正文与原始参数）。
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 默认列表 key 与保留条数。
const (
	DefaultKey     = "tunescout:installer:audit"
	DefaultMaxLen  = 1000
	defaultTimeout = 3 * time.Second
)

// Entry 单条审计记录。
type Entry struct {
	Profile     string    `json:"profile"`
	ServiceName string    `json:"service_name"`
	SHA256      string    `json:"sha256"`
	Bytes       int       `json:"bytes"`
	Remote      string    `json:"remote"`
	At          time.Time `json:"at"`
}

// Recorder 写入审计记录；实现须可并发调用。
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// Nop 不记录任何内容，未配置 Redis 时使用。
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
func (Nop) Close() error                        { return nil }

// RedisOptions 连接参数。
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
	MaxLen   int64
}

// RedisRecorder 以 LPUSH + LTRIM 维护一个定长的最近记录列表。
type RedisRecorder struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewRedis 创建 RedisRecorder 并 Ping 一次确认可连。
func NewRedis(ctx context.Context, opts RedisOptions) (*RedisRecorder, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  defaultTimeout,
		ReadTimeout:  defaultTimeout,
		WriteTimeout: defaultTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("audit redis ping %s: %w", opts.Addr, err)
	}
	return NewRedisWithClient(client, opts.Key, opts.MaxLen), nil
}

// NewRedisWithClient 复用已有 client；key 为空或 maxLen<=0 时取默认值。
func NewRedisWithClient(client *redis.Client, key string, maxLen int64) *RedisRecorder {
	if key == "" {
		key = DefaultKey
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &RedisRecorder{client: client, key: key, maxLen: maxLen}
}

// Key 返回写入的列表 key。
func (r *RedisRecorder) Key() string { return r.key }

func (r *RedisRecorder) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, b)
	pipe.LTrim(ctx, r.key, 0, r.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("audit redis write: %w", err)
	}
	return nil
}

// Recent 返回最新的 n 条记录，新记录在前。
func (r *RedisRecorder) Recent(ctx context.Context, n int64) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := r.client.LRange(ctx, r.key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("audit redis read: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, s := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *RedisRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

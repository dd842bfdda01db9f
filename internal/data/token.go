package data

import (
	"context"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/sober-studio/token-service/internal/biz"
	"github.com/sober-studio/token-service/internal/conf"
)

var _ biz.TokenRepo = (*tokenRepo)(nil)

/*
Redis Key 设计：
{prefix}{value} => user # 单个 Token，过期时间使用 Redis 原生 TTL
prefix 默认为空
*/
type tokenRepo struct {
	data   *Data
	prefix string
	now    func() time.Time
	log    *log.Helper
}

func NewTokenRepo(data *Data, c *conf.Data, logger log.Logger) biz.TokenRepo {
	return &tokenRepo{
		data:   data,
		prefix: c.Redis.KeyPrefix,
		now:    time.Now,
		log:    log.NewHelper(logger),
	}
}

// Save SET key user [EX ttl]，一条命令完成写入和过期设置
func (r *tokenRepo) Save(ctx context.Context, token *biz.Token) error {
	ttl := expiration(token, r.now())
	return r.data.Exec(ctx, "set", func(ctx context.Context, conn *redis.Conn) error {
		return conn.Set(ctx, r.key(token.Value), token.User, ttl).Err()
	})
}

// Get 在同一连接上以 pipeline 读取值和剩余 TTL
func (r *tokenRepo) Get(ctx context.Context, value string) (*biz.Token, error) {
	var (
		get *redis.StringCmd
		ttl *redis.DurationCmd
	)
	err := r.data.Exec(ctx, "get", func(ctx context.Context, conn *redis.Conn) error {
		_, err := conn.Pipelined(ctx, func(p redis.Pipeliner) error {
			get = p.Get(ctx, r.key(value))
			ttl = p.TTL(ctx, r.key(value))
			return nil
		})
		return err
	})
	if errors.Is(err, redis.Nil) {
		r.log.WithContext(ctx).Debugf("token %s not found", value)
		return nil, biz.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	token := &biz.Token{
		Value: value,
		User:  get.Val(),
	}
	// -1 无过期时间，-2 已不存在，统一视为不过期
	if remaining := ttl.Val(); remaining >= 0 {
		expiresAt := time.Unix(r.now().Unix()+int64(remaining/time.Second), 0)
		token.ExpiresAt = &expiresAt
	}
	return token, nil
}

// Delete 删除不存在的 Key 时 DEL 返回 0，不视为错误
func (r *tokenRepo) Delete(ctx context.Context, value string) error {
	return r.data.Exec(ctx, "del", func(ctx context.Context, conn *redis.Conn) error {
		return conn.Del(ctx, r.key(value)).Err()
	})
}

func (r *tokenRepo) key(value string) string {
	return r.prefix + value
}

// expiration 将绝对过期时间换算为向上取整的整秒 TTL，0 表示不过期
// 结果不超过 biz.MaxTTL，避免取整时溢出为负数后被当作不过期
func expiration(token *biz.Token, now time.Time) time.Duration {
	if token.ExpiresAt == nil {
		return 0
	}
	d := token.TTL(now)
	if d < time.Second {
		return time.Second
	}
	if d > biz.MaxTTL {
		return biz.MaxTTL
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return secs * time.Second
}

package biz

import (
	"context"
	"math"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	v1 "github.com/sober-studio/token-service/api/token/v1"
	"github.com/sober-studio/token-service/internal/pkg/idgen"
)

var (
	ErrTokenNotFound  = v1.ErrorTokenNotFound("token not found")
	ErrInvalidPayload = v1.ErrorInvalidPayload("user is required")
	ErrExpiresInPast  = v1.ErrorExpiresInPast("expires must be later than the current time")
	ErrStoreFailure   = v1.ErrorStoreFailure("token store failure")

	ErrExpiresTooFar = v1.ErrorInvalidPayload("expires is too far in the future")
)

// MaxTTL time.Duration 能表示的最大整秒有效期
const MaxTTL = time.Duration(math.MaxInt64/int64(time.Second)-1) * time.Second

// Token 令牌记录，ExpiresAt 为 nil 表示永不过期
type Token struct {
	Value     string
	User      string
	ExpiresAt *time.Time
}

// TTL 相对 now 的剩余有效期，不过期时返回 0
func (t *Token) TTL(now time.Time) time.Duration {
	if t.ExpiresAt == nil {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}

// IssueParams 签发参数，Value 为空时自动生成
type IssueParams struct {
	Value     string
	User      string
	ExpiresAt *time.Time
}

// TokenRepo 令牌持久化，由 data 层实现
type TokenRepo interface {
	// Save 覆盖写入，ExpiresAt 非空时同时设置过期时间（单条命令）
	Save(ctx context.Context, token *Token) error
	// Get 不存在时返回 ErrTokenNotFound
	Get(ctx context.Context, value string) (*Token, error)
	// Delete 删除不存在的 Key 不算错误
	Delete(ctx context.Context, value string) error
}

type TokenUseCase struct {
	repo TokenRepo
	gen  idgen.Generator
	now  func() time.Time
	log  *log.Helper
}

func NewTokenUseCase(repo TokenRepo, gen idgen.Generator, logger log.Logger) *TokenUseCase {
	return &TokenUseCase{
		repo: repo,
		gen:  gen,
		now:  time.Now,
		log:  log.NewHelper(logger),
	}
}

// Issue 签发令牌，返回的是请求中的记录而非回读结果
func (uc *TokenUseCase) Issue(ctx context.Context, p *IssueParams) (*Token, error) {
	if p == nil || p.User == "" {
		return nil, ErrInvalidPayload
	}
	if p.ExpiresAt != nil {
		now := uc.now()
		if !p.ExpiresAt.After(now) {
			return nil, ErrExpiresInPast
		}
		// 超出范围时 Sub 会饱和，写入的 TTL 将与 expires 不一致
		if p.ExpiresAt.Sub(now) > MaxTTL {
			return nil, ErrExpiresTooFar
		}
	}

	token := &Token{
		Value:     p.Value,
		User:      p.User,
		ExpiresAt: p.ExpiresAt,
	}
	if token.Value == "" {
		token.Value = uc.gen.Generate()
	}

	if err := uc.repo.Save(ctx, token); err != nil {
		uc.log.WithContext(ctx).Errorf("save token for user %s: %v", token.User, err)
		return nil, storeError(err)
	}
	return token, nil
}

// Lookup 查询令牌
func (uc *TokenUseCase) Lookup(ctx context.Context, value string) (*Token, error) {
	if value == "" {
		return nil, ErrTokenNotFound
	}
	token, err := uc.repo.Get(ctx, value)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, err
		}
		uc.log.WithContext(ctx).Errorf("get token: %v", err)
		return nil, storeError(err)
	}
	return token, nil
}

// Revoke 撤销令牌，幂等
func (uc *TokenUseCase) Revoke(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	if err := uc.repo.Delete(ctx, value); err != nil {
		uc.log.WithContext(ctx).Errorf("delete token: %v", err)
		return storeError(err)
	}
	return nil
}

// storeError 统一包装为 ErrStoreFailure，已经是 ErrStoreFailure 的直接返回
func storeError(err error) error {
	if errors.Is(err, ErrStoreFailure) {
		return err
	}
	return ErrStoreFailure.WithCause(err)
}

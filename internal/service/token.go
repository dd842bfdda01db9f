package service

import (
	"context"
	"math"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	pb "github.com/sober-studio/token-service/api/token/v1"
	"github.com/sober-studio/token-service/internal/biz"
)

var _ pb.TokenHTTPServer = (*TokenService)(nil)

type TokenService struct {
	uc  *biz.TokenUseCase
	log *log.Helper
}

func NewTokenService(uc *biz.TokenUseCase, logger log.Logger) *TokenService {
	return &TokenService{uc: uc, log: log.NewHelper(logger)}
}

func (s *TokenService) IssueToken(ctx context.Context, req *pb.IssueTokenRequest) (*pb.Token, error) {
	params := &biz.IssueParams{User: req.User}
	if req.Value != nil {
		params.Value = *req.Value
	}
	if req.Expires != nil {
		if *req.Expires > math.MaxInt64 {
			return nil, pb.ErrorInvalidPayload("expires %d is out of range", *req.Expires)
		}
		at := time.Unix(int64(*req.Expires), 0)
		params.ExpiresAt = &at
	}

	token, err := s.uc.Issue(ctx, params)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Infof("issued token for user %s", token.User)
	return toReply(token), nil
}

func (s *TokenService) GetToken(ctx context.Context, req *pb.GetTokenRequest) (*pb.Token, error) {
	token, err := s.uc.Lookup(ctx, req.Value)
	if err != nil {
		return nil, err
	}
	return toReply(token), nil
}

func (s *TokenService) RevokeToken(ctx context.Context, req *pb.RevokeTokenRequest) (*pb.RevokeTokenReply, error) {
	if err := s.uc.Revoke(ctx, req.Value); err != nil {
		return nil, err
	}
	return &pb.RevokeTokenReply{}, nil
}

func toReply(t *biz.Token) *pb.Token {
	reply := &pb.Token{Value: t.Value, User: t.User}
	if t.ExpiresAt != nil {
		exp := uint64(t.ExpiresAt.Unix())
		reply.Expires = &exp
	}
	return reply
}

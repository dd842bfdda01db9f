package v1

import (
	"context"

	"github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationTokenIssueToken  = "/token.v1.Token/IssueToken"
	OperationTokenGetToken    = "/token.v1.Token/GetToken"
	OperationTokenRevokeToken = "/token.v1.Token/RevokeToken"
)

type TokenHTTPServer interface {
	IssueToken(context.Context, *IssueTokenRequest) (*Token, error)
	GetToken(context.Context, *GetTokenRequest) (*Token, error)
	RevokeToken(context.Context, *RevokeTokenRequest) (*RevokeTokenReply, error)
}

func RegisterTokenHTTPServer(s *http.Server, srv TokenHTTPServer) {
	r := s.Route("/")
	r.POST("/tokens", _Token_IssueToken0_HTTP_Handler(srv))
	r.GET("/tokens/{value}", _Token_GetToken0_HTTP_Handler(srv))
	r.DELETE("/tokens/{value}", _Token_RevokeToken0_HTTP_Handler(srv))
}

func _Token_IssueToken0_HTTP_Handler(srv TokenHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in IssueTokenRequest
		if err := ctx.Bind(&in); err != nil {
			// 请求体无法解析时统一返回 INVALID_PAYLOAD
			return ErrorInvalidPayload("malformed token payload").WithCause(err)
		}
		http.SetOperation(ctx, OperationTokenIssueToken)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.IssueToken(ctx, req.(*IssueTokenRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*Token)
		return ctx.Result(200, reply)
	}
}

func _Token_GetToken0_HTTP_Handler(srv TokenHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := GetTokenRequest{Value: ctx.Vars().Get("value")}
		http.SetOperation(ctx, OperationTokenGetToken)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetToken(ctx, req.(*GetTokenRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*Token)
		return ctx.Result(200, reply)
	}
}

func _Token_RevokeToken0_HTTP_Handler(srv TokenHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := RevokeTokenRequest{Value: ctx.Vars().Get("value")}
		http.SetOperation(ctx, OperationTokenRevokeToken)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.RevokeToken(ctx, req.(*RevokeTokenRequest))
		})
		if _, err := h(ctx, &in); err != nil {
			return err
		}
		// 撤销成功不返回响应体
		return ctx.Result(200, nil)
	}
}

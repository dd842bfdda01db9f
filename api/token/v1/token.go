package v1

// IssueTokenRequest POST /tokens 请求体
type IssueTokenRequest struct {
	Value   *string `json:"value,omitempty"`
	User    string  `json:"user"`
	Expires *uint64 `json:"expires,omitempty"`
}

// GetTokenRequest GET /tokens/{value}
type GetTokenRequest struct {
	Value string `json:"value"`
}

// RevokeTokenRequest DELETE /tokens/{value}
type RevokeTokenRequest struct {
	Value string `json:"value"`
}

// Token 响应体，Expires 为秒级 Unix 时间戳，null 表示永不过期
type Token struct {
	Value   string  `json:"value"`
	User    string  `json:"user"`
	Expires *uint64 `json:"expires"`
}

type RevokeTokenReply struct{}

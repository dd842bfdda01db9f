package conf

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sober-studio/token-service/internal/pkg/env"
)

// PasswordEnv Redis 密码的环境变量兜底
const PasswordEnv = "PASSWORD"

const (
	DefaultHTTPAddr    = "0.0.0.0:8080"
	DefaultRedisAddr   = "localhost:6379"
	DefaultTokenLength = 24
	DefaultMaxRetries  = 3
	// RetriesDisabled 作为 max_retries 时只执行一次，失败不重连
	RetriesDisabled = -1
	DefaultProbeSpec   = "@every 30s"

	MinTokenLength = 16
	MaxTokenLength = 128
)

// SetDefaults 补全未配置的节点
func (b *Bootstrap) SetDefaults() {
	if b.Server == nil {
		b.Server = &Server{}
	}
	if b.Server.Http == nil {
		b.Server.Http = &Server_HTTP{}
	}
	if b.Server.Http.Network == "" {
		b.Server.Http.Network = "tcp"
	}
	if b.Server.Http.Addr == "" {
		b.Server.Http.Addr = DefaultHTTPAddr
	}
	if b.Server.Http.Timeout == nil {
		b.Server.Http.Timeout = NewDuration(5 * time.Second)
	}

	if b.Data == nil {
		b.Data = &Data{}
	}
	if b.Data.Redis == nil {
		b.Data.Redis = &Data_Redis{}
	}
	if b.Data.Redis.Addr == "" {
		b.Data.Redis.Addr = DefaultRedisAddr
	}
	if b.Data.Redis.MaxRetries == 0 {
		b.Data.Redis.MaxRetries = DefaultMaxRetries
	}

	if b.App == nil {
		b.App = &App{}
	}
	if b.App.Env == "" {
		b.App.Env = string(env.Dev)
	}
	if b.App.Token == nil {
		b.App.Token = &App_Token{}
	}
	if b.App.Token.Length == 0 {
		b.App.Token.Length = DefaultTokenLength
	}
	if b.App.Probe == nil {
		b.App.Probe = &App_Probe{}
	}
	if b.App.Probe.Spec == "" {
		b.App.Probe.Spec = DefaultProbeSpec
	}
	if b.App.Probe.Timeout == nil {
		b.App.Probe.Timeout = NewDuration(2 * time.Second)
	}
}

// Validate 校验启动参数，任何错误都应当阻止进程启动
func (b *Bootstrap) Validate() error {
	if b.Server == nil || b.Server.Http == nil || b.Data == nil || b.Data.Redis == nil || b.App == nil {
		return fmt.Errorf("conf: incomplete bootstrap, call SetDefaults first")
	}
	if _, err := splitAddr(b.Server.Http.Addr); err != nil {
		return fmt.Errorf("conf: server.http.addr: %w", err)
	}
	if _, err := splitAddr(b.Data.Redis.Addr); err != nil {
		return fmt.Errorf("conf: data.redis.addr: %w", err)
	}
	if b.Data.Redis.Database < 0 {
		return fmt.Errorf("conf: data.redis.database must not be negative, got %d", b.Data.Redis.Database)
	}
	if b.Data.Redis.MaxRetries < RetriesDisabled {
		return fmt.Errorf("conf: data.redis.max_retries must be %d or more, got %d", RetriesDisabled, b.Data.Redis.MaxRetries)
	}
	if _, err := env.Parse(b.App.Env); err != nil {
		return fmt.Errorf("conf: app.env: %w", err)
	}
	if b.App.Token != nil {
		if l := b.App.Token.Length; l < MinTokenLength || l > MaxTokenLength {
			return fmt.Errorf("conf: app.token.length must be within [%d, %d], got %d", MinTokenLength, MaxTokenLength, l)
		}
	}
	return nil
}

// ResolvePassword 未显式配置密码时从环境变量读取
func (b *Bootstrap) ResolvePassword(lookup func(string) (string, bool)) {
	if b.Data == nil || b.Data.Redis == nil || b.Data.Redis.Password != "" {
		return
	}
	if v, ok := lookup(PasswordEnv); ok {
		b.Data.Redis.Password = v
	}
}

// splitAddr 解析 host:port 并校验端口范围
func splitAddr(addr string) (uint16, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return parsePort(port)
}

func parsePort(s string) (uint16, error) {
	p, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if p == 0 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(p), nil
}

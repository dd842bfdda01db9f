package conf

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Overrides 命令行参数覆盖，空字符串表示未设置
type Overrides struct {
	Host          string
	Port          string
	RedisHost     string
	RedisPort     string
	DBIndex       string
	RedisPassword string
	Headers       []string
}

// Apply 将命令行参数合并到配置中，解析失败返回配置错误
func (o *Overrides) Apply(b *Bootstrap) error {
	if o.Host != "" || o.Port != "" {
		addr, err := overrideAddr(b.Server.Http.Addr, o.Host, o.Port)
		if err != nil {
			return fmt.Errorf("conf: -host/-port: %w", err)
		}
		b.Server.Http.Addr = addr
	}
	if o.RedisHost != "" || o.RedisPort != "" {
		addr, err := overrideAddr(b.Data.Redis.Addr, o.RedisHost, o.RedisPort)
		if err != nil {
			return fmt.Errorf("conf: -redis-host/-redis-port: %w", err)
		}
		b.Data.Redis.Addr = addr
	}
	if o.DBIndex != "" {
		db, err := strconv.ParseInt(o.DBIndex, 10, 32)
		if err != nil {
			return fmt.Errorf("conf: -db-index: %w", err)
		}
		b.Data.Redis.Database = int32(db)
	}
	if o.RedisPassword != "" {
		b.Data.Redis.Password = o.RedisPassword
	}
	for _, h := range o.Headers {
		name, value, err := ParseHeader(h)
		if err != nil {
			return fmt.Errorf("conf: -header: %w", err)
		}
		if b.Server.Http.Headers == nil {
			b.Server.Http.Headers = make(map[string]string)
		}
		b.Server.Http.Headers[name] = value
	}
	return nil
}

// ParseHeader 解析 NAME:VALUE
func ParseHeader(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("header %q must look like NAME:VALUE", s)
	}
	return name, strings.TrimSpace(value), nil
}

func overrideAddr(current, host, port string) (string, error) {
	curHost, curPort, err := net.SplitHostPort(current)
	if err != nil {
		return "", err
	}
	if host != "" {
		curHost = host
	}
	if port != "" {
		if _, err := parsePort(port); err != nil {
			return "", err
		}
		curPort = port
	}
	return net.JoinHostPort(curHost, curPort), nil
}

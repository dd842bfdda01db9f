package debug

import (
	"context"

	"github.com/sober-studio/token-service/internal/pkg/env"
)

type debugKey struct{}

// Info 存储调试数据的 map
type Info map[string]interface{}

// With 返回追加了 key 的新 Info，不修改原 map
func (i Info) With(key string, value interface{}) Info {
	out := make(Info, len(i)+1)
	for k, v := range i {
		out[k] = v
	}
	out[key] = value
	return out
}

// FromContext 从 Context 中获取调试信息
func FromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(debugKey{}).(Info)
	return info, ok
}

// RequestID 当前请求的 ID，由 Filter 写入
func RequestID(ctx context.Context) string {
	info, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	id, _ := info[requestIDKey].(string)
	return id
}

func IsDebug() bool { return !env.IsProd() }

package debug

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"
	requestIDKey    = "request_id"
)

// Filter 这是一个 http.Filter，为每个请求分配 ID 并初始化调试信息容器
func Filter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 优先沿用上游传入的请求 ID
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		m := Info{requestIDKey: id}
		ctx := context.WithValue(r.Context(), debugKey{}, m)

		// 使用 WithContext 将新的 Context 重新绑定回 Request 对象
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

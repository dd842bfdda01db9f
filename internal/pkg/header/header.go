package header

import (
	"net/http"
	"sort"
)

// Filter 为每个响应追加固定 Header，处理器可以覆盖
func Filter(headers map[string]string) func(http.Handler) http.Handler {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, http.CanonicalHeaderKey(name))
	}
	sort.Strings(names)
	values := make(map[string]string, len(headers))
	for name, value := range headers {
		values[http.CanonicalHeaderKey(name)] = value
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, name := range names {
				h.Set(name, values[name])
			}
			next.ServeHTTP(w, r)
		})
	}
}

package render

import (
	"encoding/json"
	"net/http"

	"github.com/sober-studio/token-service/internal/pkg/debug"

	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	httptransport "github.com/go-kratos/kratos/v2/transport/http"
)

// ErrorBody 统一错误返回体
type ErrorBody struct {
	ErrorType   string `json:"errorType"`
	Description string `json:"description"`
	// Debug 仅在开发/测试环境显示
	Debug interface{} `json:"debug,omitempty"`
}

// getCodec 辅助函数：获取编码器，默认回退到 JSON
func getCodec(r *http.Request) encoding.Codec {
	codec, ok := httptransport.CodecForRequest(r, "Accept")
	if !ok || codec == nil {
		codec = encoding.GetCodec("json")
	}
	return codec
}

// ResponseEncoder 成功响应的处理，data 为 nil 时只写状态码
func ResponseEncoder(w http.ResponseWriter, r *http.Request, data interface{}) error {
	if data == nil {
		w.WriteHeader(http.StatusOK)
		return nil
	}

	codec := getCodec(r)
	body, err := codec.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/"+codec.Name())
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(body)
	return err
}

// ErrorEncoder 错误响应的处理
func ErrorEncoder(w http.ResponseWriter, r *http.Request, err error) {
	// 1. 将原始 error 转换为 Kratos 的 StatusError
	se := errors.FromError(err)

	res := &ErrorBody{
		ErrorType:   se.Reason,
		Description: se.Message,
	}
	if res.ErrorType == "" {
		res.ErrorType = http.StatusText(StatusCode(se))
	}

	// 2. 非生产环境附带请求调试信息和原始错误
	if debug.IsDebug() {
		info, _ := debug.FromContext(r.Context())
		if cause := errors.Unwrap(se); cause != nil {
			info = info.With("cause", cause.Error())
		}
		if len(info) > 0 {
			res.Debug = info
		}
	}

	status := StatusCode(se)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)

	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	}
}

// StatusCode 将 StatusError 映射为合法的 HTTP 状态码
func StatusCode(se *errors.Error) int {
	code := int(se.Code)
	if code < 400 || code > 599 {
		return http.StatusInternalServerError
	}
	return code
}

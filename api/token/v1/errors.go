package v1

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

// ErrorReason 错误类型标识，作为响应体中的 errorType
type ErrorReason string

const (
	ReasonTokenNotFound  ErrorReason = "TOKEN_NOT_FOUND"
	ReasonInvalidPayload ErrorReason = "INVALID_PAYLOAD"
	ReasonExpiresInPast  ErrorReason = "EXPIRES_IN_PAST"
	ReasonStoreFailure   ErrorReason = "STORE_FAILURE"
)

func (r ErrorReason) String() string { return string(r) }

func IsTokenNotFound(err error) bool {
	return is(err, 404, ReasonTokenNotFound)
}

func ErrorTokenNotFound(format string, args ...interface{}) *errors.Error {
	return errors.New(404, ReasonTokenNotFound.String(), fmt.Sprintf(format, args...))
}

func IsInvalidPayload(err error) bool {
	return is(err, 400, ReasonInvalidPayload)
}

func ErrorInvalidPayload(format string, args ...interface{}) *errors.Error {
	return errors.New(400, ReasonInvalidPayload.String(), fmt.Sprintf(format, args...))
}

func IsExpiresInPast(err error) bool {
	return is(err, 400, ReasonExpiresInPast)
}

func ErrorExpiresInPast(format string, args ...interface{}) *errors.Error {
	return errors.New(400, ReasonExpiresInPast.String(), fmt.Sprintf(format, args...))
}

func IsStoreFailure(err error) bool {
	return is(err, 500, ReasonStoreFailure)
}

func ErrorStoreFailure(format string, args ...interface{}) *errors.Error {
	return errors.New(500, ReasonStoreFailure.String(), fmt.Sprintf(format, args...))
}

func is(err error, code int32, reason ErrorReason) bool {
	if err == nil {
		return false
	}
	e := errors.FromError(err)
	return e.Reason == reason.String() && e.Code == code
}

package util

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 是返回给调用方的错误分类
type ErrorCode string

const (
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeSubmissionNotFound ErrorCode = "SUBMISSION_NOT_FOUND"
	CodeSelfReview         ErrorCode = "SELF_REVIEW"
	CodeAlreadyReviewed    ErrorCode = "ALREADY_REVIEWED"
	CodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
)

// CodedError 携带错误码的业务错误
type CodedError struct {
	Code    ErrorCode
	Message string
}

func (e *CodedError) Error() string {
	return e.Message
}

var (
	ErrInvalidInput       = &CodedError{Code: CodeInvalidInput, Message: "invalid input"}
	ErrSubmissionNotFound = &CodedError{Code: CodeSubmissionNotFound, Message: "submission not found"}
	ErrSelfReview         = &CodedError{Code: CodeSelfReview, Message: "cannot review your own submission"}
	ErrAlreadyReviewed    = &CodedError{Code: CodeAlreadyReviewed, Message: "submission already reviewed"}
	ErrPersistence        = &CodedError{Code: CodePersistenceFailure, Message: "persistence failure"}

	// 以下均属于 ALREADY_REVIEWED 类拒绝
	ErrSubmissionFinalized = fmt.Errorf("%w: submission already finalized", ErrAlreadyReviewed)
	ErrQuorumReached       = fmt.Errorf("%w: submission already has enough reviews", ErrAlreadyReviewed)
)

// InvalidInput 生成带说明的 INVALID_INPUT 错误
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// persistenceError 包装底层存储错误，同时匹配 ErrPersistence 与原始错误
type persistenceError struct {
	cause error
}

func (e *persistenceError) Error() string {
	return "persistence failure: " + e.cause.Error()
}

func (e *persistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.cause}
}

// Persistence 把未分类的错误标记为 PERSISTENCE_FAILURE，已分类的错误原样返回
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return err
	}
	return &persistenceError{cause: err}
}

// CodeOf 返回错误所属分类，未知错误归为 PERSISTENCE_FAILURE
func CodeOf(err error) ErrorCode {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodePersistenceFailure
}

// IsExpected 业务拒绝属于预期结果，不作为异常记录
func IsExpected(err error) bool {
	return CodeOf(err) != CodePersistenceFailure
}

// HTTPStatus 把错误码映射为 HTTP 状态码
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeInvalidInput, CodeSelfReview:
		return http.StatusBadRequest
	case CodeSubmissionNotFound:
		return http.StatusNotFound
	case CodeAlreadyReviewed:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

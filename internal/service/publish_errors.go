package service

import (
	"errors"
	"fmt"

	"ebay_lister_v1/internal/model"
	"ebay_lister_v1/pkg/ebay"
)

// ErrorKind 刊登失败分类
type ErrorKind string

const (
	ErrKindNotAuthenticated  ErrorKind = "not_authenticated"
	ErrKindInvalidResponse   ErrorKind = "invalid_response"
	ErrKindAPI               ErrorKind = "api_error"
	ErrKindImageUploadFailed ErrorKind = "image_upload_failed"
	ErrKindNetwork           ErrorKind = "network"
)

// PublishError 流水线终止错误
type PublishError struct {
	Kind       ErrorKind
	Stage      model.PipelineState
	StatusCode int
	Message    string
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s during %s (status %d): %s", e.Kind, e.Stage, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s during %s: %s", e.Kind, e.Stage, e.Message)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// classifyError 把客户端错误归类
func classifyError(stage model.PipelineState, err error) *PublishError {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe
	}

	var apiErr *ebay.APIError
	if errors.As(err, &apiErr) {
		return &PublishError{
			Kind:       ErrKindAPI,
			Stage:      stage,
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Body,
			Err:        err,
		}
	}
	if errors.Is(err, ebay.ErrInvalidResponse) {
		return &PublishError{Kind: ErrKindInvalidResponse, Stage: stage, Message: err.Error(), Err: err}
	}

	// ebay.TransportError、ctx 取消/超时及其他错误都按网络错误处理
	return &PublishError{Kind: ErrKindNetwork, Stage: stage, Message: err.Error(), Err: err}
}

func notAuthenticated(stage model.PipelineState) *PublishError {
	return &PublishError{
		Kind:    ErrKindNotAuthenticated,
		Stage:   stage,
		Message: "marketplace account is not authenticated",
	}
}

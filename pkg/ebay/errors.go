package ebay

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidResponse 2xx 但响应体无法解析
var ErrInvalidResponse = errors.New("ebay: invalid response")

// APIError 非 2xx 响应，Body 保留原始内容
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ebay %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Messages 尝试解析平台错误列表
func (e *APIError) Messages() []string {
	var resp ErrorResp
	if err := json.Unmarshal([]byte(e.Body), &resp); err != nil {
		return nil
	}
	msgs := make([]string, 0, len(resp.Errors))
	for _, d := range resp.Errors {
		if d.Message != "" {
			msgs = append(msgs, d.Message)
		}
	}
	return msgs
}

// TransportError 请求未得到任何响应（超时、连接失败等）
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ebay %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

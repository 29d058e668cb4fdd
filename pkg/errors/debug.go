package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorDump is a log-friendly snapshot of an error chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	HTTPStatus int      `json:"http_status,omitempty"`
	APIDetail  string   `json:"api_detail,omitempty"`
}

// Dump walks err depth first, following joined errors too.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
		if detail, ok := typed.Details().(APIDetail); ok {
			d.HTTPStatus, d.APIDetail = detail.Status, detail.Detail
		}
	}

	stack := []error{err}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", cur, cur))

		if joined, ok := cur.(interface{ Unwrap() []error }); ok {
			causes := joined.Unwrap()
			for i := len(causes) - 1; i >= 0; i-- {
				if causes[i] != nil {
					stack = append(stack, causes[i])
				}
			}
			continue
		}
		if next := stdErrors.Unwrap(cur); next != nil {
			stack = append(stack, next)
		}
	}
	return d
}

// Fields flattens the dump for structured logging.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.HTTPStatus != 0 {
		fields["http_status"] = d.HTTPStatus
	}
	if d.APIDetail != "" {
		fields["api_detail"] = d.APIDetail
	}
	return fields
}

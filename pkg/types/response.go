package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorBody is the error envelope the marketplace API returns: a single
// "detail" field holding either a message or a list of field errors.
type ErrorBody struct {
	Detail json.RawMessage `json:"detail,omitempty"`
}

// FieldError mirrors one entry of a list-valued detail.
type FieldError struct {
	Loc  []any  `json:"loc,omitempty"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// NewErrorBody wraps a message in the API's error envelope.
func NewErrorBody(detail string) ErrorBody {
	raw, _ := json.Marshal(detail)
	return ErrorBody{Detail: raw}
}

// Message flattens the detail into display text.
func (b ErrorBody) Message() string {
	if len(b.Detail) == 0 || string(b.Detail) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(b.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var fields []FieldError
	if err := json.Unmarshal(b.Detail, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg == "" {
				continue
			}
			if name := fieldName(f.Loc); name != "" {
				msgs = append(msgs, fmt.Sprintf("%s: %s", name, f.Msg))
				continue
			}
			msgs = append(msgs, f.Msg)
		}
		return strings.Join(msgs, "; ")
	}

	return strings.TrimSpace(string(b.Detail))
}

func fieldName(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if name, ok := loc[len(loc)-1].(string); ok {
		return name
	}
	return ""
}

// MessageBody is the plain acknowledgement returned by logout and deletes.
type MessageBody struct {
	Message string `json:"message"`
}

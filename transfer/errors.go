package transfer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/moyoez/edi-client/types"
)

// ServiceError is a non-2xx answer from the conversion service.
// Detail is the server supplied message, empty when the body carried none.
type ServiceError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s rejected with status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s rejected with status %d", e.Op, e.StatusCode)
}

// ConnectivityError means the request never got a response.
type ConnectivityError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: failed to reach %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// IsConnectivity reports whether err (or anything it wraps) is a ConnectivityError.
func IsConnectivity(err error) bool {
	var connErr *ConnectivityError
	return errors.As(err, &connErr)
}

// DetailOr returns the server detail carried by err, or fallback.
func DetailOr(err error, fallback string) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Detail != "" {
		return svcErr.Detail
	}
	return fallback
}

// parseDetail extracts the detail message of an error body.
// Validation failures carry a list of {msg} objects; their messages are joined.
func parseDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload types.ErrorDetail
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch detail := payload.Detail.(type) {
	case string:
		return strings.TrimSpace(detail)
	case []any:
		msgs := make([]string, 0, len(detail))
		for _, item := range detail {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if msg, ok := obj["msg"].(string); ok && msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, "; ")
	default:
		return ""
	}
}

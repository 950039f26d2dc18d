package graphql

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// HTTPStatusError is returned when the storefront API answers with a non-2xx
// status code.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("storefront request failed: %s", e.Status)
	}
	return fmt.Sprintf("storefront request failed: %s: %s", e.Status, e.Body)
}

func newHTTPStatusError(resp *http.Response, body []byte) error {
	const maxBody = 512
	b := strings.TrimSpace(string(body))
	if len(b) > maxBody {
		b = b[:maxBody]
	}
	return &HTTPStatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       b,
	}
}

// Error is a single entry of the GraphQL "errors" array.
type Error struct {
	Message string
	Path    []string
	// Code is extensions.code when the server provides one.
	Code string
}

// Decode decodes e from d.
func (e *Error) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "message":
			v, err := d.Str()
			if err != nil {
				return err
			}
			e.Message = v
		case "path":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				switch d.Next() {
				case jx.String:
					v, err := d.Str()
					if err != nil {
						return err
					}
					e.Path = append(e.Path, v)
				case jx.Number:
					v, err := d.Int()
					if err != nil {
						return err
					}
					e.Path = append(e.Path, strconv.Itoa(v))
				default:
					return d.Skip()
				}
				return nil
			})
		case "extensions":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "code" || d.Next() != jx.String {
					return d.Skip()
				}
				v, err := d.Str()
				if err != nil {
					return err
				}
				e.Code = v
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
}

// ResponseError is returned when the response carries a non-empty "errors"
// array. Partial data is discarded.
type ResponseError struct {
	Errors []Error
}

func (e *ResponseError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msg := strings.TrimSpace(ge.Message)
		if msg == "" {
			continue
		}
		if len(ge.Path) > 0 {
			msg = fmt.Sprintf("%s (path: %s)", msg, strings.Join(ge.Path, "."))
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return "storefront graphql errors: unknown graphql error"
	}
	return "storefront graphql errors: " + strings.Join(parts, "; ")
}

// throttled reports whether any of the errors signals rate limiting.
func (e *ResponseError) throttled() bool {
	for _, ge := range e.Errors {
		if strings.EqualFold(ge.Code, "THROTTLED") {
			return true
		}
		if strings.Contains(strings.ToLower(ge.Message), "throttled") {
			return true
		}
	}
	return false
}

// isRetryable reports whether a failed request may succeed when repeated.
func isRetryable(err error) bool {
	var httpErr *HTTPStatusError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.throttled()
	}
	return false
}

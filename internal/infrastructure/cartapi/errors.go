package cartapi

import (
	"fmt"
)

// maxErrorBody bounds how much of a failed response body is kept on the error.
const maxErrorBody = 4 << 10

// TransportError reports a failed call to the cart API: either the request
// never produced a response (Status 0, Err set) or the response was not 2xx
// or could not be decoded.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("cartapi: %s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("cartapi: %s: %s %s: status %d: %v", e.Op, e.Method, e.URL, e.Status, e.Err)
	case e.Body != "":
		return fmt.Sprintf("cartapi: %s: %s %s: status %d: %s", e.Op, e.Method, e.URL, e.Status, e.Body)
	default:
		return fmt.Sprintf("cartapi: %s: %s %s: status %d", e.Op, e.Method, e.URL, e.Status)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

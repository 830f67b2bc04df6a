package chi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"
)

// InvalidParamError reports a query parameter that failed to bind.
type InvalidParamError struct {
	Param string
	Err   error
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %v", e.Param, e.Err)
}

func (e *InvalidParamError) Unwrap() error { return e.Err }

// bindQuery binds an optional form-style query parameter into dest.
// dest is a pointer to a pointer (optional scalar) or to a slice.
func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return &InvalidParamError{Param: name, Err: err}
	}
	return nil
}

// queryParam pairs a query parameter name with its bind target.
type queryParam struct {
	name string
	dest any
}

// bindAll binds parameters in order and reports the first failure.
func bindAll(r *http.Request, params []queryParam) error {
	for _, p := range params {
		if err := bindQuery(r, p.name, p.dest); err != nil {
			return err
		}
	}
	return nil
}

func writeParamError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(vals ...*string) string {
	for _, v := range vals {
		if v != nil && strings.TrimSpace(*v) != "" {
			return *v
		}
	}
	return ""
}

package validation

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/nijaru/vi-transcript/errors"
)

const MsgBodyTooLarge = "Request body too large"

// RequestValidationOpts holds options for request validation
type RequestValidationOpts struct {
	MaxContentLength int64
	AllowedMethods   []string
}

type Validator struct {
	opts RequestValidationOpts
}

func NewValidator(opts RequestValidationOpts) *Validator {
	return &Validator{opts: opts}
}

// ValidateRequest checks the request method and declared body size.
func (v *Validator) ValidateRequest(r *http.Request) error {
	const op = "Validator.ValidateRequest"

	if len(v.opts.AllowedMethods) > 0 && !slices.Contains(v.opts.AllowedMethods, r.Method) {
		return errors.E(op, nil, fmt.Sprintf("Method %s not allowed", r.Method), http.StatusMethodNotAllowed)
	}

	if v.opts.MaxContentLength > 0 && r.ContentLength > v.opts.MaxContentLength {
		return errors.E(op, nil, MsgBodyTooLarge, http.StatusRequestEntityTooLarge)
	}

	return nil
}

// RequireParams returns the named query parameters in order, or an
// InvalidInput error carrying message when any of them is blank.
func (v *Validator) RequireParams(r *http.Request, message string, names ...string) ([]string, error) {
	const op = "Validator.RequireParams"

	query := r.URL.Query()
	values := make([]string, len(names))
	var missing []string
	for i, name := range names {
		values[i] = query.Get(name)
		if strings.TrimSpace(values[i]) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return nil, errors.InvalidInput(op, fmt.Errorf("missing %s", strings.Join(missing, ", ")), message)
	}

	return values, nil
}

/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/gqlerror"
	"github.com/pkg/errors"
)

// Error codes reported in a GraphQL error's "extensions.code".
const (
	CodeInternalServerError        = "INTERNAL_SERVER_ERROR"
	CodeBadRequest                 = "BAD_REQUEST"
	CodeBadUserInput               = "BAD_USER_INPUT"
	CodeParseFailed                = "GRAPHQL_PARSE_FAILED"
	CodeValidationFailed           = "GRAPHQL_VALIDATION_FAILED"
	CodeOperationResolutionFailure = "OPERATION_RESOLUTION_FAILURE"
)

// Location is a position in a GraphQL document.
type Location struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// GqlError is a GraphQL error in the shape it is sent to clients.
// https://spec.graphql.org/October2021/#sec-Errors
type GqlError struct {
	Message    string                 `json:"message"`
	Locations  []Location             `json:"locations,omitempty"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`

	cause error
}

// GqlErrorList is a list of GraphQL errors.
type GqlErrorList []*GqlError

// GqlErrorf returns a GqlError with the message obtained by Sprintf-ing the arguments.
func GqlErrorf(format string, args ...interface{}) *GqlError {
	return &GqlError{Message: fmt.Sprintf(format, args...)}
}

// NewCodedError returns a GqlError carrying code in its extensions.
func NewCodedError(code, message string) *GqlError {
	return (&GqlError{Message: message}).WithCode(code)
}

func (gqlErr *GqlError) Error() string {
	if gqlErr == nil {
		return ""
	}

	var buf bytes.Buffer
	buf.WriteString(gqlErr.Message)

	if len(gqlErr.Locations) > 0 {
		buf.WriteString(" (Locations: [")
		for i, loc := range gqlErr.Locations {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(fmt.Sprintf("{Line: %v, Column: %v}", loc.Line, loc.Column))
		}
		buf.WriteString("])")
	}

	return buf.String()
}

// Unwrap returns the error this GqlError was built from, if any.
func (gqlErr *GqlError) Unwrap() error {
	return gqlErr.cause
}

// ErrorCode returns the "code" extension, or "" when there is none.
func (gqlErr *GqlError) ErrorCode() string {
	code, _ := gqlErr.Extensions["code"].(string)
	return code
}

// WithLocations adds a list of locations to a GqlError and returns the same
// GqlError (fluent style).
func (gqlErr *GqlError) WithLocations(locs ...Location) *GqlError {
	if gqlErr == nil {
		return nil
	}
	gqlErr.Locations = append(gqlErr.Locations, locs...)
	return gqlErr
}

// WithPath adds a path to a GqlError and returns the same GqlError (fluent style).
func (gqlErr *GqlError) WithPath(path []interface{}) *GqlError {
	if gqlErr == nil {
		return nil
	}
	gqlErr.Path = path
	return gqlErr
}

// WithCode sets the "code" extension.
func (gqlErr *GqlError) WithCode(code string) *GqlError {
	if gqlErr == nil {
		return nil
	}
	if gqlErr.Extensions == nil {
		gqlErr.Extensions = make(map[string]interface{})
	}
	gqlErr.Extensions["code"] = code
	return gqlErr
}

// WithCause records the error gqlErr was derived from. Its stack trace is used
// when formatting in debug mode.
func (gqlErr *GqlError) WithCause(err error) *GqlError {
	if gqlErr == nil {
		return nil
	}
	gqlErr.cause = err
	return gqlErr
}

func (gqlErr *GqlError) clone() *GqlError {
	c := *gqlErr
	if gqlErr.Extensions != nil {
		c.Extensions = make(map[string]interface{}, len(gqlErr.Extensions))
		for k, v := range gqlErr.Extensions {
			c.Extensions[k] = v
		}
	}
	return &c
}

func (errList GqlErrorList) Error() string {
	var buf bytes.Buffer
	for i, gqlErr := range errList {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(gqlErr.Error())
	}
	return buf.String()
}

// WithCode sets code on every error in the list that has none and returns the
// list.
func (errList GqlErrorList) WithCode(code string) GqlErrorList {
	for _, gqlErr := range errList {
		if gqlErr.ErrorCode() == "" {
			gqlErr.WithCode(code)
		}
	}
	return errList
}

// Errors returns the list as plain errors.
func (errList GqlErrorList) Errors() []error {
	errs := make([]error, 0, len(errList))
	for _, gqlErr := range errList {
		errs = append(errs, gqlErr)
	}
	return errs
}

// ErrorCode finds an explicit error code on err or anything it wraps: either a
// GqlError "code" extension or an ErrorCode() string method. It returns ""
// when err carries no code.
func ErrorCode(err error) string {
	var coded interface{ ErrorCode() string }
	for err != nil {
		if !errors.As(err, &coded) {
			return ""
		}
		if code := coded.ErrorCode(); code != "" {
			return code
		}
		// An uncoded GqlError may still wrap a coded cause.
		u, ok := coded.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// AsGQLErrors formats an error as a list of GraphQL errors.
// A GqlErrorList gets returned as is, a GqlError gets returned as a one
// item list, gqlparser errors are converted, and all other errors get printed
// into a GqlError that keeps err as its cause. A nil input results in nil output.
func AsGQLErrors(err error) GqlErrorList {
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case *gqlerror.Error:
		return GqlErrorList{toGqlError(e)}
	case *GqlError:
		return GqlErrorList{e}
	case gqlerror.List:
		return toGqlErrorList(e)
	case GqlErrorList:
		return e
	default:
		gqlErr := &GqlError{Message: e.Error(), cause: err}
		var inner *GqlError
		if errors.As(err, &inner) {
			gqlErr.Locations = inner.Locations
			gqlErr.Path = inner.Path
			gqlErr.Extensions = inner.clone().Extensions
		}
		if code := ErrorCode(err); code != "" && gqlErr.ErrorCode() == "" {
			gqlErr.WithCode(code)
		}
		return GqlErrorList{gqlErr}
	}
}

func toGqlError(err *gqlerror.Error) *GqlError {
	gqlErr := &GqlError{
		Message:   err.Message,
		Locations: convertLocations(err.Locations),
		Path:      convertPath(err.Path),
		cause:     err,
	}
	if len(err.Extensions) > 0 {
		gqlErr.Extensions = make(map[string]interface{}, len(err.Extensions))
		for k, v := range err.Extensions {
			gqlErr.Extensions[k] = v
		}
	}
	return gqlErr
}

func toGqlErrorList(errs gqlerror.List) GqlErrorList {
	var result GqlErrorList
	for _, err := range errs {
		result = append(result, toGqlError(err))
	}
	return result
}

func convertLocations(locs []gqlerror.Location) []Location {
	var result []Location
	for _, loc := range locs {
		result = append(result, Location{Line: loc.Line, Column: loc.Column})
	}
	return result
}

func convertPath(path ast.Path) []interface{} {
	pathElements := []ast.PathElement(path)
	var result []interface{}
	for _, p := range pathElements {
		result = append(result, p)
	}
	return result
}

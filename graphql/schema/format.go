/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"fmt"
	"strings"
)

// FormatterFunc rewrites an error before it is sent to a client. Returning nil
// keeps the error unchanged.
type FormatterFunc func(err *GqlError) *GqlError

// FormatOptions controls FormatErrors.
type FormatOptions struct {
	// Debug adds "extensions.exception.stacktrace" to every error.
	Debug bool
	// Formatter, if set, is applied last.
	Formatter FormatterFunc
}

// FormatErrors turns errs into the public error shape. Every error gets an
// "extensions.code", INTERNAL_SERVER_ERROR unless it carries its own. Inputs
// are never modified.
func FormatErrors(errs []error, opts FormatOptions) GqlErrorList {
	var result GqlErrorList
	for _, err := range errs {
		for _, gqlErr := range AsGQLErrors(err) {
			result = append(result, formatError(gqlErr, opts))
		}
	}
	return result
}

func formatError(gqlErr *GqlError, opts FormatOptions) *GqlError {
	out := gqlErr.clone()
	if out.ErrorCode() == "" {
		out.WithCode(CodeInternalServerError)
	}

	if opts.Debug {
		var src error = gqlErr
		if gqlErr.cause != nil {
			src = gqlErr.cause
		}
		out.Extensions["exception"] = map[string]interface{}{
			"stacktrace": stackLines(src),
		}
	} else {
		delete(out.Extensions, "exception")
	}

	if opts.Formatter == nil {
		return out
	}
	return applyFormatter(opts.Formatter, out)
}

func applyFormatter(fn FormatterFunc, gqlErr *GqlError) (result *GqlError) {
	defer func() {
		if r := recover(); r != nil {
			result = NewCodedError(CodeInternalServerError, "Internal server error")
		}
	}()

	if formatted := fn(gqlErr); formatted != nil {
		return formatted
	}
	return gqlErr
}

// stackLines renders err with "%+v", which for pkg/errors values includes the
// stack trace, one entry per line.
func stackLines(err error) []string {
	var lines []string
	for _, line := range strings.Split(fmt.Sprintf("%+v", err), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

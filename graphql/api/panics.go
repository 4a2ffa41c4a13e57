/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package api

import (
	"runtime/debug"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ErrPanic is the cause of every error PanicHandler passes on.
var ErrPanic = errors.New("Internal Server Error - a panic was trapped.  " +
	"This indicates a bug in the GraphQL server.  A stack trace was logged.  " +
	"Please let us know by filing an issue with the stack trace.")

// PanicHandler catches panics to make sure that we recover from panics during
// GraphQL request handling and return an appropriate error.
//
// If PanicHandler recovers from a panic, it logs a stack trace, creates an error
// and applies fn to the error. It must be called directly by a deferred call.
func PanicHandler(requestID string, fn func(error)) {
	if err := recover(); err != nil {
		// Log the panic along with the request which caused it.
		glog.Errorf("panic: %v.\n request: %s\n trace: %s", err, requestID, string(debug.Stack()))

		fn(errors.WithStack(ErrPanic))
	}
}

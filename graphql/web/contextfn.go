/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"context"
	"net/http"

	"github.com/hypermodeinc/gqlhttp/graphql/api"
	"github.com/hypermodeinc/gqlhttp/graphql/schema"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

const contextFailedPrefix = "Context creation failed: "

// ContextFunc builds the application context for one request.
type ContextFunc func(ctx context.Context) (interface{}, error)

// ContextFuncOptions controls how a failing ContextFunc is reported.
type ContextFuncOptions struct {
	Debug       bool
	FormatError schema.FormatterFunc
}

// RunContextFunc calls fn and returns the context it built. If fn fails, the
// returned response is the one to send instead of processing the request:
// 400 when the error carries a code other than INTERNAL_SERVER_ERROR, 500
// otherwise.
func RunContextFunc(ctx context.Context, fn ContextFunc,
	opts ContextFuncOptions) (appCtx interface{}, errResp *transport.HTTPResponse) {

	if fn == nil {
		return nil, nil
	}

	var err error
	func() {
		defer api.PanicHandler(api.RequestID(ctx), func(perr error) { err = perr })
		appCtx, err = fn(ctx)
	}()
	if err == nil {
		return appCtx, nil
	}
	return nil, contextErrorResponse(err, opts)
}

func contextErrorResponse(err error, opts ContextFuncOptions) *transport.HTTPResponse {
	gqlErrs := schema.AsGQLErrors(err)
	if len(gqlErrs) == 0 {
		gqlErrs = schema.GqlErrorList{schema.GqlErrorf("%s", "Unknown error")}
	}
	prefixed := make([]error, 0, len(gqlErrs))
	for _, gqlErr := range gqlErrs {
		c := *gqlErr
		c.Message = contextFailedPrefix + c.Message
		prefixed = append(prefixed, &c)
	}

	status := http.StatusInternalServerError
	if code := gqlErrs[0].ErrorCode(); code != "" && code != schema.CodeInternalServerError {
		status = http.StatusBadRequest
	}

	res := &schema.Response{
		Errors: schema.FormatErrors(prefixed, schema.FormatOptions{
			Debug:     opts.Debug,
			Formatter: opts.FormatError,
		}),
	}
	body, merr := res.Envelope()
	if merr != nil {
		body = []byte(fallbackBody)
		status = http.StatusInternalServerError
	}
	return &transport.HTTPResponse{
		StatusCode:   status,
		Headers:      transport.MustHeaders(transport.HeaderContentType, transport.ContentTypeJSON),
		CompleteBody: string(body),
	}
}

/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/hypermodeinc/gqlhttp/graphql/schema"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

// translateResponse turns the pipeline's result into the final HTTP response.
//
// A result with errors and no data failed before execution. It is returned as
// a *transport.HTTPError whose body is the GraphQL envelope, with the status
// the pipeline set or 400. Its errors were formatted by the pipeline and are
// not formatted again.
func translateResponse(res *schema.Response, partial *transport.PartialResponse) (
	*transport.HTTPResponse, error) {

	if res == nil {
		return nil, errors.New("pipeline returned no response")
	}
	if res.HTTP != nil {
		partial = res.HTTP
	}
	if partial == nil {
		partial = transport.NewPartialResponse()
	}
	if partial.Headers == nil {
		partial.Headers = transport.NewHeaderMap()
	}

	if res.BodyChunks != nil {
		return &transport.HTTPResponse{
			StatusCode: partial.Status(http.StatusOK),
			Headers:    partial.Headers,
			BodyChunks: res.BodyChunks,
		}, nil
	}

	if len(res.Errors) > 0 && !res.HasData() {
		body, err := res.Envelope()
		if err != nil {
			return nil, err
		}
		headers := transport.MustHeaders(transport.HeaderContentType, transport.ContentTypeJSON)
		headers.Merge(partial.Headers)
		return nil, transport.NewHTTPError(partial.Status(http.StatusBadRequest), string(body),
			true, headers)
	}

	body, err := res.Envelope()
	if err != nil {
		return nil, err
	}
	if !partial.Headers.Has(transport.HeaderContentType) {
		partial.Headers.MustSet(transport.HeaderContentType, transport.ContentTypeJSON)
	}
	partial.Headers.MustSet(transport.HeaderContentLength, strconv.Itoa(len(body)))

	return &transport.HTTPResponse{
		StatusCode:   partial.Status(http.StatusOK),
		Headers:      partial.Headers,
		CompleteBody: string(body),
	}, nil
}

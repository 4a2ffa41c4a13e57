/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package transport

// HTTPError is a request rejection that already knows the HTTP response it
// maps to. When IsGraphQLError is true the message is itself a serialized
// GraphQL response body; otherwise it is plain text.
type HTTPError struct {
	statusCode     int
	message        string
	isGraphQLError bool
	headers        *HeaderMap
}

// NewHTTPError returns an HTTPError. headers may be nil; it is copied.
func NewHTTPError(statusCode int, message string, isGraphQLError bool,
	headers *HeaderMap) *HTTPError {

	return &HTTPError{
		statusCode:     statusCode,
		message:        message,
		isGraphQLError: isGraphQLError,
		headers:        headers.Clone(),
	}
}

func (e *HTTPError) Error() string {
	return e.message
}

func (e *HTTPError) StatusCode() int {
	return e.statusCode
}

func (e *HTTPError) IsGraphQLError() bool {
	return e.isGraphQLError
}

// Headers returns a copy of the headers carried by the error.
func (e *HTTPError) Headers() *HeaderMap {
	return e.headers.Clone()
}

// ToResponse converts the error into a complete response. The body is the
// message and content-type defaults to text/plain; the error's own headers are
// applied afterwards and so win over that default.
func (e *HTTPError) ToResponse() *HTTPResponse {
	headers := NewHeaderMap()
	headers.MustSet(HeaderContentType, ContentTypeText)
	headers.Merge(e.headers)
	return &HTTPResponse{
		StatusCode:   e.statusCode,
		Headers:      headers,
		CompleteBody: e.message,
	}
}

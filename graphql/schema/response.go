/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

// GraphQL spec on response is here:
// https://spec.graphql.org/October2021/#sec-Response

// Response represents the result of running a GraphQL request through the
// pipeline.
//
// A nil Data means the response has no data entry at all, which is how errors
// raised before execution began are reported. Execution that resolved to null
// carries the literal JSON null.
type Response struct {
	Errors     GqlErrorList
	Data       json.RawMessage
	Extensions map[string]interface{}

	// HTTP is the partial response shared with the request context.
	HTTP *transport.PartialResponse

	// BodyChunks is set only for incremental delivery. Such responses are
	// passed to the transport as they are.
	BodyChunks <-chan []byte
}

// ErrorResponse formats an error as a list of GraphQL errors and builds
// a response with that error list and no data.
func ErrorResponse(err error) *Response {
	return &Response{
		Errors: AsGQLErrors(err),
	}
}

// HasData reports whether the response has a data entry.
func (r *Response) HasData() bool {
	return r.Data != nil
}

// Envelope serializes r as the JSON body sent to clients. Keys always come in
// the order errors, data, extensions, so that a proxy reading the body can see
// the errors first. Absent entries are left out. The body ends in a newline.
func (r *Response) Envelope() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	key := func(name string) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteByte('"')
		buf.WriteString(name)
		buf.WriteString(`":`)
	}

	if len(r.Errors) > 0 {
		b, err := marshalJSON(r.Errors)
		if err != nil {
			return nil, errors.Wrap(err, "while marshalling errors")
		}
		key("errors")
		buf.Write(b)
	}

	if r.Data != nil {
		key("data")
		if err := json.Compact(&buf, r.Data); err != nil {
			return nil, errors.Wrap(err, "while writing data")
		}
	}

	if len(r.Extensions) > 0 {
		b, err := marshalJSON(r.Extensions)
		if err != nil {
			return nil, errors.Wrap(err, "while marshalling extensions")
		}
		key("extensions")
		buf.Write(b)
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// marshalJSON is json.Marshal without HTML escaping.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

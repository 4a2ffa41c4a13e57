/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package schema

import (
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

// A Request represents a GraphQL request.  It makes no guarantees that the
// request is valid. An empty Query means the request carried none.
type Request struct {
	Query         string                 `json:"query,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	Extensions    map[string]interface{} `json:"extensions,omitempty"`

	// HTTP is the request description this operation was read from.
	HTTP *transport.HTTPRequest `json:"-"`
}

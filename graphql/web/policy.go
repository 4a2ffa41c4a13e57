/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"context"
	"net/http"

	"github.com/dgraph-io/gqlparser/v2/ast"

	"github.com/hypermodeinc/gqlhttp/graphql/schema"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

const errGetNonQuery = "GET supports only query operation"

// queriesOnly rejects every operation other than a query. It is installed for
// GET requests, which must never change state.
var queriesOnly = schema.Plugin{
	Name: "queriesOnly",
	DidResolveOperation: func(ctx context.Context, rc *schema.RequestContext) error {
		if rc.Operation != nil && rc.Operation.Operation == ast.Query {
			return nil
		}
		return transport.NewHTTPError(http.StatusMethodNotAllowed, errGetNonQuery, false,
			transport.MustHeaders(transport.HeaderAllow, http.MethodPost))
	},
}

// pluginsFor returns the plugins to run for a request made with method. The
// configured list is never modified.
func pluginsFor(method string, configured []schema.Plugin) []schema.Plugin {
	if method != http.MethodGet {
		return configured
	}
	plugins := make([]schema.Plugin, 0, len(configured)+1)
	plugins = append(plugins, queriesOnly)
	return append(plugins, configured...)
}

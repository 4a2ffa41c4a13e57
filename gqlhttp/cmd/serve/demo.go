/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package serve

import (
	"github.com/hypermodeinc/gqlhttp/graphql/resolve"
)

// demoSchema is served when no other schema is configured.
const demoSchema = `
	schema {
		query: Query
		mutation: Mutation
	}

	type Query {
		# Always "world".
		hello: String!
		# Returns its argument.
		echo(msg: String!): String!
	}

	type Mutation {
		# Does nothing and reports success.
		noop: Boolean!
	}
`

type demoResolver struct{}

func (demoResolver) Hello() string { return "world" }

func (demoResolver) Echo(args struct{ Msg string }) string { return args.Msg }

func (demoResolver) Noop() bool { return true }

func newDemoExecutor() (*resolve.SchemaExecutor, error) {
	return resolve.NewSchemaExecutor(demoSchema, &demoResolver{})
}

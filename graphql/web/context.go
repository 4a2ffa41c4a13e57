/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package web

import (
	"github.com/hypermodeinc/gqlhttp/graphql/schema"
	"github.com/hypermodeinc/gqlhttp/graphql/transport"
)

// Runtime environments in which debug output is off unless asked for.
const (
	EnvProduction = "production"
	EnvTest       = "test"
)

func debugDefault(debug *bool, env string) bool {
	if debug != nil {
		return *debug
	}
	return env != EnvProduction && env != EnvTest
}

// newRequestContext builds the context one request is processed with.
// appCtx is copied so that values the pipeline attaches to the copy stay out
// of the caller's object.
func (a *Adapter) newRequestContext(appCtx interface{}, req *schema.Request) *schema.RequestContext {
	return &schema.RequestContext{
		Logger:             a.logger,
		Schema:             a.opts.Executor,
		Request:            req,
		Response:           schema.ResponseContext{HTTP: transport.NewPartialResponse()},
		Context:            schema.CopyContext(appCtx),
		Cache:              a.opts.Cache,
		Debug:              a.debug,
		Metrics:            make(map[string]interface{}),
		OverallCachePolicy: schema.NewCachePolicy(),
	}
}

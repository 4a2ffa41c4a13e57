/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"fmt"
	"runtime"
)

var (
	// These variables are set using -ldflags
	gqlhttpVersion string
	gitBranch      string
	lastCommitSHA  string
	lastCommitTime string
)

func BuildDetails() string {
	return fmt.Sprintf(`
gqlhttp version  : %v
Commit SHA-1     : %v
Commit timestamp : %v
Branch           : %v
Go version       : %v

Licensed under the Apache License, Version 2.0.

`,
		Version(), lastCommitSHA, lastCommitTime, gitBranch, runtime.Version())
}

// Version returns the version baked in at build time, or "dev".
func Version() string {
	if gqlhttpVersion == "" {
		return "dev"
	}
	return gqlhttpVersion
}

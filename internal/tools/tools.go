//go:build tools

// Package tools pins build-time tooling in go.mod without any runtime
// package depending on them. The teacher's go.mod carries gocov,
// gocov-html, gox, and golint as coverage/cross-compile/lint tooling;
// none of them is a library a workload imports, so they are pinned here
// instead, the standard pattern for tool dependencies in a module that
// has no separate tools submodule.
package tools

import (
	_ "github.com/axw/gocov/gocov"
	_ "github.com/matm/gocov-html"
	_ "github.com/mitchellh/gox"
	_ "golang.org/x/lint/golint"
)

//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed via `go install` or run with `go run` and are not
// tracked in go.mod since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - Generates the gomock doubles in internal/mocks
//   Run: go generate ./internal/mocks/...
//   Version: go.uber.org/mock v0.6.0 (pinned in the go:generate directives)
//   Docs: https://github.com/uber-go/mock
//
// Air - Live reload for Go apps
//   Install: go install github.com/air-verse/air@v1.63.0
//   Version: v1.63.0 (pinned 2025-01-01)
//   Docs: https://github.com/air-verse/air

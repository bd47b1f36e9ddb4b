// Package metrics holds the metric helpers shared by login handlers.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/idpguard/internal/observability/errors"
	"github.com/target/idpguard/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// LoginMetric describes one completed (or failed) login callback.
type LoginMetric struct {
	Backend  string
	Duration time.Duration
	Err      error
}

// EmitLogin counts the login outcome and records its duration.
func EmitLogin(sink statsd.Sink, in LoginMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"backend": in.Backend,
		"result":  ResultSuccess,
	}
	if in.Err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(in.Err)
	}

	sink.Count("login.complete", 1, tags)
	if in.Duration > 0 {
		sink.Timing("login.duration", in.Duration, maps.Clone(tags))
	}
}

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/idpguard/internal/domain/auth"
)

type sample struct {
	name string
	tags map[string]string
}

type recordingSink struct {
	counts  []sample
	timings []sample
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string) {
	s.counts = append(s.counts, sample{name, tags})
}

func (s *recordingSink) Timing(name string, _ time.Duration, tags map[string]string) {
	s.timings = append(s.timings, sample{name, tags})
}

func TestEmitLogin(t *testing.T) {
	sink := &recordingSink{}
	EmitLogin(sink, LoginMetric{Backend: "oidc", Duration: 20 * time.Millisecond})

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "login.complete", sink.counts[0].name)
	assert.Equal(t, map[string]string{"backend": "oidc", "result": "success"}, sink.counts[0].tags)
	require.Len(t, sink.timings, 1)
	assert.Equal(t, "login.duration", sink.timings[0].name)

	sink = &recordingSink{}
	ferr := domainauth.NewFlowError(domainauth.FlowStateForbidden, "oidc", "Wrong state parameter given.")
	EmitLogin(sink, LoginMetric{Backend: "oidc", Err: ferr})

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "error", sink.counts[0].tags["result"])
	assert.Equal(t, "auth_flowerror", sink.counts[0].tags["error_class"])
	assert.Empty(t, sink.timings)
}

func TestEmitLogin_NilSink(t *testing.T) {
	assert.NotPanics(t, func() { EmitLogin(nil, LoginMetric{Backend: "dev"}) })
}

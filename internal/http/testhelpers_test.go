package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	domainauth "github.com/target/idpguard/internal/domain/auth"
)

// newTestRequest builds a pipeline request. A non-nil form is sent as a urlencoded body.
func newTestRequest(t *testing.T, method, target string, form url.Values) *Request {
	t.Helper()
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	return &Request{HTTP: r, Session: domainauth.NewSession("", nil)}
}

type countCall struct {
	Name string
	Tags map[string]string
}

// recordingSink captures metrics for assertions.
type recordingSink struct {
	mu     sync.Mutex
	counts []countCall
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, countCall{Name: name, Tags: tags})
}

func (s *recordingSink) Timing(string, time.Duration, map[string]string) {}

func (s *recordingSink) Counts() []countCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]countCall(nil), s.counts...)
}

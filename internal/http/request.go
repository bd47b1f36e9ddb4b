package httpx

import (
	"context"
	"errors"
	"net/http"

	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/ports"
)

// Request is one inbound call as seen by the interceptor pipeline and views.
type Request struct {
	HTTP *http.Request

	// Session is never nil; a request without a cookie gets an empty, unsaved session.
	Session *domainauth.Session

	// User is the logged-in user, or nil.
	User *domainauth.User

	// Strategy is attached only on social login routes.
	Strategy ports.Strategy
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	return r.HTTP.Context()
}

// FullPath returns the path and query string as received.
func (r *Request) FullPath() string {
	return r.HTTP.URL.RequestURI()
}

// maxPostMemory bounds the in-memory part of a multipart body.
const maxPostMemory = 10 << 20

// PostValue returns a POST form field and whether the field was sent at all.
// Both urlencoded and multipart bodies are read. Non-POST requests have no POST fields.
func (r *Request) PostValue(key string) (string, bool) {
	if r.HTTP.Method != http.MethodPost {
		return "", false
	}
	if err := r.HTTP.ParseMultipartForm(maxPostMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return "", false
	}
	values, ok := r.HTTP.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

package httpx

import (
	"net/http"
	"strconv"
)

// Response is a fully buffered response. Interceptors may rewrite it until it is written.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse returns an empty response with the given status.
func NewResponse(status int) *Response {
	return &Response{Status: status, Header: make(http.Header)}
}

// Redirect returns a 302 to location.
func Redirect(location string) *Response {
	resp := NewResponse(http.StatusFound)
	resp.Header.Set("Location", location)
	return resp
}

// Forbidden returns an empty 403.
func Forbidden() *Response {
	return NewResponse(http.StatusForbidden)
}

// SetCookie appends a Set-Cookie header. Invalid cookies are dropped.
func (r *Response) SetCookie(c *http.Cookie) {
	if v := c.String(); v != "" {
		r.Header.Add("Set-Cookie", v)
	}
}

// Write sends the response to w.
func (r *Response) Write(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	if len(r.Body) > 0 && h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

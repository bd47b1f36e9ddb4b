package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	obserrors "github.com/target/idpguard/internal/observability/errors"
)

// Result is what an interceptor phase decided: carry on, or answer with a response.
type Result struct {
	resp *Response
}

// Continue lets the request proceed to the next interceptor or the view.
func Continue() Result { return Result{} }

// Respond stops processing and answers with resp. Respond(nil) is Continue().
func Respond(resp *Response) Result { return Result{resp: resp} }

// Handled reports whether the phase produced a response.
func (r Result) Handled() bool { return r.resp != nil }

// Response returns the produced response, or nil.
func (r Result) Response() *Response { return r.resp }

// View produces the response for a request. Returned errors go through the
// OnError phase of every interceptor before falling back to a 500.
type View func(req *Request) (*Response, error)

// Interceptor hooks into the three phases of a request.
//
// Before runs ahead of the view; a handled Result skips the remaining Before
// phases and the view. OnError runs when the view fails; the first handled
// Result replaces the error. After runs on every response, including those
// produced by Before or OnError, and may only edit it in place.
type Interceptor interface {
	Before(req *Request) Result
	OnError(req *Request, err error) Result
	After(req *Request, resp *Response)
}

// NopInterceptor implements every phase as a no-op. Embed it to implement one phase.
type NopInterceptor struct{}

func (NopInterceptor) Before(*Request) Result         { return Continue() }
func (NopInterceptor) OnError(*Request, error) Result { return Continue() }
func (NopInterceptor) After(*Request, *Response)      {}

// Pipeline runs views through an ordered list of interceptors.
type Pipeline struct {
	interceptors []Interceptor
	logger       *slog.Logger
}

// NewPipeline returns a pipeline running interceptors in the given order.
func NewPipeline(logger *slog.Logger, interceptors ...Interceptor) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{interceptors: interceptors, logger: logger}
}

// InterceptorSet names the interceptors of the standard pipeline.
type InterceptorSet struct {
	Restricted *RestrictedSession
	Social     *SocialAuthExceptions
	Bearer     *BearerErrors
	CSP        *ContentSecurityPolicy
}

// NewStandardPipeline assembles the standard order: restricted-session expiry
// first so expired sessions never reach a view, then the social flow and bearer
// error translators, then CSP headers, which run on every response.
// Nil members are skipped.
func NewStandardPipeline(logger *slog.Logger, set InterceptorSet) *Pipeline {
	var list []Interceptor
	if set.Restricted != nil {
		list = append(list, set.Restricted)
	}
	if set.Social != nil {
		list = append(list, set.Social)
	}
	if set.Bearer != nil {
		list = append(list, set.Bearer)
	}
	if set.CSP != nil {
		list = append(list, set.CSP)
	}
	return NewPipeline(logger, list...)
}

// Run produces the response for req.
func (p *Pipeline) Run(req *Request, view View) *Response {
	resp := p.dispatch(req, view)
	for _, ic := range p.interceptors {
		ic.After(req, resp)
	}
	return resp
}

func (p *Pipeline) dispatch(req *Request, view View) *Response {
	for _, ic := range p.interceptors {
		if res := ic.Before(req); res.Handled() {
			return res.Response()
		}
	}

	resp, err := view(req)
	if err == nil {
		if resp == nil {
			resp = NewResponse(http.StatusNoContent)
		}
		return resp
	}

	for _, ic := range p.interceptors {
		if res := ic.OnError(req, err); res.Handled() {
			return res.Response()
		}
	}

	p.logger.Error("unhandled view error",
		slog.String("method", req.HTTP.Method),
		slog.String("path", req.HTTP.URL.Path),
		slog.String("error_type", obserrors.Classify(err)),
		slog.Any("error", err),
	)
	return ErrorResponse(ErrorParams{
		Code:    http.StatusInternalServerError,
		ErrCode: "internal_error",
		Err:     errors.New("internal server error"),
	})
}

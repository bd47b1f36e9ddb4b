package httpx

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/target/idpguard/config"
	"github.com/target/idpguard/internal/observability/statsd"
)

// CSP header names.
const (
	HeaderCSP           = "Content-Security-Policy"
	HeaderCSPReportOnly = "Content-Security-Policy-Report-Only"
	HeaderReportTo      = "Report-To"
)

// ContentSecurityPolicy adds the configured CSP headers to every response.
type ContentSecurityPolicy struct {
	NopInterceptor

	policy   string
	header   string
	other    string
	reportTo string
	metrics  statsd.Sink
}

// NewContentSecurityPolicy snapshots cfg. A nil cfg or an empty policy disables the interceptor.
func NewContentSecurityPolicy(cfg *config.CSPConfig, metrics statsd.Sink, logger *slog.Logger) *ContentSecurityPolicy {
	if metrics == nil {
		metrics = statsd.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	i := &ContentSecurityPolicy{metrics: metrics}
	if !cfg.Present() {
		return i
	}

	i.policy = cfg.Policy
	i.header, i.other = HeaderCSP, HeaderCSPReportOnly
	if cfg.ReportOnly {
		i.header, i.other = HeaderCSPReportOnly, HeaderCSP
	}
	if len(cfg.ReportGroups) > 0 {
		raw, err := compactJSON(map[string]any(cfg.ReportGroups))
		if err != nil {
			logger.Warn("CSP report groups are not serializable, Report-To disabled", slog.Any("error", err))
		} else {
			i.reportTo = raw
		}
	}
	return i
}

// Enabled reports whether a policy is configured.
func (i *ContentSecurityPolicy) Enabled() bool { return i.policy != "" }

// After sets exactly one of the enforcing or report-only headers, plus Report-To.
func (i *ContentSecurityPolicy) After(_ *Request, resp *Response) {
	if i.policy == "" {
		return
	}

	resp.Header.Del(i.other)
	resp.Header.Set(i.header, i.policy)
	if i.reportTo != "" {
		resp.Header.Set(HeaderReportTo, i.reportTo)
	}
	mode := "enforce"
	if i.header == HeaderCSPReportOnly {
		mode = "report_only"
	}
	i.metrics.Count("csp.header", 1, map[string]string{"mode": mode})
}

// compactJSON encodes v without HTML escaping so endpoint URLs keep their '&'.
func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

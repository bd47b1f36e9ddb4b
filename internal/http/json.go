package httpx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON builds a JSON response with the given status code and data.
func JSON(code int, v any) *Response {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Default().Error("encode json response", "error", err)
		resp := NewResponse(http.StatusInternalServerError)
		resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
		resp.Body = []byte(http.StatusText(http.StatusInternalServerError) + "\n")
		return resp
	}

	resp := NewResponse(code)
	resp.Header.Set("Content-Type", "application/json")
	resp.Body = buf.Bytes()
	return resp
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	// Response writer errors (e.g., client disconnect) can't be recovered from here.
	_ = JSON(code, v).Write(w)
}

// ErrorParams groups parameters for error responses.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// ErrorResponse builds a JSON error response using ErrorParams.
func ErrorResponse(p ErrorParams) *Response {
	return JSON(p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	_ = ErrorResponse(p).Write(w)
}

package httpx

import "net/http"

const healthResponse = `{"status":"ok"}`

// healthView returns a simple 200 OK status for readiness/liveness checks.
// HEAD bodies are dropped by net/http.
func healthView(*Request) (*Response, error) {
	resp := NewResponse(http.StatusOK)
	resp.Header.Set("Content-Type", "application/json")
	resp.Body = []byte(healthResponse)
	return resp, nil
}

func notFoundView(req *Request) (*Response, error) {
	return JSON(http.StatusNotFound, map[string]string{
		"error":   "not_found",
		"message": "no route for " + req.HTTP.URL.Path,
	}), nil
}

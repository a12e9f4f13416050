package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// maxBodySize bounds request bodies read into memory.
const maxBodySize = 64 * 1024

// Callback parameters can arrive in the query string, the request body, or
// gateway-forwarded headers ("X-Query-Code" etc.), depending on how the
// gateway routed the IdP redirect. Each source is tried in a fixed priority
// order and the first non-empty value wins.
type paramSource func(r *http.Request, body map[string]any, name string) string

var callbackParamSources = []paramSource{
	fromForm,
	fromJSONBody,
	fromForwardedHeader,
}

func extractParam(r *http.Request, body map[string]any, name string) string {
	for _, source := range callbackParamSources {
		if value := source(r, body, name); value != "" {
			return value
		}
	}
	return ""
}

// fromForm covers both query parameters and form_post bodies.
func fromForm(r *http.Request, _ map[string]any, name string) string {
	return r.FormValue(name)
}

func fromJSONBody(_ *http.Request, body map[string]any, name string) string {
	if value, ok := body[name].(string); ok {
		return value
	}
	return ""
}

func fromForwardedHeader(r *http.Request, _ map[string]any, name string) string {
	return r.Header.Get("X-Query-" + name)
}

// decodeJSONBody reads the request body as JSON, tolerating an empty or
// non-JSON body. The body can only be read once, so callers decode it up
// front and hand the result to extractParam. Form bodies are left for
// r.FormValue to consume.
func decodeJSONBody(r *http.Request) map[string]any {
	body := map[string]any{}
	if r.Body == nil || !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return body
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil || len(raw) == 0 {
		return body
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return map[string]any{}
	}
	return body
}

// Package httpapi wires the orchestrator onto a single POST endpoint that
// decodes the request envelope and streams the newline-delimited frame
// protocol back as the response body, using a plain net/http.ServeMux and
// http.Flusher rather than a web framework.
package httpapi

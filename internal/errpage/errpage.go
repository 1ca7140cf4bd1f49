// Package errpage builds the canonical HTML error responses from
// spec §4.9 (C12). Handler failures never reach the peer as raw Go
// error strings — every path through internal/dispatch that fails routes
// here first.
package errpage

import (
	"fmt"
	"os"

	"github.com/mohalnassery/localhost/internal/config"
	"github.com/mohalnassery/localhost/internal/httpmsg"
)

// Build produces the response for status, using binding's configured
// error-page override when one exists and is readable (spec §4.9).
func Build(binding *config.Binding, status httpmsg.Status, version httpmsg.Version) *httpmsg.Response {
	resp := httpmsg.NewResponse(status, version)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	resp.Header.Set("X-Content-Type-Options", "nosniff")
	resp.Header.Set("X-Frame-Options", "DENY")
	resp.Header.Set("X-XSS-Protection", "1; mode=block")

	resp.Body = defaultBody(status)
	if binding != nil {
		if path, ok := binding.ErrorPages[int(status)]; ok {
			if b, err := os.ReadFile(path); err == nil {
				resp.Body = b
			}
		}
	}
	return resp
}

func defaultBody(status httpmsg.Status) []byte {
	return []byte(fmt.Sprintf(
		"<!DOCTYPE html>\n<html><head><title>%d %s</title></head>"+
			"<body><h1>%d %s</h1></body></html>\n",
		status, status.ReasonPhrase(), status, status.ReasonPhrase(),
	))
}

// Package cgi executes CGI/1.1 scripts from spec §4.4 (C10): environment
// construction, subprocess spawn, bounded poll, and output parsing.
// Grounded on original_source/src/cgi/environment.rs and executor.rs
// (the poll-loop shape, the meta-variable set, the header/body split) and
// rewritten around os/exec the way badu-http's server_handler.go drives
// subprocess-shaped work, since CGI in the original is sleep-poll driven
// rather than reactor-integrated (spec §4.4 explicitly keeps it off the
// epoll fd set).
package cgi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mohalnassery/localhost/internal/config"
	"github.com/mohalnassery/localhost/internal/httpmsg"
	"github.com/mohalnassery/localhost/internal/session"
)

// BuildEnv constructs the CGI/1.1 meta-variables for req, per spec §4.4
// and original_source/src/cgi/environment.rs's from_request.
func BuildEnv(req *httpmsg.Request, binding *config.Binding, scriptPath, pathInfo string) []string {
	vars := map[string]string{
		"GATEWAY_INTERFACE": "CGI/1.1",
		"SERVER_SOFTWARE":   "localhost-http-server/1.0",
		"SERVER_PROTOCOL":   req.Version.String(),
		"REQUEST_METHOD":    req.Method.String(),
		"REQUEST_URI":       req.RawTarget,
		"SCRIPT_NAME":       scriptPath,
		"PATH_INFO":         pathInfo,
		"PATH_TRANSLATED":   scriptPath,
		"SERVER_NAME":       serverName(binding),
		"SERVER_PORT":       serverPort(binding),
		"REMOTE_ADDR":       "127.0.0.1",
		"REMOTE_HOST":       "localhost",
	}

	if query, ok := splitQuery(req.RawTarget); ok {
		vars["QUERY_STRING"] = query
	} else {
		vars["QUERY_STRING"] = ""
	}

	if len(req.Body) > 0 {
		vars["CONTENT_LENGTH"] = strconv.Itoa(len(req.Body))
	}
	if ct, ok := req.HeaderGet("content-type"); ok {
		vars["CONTENT_TYPE"] = ct
	}
	if cookie, ok := req.HeaderGet("cookie"); ok {
		vars["HTTP_COOKIE"] = cookie
		for name, value := range session.ParseCookieHeader(cookie) {
			vars["HTTP_COOKIE_"+strings.ToUpper(name)] = value
		}
	}

	for name, value := range req.Header {
		cgiName := "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		if _, exists := vars[cgiName]; !exists {
			vars[cgiName] = value
		}
	}

	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}

func serverName(b *config.Binding) string {
	if b != nil && b.ServerName != "" {
		return b.ServerName
	}
	return "localhost"
}

func serverPort(b *config.Binding) string {
	if b != nil && len(b.Ports) > 0 {
		return strconv.Itoa(b.Ports[0])
	}
	return "80"
}

func splitQuery(target string) (string, bool) {
	if idx := strings.IndexByte(target, '?'); idx >= 0 {
		return target[idx+1:], true
	}
	return "", false
}

// PathInfo splits a request path into the part consumed by routePrefix
// and the remainder CGI calls PATH_INFO, per executor.rs's
// extract_path_info.
func PathInfo(requestPath, routePrefix string) string {
	if !strings.HasPrefix(requestPath, routePrefix) {
		return ""
	}
	return strings.TrimPrefix(strings.TrimPrefix(requestPath, routePrefix), "/")
}

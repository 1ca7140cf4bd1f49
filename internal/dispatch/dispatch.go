// Package dispatch implements the request dispatcher from spec §4.7
// (C11): route lookup, body-size and method checks, and handler
// selection across redirect, CGI, upload, and static paths. Grounded on
// badu-http's server_handler.go for the overall "one function maps a
// request to a response" shape, generalized from net/http's
// Handler-interface dispatch to the spec's fixed, ordered rule list.
package dispatch

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mohalnassery/localhost/internal/cgi"
	"github.com/mohalnassery/localhost/internal/config"
	"github.com/mohalnassery/localhost/internal/errpage"
	"github.com/mohalnassery/localhost/internal/httpmsg"
	"github.com/mohalnassery/localhost/internal/logging"
	"github.com/mohalnassery/localhost/internal/router"
	"github.com/mohalnassery/localhost/internal/static"
	"github.com/sirupsen/logrus"
)

// Dispatcher wires C8 (router), C9 (static), C10 (cgi) and C12 (errpage)
// together per spec §4.7's ordered rule list.
type Dispatcher struct {
	Router *router.Router
	CGI    *cgi.Executor
	Log    *logrus.Logger
}

// New builds a Dispatcher. A nil logger falls back to a discard logger.
func New(r *router.Router, log *logrus.Logger) *Dispatcher {
	if log == nil {
		log = logging.Discard()
	}
	return &Dispatcher{Router: r, CGI: cgi.New(), Log: log}
}

// Dispatch applies spec §4.7's rule list to req and returns the finished
// Response, already Finalize-d against keepAlive.
func (d *Dispatcher) Dispatch(req *httpmsg.Request, host string, keepAlive bool) *httpmsg.Response {
	binding, route, ok := d.Router.Match(host, req.Path)
	if !ok {
		resp := errpage.Build(binding, httpmsg.StatusNotFound, req.Version)
		resp.Finalize(keepAlive)
		return resp
	}

	if int64(len(req.Body)) > binding.MaxBodySize {
		resp := errpage.Build(binding, httpmsg.StatusRequestEntityTooLarge, req.Version)
		resp.Finalize(keepAlive)
		return resp
	}

	if !route.AllowsMethod(req.Method.String()) {
		resp := errpage.Build(binding, httpmsg.StatusMethodNotAllowed, req.Version)
		resp.Finalize(keepAlive)
		return resp
	}

	resp := d.selectHandler(req, binding, route, keepAlive)
	resp.Finalize(keepAlive)
	if req.Method == httpmsg.HEAD {
		resp.Body = nil
		resp.Header.Set("Content-Length", "0")
	}
	return resp
}

func (d *Dispatcher) selectHandler(req *httpmsg.Request, binding *config.Binding, route *config.Route, keepAlive bool) *httpmsg.Response {
	switch {
	case route.HasRedirect():
		resp := httpmsg.NewResponse(httpmsg.StatusFound, req.Version)
		resp.Header.Set("Location", route.Redirect)
		return resp

	case route.HasCGI():
		return d.dispatchCGI(req, binding, route)

	case req.Method == httpmsg.DELETE && route.UploadEnabled:
		return dispatchDelete(req, route)

	case req.Method == httpmsg.POST && route.UploadEnabled:
		return dispatchUpload(req, route)

	case req.Method == httpmsg.GET || req.Method == httpmsg.HEAD:
		return dispatchStatic(req, binding, route)

	default:
		return errpage.Build(binding, httpmsg.StatusMethodNotAllowed, req.Version)
	}
}

func dispatchStatic(req *httpmsg.Request, binding *config.Binding, route *config.Route) *httpmsg.Response {
	result := static.Serve(route.Root, route.Path, req.Path, route.Index, route.DirectoryListing)
	if result.Status != httpmsg.StatusOK {
		return errpage.Build(binding, result.Status, req.Version)
	}
	resp := httpmsg.NewResponse(httpmsg.StatusOK, req.Version)
	resp.Header.Set("Content-Type", result.ContentType)
	resp.Header.Set("Cache-Control", "public, max-age=3600")
	if result.HasLastMod {
		resp.Header.Set("Last-Modified", httpmsg.FormatHTTPDate(result.LastMod))
	}
	resp.Body = result.Body
	return resp
}

func (d *Dispatcher) dispatchCGI(req *httpmsg.Request, binding *config.Binding, route *config.Route) *httpmsg.Response {
	scriptPath := resolveScriptPath(route, req.Path)
	pathInfo := cgi.PathInfo(req.Path, route.Path)
	env := cgi.BuildEnv(req, binding, scriptPath, pathInfo)

	resp, err := d.CGI.Run(route.CGI, scriptPath, env, req.Body, req.Version)
	if err != nil {
		d.Log.WithError(err).Warn("cgi execution failed")
		return errpage.Build(binding, httpmsg.StatusInternalServerError, req.Version)
	}
	return resp
}

func resolveScriptPath(route *config.Route, reqPath string) string {
	suffix := strings.TrimPrefix(reqPath, route.Path)
	suffix = strings.TrimPrefix(suffix, "/")
	if suffix == "" {
		return route.Root
	}
	return route.Root + "/" + suffix
}

func dispatchDelete(req *httpmsg.Request, route *config.Route) *httpmsg.Response {
	if !route.UploadEnabled {
		return errResp(httpmsg.StatusForbidden, req.Version)
	}
	path := resolveScriptPath(route, req.Path)
	if _, err := os.Stat(path); err != nil {
		return errResp(httpmsg.StatusNotFound, req.Version)
	}
	if err := os.Remove(path); err != nil {
		return errResp(httpmsg.StatusInternalServerError, req.Version)
	}
	return httpmsg.NewResponse(httpmsg.StatusNoContent, req.Version)
}

func dispatchUpload(req *httpmsg.Request, route *config.Route) *httpmsg.Response {
	name := uuid.NewString()
	path := route.Root + "/" + name
	if err := os.WriteFile(path, req.Body, 0o644); err != nil {
		return errResp(httpmsg.StatusInternalServerError, req.Version)
	}
	resp := httpmsg.NewResponse(httpmsg.StatusCreated, req.Version)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Header.Set("Location", route.Path+"/"+name)
	resp.Body = []byte(name)
	return resp
}

func errResp(status httpmsg.Status, version httpmsg.Version) *httpmsg.Response {
	return errpage.Build(nil, status, version)
}

package dispatch

import (
	"os"
	"testing"

	"github.com/mohalnassery/localhost/internal/config"
	"github.com/mohalnassery/localhost/internal/httpmsg"
	"github.com/mohalnassery/localhost/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBinding() *config.Binding {
	return &config.Binding{
		Host:        "0.0.0.0",
		ServerName:  "example.com",
		MaxBodySize: 1024,
		ErrorPages:  map[int]string{},
		Routes: []config.Route{
			{Path: "/", Methods: []string{"GET", "HEAD"}, Root: "testdata/www", Index: "index.html"},
			{Path: "/old", Methods: []string{"GET"}, Redirect: "/new"},
			{Path: "/upload", Methods: []string{"GET", "POST", "DELETE"}, Root: "testdata/upload", UploadEnabled: true},
		},
	}
}

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	require.NoError(t, os.MkdirAll("testdata/upload", 0o755))
	r := router.New([]*config.Binding{testBinding()})
	return New(r, nil)
}

func TestDispatchStaticOK(t *testing.T) {
	d := newDispatcher(t)
	req := &httpmsg.Request{Method: httpmsg.GET, Path: "/", Version: httpmsg.HTTP11, Header: map[string]string{}}
	resp := d.Dispatch(req, "example.com", true)
	assert.Equal(t, httpmsg.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), "hello world")
}

func TestDispatchRedirect(t *testing.T) {
	d := newDispatcher(t)
	req := &httpmsg.Request{Method: httpmsg.GET, Path: "/old", Version: httpmsg.HTTP11, Header: map[string]string{}}
	resp := d.Dispatch(req, "example.com", true)
	assert.Equal(t, httpmsg.StatusFound, resp.Status)
	loc, _ := resp.Header.Get("Location")
	assert.Equal(t, "/new", loc)
}

func TestDispatchMethodNotAllowed(t *testing.T) {
	d := newDispatcher(t)
	req := &httpmsg.Request{Method: httpmsg.PUT, Path: "/", Version: httpmsg.HTTP11, Header: map[string]string{}}
	resp := d.Dispatch(req, "example.com", true)
	assert.Equal(t, httpmsg.StatusMethodNotAllowed, resp.Status)
}

func TestDispatchBodyTooLarge(t *testing.T) {
	d := newDispatcher(t)
	req := &httpmsg.Request{
		Method: httpmsg.POST, Path: "/upload", Version: httpmsg.HTTP11,
		Header: map[string]string{}, Body: make([]byte, 2048),
	}
	resp := d.Dispatch(req, "example.com", true)
	assert.Equal(t, httpmsg.StatusRequestEntityTooLarge, resp.Status)
}

func TestDispatchUploadThenDelete(t *testing.T) {
	d := newDispatcher(t)
	uploadReq := &httpmsg.Request{
		Method: httpmsg.POST, Path: "/upload", Version: httpmsg.HTTP11,
		Header: map[string]string{}, Body: []byte("payload"),
	}
	resp := d.Dispatch(uploadReq, "example.com", true)
	require.Equal(t, httpmsg.StatusCreated, resp.Status)
	name := string(resp.Body)

	deleteReq := &httpmsg.Request{
		Method: httpmsg.DELETE, Path: "/upload/" + name, Version: httpmsg.HTTP11,
		Header: map[string]string{},
	}
	delResp := d.Dispatch(deleteReq, "example.com", true)
	assert.Equal(t, httpmsg.StatusNoContent, delResp.Status)
}

func TestDispatchHeadClearsBody(t *testing.T) {
	d := newDispatcher(t)
	req := &httpmsg.Request{Method: httpmsg.HEAD, Path: "/", Version: httpmsg.HTTP11, Header: map[string]string{}}
	resp := d.Dispatch(req, "example.com", true)
	assert.Equal(t, httpmsg.StatusOK, resp.Status)
	assert.Empty(t, resp.Body)
	cl, _ := resp.Header.Get("Content-Length")
	assert.Equal(t, "0", cl)
}

func TestDispatchFallsBackToFirstBindingOnUnknownHost(t *testing.T) {
	d := newDispatcher(t)
	req := &httpmsg.Request{Method: httpmsg.GET, Path: "/", Version: httpmsg.HTTP11, Header: map[string]string{}}
	resp := d.Dispatch(req, "unknown-host.test", true)
	assert.Equal(t, httpmsg.StatusOK, resp.Status)
}

package cgi

import (
	"testing"

	"github.com/mohalnassery/localhost/internal/config"
	"github.com/mohalnassery/localhost/internal/httpmsg"
	"github.com/mohalnassery/localhost/internal/servererr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain guards against a leaked cmd.Wait goroutine from Executor.Run
// outliving its test, the way the teacher's own goroutine-heavy tests
// (response_server.go's async write path) are expected to clean up.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBuildEnvIncludesMetaVariables(t *testing.T) {
	req := &httpmsg.Request{
		Method:    httpmsg.GET,
		RawTarget: "/cgi-bin/test.py?a=b",
		Path:      "/cgi-bin/test.py",
		Version:   httpmsg.HTTP11,
		Header:    map[string]string{"content-type": "text/plain"},
	}
	binding := &config.Binding{ServerName: "example.com", Ports: []int{8080}}

	env := BuildEnv(req, binding, "/cgi-bin/test.py", "")

	assertHas(t, env, "GATEWAY_INTERFACE=CGI/1.1")
	assertHas(t, env, "REQUEST_METHOD=GET")
	assertHas(t, env, "QUERY_STRING=a=b")
	assertHas(t, env, "SERVER_NAME=example.com")
	assertHas(t, env, "SERVER_PORT=8080")
}

func assertHas(t *testing.T, env []string, want string) {
	t.Helper()
	for _, kv := range env {
		if kv == want {
			return
		}
	}
	t.Fatalf("expected env to contain %q, got %v", want, env)
}

func TestPathInfo(t *testing.T) {
	assert.Equal(t, "extra/path", PathInfo("/cgi-bin/extra/path", "/cgi-bin"))
	assert.Equal(t, "", PathInfo("/other", "/cgi-bin"))
}

func TestParseOutputWithHeaders(t *testing.T) {
	raw := []byte("Content-Type: text/plain\r\nX-Custom: yes\r\n\r\nhello world")
	resp, err := parseOutput(raw, httpmsg.HTTP11)
	require.NoError(t, err)
	ct, _ := resp.Header.Get("Content-Type")
	assert.Equal(t, "text/plain", ct)
	assert.Equal(t, "hello world", string(resp.Body))
}

func TestParseOutputWithStatusLine(t *testing.T) {
	raw := []byte("Status: 404 Not Found\r\n\r\nmissing")
	resp, err := parseOutput(raw, httpmsg.HTTP11)
	require.NoError(t, err)
	assert.Equal(t, httpmsg.StatusNotFound, resp.Status)
}

func TestParseOutputNoHeadersTreatsAllAsBody(t *testing.T) {
	raw := []byte("just a plain body, no header block")
	resp, err := parseOutput(raw, httpmsg.HTTP11)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(resp.Body))
}

func TestParseOutputMalformedHeaderLine(t *testing.T) {
	raw := []byte("not-a-header-line\r\n\r\nbody")
	_, err := parseOutput(raw, httpmsg.HTTP11)
	require.Error(t, err)
	var cgiErr *servererr.CGIError
	require.ErrorAs(t, err, &cgiErr)
	assert.Equal(t, servererr.CGIBadHeaders, cgiErr.Sub)
}

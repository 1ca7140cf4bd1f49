package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
# sample config
server {
    host 127.0.0.1
    port 8080
    server_name example.com
    error_page 404 www/errors/404.html
    max_body_size 1048576

    route / {
        methods GET POST DELETE
        root www
        index index.html
    }

    route /cgi-bin/ {
        methods GET POST
        root www/cgi-bin
        cgi python3
    }

    route /old {
        redirect /new
    }
}
`

func TestParseSampleConfig(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	require.Len(t, cfg.Bindings, 1)

	b := cfg.Bindings[0]
	assert.Equal(t, "127.0.0.1", b.Host)
	assert.Equal(t, []int{8080}, b.Ports)
	assert.Equal(t, "example.com", b.ServerName)
	assert.Equal(t, "www/errors/404.html", b.ErrorPages[404])
	assert.EqualValues(t, 1048576, b.MaxBodySize)
	require.Len(t, b.Routes, 3)

	assert.Equal(t, "/", b.Routes[0].Path)
	assert.True(t, b.Routes[0].AllowsMethod("GET"))
	assert.False(t, b.Routes[0].AllowsMethod("PATCH"))

	assert.True(t, b.Routes[1].HasCGI())
	assert.Equal(t, "python3", b.Routes[1].CGI)

	assert.True(t, b.Routes[2].HasRedirect())
	assert.Equal(t, "/new", b.Routes[2].Redirect)
}

func TestParseEmptyConfigUsesDefault(t *testing.T) {
	cfg, err := Parse(strings.NewReader("# nothing here\n"))
	require.NoError(t, err)
	require.Len(t, cfg.Bindings, 1)
	assert.Equal(t, DefaultBinding(), cfg.Bindings[0])
}

func TestParseRejectsUnknownDirective(t *testing.T) {
	_, err := Parse(strings.NewReader("server {\n    bogus value\n}\n"))
	assert.Error(t, err)
}

func TestParseRejectsMissingBrace(t *testing.T) {
	_, err := Parse(strings.NewReader("server\n    host x\n}\n"))
	assert.Error(t, err)
}

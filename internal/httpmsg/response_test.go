package httpmsg

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseFinalizeInvariants(t *testing.T) {
	r := NewResponse(StatusOK, HTTP11)
	r.Body = []byte("Hello, World!")
	r.Finalize(true)

	cl, ok := r.Header.Get("Content-Length")
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(len(r.Body)), cl)

	conn, ok := r.Header.Get("Connection")
	require.True(t, ok)
	assert.Equal(t, "keep-alive", conn)
}

// TestResponseRoundTrip is the §8 law: encode then re-parse the status
// line and headers yields the same status and header set (modulo order
// and case).
func TestResponseRoundTrip(t *testing.T) {
	r := NewResponse(StatusNotFound, HTTP11)
	r.Header.Set("Content-Type", "text/html; charset=utf-8")
	r.Body = []byte("<html>missing</html>")
	r.Finalize(false)

	encoded := r.Encode()
	reader := bufio.NewReader(bytes.NewReader(encoded))

	statusLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	statusLine = strings.TrimRight(statusLine, "\r\n")
	assert.Equal(t, "HTTP/1.1 404 Not Found", statusLine)

	gotHeaders := map[string]string{}
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		idx := strings.IndexByte(line, ':')
		require.True(t, idx > 0)
		name := strings.ToLower(strings.TrimSpace(line[:idx]))
		val := strings.TrimSpace(line[idx+1:])
		gotHeaders[name] = val
	}

	assert.Equal(t, "text/html; charset=utf-8", gotHeaders["content-type"])
	assert.Equal(t, strconv.Itoa(len(r.Body)), gotHeaders["content-length"])
	assert.Equal(t, "close", gotHeaders["connection"])

	body := make([]byte, len(r.Body))
	_, err = io.ReadFull(reader, body)
	require.NoError(t, err)
	assert.Equal(t, string(r.Body), string(body))
}

func TestFormatHTTPDate(t *testing.T) {
	// Fixed instant: 1994-11-06 08:49:37 UTC (the RFC 7231 example date).
	d, err := time.Parse(time.RFC3339, "1994-11-06T08:49:37Z")
	require.NoError(t, err)
	assert.Equal(t, "Sun, 06 Nov 1994 08:49:37 GMT", FormatHTTPDate(d))
}

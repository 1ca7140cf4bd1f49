package mime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForPathKnownExtensions(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", ForPath("index.html"))
	assert.Equal(t, "image/png", ForPath("/a/b/c.PNG"))
	assert.Equal(t, "application/json", ForPath("data.json"))
}

func TestForPathUnknownExtensionFallsBackToOctetStream(t *testing.T) {
	assert.Equal(t, "application/octet-stream", ForPath("file.unknownext"))
	assert.Equal(t, "application/octet-stream", ForPath("noext"))
}

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCookieHeader(t *testing.T) {
	got := ParseCookieHeader("a=1; b=2;  c=3")
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, got)
}

func TestParseCookieHeaderEmpty(t *testing.T) {
	assert.Empty(t, ParseCookieHeader(""))
}

func TestCookieString(t *testing.T) {
	c := &Cookie{Name: "sid", Value: "abc123", Path: "/", HttpOnly: true, MaxAge: 3600}
	s := c.String()
	assert.Contains(t, s, "sid=abc123")
	assert.Contains(t, s, "Path=/")
	assert.Contains(t, s, "HttpOnly")
	assert.Contains(t, s, "Max-Age=3600")
}

func TestCookieStringNilOrEmpty(t *testing.T) {
	var c *Cookie
	assert.Equal(t, "", c.String())
	assert.Equal(t, "", (&Cookie{}).String())
}

func TestCookieStringExpires(t *testing.T) {
	c := &Cookie{Name: "a", Value: "b", Expires: time.Unix(0, 0)}
	assert.Contains(t, c.String(), "Expires=")
}

func TestNewSessionIDUnique(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}

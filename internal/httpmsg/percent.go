package httpmsg

import "github.com/mohalnassery/localhost/internal/servererr"

// percentDecode implements spec §4.3's escaping rules: %HH -> byte, and,
// only when plusAsSpace is true (query string, never path), '+' -> ' '.
// Invalid escapes are reported as HttpProtocolError so the caller can
// answer BadRequest, per spec §4.3 and §7.
func percentDecode(s string, plusAsSpace bool) (string, error) {
	hasEscape := false
	for i := 0; i < len(s); i++ {
		if s[i] == '%' || (plusAsSpace && s[i] == '+') {
			hasEscape = true
			break
		}
	}
	if !hasEscape {
		return s, nil
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%':
			if i+2 >= len(s) {
				return "", servererr.New(servererr.KindHTTPProtocol, "truncated percent-escape")
			}
			hi, ok1 := hexVal(s[i+1])
			lo, ok2 := hexVal(s[i+2])
			if !ok1 || !ok2 {
				return "", servererr.New(servererr.KindHTTPProtocol, "invalid percent-escape")
			}
			out = append(out, byte(hi<<4|lo))
			i += 2
		case '+':
			if plusAsSpace {
				out = append(out, ' ')
			} else {
				out = append(out, '+')
			}
		default:
			out = append(out, s[i])
		}
	}
	return string(out), nil
}

func hexVal(c byte) (int, bool) {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0'), true
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

// DecodePath percent-decodes a raw request path. '+' is left literal,
// per spec §4.3 ("not within the path").
func DecodePath(raw string) (string, error) {
	return percentDecode(raw, false)
}

// DecodeQueryComponent percent-decodes a raw query key or value, with
// '+' mapped to space per spec §4.3.
func DecodeQueryComponent(raw string) (string, error) {
	return percentDecode(raw, true)
}

// ParseQuery splits a raw query string on '&' and '=' and percent-decodes
// each key/value, building the Query map from spec §3.
func ParseQuery(raw string) (map[string]string, error) {
	q := make(map[string]string)
	if raw == "" {
		return q, nil
	}
	start := 0
	for start <= len(raw) {
		end := indexByte(raw, start, '&')
		pair := raw[start:end]
		if pair != "" {
			key := pair
			val := ""
			if eq := indexByteOpt(pair, '='); eq >= 0 {
				key = pair[:eq]
				val = pair[eq+1:]
			}
			dk, err := DecodeQueryComponent(key)
			if err != nil {
				return nil, err
			}
			dv, err := DecodeQueryComponent(val)
			if err != nil {
				return nil, err
			}
			q[dk] = dv
		}
		start = end + 1
		if end == len(raw) {
			break
		}
	}
	return q, nil
}

func indexByte(s string, from int, b byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return len(s)
}

func indexByteOpt(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

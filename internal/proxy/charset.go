package proxy

import (
	"mime"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// determineEncoding picks the charset an HTML body is declared in: an
// explicit charset= param on the Content-Type header wins, then a result
// that golang.org/x/net/html/charset reports as certain (a byte-order
// mark), and otherwise encoding.Nop (treat the bytes as already UTF-8)
// rather than x/net's own windows-1252 fallback. A <meta charset>
// declaration is reported as uncertain, so it is not used.
func determineEncoding(content []byte, contentType string) encoding.Encoding {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs, ok := params["charset"]; ok {
			if enc, err := htmlindex.Get(cs); err == nil {
				return enc
			}
		}
	}
	if enc, _, certain := charset.DetermineEncoding(content, contentType); certain {
		return enc
	}
	return encoding.Nop
}

// decodeBody decodes raw bytes to a Go string (UTF-8 code points) using the
// charset chosen by determineEncoding.
func decodeBody(content []byte, contentType string) (string, encoding.Encoding, error) {
	enc := determineEncoding(content, contentType)
	decoded, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return "", enc, err
	}
	return string(decoded), enc, nil
}

// encodeBody re-encodes a rewritten string back into enc's byte form.
func encodeBody(s string, enc encoding.Encoding) ([]byte, error) {
	return enc.NewEncoder().Bytes([]byte(s))
}

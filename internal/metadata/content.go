package metadata

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// newContent builds a content entry. Inline data URIs are sniffed so that the
// declared type follows the actual bytes.
func newContent(uri string, declared ContentType) Content {
	c := Content{URL: uri, Type: declared}
	if !strings.HasPrefix(uri, "data:") {
		return c
	}

	data, _, err := decodeDataURI(uri)
	if err != nil {
		return c
	}

	mtype := mimetype.Detect(data)
	c.MimeType = mtype.String()
	switch {
	case strings.HasPrefix(mtype.String(), "video/"):
		c.Type = ContentTypeVideo
	case strings.HasPrefix(mtype.String(), "image/"):
		c.Type = ContentTypeImage
	}
	return c
}

// decodeDataURI returns the payload and declared media type of
// data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", fmt.Errorf("invalid data URI")
	}

	header, data, ok := strings.Cut(uri[5:], ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI format")
	}

	mediaType, _, _ := strings.Cut(header, ";")
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode base64: %w", err)
		}
		return decoded, mediaType, nil
	}

	unescaped, err := url.PathUnescape(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to unescape data: %w", err)
	}
	return []byte(unescaped), mediaType, nil
}

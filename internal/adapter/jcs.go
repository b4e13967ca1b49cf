package adapter

import "github.com/gowebpki/jcs"

// JCS canonicalizes JSON documents per RFC 8785, so equal documents hash equally
// regardless of key order or number formatting
type JCS interface {
	Canonicalize(data []byte) ([]byte, error)
}

type rfc8785 struct{}

func NewJCS() JCS {
	return rfc8785{}
}

func (rfc8785) Canonicalize(data []byte) ([]byte, error) {
	return jcs.Transform(data)
}

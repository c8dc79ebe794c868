// Package compression abstracts the codec used for page and draft bodies at rest.
package compression

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

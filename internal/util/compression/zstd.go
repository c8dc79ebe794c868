package compression

import "github.com/klauspost/compress/zstd"

// ZstdCompressor is the default codec for page and draft bodies. The
// encoder and decoder are stateless in EncodeAll/DecodeAll mode and safe
// for concurrent use, so one of each is shared.
type ZstdCompressor struct{}

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

func (z ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, nil), nil
}

func (z ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(data, nil)
}

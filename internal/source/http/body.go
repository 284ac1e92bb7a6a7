package http

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdDec is a concurrent-safe zstd decoder shared by all fetches.
var zstdDec *zstd.Decoder

func init() {
	var err error
	zstdDec, err = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(64<<20), // 64 MB
	)
	if err != nil {
		panic("source/http: init zstd decoder: " + err.Error())
	}
}

// readBody reads and decompresses a response body based on its
// Content-Encoding. Festival feeds are static files behind whatever
// server the organizers had handy, so gzip, zstd, and identity all show
// up in practice. The returned bytes are limited to maxBytes of
// decompressed output.
func readBody(body io.Reader, contentEncoding string, maxBytes int64) ([]byte, error) {
	switch contentEncoding {
	case "zstd":
		compressed, err := io.ReadAll(io.LimitReader(body, maxBytes))
		if err != nil {
			return nil, fmt.Errorf("read compressed body: %w", err)
		}
		decompressed, err := zstdDec.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress zstd body: %w", err)
		}
		return decompressed, nil

	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer func() { _ = gz.Close() }()
		return io.ReadAll(io.LimitReader(gz, maxBytes))

	case "", "identity":
		return io.ReadAll(io.LimitReader(body, maxBytes))

	default:
		return nil, fmt.Errorf("unsupported Content-Encoding: %q", contentEncoding)
	}
}

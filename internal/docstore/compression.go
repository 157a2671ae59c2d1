package docstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm applied to encoded documents.
type Compression uint8

const (
	// CompressionNone stores documents as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd (better ratio).
	CompressionZstd Compression = 2
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses the String form of a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("docstore: unknown compression %q", s)
	}
}

// Values smaller than this are never compressed.
const minCompressSize = 64

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress frames body as [tag][uvarint rawLen][payload]. If compression
// does not save at least 10% the body is stored uncompressed.
func compress(body []byte, c Compression) ([]byte, error) {
	if c == CompressionNone || len(body) < minCompressSize {
		return frameRaw(body), nil
	}

	var packed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(body)))
		n, err := lz4.CompressBlock(body, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n] // n == 0 means incompressible
	case CompressionZstd:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(body, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("docstore: unknown compression %d", c)
	}

	if len(packed) == 0 || float64(len(packed)) > float64(len(body))*0.9 {
		return frameRaw(body), nil
	}

	out := make([]byte, 0, 1+binary.MaxVarintLen32+len(packed))
	out = append(out, byte(c))
	out = binary.AppendUvarint(out, uint64(len(body)))
	return append(out, packed...), nil
}

func frameRaw(body []byte) []byte {
	out := make([]byte, 0, 1+len(body))
	out = append(out, byte(CompressionNone))
	return append(out, body...)
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty value")
	}
	c := Compression(data[0])
	data = data[1:]
	if c == CompressionNone {
		return data, nil
	}

	rawLen, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, errors.New("bad length header")
	}
	data = data[n:]

	switch c {
	case CompressionLZ4:
		out := make([]byte, rawLen)
		m, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if uint64(m) != rawLen {
			return nil, errors.New("decompressed size mismatch")
		}
		return out, nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, err
		}
		if uint64(len(out)) != rawLen {
			return nil, errors.New("decompressed size mismatch")
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression tag %d", c)
	}
}

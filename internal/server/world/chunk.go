package world

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zlib"

	"github.com/OCharnyshevich/voxelsrv/pkg/world/gen"
)

// EncodeChunk serializes a chunk's block array for the wire: little-endian
// uint16 per block in [x][y][z] order, zlib-compressed when compress is set.
func EncodeChunk(c *gen.Chunk, compress bool) ([]byte, error) {
	raw := c.Bytes()
	if !compress {
		return raw, nil
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("create zlib writer: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress chunk: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish chunk compression: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeChunk reverses EncodeChunk.
func DecodeChunk(pos gen.ChunkPos, data []byte, compressed bool) (*gen.Chunk, error) {
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open zlib stream: %w", err)
		}
		defer zr.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(zr); err != nil {
			return nil, fmt.Errorf("decompress chunk: %w", err)
		}
		data = buf.Bytes()
	}
	c := gen.NewChunk(pos)
	if !c.LoadBytes(data) {
		return nil, fmt.Errorf("chunk payload is %d bytes, want %d", len(data), len(c.Blocks)*2)
	}
	return c, nil
}

package replaylog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// Compress encodes the log as brotli-compressed JSON for storage.
func Compress(l Log) ([]byte, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode replay log: %w", err)
	}
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("compress replay log: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress replay log: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress and validates the result.
func Decompress(data []byte) (Log, error) {
	raw, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decompress replay log: %w", err)
	}
	return Parse(raw)
}

package storage

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
)

// Stat blobs are stored gzip-compressed JSON; a raid-sized encounter carries
// tens of thousands of skill entries and the columns add up fast.

func compressJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(v); err != nil {
		return nil, fmt.Errorf("encode blob: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compress blob: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("open blob: %w", err)
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return fmt.Errorf("decompress blob: %w", err)
	}
	return json.Unmarshal(raw, v)
}

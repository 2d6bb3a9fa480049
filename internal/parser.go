package internal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxLineSize allows large payloads such as embedded tool output.
const maxLineSize = 8 * 1024 * 1024

// ParseRecords splits a transcript blob into JSONL records, preserving
// line order. Blank and whitespace-only lines are dropped. Any line that
// is not a valid JSON object aborts the whole parse with a
// MalformedRecordError naming the source and the 1-based line number.
// Gzip-compressed blobs are decompressed transparently.
func ParseRecords(source string, data []byte) ([]EventRecord, error) {
	data, err := maybeGunzip(source, data)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxLineSize)

	var records []EventRecord
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var record EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, &MalformedRecordError{Source: source, Line: lineNo, Err: err}
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, &MalformedRecordError{Source: source, Line: lineNo + 1, Err: err}
	}

	return records, nil
}

// gzipMagic is the two-byte header of every gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

func maybeGunzip(source string, data []byte) ([]byte, error) {
	compressed := strings.HasSuffix(source, ".gz") || bytes.HasPrefix(data, gzipMagic)
	if !compressed {
		return data, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream %s: %w", source, err)
	}
	defer reader.Close()

	plain, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", source, err)
	}
	return plain, nil
}

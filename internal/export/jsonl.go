package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/transcriptd/transcriptd/internal"
)

// JSONLExporter exports timelines in JSONL format (one record per line)
type JSONLExporter struct{}

// Export writes every merged record as one JSON line, in timeline order.
// Records keep their passthrough fields plus the derived agentId.
func (e *JSONLExporter) Export(timeline *internal.Timeline, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i := range timeline.Records {
		if err := enc.Encode(&timeline.Records[i]); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

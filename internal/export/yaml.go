package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/transcriptd/transcriptd/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports timelines in YAML format
type YAMLExporter struct{}

// Export exports a timeline to YAML format. The timeline is round-tripped
// through its JSON form first so the passthrough record fields appear as
// structured YAML rather than raw byte blobs.
func (e *YAMLExporter) Export(timeline *internal.Timeline, w io.Writer) error {
	data, err := json.Marshal(timeline)
	if err != nil {
		return fmt.Errorf("failed to serialize timeline: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to rebuild timeline document: %w", err)
	}

	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(doc)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}

package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ExportFormat identifies session export files.
const ExportFormat = "waystone-session"

// exportHeader is the first JSON line inside the compressed stream. The
// body (the State) follows on the next line.
type exportHeader struct {
	Format    string    `json:"format"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Export writes a capture as a zstd-compressed file: one header line, one
// state line.
func Export(w io.Writer, state State) error {
	if err := state.Validate(); err != nil {
		return err
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("session export: %w", err)
	}

	header := exportHeader{
		Format:    ExportFormat,
		Version:   StateVersion,
		CreatedAt: time.Now().UTC(),
	}
	for _, line := range []any{header, state} {
		payload, err := json.Marshal(line)
		if err != nil {
			enc.Close()
			return fmt.Errorf("session export: %w", err)
		}
		if _, err := enc.Write(append(payload, '\n')); err != nil {
			enc.Close()
			return fmt.Errorf("session export: %w", err)
		}
	}
	return enc.Close()
}

// Import reads an export file, checking format and version before
// decoding the state.
func Import(r io.Reader) (State, error) {
	var zero State
	dec, err := zstd.NewReader(r)
	if err != nil {
		return zero, fmt.Errorf("session import: %w", err)
	}
	defer dec.Close()

	lines := bufio.NewReader(dec)
	headerLine, err := lines.ReadBytes('\n')
	if err != nil {
		return zero, fmt.Errorf("session import: read header: %w", err)
	}
	var header exportHeader
	if err := json.Unmarshal(headerLine, &header); err != nil {
		return zero, fmt.Errorf("session import: decode header: %w", err)
	}
	if header.Format != ExportFormat {
		return zero, fmt.Errorf("session import: not a session export (format %q)", header.Format)
	}
	if header.Version != StateVersion {
		return zero, fmt.Errorf("session import: unsupported version %d (supported: %d)", header.Version, StateVersion)
	}

	body, err := io.ReadAll(lines)
	if err != nil {
		return zero, fmt.Errorf("session import: read state: %w", err)
	}
	var state State
	if err := json.Unmarshal(body, &state); err != nil {
		return zero, fmt.Errorf("session import: decode state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return zero, fmt.Errorf("session import: %w", err)
	}
	return state, nil
}

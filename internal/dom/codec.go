// internal/dom/codec.go
package dom

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot is the on-disk form of one captured observation: the raw tree
// plus enough page metadata to make stored files self-describing.
type Snapshot struct {
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	CapturedAt string `json:"capturedAt,omitempty"` // RFC 3339
	// SessionID parametrizes the session-scoped exclusion attribute the
	// serializer honors for this snapshot.
	SessionID string `json:"sessionId,omitempty"`
	Root      *Node  `json:"root"`
}

// DecodeSnapshot reads a stored snapshot from r.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Root == nil {
		return nil, fmt.Errorf("snapshot has no root node")
	}
	return &snap, nil
}

// EncodeSnapshot writes snap to w as indented JSON.
func EncodeSnapshot(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot file from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()
	return DecodeSnapshot(f)
}

// SaveSnapshot writes a snapshot file to disk, creating or truncating it.
func SaveSnapshot(path string, snap *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()
	return EncodeSnapshot(f, snap)
}

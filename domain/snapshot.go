package domain

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// SnapshotTask is the persisted form of a task. Task IDs are not part of
// the wire format; fresh ones are minted on rebuild.
type SnapshotTask struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
}

// Snapshot is the serialized representation of the entire board, keyed by
// column id with tasks in display order. It is the sole unit of
// persistence: written whole after every mutation, read once at startup.
type Snapshot map[string][]SnapshotTask

// CaptureSnapshot reads the full board into a snapshot. The result is
// total: every layout column appears, empty ones as an empty list, so a
// later rebuild clears exactly what the snapshot names.
func CaptureSnapshot(b *Board) Snapshot {
	snap := make(Snapshot, len(displayOrder))
	for _, columnID := range displayOrder {
		tasks := b.Tasks(columnID)
		st := make([]SnapshotTask, 0, len(tasks))
		for _, t := range tasks {
			st = append(st, SnapshotTask{Title: t.Title, Description: t.Description})
		}
		snap[columnID] = st
	}
	return snap
}

// Marshal encodes the snapshot as JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	return sonic.ConfigStd.Marshal(s)
}

// UnmarshalSnapshot decodes persisted snapshot bytes. A decode failure is
// recoverable: callers reset to an empty board rather than crash.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := sonic.ConfigStd.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

package index

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Snapshot is the serialized form of the whole index: one entry per term
// plus the retained document texts and token counts the postings cannot
// rederive.
type Snapshot struct {
	Terms      []TermEntry       `json:"terms"`
	Docs       map[string]string `json:"docs"`
	DocLengths map[string]int    `json:"doc_lengths"`
	BuiltAt    time.Time         `json:"built_at"`
}

// On-disk framing: magic, format version, and a CRC32 over the compressed
// payload. Anything that fails validation is treated as absent, never fatal.
const (
	snapshotMagic   uint32 = 0x53445831 // "SDX1"
	snapshotVersion uint32 = 1
	headerSize             = 12
)

// ErrCorruptSnapshot reports an unreadable or failed-validation index file.
var ErrCorruptSnapshot = errors.New("corrupt index snapshot")

// WriteSnapshot serializes the snapshot as zstd-compressed JSON and writes
// it atomically (tmp file plus rename) to path.
func WriteSnapshot(path string, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(payload, nil)
	enc.Close()

	buf := make([]byte, headerSize, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(buf[0:4], snapshotMagic)
	binary.LittleEndian.PutUint32(buf[4:8], snapshotVersion)
	binary.LittleEndian.PutUint32(buf[8:12], crc32.ChecksumIEEE(compressed))
	buf = append(buf, compressed...)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf, 0644); err != nil {
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads and validates a snapshot file. Missing files return
// os.ErrNotExist; corrupt or incompatible files return ErrCorruptSnapshot.
// Callers fall back to an empty index in either case.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: truncated header", ErrCorruptSnapshot)
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrCorruptSnapshot, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, version)
	}
	compressed := data[headerSize:]
	if checksum := binary.LittleEndian.Uint32(data[8:12]); checksum != crc32.ChecksumIEEE(compressed) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()
	payload, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return &snap, nil
}

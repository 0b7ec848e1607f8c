package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"serpent/internal/objgraph"
)

// nodeRecord is the wire shape of one object node: a 6-element ordered
// tuple. The blank _msgpack field forces vmihailenco's array-not-map
// struct encoding, so each record serializes compactly as a tuple rather
// than a field-named map.
type nodeRecord struct {
	_msgpack    struct{} `msgpack:",as_array"`
	Addr        uint64
	TypeID      uint32
	Size        uint32
	Flags       uint32
	Refs        []uint64
	ContentHash uint32
}

func toRecord(n objgraph.Node) nodeRecord {
	return nodeRecord{
		Addr:        n.Addr,
		TypeID:      n.TypeID,
		Size:        n.Size,
		Flags:       n.Flags,
		Refs:        n.Refs,
		ContentHash: n.ContentHash,
	}
}

func (r nodeRecord) toNode() objgraph.Node {
	return objgraph.Node{
		Addr:        r.Addr,
		TypeID:      r.TypeID,
		Size:        r.Size,
		Flags:       r.Flags,
		Refs:        r.Refs,
		ContentHash: r.ContentHash,
	}
}

// Serialize writes the header as 20 raw little-endian bytes followed by a
// zstd-compressed msgpack encoding of the graph.
func Serialize(s *Snapshot, w io.Writer) error {
	if s == nil {
		return fmt.Errorf("snapshot: cannot serialize a nil snapshot")
	}

	var headerBuf [HeaderSize]byte
	binary.LittleEndian.PutUint64(headerBuf[0:8], s.header.EpochMS)
	binary.LittleEndian.PutUint32(headerBuf[8:12], s.header.PyMajor)
	binary.LittleEndian.PutUint32(headerBuf[12:16], s.header.PyMinor)
	binary.LittleEndian.PutUint32(headerBuf[16:20], s.header.NodeCount)
	if _, err := w.Write(headerBuf[:]); err != nil {
		return fmt.Errorf("snapshot: writing header: %w", err)
	}

	records := make(map[uint64]nodeRecord, s.graph.Len())
	for addr, node := range s.graph.Nodes {
		records[addr] = toRecord(node)
	}

	payload, err := msgpack.Marshal(records)
	if err != nil {
		return fmt.Errorf("snapshot: encoding graph: %w", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("snapshot: creating compressor: %w", err)
	}
	if _, err := enc.Write(payload); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: compressing payload: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("snapshot: closing compressor: %w", err)
	}
	return nil
}

// Deserialize reverses Serialize: reads the 20-byte header, decompresses
// the remainder, and decodes the node map. Any short read, decompression
// failure, or structural decode error is a failure (nil, error). The
// returned Snapshot's header is exactly what was read from the stream —
// node_count is taken from the header bytes, not recomputed from the
// decoded graph; a caller that cares about drift between the two can
// compare header.NodeCount against snapshot.Graph().Len() itself.
func Deserialize(r io.Reader) (*Snapshot, error) {
	var headerBuf [HeaderSize]byte
	if _, err := io.ReadFull(r, headerBuf[:]); err != nil {
		return nil, fmt.Errorf("snapshot: short header read: %w", err)
	}
	header := Header{
		EpochMS:   binary.LittleEndian.Uint64(headerBuf[0:8]),
		PyMajor:   binary.LittleEndian.Uint32(headerBuf[8:12]),
		PyMinor:   binary.LittleEndian.Uint32(headerBuf[12:16]),
		NodeCount: binary.LittleEndian.Uint32(headerBuf[16:20]),
	}

	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading payload: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: creating decompressor: %w", err)
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decompressing payload: %w", err)
	}

	var records map[uint64]nodeRecord
	if err := msgpack.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("snapshot: decoding graph: %w", err)
	}

	graph := objgraph.New()
	for addr, rec := range records {
		graph.Nodes[addr] = rec.toNode()
	}

	return &Snapshot{header: header, graph: graph}, nil
}

// WriteFile serializes s to path, truncating any existing file.
func WriteFile(s *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", path, err)
	}
	defer f.Close()
	return Serialize(s, f)
}

// ReadFile deserializes the snapshot stored at path. A missing file
// returns (nil, nil) rather than an error, matching the rest of this
// package's null-on-absence convention; any other open failure is wrapped
// and returned as an error.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: opening %s: %w", path, err)
	}
	defer f.Close()
	return Deserialize(f)
}

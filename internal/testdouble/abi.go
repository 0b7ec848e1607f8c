package testdouble

import (
	"encoding/binary"

	"serpent/internal/procreader"
	"serpent/internal/typepool"
)

// DecoderHeadSize is the fixed header size testdouble.Decoder uses: an
// 8-byte marker so ObTypeFromHead has something to extract, followed by an
// 8-byte type-object address.
const DecoderHeadSize = 16

// object is a synthetic object installed into a Decoder's catalogue.
type object struct {
	typeAddr uint64
	typeName string
	size     uint32
	flags    uint32
	refs     []uint64
	content  []byte
}

// Decoder is an in-memory abi.Decoder. Tests register fake objects keyed by
// address with AddObject, then point a Reader at the same addresses with
// WriteTo so Builder.validate's reads succeed. typeObjects lists which
// addresses are themselves type objects (IsTypeObject truth table), the
// direct analogue of MockPythonABI's programmable "is_type_object" behavior.
type Decoder struct {
	pool             *typepool.Pool
	objects          map[uint64]object
	typeObjects      map[uint64]bool
	typeNameByAddr   map[uint64]string // type addr -> type name
	roots            []uint64
	headSizeOverride int
	headSizeForced   bool
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		pool:           typepool.New(),
		objects:        make(map[uint64]object),
		typeObjects:    make(map[uint64]bool),
		typeNameByAddr: make(map[uint64]string),
	}
}

// AddObject registers a synthetic object at addr with the given type
// object address, type name, size, flags, outgoing references, and content
// bytes (used for ContentHash). typeAddr is marked as a valid type object
// automatically.
func (d *Decoder) AddObject(addr, typeAddr uint64, typeName string, size uint32, flags uint32, refs []uint64, content []byte) {
	d.objects[addr] = object{typeAddr: typeAddr, typeName: typeName, size: size, flags: flags, refs: refs, content: content}
	d.typeObjects[typeAddr] = true
	d.typeNameByAddr[typeAddr] = typeName
}

// SetRoots installs the BFS root addresses this Decoder reports.
func (d *Decoder) SetRoots(roots []uint64) {
	d.roots = roots
}

// WriteTo installs, for every registered object, the bytes a Builder would
// need to read from reader: a head buffer (marker + type addr) at the
// object's own address. Call this after all AddObject calls.
func (d *Decoder) WriteTo(r *Reader) {
	for addr, obj := range d.objects {
		head := make([]byte, DecoderHeadSize)
		binary.LittleEndian.PutUint64(head[0:8], 0xFEEDFACE)
		binary.LittleEndian.PutUint64(head[8:16], obj.typeAddr)
		r.SetBytes(addr, head)
	}
}

func (d *Decoder) HeadSize() int {
	if d.headSizeForced {
		return d.headSizeOverride
	}
	return DecoderHeadSize
}

// ForceHeadSize overrides HeadSize(), including to 0, to exercise the Graph
// Builder's fatal-configuration-error path.
func (d *Decoder) ForceHeadSize(n int) {
	d.headSizeOverride = n
	d.headSizeForced = true
}

func (d *Decoder) ObTypeFromHead(head []byte) uint64 {
	if len(head) < DecoderHeadSize {
		return 0
	}
	return binary.LittleEndian.Uint64(head[8:16])
}

func (d *Decoder) IsTypeObject(typeAddr uint64, r procreader.Reader) bool {
	return d.typeObjects[typeAddr]
}

func (d *Decoder) TypeName(objAddr uint64, r procreader.Reader) string {
	obj, ok := d.objects[objAddr]
	if !ok {
		return "<err:unknown>"
	}
	return obj.typeName
}

func (d *Decoder) TypeIDFromTypeAddr(typeAddr uint64, r procreader.Reader) uint32 {
	name, ok := d.typeNameByAddr[typeAddr]
	if !ok {
		return typepool.SentinelUnknown
	}
	return d.pool.IDByName(name)
}

func (d *Decoder) ObjectSize(objAddr, typeAddr uint64, r procreader.Reader) int {
	if obj, ok := d.objects[objAddr]; ok {
		return int(obj.size)
	}
	return 0
}

func (d *Decoder) ObjectFlags(objAddr uint64, head []byte, r procreader.Reader) uint32 {
	if obj, ok := d.objects[objAddr]; ok {
		return obj.flags
	}
	return 0
}

func (d *Decoder) References(objAddr, typeAddr uint64, r procreader.Reader) []uint64 {
	if obj, ok := d.objects[objAddr]; ok {
		return obj.refs
	}
	return nil
}

func (d *Decoder) ContentHash(objAddr uint64, size int, r procreader.Reader, nBytes int) uint32 {
	obj, ok := d.objects[objAddr]
	if !ok || len(obj.content) == 0 {
		return 0
	}
	n := nBytes
	if len(obj.content) < n {
		n = len(obj.content)
	}
	// FNV-1a: deterministic and dependency-free, appropriate for a test
	// double that only needs a stable fingerprint, not production hash
	// quality (the real cpython310.Decoder uses xxhash; see DESIGN.md).
	var h uint32 = 2166136261
	for _, b := range obj.content[:n] {
		h ^= uint32(b)
		h *= 16777619
	}
	return h
}

func (d *Decoder) BFSRoots(r procreader.Reader) []uint64 { return d.roots }

func (d *Decoder) VersionString() string { return "test" }
func (d *Decoder) Major() int            { return 0 }
func (d *Decoder) Minor() int            { return 0 }

func (d *Decoder) IDByName(name string) uint32         { return d.pool.IDByName(name) }
func (d *Decoder) NameFromID(id uint32) (string, bool) { return d.pool.NameFromID(id) }
func (d *Decoder) Clear()                              { d.pool.Clear() }

package cpython310_test

import (
	"encoding/binary"
	"testing"

	"serpent/internal/abi/cpython310"
	"serpent/internal/procreader/selfreader"
)

// buildWidget maps a minimal CPython-3.10-shaped type object and instance
// into reader, with the instance body holding two word-sized candidate
// references: one to the type's tp_name buffer, one to the instance itself.
func buildWidget(reader *selfreader.Reader) (typeAddr, objAddr uint64) {
	name := []byte("widget\x00")

	typeObj := make([]byte, 176)
	binary.LittleEndian.PutUint64(typeObj[24:32], selfreader.AddrOf(name)) // tp_name
	binary.LittleEndian.PutUint64(typeObj[32:40], 32)                     // tp_basicsize
	binary.LittleEndian.PutUint64(typeObj[40:48], 0)                      // tp_itemsize
	binary.LittleEndian.PutUint64(typeObj[168:176], uint64(1)<<31)        // tp_flags

	obj := make([]byte, 32)
	typeAddr = selfreader.AddrOf(typeObj)
	binary.LittleEndian.PutUint64(obj[0:8], 1)         // ob_refcnt
	binary.LittleEndian.PutUint64(obj[8:16], typeAddr) // ob_type

	reader.Map(selfreader.AddrOf(name), name)
	reader.Map(typeAddr, typeObj)
	objAddr = selfreader.AddrOf(obj)
	reader.Map(objAddr, obj)

	// Fill the body (two words past the 16-byte head) after objAddr is
	// known, since one candidate points back at the object itself.
	binary.LittleEndian.PutUint64(obj[16:24], selfreader.AddrOf(name))
	binary.LittleEndian.PutUint64(obj[24:32], objAddr)
	return typeAddr, objAddr
}

func TestReferencesFindsBothCandidateWords(t *testing.T) {
	reader := selfreader.New()
	reader.Attach(0)
	typeAddr, objAddr := buildWidget(reader)

	decoder := cpython310.New(nil)
	refs := decoder.References(objAddr, typeAddr, reader)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d: %v", len(refs), refs)
	}
}

func TestSetMaxScanWordsBoundsTheScan(t *testing.T) {
	reader := selfreader.New()
	reader.Attach(0)
	typeAddr, objAddr := buildWidget(reader)

	decoder := cpython310.New(nil)
	decoder.SetMaxScanWords(1)
	refs := decoder.References(objAddr, typeAddr, reader)
	if len(refs) != 1 {
		t.Fatalf("expected the scan cap to limit references to 1, got %d: %v", len(refs), refs)
	}
}

func TestSetMaxScanWordsIgnoresNonPositiveValues(t *testing.T) {
	reader := selfreader.New()
	reader.Attach(0)
	typeAddr, objAddr := buildWidget(reader)

	decoder := cpython310.New(nil)
	decoder.SetMaxScanWords(0)
	decoder.SetMaxScanWords(-5)
	refs := decoder.References(objAddr, typeAddr, reader)
	if len(refs) != 2 {
		t.Fatalf("expected non-positive overrides to be ignored, got %d refs", len(refs))
	}
}

func TestTypeIDFromTypeAddrInternsAndCaches(t *testing.T) {
	reader := selfreader.New()
	reader.Attach(0)
	typeAddr, _ := buildWidget(reader)

	decoder := cpython310.New(nil)
	id1 := decoder.TypeIDFromTypeAddr(typeAddr, reader)
	id2 := decoder.TypeIDFromTypeAddr(typeAddr, reader)
	if id1 != id2 {
		t.Fatalf("expected stable type id across calls, got %d then %d", id1, id2)
	}
	name, ok := decoder.NameFromID(id1)
	if !ok || name != "widget" {
		t.Fatalf("expected resolved name %q, got %q (ok=%v)", "widget", name, ok)
	}
}

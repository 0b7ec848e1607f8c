package main

import (
	"context"
	"encoding/binary"
	"fmt"

	"serpent/internal/abi/cpython310"
	"serpent/internal/objgraph"
	"serpent/internal/procreader/selfreader"
)

// cmdSelftest builds a small, synthetic CPython-3.10-shaped object graph in
// this process's own memory and runs the real scanning pipeline (Builder +
// cpython310.Decoder) against it via selfreader, exercising the full
// decode path without requiring a live target process. It exits non-zero
// if the pipeline fails to recover the expected single object.
func cmdSelftest(args []string) error {
	name := []byte("selftest_widget\x00")

	typeObj := make([]byte, 176) // covers up to offTpFlags(168)+8
	binary.LittleEndian.PutUint64(typeObj[24:32], selfreader.AddrOf(name))  // tp_name
	binary.LittleEndian.PutUint64(typeObj[32:40], 48)                      // tp_basicsize
	binary.LittleEndian.PutUint64(typeObj[40:48], 0)                       // tp_itemsize
	binary.LittleEndian.PutUint64(typeObj[168:176], uint64(1)<<31)         // tp_flags: Py_TPFLAGS_TYPE_SUBCLASS

	obj := make([]byte, 48)
	typeAddr := selfreader.AddrOf(typeObj)
	binary.LittleEndian.PutUint64(obj[0:8], 1) // ob_refcnt
	binary.LittleEndian.PutUint64(obj[8:16], typeAddr)

	reader := selfreader.New()
	reader.Attach(0)
	reader.Map(selfreader.AddrOf(name), name)
	reader.Map(typeAddr, typeObj)
	objAddr := selfreader.AddrOf(obj)
	reader.Map(objAddr, obj)

	decoder := cpython310.New([]uint64{objAddr})
	graph, ok := objgraph.NewBuilder().Build(context.Background(), reader, decoder, nil)
	if !ok {
		return fmt.Errorf("selftest: build reported a fatal error")
	}
	node, found := graph.Get(objAddr)
	if !found {
		return fmt.Errorf("selftest: expected to recover object at %#x, found nothing", objAddr)
	}

	typeName, _ := decoder.NameFromID(node.TypeID)
	fmt.Printf("selftest OK: recovered 1 node at %#x, type=%q, size=%d\n", objAddr, typeName, node.Size)
	return nil
}

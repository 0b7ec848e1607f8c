package objgraph

import (
	"context"
	"log/slog"

	"serpent/internal/abi"
	"serpent/internal/config"
	"serpent/internal/procreader"
)

// pointerAlignment is the candidate-address stride used by the heuristic
// scan phase: the natural word size of a 64-bit target.
const pointerAlignment = 8

// Builder runs a two-phase acquisition algorithm: a heuristic
// alignment-walk scan over memory regions, followed by a root-seeded BFS
// expansion, sharing one `processed` address set and one output node map.
type Builder struct {
	// Logger receives Debug-level notes for skipped candidates and
	// Info-level phase summaries. Defaults to slog.Default() if nil.
	Logger *slog.Logger

	// MaxObjectSize and ContentHashBytes are the per-Builder knobs a
	// caller can tune; NewBuilder seeds them from this package's
	// defaults and NewBuilderWithConfig seeds them from a config.Config.
	MaxObjectSize    uint32
	ContentHashBytes int
}

// NewBuilder returns a Builder with the default logger and this
// package's default size clamp and hash width.
func NewBuilder() *Builder {
	return &Builder{
		MaxObjectSize:    MaxObjectSize,
		ContentHashBytes: ContentHashBytes,
	}
}

// NewBuilderWithConfig returns a Builder whose size clamp and hash width
// come from cfg, falling back to this package's defaults for zero fields.
func NewBuilderWithConfig(cfg config.Config) *Builder {
	b := NewBuilder()
	if cfg.MaxObjectSize > 0 {
		b.MaxObjectSize = cfg.MaxObjectSize
	}
	if cfg.ContentHashBytes > 0 {
		b.ContentHashBytes = cfg.ContentHashBytes
	}
	return b
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Build scans reader for objects recognized by decoder and returns the
// resulting graph. If regions is empty, reader.Regions() is queried.
//
// Build returns false only on a fatal configuration error: the decoder
// reporting a zero head size. All other failures (unreadable candidates,
// malformed headers, suspicious sizes) are absorbed locally and simply do
// not produce a node.
func (b *Builder) Build(ctx context.Context, reader procreader.Reader, decoder abi.Decoder, regions []procreader.MemRegion) (*Graph, bool) {
	log := b.logger()

	headSize := decoder.HeadSize()
	if headSize <= 0 {
		log.Error("objgraph: decoder reports zero head size", "version", decoder.VersionString())
		return nil, false
	}

	if len(regions) == 0 {
		scanned, err := reader.Regions()
		if err != nil {
			log.Error("objgraph: failed to enumerate regions", "err", err)
			return New(), true
		}
		regions = scanned
	}

	graph := New()
	processed := make(map[uint64]struct{})

	log.Info("objgraph: heuristic scan starting", "regions", len(regions), "head_size", headSize)
	b.scanRegions(ctx, reader, decoder, regions, headSize, graph, processed, log)
	log.Info("objgraph: heuristic scan finished", "nodes", graph.Len())

	roots := decoder.BFSRoots(reader)
	log.Info("objgraph: bfs expansion starting", "roots", len(roots))
	added := b.bfsExpand(ctx, reader, decoder, headSize, roots, graph, processed, log)
	log.Info("objgraph: bfs expansion finished", "nodes_added", added, "nodes_total", graph.Len())

	return graph, true
}

// scanRegions is the heuristic alignment-walk phase.
func (b *Builder) scanRegions(
	ctx context.Context,
	reader procreader.Reader,
	decoder abi.Decoder,
	regions []procreader.MemRegion,
	headSize int,
	graph *Graph,
	processed map[uint64]struct{},
	log *slog.Logger,
) {
	head := make([]byte, headSize)
	for _, region := range regions {
		for p := region.Start; p+uint64(headSize) <= region.End; p += pointerAlignment {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if _, seen := processed[p]; seen {
				continue
			}

			node, ok := b.validate(reader, decoder, p, head, log)
			if !ok {
				continue
			}
			graph.Nodes[p] = node
			processed[p] = struct{}{}
		}
	}
}

// bfsExpand is the root-seeded BFS expansion phase. It returns the number
// of nodes newly inserted by this phase.
func (b *Builder) bfsExpand(
	ctx context.Context,
	reader procreader.Reader,
	decoder abi.Decoder,
	headSize int,
	roots []uint64,
	graph *Graph,
	processed map[uint64]struct{},
	log *slog.Logger,
) int {
	queue := make([]uint64, 0, len(roots))
	for _, root := range roots {
		if _, seen := processed[root]; seen {
			continue
		}
		processed[root] = struct{}{}
		queue = append(queue, root)
	}

	head := make([]byte, headSize)
	added := 0

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return added
		default:
		}

		addr := queue[0]
		queue = queue[1:]

		if existing, ok := graph.Nodes[addr]; ok {
			queue = enqueueUnseen(queue, existing.Refs, processed)
			continue
		}

		node, ok := b.validate(reader, decoder, addr, head, log)
		if !ok {
			// Stays marked processed to avoid revisiting a dead end.
			continue
		}
		graph.Nodes[addr] = node
		added++
		queue = enqueueUnseen(queue, node.Refs, processed)
	}
	return added
}

func enqueueUnseen(queue []uint64, refs []uint64, processed map[uint64]struct{}) []uint64 {
	for _, ref := range refs {
		if _, seen := processed[ref]; seen {
			continue
		}
		processed[ref] = struct{}{}
		queue = append(queue, ref)
	}
	return queue
}

// validate runs the full head-read-through-content-hash pipeline against a
// single candidate address, reusing the caller's head buffer. It returns
// (Node{}, false) for any non-fatal validation failure; each failure is a
// silent skip. Unreadable heads, unresolved types and suspicious sizes are
// logged at Debug; a zero type pointer or a non-type-object is not logged.
func (b *Builder) validate(reader procreader.Reader, decoder abi.Decoder, addr uint64, head []byte, log *slog.Logger) (Node, bool) {
	if !reader.Read(addr, head) {
		log.Debug("objgraph: unreadable candidate", "addr", addr)
		return Node{}, false
	}

	typeAddr := decoder.ObTypeFromHead(head)
	if typeAddr == 0 {
		return Node{}, false
	}

	if !decoder.IsTypeObject(typeAddr, reader) {
		return Node{}, false
	}

	typeID := decoder.TypeIDFromTypeAddr(typeAddr, reader)
	if typeID == SentinelUnknown {
		log.Debug("objgraph: unresolved type", "addr", addr, "type_addr", typeAddr)
		return Node{}, false
	}

	size := decoder.ObjectSize(addr, typeAddr, reader)
	if size <= 0 || uint32(size) > b.MaxObjectSize {
		log.Debug("objgraph: suspicious size, skipping", "addr", addr, "size", size)
		return Node{}, false
	}

	flags := decoder.ObjectFlags(addr, head, reader)
	refs := decoder.References(addr, typeAddr, reader)
	hash := decoder.ContentHash(addr, size, reader, b.ContentHashBytes)

	return Node{
		Addr:        addr,
		TypeID:      typeID,
		Size:        uint32(size),
		Flags:       flags,
		Refs:        refs,
		ContentHash: hash,
	}, true
}

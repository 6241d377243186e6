package metadata

import (
	"encoding/json"
	"testing"
	"time"

	"bessgo/gate"
	"bessgo/module"
	"bessgo/pkt"
)

// stubModule is the minimal module.Module implementation the compiler
// tests wire into small graphs: gate and attribute bookkeeping come from
// module.Base, everything else is a no-op.
type stubModule struct {
	*module.Base
}

func newStub(name, class string, attrs []module.Attr) *stubModule {
	s := &stubModule{Base: module.NewBase(name, class, attrs)}
	s.SetOwner(s)
	return s
}

func (s *stubModule) Init(json.RawMessage) error                     { return nil }
func (s *stubModule) Deinit() error                                  { return nil }
func (s *stubModule) ProcessBatch(int, *pkt.Batch)                   {}
func (s *stubModule) RunTask(any) module.TaskResult                  { return module.TaskResult{} }
func (s *stubModule) GetDesc() string                                { return s.Name() }
func (s *stubModule) RunCommand(string, json.RawMessage) (any, error) { return nil, nil }

func connect(src *stubModule, oIdx int, dst *stubModule, iIdx int) {
	gate.Link(src.OGate(oIdx), dst.IGate(iIdx))
}

func TestCompile_WriterReaderChainSharesOffset(t *testing.T) {
	w := newStub("w0", "Writer", []module.Attr{{Name: "foo", Size: 4, Mode: module.AttrWrite}})
	r := newStub("r0", "Reader", []module.Attr{{Name: "foo", Size: 4, Mode: module.AttrRead}})
	connect(w, 0, r, 0)

	res := Compile([]module.Module{w, r}, nil)

	if len(res.Orphans) != 0 {
		t.Fatalf("unexpected orphans: %+v", res.Orphans)
	}
	wOff := w.AttrOffset(0)
	rOff := r.AttrOffset(0)
	if wOff < 0 || rOff < 0 {
		t.Fatalf("expected real offsets, got writer=%d reader=%d", wOff, rOff)
	}
	if wOff != rOff {
		t.Fatalf("writer and reader of the same scope must share an offset: %d != %d", wOff, rOff)
	}
}

func TestCompile_PassThroughModuleJoinsScope(t *testing.T) {
	w := newStub("w0", "Writer", []module.Attr{{Name: "foo", Size: 4, Mode: module.AttrWrite}})
	p := newStub("p0", "PassThrough", nil)
	r := newStub("r0", "Reader", []module.Attr{{Name: "foo", Size: 4, Mode: module.AttrRead}})
	connect(w, 0, p, 0)
	connect(p, 0, r, 0)

	res := Compile([]module.Module{w, p, r}, nil)
	if res.Components != 1 {
		t.Fatalf("expected exactly one scope component, got %d", res.Components)
	}
	if w.AttrOffset(0) != r.AttrOffset(0) {
		t.Fatalf("writer/reader offsets diverged across a pass-through hop")
	}
}

func TestCompile_UnreadWriteGetsNoWrite(t *testing.T) {
	w := newStub("w0", "Writer", []module.Attr{{Name: "foo", Size: 4, Mode: module.AttrWrite}})

	Compile([]module.Module{w}, nil)

	if got := w.AttrOffset(0); got != module.NoWrite {
		t.Fatalf("expected NoWrite for a never-read attribute, got %d", got)
	}
}

func TestCompile_OrphanReaderReported(t *testing.T) {
	r := newStub("r0", "Reader", []module.Attr{{Name: "bar", Size: 2, Mode: module.AttrRead}})

	res := Compile([]module.Module{r}, nil)

	if got := r.AttrOffset(0); got != module.NoRead {
		t.Fatalf("expected NoRead for an attribute with no upstream writer, got %d", got)
	}
	if len(res.Orphans) != 1 || res.Orphans[0].Attr != "bar" {
		t.Fatalf("expected one orphan warning for bar, got %+v", res.Orphans)
	}
}

func TestCompile_DisjointComponentsReuseOffset(t *testing.T) {
	// Two independent writer/reader pairs on different attribute names that
	// never touch the same module: their byte ranges may overlap.
	w1 := newStub("w1", "Writer", []module.Attr{{Name: "a", Size: 4, Mode: module.AttrWrite}})
	r1 := newStub("r1", "Reader", []module.Attr{{Name: "a", Size: 4, Mode: module.AttrRead}})
	connect(w1, 0, r1, 0)

	w2 := newStub("w2", "Writer", []module.Attr{{Name: "b", Size: 4, Mode: module.AttrWrite}})
	r2 := newStub("r2", "Reader", []module.Attr{{Name: "b", Size: 4, Mode: module.AttrRead}})
	connect(w2, 0, r2, 0)

	Compile([]module.Module{w1, r1, w2, r2}, nil)

	if w1.AttrOffset(0) != w2.AttrOffset(0) {
		t.Fatalf("disjoint scope components should be free to share an offset: %d vs %d",
			w1.AttrOffset(0), w2.AttrOffset(0))
	}
}

func TestCompile_OverlappingComponentsGetDistinctOffsets(t *testing.T) {
	// w1's "a" passes through w2 and shared on its way to r1, and w2's "b"
	// passes through shared on its way to r2, so the two components share
	// modules and must not overlap in byte range.
	w1 := newStub("w1", "Writer", []module.Attr{{Name: "a", Size: 4, Mode: module.AttrWrite}})
	w2 := newStub("w2", "Writer", []module.Attr{{Name: "b", Size: 4, Mode: module.AttrWrite}})
	shared := newStub("shared", "PassThrough", nil)
	r1 := newStub("r1", "Reader", []module.Attr{{Name: "a", Size: 4, Mode: module.AttrRead}})
	r2 := newStub("r2", "Reader", []module.Attr{{Name: "b", Size: 4, Mode: module.AttrRead}})

	connect(w1, 0, w2, 0)
	connect(w2, 0, shared, 0)
	connect(shared, 0, r1, 0)
	connect(shared, 1, r2, 0)

	Compile([]module.Module{w1, w2, shared, r1, r2}, nil)

	off1 := w1.AttrOffset(0)
	off2 := w2.AttrOffset(0)
	if off1 == off2 {
		t.Fatalf("overlapping scope components must not share an offset, both got %d", off1)
	}
	if off1+4 > off2 && off2+4 > off1 {
		t.Fatalf("assigned ranges overlap: [%d,%d) and [%d,%d)", off1, off1+4, off2, off2+4)
	}
}

func TestCompile_UpdateOnlyProducerFeedsDownstreamReader(t *testing.T) {
	// No module writes "foo" with AttrWrite; the only producer is an
	// AttrUpdate module. Per the update-counts-as-both-read-and-write rule,
	// the downstream reader must resolve to a real offset, not NO_READ.
	upd := newStub("upd0", "Updater", []module.Attr{{Name: "foo", Size: 4, Mode: module.AttrUpdate}})
	r := newStub("r0", "Reader", []module.Attr{{Name: "foo", Size: 4, Mode: module.AttrRead}})
	connect(upd, 0, r, 0)

	res := Compile([]module.Module{upd, r}, nil)

	if len(res.Orphans) != 0 {
		t.Fatalf("unexpected orphans for an update-fed reader: %+v", res.Orphans)
	}
	if upd.AttrOffset(0) < 0 || r.AttrOffset(0) < 0 {
		t.Fatalf("expected real offsets, got updater=%d reader=%d", upd.AttrOffset(0), r.AttrOffset(0))
	}
	if upd.AttrOffset(0) != r.AttrOffset(0) {
		t.Fatalf("updater and reader must share an offset: %d != %d", upd.AttrOffset(0), r.AttrOffset(0))
	}
}

func TestCompile_UpdateOnlyProducerSeedsComponentUpstream(t *testing.T) {
	// Compile's top-level IsWriter scan seeds the component from the Update
	// module; traverseDownstream reaches the reader across a pass-through
	// hop, and traverseUpstream walks back to the Update module.
	upd := newStub("upd0", "Updater", []module.Attr{{Name: "foo", Size: 4, Mode: module.AttrUpdate}})
	p := newStub("p0", "PassThrough", nil)
	r := newStub("r0", "Reader", []module.Attr{{Name: "foo", Size: 4, Mode: module.AttrRead}})
	connect(upd, 0, p, 0)
	connect(p, 0, r, 0)

	res := Compile([]module.Module{upd, p, r}, nil)

	if len(res.Orphans) != 0 {
		t.Fatalf("unexpected orphans: %+v", res.Orphans)
	}
	if upd.AttrOffset(0) != r.AttrOffset(0) {
		t.Fatalf("updater and reader must share an offset across a pass-through hop: %d != %d",
			upd.AttrOffset(0), r.AttrOffset(0))
	}
}

func TestCompile_CyclicGraphTerminates(t *testing.T) {
	// A reads/writes the same attribute (UPDATE) and feeds back into itself
	// through a passthrough module, forming a genuine cycle. The compiler
	// must terminate rather than loop forever retraversing the same nodes.
	w := newStub("w0", "Writer", []module.Attr{{Name: "x", Size: 4, Mode: module.AttrWrite}})
	loop := newStub("loop0", "PassThrough", nil)
	upd := newStub("upd0", "Updater", []module.Attr{{Name: "x", Size: 4, Mode: module.AttrUpdate}})

	connect(w, 0, loop, 0)
	connect(loop, 0, upd, 0)
	connect(upd, 0, loop, 1) // back edge: closes the cycle loop <-> upd

	done := make(chan Result, 1)
	go func() {
		done <- Compile([]module.Module{w, loop, upd}, nil)
	}()

	select {
	case res := <-done:
		if upd.AttrOffset(0) < 0 {
			t.Fatalf("expected updater to receive a real offset, got %d (orphans=%+v)", upd.AttrOffset(0), res.Orphans)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Compile did not terminate on a cyclic graph")
	}
}

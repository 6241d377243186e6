// Package l2forward implements the exact-match MAC-forwarding leaf module:
// read a packet's destination MAC, look it up in an l2.Table, and forward
// via RunSplit to the matching output gate (or the configured default gate
// on a miss).
package l2forward

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"bessgo/errors"
	"bessgo/gate"
	"bessgo/l2"
	"bessgo/logging"
	"bessgo/module"
	"bessgo/pkt"
)

const (
	defaultTableSize = 1024
	defaultBucket    = l2.MaxBucket
)

// Config is the JSON configuration document for one l2forward instance.
type Config struct {
	Size   int `json:"size"`
	Bucket int `json:"bucket"`
}

// Module is the L2Forward leaf: exact-match MAC forwarding.
type Module struct {
	*module.Base

	mu          sync.RWMutex
	table       *l2.Table
	defaultGate int
}

// New constructs an uninitialized l2forward instance under the given
// pipeline-unique name.
func New(name string) *Module {
	attrs := []module.Attr{} // l2forward declares no shared metadata attributes
	m := &Module{Base: module.NewBase(name, "L2Forward", attrs), defaultGate: gate.DropGate}
	m.SetOwner(m)
	return m
}

// Commands is the static command-table entry this class publishes to the
// builder registry and CLI introspection. "clear" routes to a dedicated
// flush handler — kept as its own CommandSpec entry rather than aliased
// onto "add", since a table-wide flush and a single insert are different
// operations with different argument shapes.
var Commands = module.CommandTable{
	{Name: "add"},
	{Name: "delete"},
	{Name: "set_default_gate"},
	{Name: "lookup"},
	{Name: "populate"},
	{Name: "clear"},
}

// Init allocates the backing cuckoo table.
func (m *Module) Init(config json.RawMessage) error {
	log := logging.WithModule(logging.Default(), m.Name())

	var cfg Config
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err != nil {
			log.Error("init failed: invalid config", "error", err)
			return errors.WrapWithModule(err, errors.ErrInvalidArg, "l2forward.Init", m.Name())
		}
	}
	if cfg.Size == 0 {
		cfg.Size = defaultTableSize
	}
	if cfg.Bucket == 0 {
		cfg.Bucket = defaultBucket
	}

	tbl, err := l2.New(cfg.Size, cfg.Bucket)
	if err != nil {
		log.Error("init failed: could not allocate l2 table", "error", err)
		return errors.WrapWithModule(err, errors.ErrInvalidArg, "l2forward.Init", m.Name())
	}
	m.mu.Lock()
	m.table = tbl
	m.defaultGate = gate.DropGate
	m.mu.Unlock()
	return nil
}

// Deinit releases the table.
func (m *Module) Deinit() error {
	m.mu.Lock()
	m.table = nil
	m.mu.Unlock()
	return nil
}

// GetDesc reports the table's current occupancy.
func (m *Module) GetDesc() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.table == nil {
		return "l2forward: uninitialized"
	}
	return fmt.Sprintf("l2forward: %d entries", m.table.Count())
}

// ProcessBatch reads each packet's destination MAC (the first six bytes of
// the frame) and routes it via RunSplit to its looked-up gate, or the
// default gate on a miss.
func (m *Module) ProcessBatch(_ int, batch *pkt.Batch) {
	m.mu.RLock()
	tbl := m.table
	def := m.defaultGate
	m.mu.RUnlock()

	gates := make([]int, batch.Cnt())
	for i, p := range batch.Pkts() {
		gates[i] = def
		head := p.HeadData()
		if len(head) < 6 || tbl == nil {
			continue
		}
		addr := macToUint64(head[:6])
		if g, err := tbl.Lookup(addr); err == nil {
			gates[i] = int(g)
		}
	}
	m.RunSplit(gates, batch)
}

// RunTask is a no-op: l2forward is a pass-through module, never a
// scheduler-driven source.
func (m *Module) RunTask(any) module.TaskResult { return module.TaskResult{} }

// RunCommand dispatches a named control-plane command.
func (m *Module) RunCommand(name string, arg json.RawMessage) (any, error) {
	switch name {
	case "add":
		return m.commandAdd(arg)
	case "delete":
		return m.commandDelete(arg)
	case "set_default_gate":
		return m.commandSetDefaultGate(arg)
	case "lookup":
		return m.commandLookup(arg)
	case "populate":
		return m.commandPopulate(arg)
	case "clear":
		return m.commandClear(arg)
	default:
		return nil, errors.New(errors.ErrInvalidArg, "l2forward.RunCommand", "unknown command: "+name)
	}
}

type addEntry struct {
	Addr string `json:"addr"`
	Gate int    `json:"gate"`
}

func (m *Module) commandAdd(arg json.RawMessage) (any, error) {
	var entries []addEntry
	if err := json.Unmarshal(arg, &entries); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidArg, "l2forward.add")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		addr, err := parseMAC(e.Addr)
		if err != nil {
			return nil, err
		}
		if err := m.table.Insert(addr, uint16(e.Gate)); err != nil {
			return nil, errors.WrapWithDetail(err, kindOf(err), "l2forward.add", e.Addr)
		}
	}
	return nil, nil
}

func (m *Module) commandDelete(arg json.RawMessage) (any, error) {
	var addrs []string
	if err := json.Unmarshal(arg, &addrs); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidArg, "l2forward.delete")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range addrs {
		addr, err := parseMAC(s)
		if err != nil {
			return nil, err
		}
		if err := m.table.Delete(addr); err != nil {
			return nil, errors.WrapWithDetail(err, kindOf(err), "l2forward.delete", s)
		}
	}
	return nil, nil
}

func (m *Module) commandSetDefaultGate(arg json.RawMessage) (any, error) {
	var g int
	if err := json.Unmarshal(arg, &g); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidArg, "l2forward.set_default_gate")
	}
	m.mu.Lock()
	m.defaultGate = g
	m.mu.Unlock()
	return nil, nil
}

func (m *Module) commandLookup(arg json.RawMessage) (any, error) {
	var addrs []string
	if err := json.Unmarshal(arg, &addrs); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidArg, "l2forward.lookup")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	gates := make([]int, 0, len(addrs))
	for _, s := range addrs {
		addr, err := parseMAC(s)
		if err != nil {
			return nil, err
		}
		g, err := m.table.Lookup(addr)
		if err != nil {
			logging.WithModule(logging.Default(), m.Name()).Warn("lookup miss", "addr", s)
			return nil, errors.WrapWithDetail(err, kindOf(err), "l2forward.lookup", s)
		}
		gates = append(gates, int(g))
	}
	return gates, nil
}

type populateArg struct {
	Base      string `json:"base"`
	Count     int    `json:"count"`
	GateCount int    `json:"gate_count"`
}

// commandPopulate inserts Count consecutive MACs starting at Base,
// round-robin across GateCount gates.
func (m *Module) commandPopulate(arg json.RawMessage) (any, error) {
	var p populateArg
	if err := json.Unmarshal(arg, &p); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidArg, "l2forward.populate")
	}
	base, err := parseMAC(p.Base)
	if err != nil {
		return nil, err
	}
	if p.GateCount <= 0 {
		return nil, errors.New(errors.ErrInvalidArg, "l2forward.populate", "gate_count must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < p.Count; i++ {
		_ = m.table.Insert(base+uint64(i), uint16(i%p.GateCount))
	}
	return nil, nil
}

// commandClear flushes every entry from the table. "clear" has its own
// handler here rather than sharing add's, as in iplookup.
func (m *Module) commandClear(json.RawMessage) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.table != nil {
		m.table.Flush()
	}
	return nil, nil
}

// kindOf recovers the EngineError kind from a table-layer error, or
// ErrInternal if it isn't one (which shouldn't happen: l2.Table only ever
// returns sentinel EngineErrors).
func kindOf(err error) errors.ErrorKind {
	if k, ok := errors.GetKind(err); ok {
		return k
	}
	return errors.ErrInternal
}

func macToUint64(b []byte) uint64 {
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
}

// parseMAC parses a colon-separated MAC address string ("01:23:45:67:89:ab")
// into a 48-bit integer.
func parseMAC(s string) (uint64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return 0, errors.New(errors.ErrInvalidArg, "l2forward.parseMAC", s+" is not a proper mac address")
	}
	var addr uint64
	for _, p := range parts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return 0, errors.New(errors.ErrInvalidArg, "l2forward.parseMAC", s+" is not a proper mac address")
		}
		addr = (addr << 8) | v
	}
	return addr, nil
}

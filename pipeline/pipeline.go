package pipeline

import (
	"encoding/json"
	"sort"
	"sync"

	"bessgo/config"
	"bessgo/errors"
	"bessgo/gate"
	"bessgo/hooks"
	"bessgo/logging"
	"bessgo/module"
	"bessgo/worker"
)

// Pipeline is the process-wide dataflow graph: the set of live module
// instances, their gate wiring, and the workers scheduling them. Only one
// Pipeline is meant to be active at a time, per spec.md §1's single
// default pipeline non-goal (no multi-pipeline support).
type Pipeline struct {
	mu       sync.RWMutex
	registry *Registry
	modules  map[string]module.Module
	workers  []*worker.Worker
	hooks    *hooks.List
}

// New constructs an empty Pipeline backed by reg.
func New(reg *Registry) *Pipeline {
	return &Pipeline{
		registry: reg,
		modules:  make(map[string]module.Module),
		hooks:    hooks.NewList(),
	}
}

// Hooks returns the pre-quiesce/post-resume hook list callers register
// against (e.g. to flush logs or snapshot state before a mutation).
func (p *Pipeline) Hooks() *hooks.List { return p.hooks }

// Create instantiates every module in cfg and wires every link, in that
// order (links may reference modules declared anywhere in cfg.Modules,
// since creation happens first as a whole pass).
func (p *Pipeline) Create(cfg *config.PipelineConfig) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	existing := make(map[string]bool, len(p.modules))
	for name := range p.modules {
		existing[name] = true
	}

	for _, mc := range cfg.Modules {
		m, err := p.registry.Create(mc.Class, mc.Name, existing)
		if err != nil {
			return err
		}
		if err := m.Init(mc.Args); err != nil {
			return errors.WrapWithModule(err, errors.ErrInvalidArg, "pipeline.Create", m.Name())
		}
		existing[m.Name()] = true
		p.modules[m.Name()] = m
	}

	for _, lc := range cfg.Links {
		if err := p.connectLocked(lc.Src, lc.SrcGate, lc.Dst, lc.DstGate); err != nil {
			return err
		}
	}
	return nil
}

// Connect wires one output gate to one input gate.
func (p *Pipeline) Connect(src string, srcGate int, dst string, dstGate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked(src, srcGate, dst, dstGate)
}

func (p *Pipeline) connectLocked(src string, srcGate int, dst string, dstGate int) error {
	srcMod, ok := p.modules[src]
	if !ok {
		return errors.WrapWithModule(errors.ErrModuleNotFound, errors.ErrNotFound, "pipeline.Connect", src)
	}
	dstMod, ok := p.modules[dst]
	if !ok {
		return errors.WrapWithModule(errors.ErrModuleNotFound, errors.ErrNotFound, "pipeline.Connect", dst)
	}
	if srcGate < 0 || srcGate >= gate.MaxGates || dstGate < 0 || dstGate >= gate.MaxGates {
		logging.WithGate(logging.WithModule(logging.Default(), src), srcGate).Warn("connect rejected: gate index exceeds MaxGates", "dst_gate", dstGate)
		return errors.WrapWithDetail(errors.ErrGateOutOfRange, errors.ErrInvalidArg, "pipeline.Connect", "gate index exceeds MaxGates")
	}
	og := srcMod.OGate(srcGate)
	if og.Connected() {
		logging.WithGate(logging.WithModule(logging.Default(), src), srcGate).Warn("connect rejected: gate already connected")
		return errors.WrapWithModule(errors.ErrGateConnected, errors.ErrAlreadyExists, "pipeline.Connect", src)
	}
	gate.Link(og, dstMod.IGate(dstGate))
	return nil
}

// Disconnect removes the wiring from src's output gate srcGate, if any.
func (p *Pipeline) Disconnect(src string, srcGate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	srcMod, ok := p.modules[src]
	if !ok {
		return errors.WrapWithModule(errors.ErrModuleNotFound, errors.ErrNotFound, "pipeline.Disconnect", src)
	}
	og := srcMod.OGate(srcGate)
	if !og.Connected() {
		logging.WithGate(logging.WithModule(logging.Default(), src), srcGate).Warn("disconnect rejected: gate not connected")
		return errors.WrapWithModule(errors.ErrGateNotConnected, errors.ErrNotFound, "pipeline.Disconnect", src)
	}
	gate.Unlink(og)
	return nil
}

// RunCommand looks up moduleName and invokes its named control-plane
// command, validating the name against the class's published CommandTable
// before dispatching to the module's own RunCommand — the path bessgo
// command drives.
func (p *Pipeline) RunCommand(moduleName, cmdName string, arg json.RawMessage) (any, error) {
	log := logging.WithOperation(logging.WithModule(logging.Default(), moduleName), cmdName)

	p.mu.RLock()
	m, ok := p.modules[moduleName]
	p.mu.RUnlock()
	if !ok {
		log.Warn("command failed: module not found")
		return nil, errors.WrapWithModule(errors.ErrModuleNotFound, errors.ErrNotFound, "pipeline.RunCommand", moduleName)
	}

	b, ok := p.registry.Lookup(m.Class())
	if ok {
		if _, known := b.Commands.Lookup(cmdName); !known {
			log.Warn("command failed: not in class's command table")
			return nil, errors.WrapWithDetail(errors.ErrInvalidPipelineConfig, errors.ErrInvalidArg, "pipeline.RunCommand", "unknown command: "+cmdName)
		}
	}

	result, err := m.RunCommand(cmdName, arg)
	if err != nil {
		log.Error("command returned an error", "error", err)
	} else {
		log.Debug("command succeeded")
	}
	return result, err
}

// Start partitions every created module round-robin across numWorkers
// workers and begins RunTask scheduling on each.
func (p *Pipeline) Start(numWorkers int) error {
	if numWorkers <= 0 {
		return errors.New(errors.ErrInvalidArg, "pipeline.Start", "numWorkers must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, 0, len(p.modules))
	for name := range p.modules {
		names = append(names, name)
	}
	sort.Strings(names)

	p.workers = make([]*worker.Worker, numWorkers)
	for i := range p.workers {
		p.workers[i] = worker.New(i)
	}
	for i, name := range names {
		p.workers[i%numWorkers].Assign(p.modules[name])
	}
	for _, w := range p.workers {
		go w.Run(-1) //nolint:errcheck // worker.Run's only error is affinity-pin failure, never hit with cpu=-1
	}
	return nil
}

// Quiesce runs the PreQuiesce hooks, then pauses every worker so no
// ProcessBatch/RunTask call is in flight, blocking the caller until that
// holds. Callers must call Resume before returning control to the
// scheduler.
func (p *Pipeline) Quiesce() error {
	p.mu.RLock()
	workers := p.workers
	p.mu.RUnlock()

	if err := p.hooks.RunPreQuiesce(); err != nil {
		return err
	}
	for _, w := range workers {
		w.Pause()
	}
	return nil
}

// Resume un-pauses every worker and runs the PostResume hooks.
func (p *Pipeline) Resume() error {
	p.mu.RLock()
	workers := p.workers
	p.mu.RUnlock()

	for _, w := range workers {
		w.Resume()
	}
	return p.hooks.RunPostResume()
}

// Destroy stops every worker, disconnects every gate, deinitializes every
// module, and empties the registry — the
// teacher's DestroyAll-then-registry-clear sequence, applied to modules
// instead of a container's processes and mounts.
func (p *Pipeline) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, w := range p.workers {
		w.Stop()
	}
	p.workers = nil

	for _, m := range p.modules {
		for _, og := range ogatesOf(m) {
			if og.Connected() {
				gate.Unlink(og)
			}
		}
	}
	for name, m := range p.modules {
		if err := m.Deinit(); err != nil {
			return errors.WrapWithModule(err, errors.ErrInternal, "pipeline.Destroy", name)
		}
	}
	p.modules = make(map[string]module.Module)
	p.registry.Clear()
	return nil
}

// ogatesOf returns a module's allocated output gates, or nil if m does not
// expose them.
func ogatesOf(m module.Module) map[int]*gate.OGate {
	withOGates, ok := m.(interface{ OGates() map[int]*gate.OGate })
	if !ok {
		return nil
	}
	return withOGates.OGates()
}

// ModuleState is one module's entry in an EngineState snapshot.
type ModuleState struct {
	Name   string         `json:"name"`
	Class  string         `json:"class"`
	Desc   string         `json:"desc"`
	OGates map[int]string `json:"ogates"` // gate index -> peer module name
}

// EngineState is a JSON-serializable snapshot of a Pipeline, analogous to
// the OCI state.json the teacher writes per container.
type EngineState struct {
	Modules []ModuleState `json:"modules"`
}

// State produces an EngineState snapshot of the current graph.
func (p *Pipeline) State() EngineState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.modules))
	for name := range p.modules {
		names = append(names, name)
	}
	sort.Strings(names)

	state := EngineState{Modules: make([]ModuleState, 0, len(names))}
	for _, name := range names {
		m := p.modules[name]
		ogates := make(map[int]string)
		for idx, og := range ogatesOf(m) {
			if og.Connected() {
				ogates[idx] = og.Peer.Owner.Name()
			}
		}
		state.Modules = append(state.Modules, ModuleState{
			Name:   m.Name(),
			Class:  m.Class(),
			Desc:   m.GetDesc(),
			OGates: ogates,
		})
	}
	return state
}

// Package driver turns an entry file into linked-ready compiled units:
// discovery, the import DAG, and wave-parallel binding and lowering with
// reuse of fresh persisted units.
package driver

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"blaise/internal/codegen"
	"blaise/internal/diag"
	"blaise/internal/module"
	"blaise/internal/native"
	"blaise/internal/observ"
	"blaise/internal/project"
	"blaise/internal/project/dag"
	"blaise/internal/sema"
	"blaise/internal/source"
	"blaise/internal/trace"
	"blaise/internal/types"
)

// Options configures Compile.
type Options struct {
	Search         []string // unit directories after the using file's own
	CacheDir       string   // persisted units; "" disables persistence
	Jobs           int      // parallel units per wave; GOMAXPROCS when 0
	MaxDiagnostics int
	Natives        *native.Registry
	Phase          PhaseObserver
	Unit           UnitObserver
}

// Result is the outcome of Compile.
type Result struct {
	Files   *source.FileSet
	Sources []*module.Source // discovery order, entry last
	Bag     *diag.Bag        // all diagnostics, merged
	Units   []*module.Unit   // initialization order; nil when Bag has errors
	Cached  map[string]bool  // units reused from CacheDir
	Timer   *observ.Timer
}

// Entry returns the compiled entry module, or nil.
func (r *Result) Entry() *module.Unit {
	if len(r.Units) == 0 {
		return nil
	}
	return r.Units[len(r.Units)-1]
}

// session is the state shared by the goroutines of one compilation.
type session struct {
	opts  Options
	in    *types.Interner
	cache *UnitCache

	mu      sync.RWMutex
	imports map[string]*sema.Import
	hashes  map[string]project.Digest
	broken  map[string]*diag.Diagnostic
	cached  map[string]bool
}

// Compile discovers entry and its units and compiles them. The returned
// error is for infrastructure failures (unreadable entry file); language
// errors are in Result.Bag.
func Compile(ctx context.Context, entry string, opts Options) (*Result, error) {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	if opts.Natives == nil {
		opts.Natives = native.Standard()
	}
	tr := trace.FromContext(ctx)
	root := trace.Begin(tr, trace.ScopeDriver, "compile", trace.CurrentSpan(ctx))
	defer root.End(entry)
	ctx = trace.WithSpan(ctx, root)

	res := &Result{
		Files:  source.NewFileSet(),
		Cached: make(map[string]bool),
		Timer:  observ.NewTimer(),
	}

	// Discovery parses every file.
	phase := opts.begin(ctx, res.Timer, "parse")
	loader := module.NewLoader(res.Files, opts.Search)
	loader.MaxDiag = opts.MaxDiagnostics
	sources, err := loader.Discover(entry)
	if err != nil {
		phase.end("failed")
		return nil, fmt.Errorf("load %s: %w", entry, err)
	}
	res.Sources = sources
	for _, s := range sources {
		opts.unit(UnitEvent{Path: s.Meta.Path, Name: s.Meta.Name, Step: StepParse, Done: true, Err: firstErr(s.Bag)})
	}
	phase.end(fmt.Sprintf("%d files", len(sources)))

	phase = opts.begin(ctx, res.Timer, "graph")
	metas := module.Metas(sources)
	idx := dag.BuildIndex(metas)
	nodes := make([]dag.ModuleNode, 0, len(sources))
	for _, s := range sources {
		node := dag.ModuleNode{Meta: s.Meta, Reporter: s.Reporter(), Broken: s.Failed()}
		if d, ok := s.Bag.FirstError(); ok {
			node.FirstErr = &d
		}
		nodes = append(nodes, node)
	}
	g, slots := dag.BuildGraph(idx, nodes)
	topo := dag.ToposortKahn(g)
	if topo.Cyclic && !anyHasCode(sources, diag.ModCircularImport) {
		dag.ReportCycles(idx, g, slots, topo)
	}
	for _, id := range topo.Cycles {
		slots[int(id)].Broken = true
	}
	ComputeModuleHashes(g, slots, topo)
	phase.end(fmt.Sprintf("%d waves", len(topo.Batches)))

	s := &session{
		opts:    opts,
		in:      types.NewInterner(),
		cache:   NewUnitCache(opts.CacheDir),
		imports: make(map[string]*sema.Import),
		hashes:  make(map[string]project.Digest),
		broken:  make(map[string]*diag.Diagnostic),
		cached:  res.Cached,
	}
	for i := range slots {
		if slots[i].Present {
			s.hashes[slots[i].Meta.Name] = slots[i].Meta.ModuleHash
		}
	}
	byName := module.ByName(sources)

	phase = opts.begin(ctx, res.Timer, "compile")
	if !topo.Cyclic {
		for _, wave := range topo.Waves() {
			if err := s.compileWave(ctx, wave, slots, byName); err != nil {
				phase.end("failed")
				return nil, err
			}
		}
	}
	for i := range slots {
		if d, ok := s.broken[slots[i].Meta.Name]; ok {
			slots[i].Broken = true
			if d != nil && slots[i].FirstErr == nil {
				slots[i].FirstErr = d
			}
		}
	}
	dag.ReportBrokenDeps(idx, slots)
	phase.end("")

	res.Bag = diag.NewBag(opts.MaxDiagnostics * max(len(sources), 1))
	for _, src := range sources {
		res.Bag.Merge(src.Bag)
	}
	if res.Bag.HasErrors() || topo.Cyclic {
		return res, nil
	}
	for _, id := range topo.InitOrder() {
		u, ok := s.cache.Get(idx.IDToName[int(id)])
		if !ok {
			return nil, fmt.Errorf("unit %s was not compiled", idx.IDToName[int(id)])
		}
		res.Units = append(res.Units, u)
	}
	return res, nil
}

func (s *session) compileWave(ctx context.Context, wave []dag.ModuleID, slots []dag.ModuleSlot, byName map[string]*module.Source) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(s.opts.Jobs, max(len(wave), 1)))
	for _, id := range wave {
		slot := &slots[int(id)]
		src, ok := byName[slot.Meta.Name]
		if !slot.Present || !ok {
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return s.compileOne(gctx, src, slot)
		})
	}
	return g.Wait()
}

func (s *session) markBroken(name string, first *diag.Diagnostic) {
	s.mu.Lock()
	s.broken[name] = first
	s.mu.Unlock()
}

// compileOne reuses a fresh persisted unit or binds and lowers src. Only
// infrastructure failures are returned; language errors mark the unit
// broken.
func (s *session) compileOne(ctx context.Context, src *module.Source, slot *dag.ModuleSlot) error {
	name := src.Meta.Name
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeModule, "module:"+name, trace.CurrentSpan(ctx))
	defer span.End("")

	if slot.Broken || src.Failed() {
		first := slot.FirstErr
		if first == nil {
			if d, ok := src.Bag.FirstError(); ok {
				first = &d
			}
		}
		s.markBroken(name, first)
		return nil
	}
	deps := make(map[string]project.Digest, len(src.Meta.Imports))
	imports := make(map[string]*sema.Import, len(src.Meta.Imports))
	s.mu.RLock()
	for _, imp := range src.Meta.Imports {
		if _, bad := s.broken[imp.Name]; bad {
			s.mu.RUnlock()
			s.markBroken(name, nil)
			return nil
		}
		deps[imp.Name] = s.hashes[imp.Name]
		imports[imp.Name] = s.imports[imp.Name]
	}
	s.mu.RUnlock()

	start := time.Now()
	u, err := s.cache.Fresh(name, src.Meta.Path, src.Meta.ContentHash, deps)
	if !IsMiss(err) {
		return err
	}
	if err != nil {
		trace.Point(trace.FromContext(ctx), trace.ScopeModule, "cache:discard", err.Error(), span.ID())
	}
	if u != nil {
		span.WithExtra("cached", "true")
		u.File = src.FileID
		imp, err := u.Import(s.in)
		if err == nil {
			s.publish(name, imp)
			s.mu.Lock()
			s.cached[name] = true
			s.mu.Unlock()
			s.opts.unit(UnitEvent{Path: src.Meta.Path, Name: name, Step: StepLoad, Done: true, Elapsed: time.Since(start)})
			return nil
		}
		// An interface that no longer decodes is as good as stale.
	}

	s.opts.unit(UnitEvent{Path: src.Meta.Path, Name: name, Step: StepBind})
	start = time.Now()
	mod, errs := sema.Bind(src.File, sema.Options{
		Reporter: src.Reporter(),
		Types:    s.in,
		Natives:  s.opts.Natives,
		Imports:  imports,
		Path:     src.Meta.Path,
	})
	if errs > 0 {
		first := firstErr(src.Bag)
		s.opts.unit(UnitEvent{Path: src.Meta.Path, Name: name, Step: StepBind, Done: true, Err: first, Elapsed: time.Since(start)})
		if d, ok := src.Bag.FirstError(); ok {
			s.markBroken(name, &d)
		} else {
			s.markBroken(name, nil)
		}
		return nil
	}
	s.opts.unit(UnitEvent{Path: src.Meta.Path, Name: name, Step: StepLower, Elapsed: time.Since(start)})

	start = time.Now()
	u, err = codegen.Generate(mod, s.in)
	if err != nil {
		// The binder accepted the module, so this is a compiler defect.
		return fmt.Errorf("%s: %w", src.Meta.Display, err)
	}
	u.SourceHash = src.Meta.ContentHash
	u.File = src.FileID
	for _, imp := range u.Imports {
		u.DepHashes = append(u.DepHashes, module.DepHash{Name: imp, Hash: deps[imp]})
	}
	s.opts.unit(UnitEvent{Path: src.Meta.Path, Name: name, Step: StepLower, Done: true, Elapsed: time.Since(start)})

	imp, err := u.Import(s.in)
	if err != nil {
		return fmt.Errorf("%s: %w", src.Meta.Display, err)
	}
	s.publish(name, imp)

	if s.cache.Dir() == "" {
		return s.cache.Put(u)
	}
	s.opts.unit(UnitEvent{Path: src.Meta.Path, Name: name, Step: StepPersist})
	start = time.Now()
	err = s.cache.Put(u)
	s.opts.unit(UnitEvent{Path: src.Meta.Path, Name: name, Step: StepPersist, Done: true, Err: err, Elapsed: time.Since(start)})
	if err != nil {
		return fmt.Errorf("persist %s: %w", src.Meta.Display, err)
	}
	return nil
}

func (s *session) publish(name string, imp *sema.Import) {
	s.mu.Lock()
	s.imports[name] = imp
	s.mu.Unlock()
}

func firstErr(bag *diag.Bag) error {
	if d, ok := bag.FirstError(); ok {
		return d
	}
	return nil
}

func anyHasCode(sources []*module.Source, code diag.Code) bool {
	for _, s := range sources {
		if s.Bag.HasCode(code) {
			return true
		}
	}
	return false
}

type phaseHandle struct {
	opts  *Options
	timer *observ.Timer
	idx   int
	span  *trace.Span
	name  string
	start time.Time
}

func (o *Options) begin(ctx context.Context, timer *observ.Timer, name string) phaseHandle {
	if o.Phase != nil {
		o.Phase(PhaseEvent{Name: name, Status: PhaseStart})
	}
	return phaseHandle{
		opts:  o,
		timer: timer,
		idx:   timer.Begin(name),
		span:  trace.Begin(trace.FromContext(ctx), trace.ScopePass, name, trace.CurrentSpan(ctx)),
		name:  name,
		start: time.Now(),
	}
}

func (p phaseHandle) end(note string) {
	p.timer.End(p.idx, note)
	p.span.End(note)
	if p.opts.Phase != nil {
		p.opts.Phase(PhaseEvent{Name: p.name, Status: PhaseEnd, Elapsed: time.Since(p.start)})
	}
}

func (o *Options) unit(ev UnitEvent) {
	if o.Unit != nil {
		o.Unit(ev)
	}
}

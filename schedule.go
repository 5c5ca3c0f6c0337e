package ecsx

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/comalice/ecsx/internal/primitives"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/comalice/ecsx"

// ShouldRun is the decision a run criteria hands back to the stage.
type ShouldRun = primitives.ShouldRun

const (
	No               = primitives.No
	Yes              = primitives.Yes
	YesAndCheckAgain = primitives.YesAndCheckAgain
	NoAndCheckAgain  = primitives.NoAndCheckAgain
)

// Label names a run criteria node within a stage.
type Label = primitives.Label

// NewLabel returns a plain named label.
func NewLabel(name string) Label {
	return primitives.NamedLabel(name)
}

var (
	ErrDuplicateLabel  = errors.New("run criteria label already registered")
	ErrUnknownLabel    = errors.New("run criteria depends on an unknown label")
	ErrDependencyCycle = errors.New("run criteria dependencies form a cycle")
	ErrSettleLimit     = errors.New("stage did not settle within the pass limit")
	ErrDuplicateStage  = errors.New("stage already exists")
)

// System is a unit of work run against the world.
type System func(w *World)

// SystemDescriptor is a named system.
type SystemDescriptor struct {
	Name string
	Run  System
}

// NamedSystem pairs fn with an explicit name.
func NamedSystem(name string, fn System) SystemDescriptor {
	return SystemDescriptor{Name: name, Run: fn}
}

func describe(fn System) SystemDescriptor {
	name := "system"
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		name = f.Name()
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
	}
	return SystemDescriptor{Name: name, Run: fn}
}

// RunCriteriaDescriptor describes a run criteria node: its predicate, an
// optional label and its ordering constraints.
type RunCriteriaDescriptor struct {
	label              Label
	after              []Label
	before             []Label
	fn                 func(w *World) ShouldRun
	discardIfDuplicate bool
}

// NewRunCriteria wraps fn as an unlabeled run criteria.
func NewRunCriteria(fn func(w *World) ShouldRun) *RunCriteriaDescriptor {
	return &RunCriteriaDescriptor{fn: fn}
}

// WithLabel labels the criteria. Registering a second criteria with the same
// label fails with ErrDuplicateLabel.
func (d *RunCriteriaDescriptor) WithLabel(l Label) *RunCriteriaDescriptor {
	d.label = l
	d.discardIfDuplicate = false
	return d
}

// LabelDiscardIfDuplicate labels the criteria. If the label is already
// registered the existing node is shared and this one is dropped.
func (d *RunCriteriaDescriptor) LabelDiscardIfDuplicate(l Label) *RunCriteriaDescriptor {
	d.label = l
	d.discardIfDuplicate = true
	return d
}

// After orders the criteria after l.
func (d *RunCriteriaDescriptor) After(l Label) *RunCriteriaDescriptor {
	d.after = append(d.after, l)
	return d
}

// Before orders the criteria before l.
func (d *RunCriteriaDescriptor) Before(l Label) *RunCriteriaDescriptor {
	d.before = append(d.before, l)
	return d
}

// Label returns the criteria's label, the zero Label when unlabeled.
func (d *RunCriteriaDescriptor) Label() Label {
	return d.label
}

// SystemSet is an ordered group of systems guarded by at most one run criteria.
type SystemSet struct {
	systems  []SystemDescriptor
	criteria *RunCriteriaDescriptor
}

// NewSystemSet returns an empty, unguarded set.
func NewSystemSet() *SystemSet {
	return &SystemSet{}
}

// WithRunCriteria guards the set with c, replacing any previous criteria.
func (s *SystemSet) WithRunCriteria(c *RunCriteriaDescriptor) *SystemSet {
	s.criteria = c
	return s
}

// WithSystem appends fn, named after its function.
func (s *SystemSet) WithSystem(fn System) *SystemSet {
	s.systems = append(s.systems, describe(fn))
	return s
}

// WithNamedSystem appends fn under an explicit name.
func (s *SystemSet) WithNamedSystem(name string, fn System) *SystemSet {
	s.systems = append(s.systems, NamedSystem(name, fn))
	return s
}

// SystemRunner executes a single system. Decorators wrap it to add logging or
// timing around every system a stage runs.
type SystemRunner interface {
	RunSystem(ctx context.Context, w *World, sys SystemDescriptor)
}

type directRunner struct{}

func (directRunner) RunSystem(_ context.Context, w *World, sys SystemDescriptor) {
	sys.Run(w)
}

// DefaultSystemRunner calls systems directly.
func DefaultSystemRunner() SystemRunner {
	return directRunner{}
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithMaxPasses bounds the number of passes one Run may take. Zero means
// unbounded. A stage that still wants another pass after n complete passes is
// misconfigured (a criteria that never settles) and Run panics with an error
// wrapping ErrSettleLimit.
func WithMaxPasses(n int) StageOption {
	return func(s *Stage) {
		s.maxPasses = n
	}
}

// WithSystemRunner runs every system through r. A nil r is ignored.
func WithSystemRunner(r SystemRunner) StageOption {
	return func(s *Stage) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithTracer sets the tracer used for stage run spans. A nil t is ignored.
func WithTracer(t trace.Tracer) StageOption {
	return func(s *Stage) {
		if t != nil {
			s.tracer = t
		}
	}
}

type criteriaNode struct {
	label       Label
	after       []Label
	before      []Label
	fn          func(w *World) ShouldRun
	last        ShouldRun
	evaluations uint64
}

func (n *criteriaNode) evaluate(w *World) {
	n.last = n.fn(w)
	n.evaluations++
}

type setEntry struct {
	systems []SystemDescriptor
	node    *criteriaNode
}

// Stage runs system sets sequentially, re-running guarded sets for as long as
// their criteria ask to be checked again.
type Stage struct {
	name        string
	nodes       []*criteriaNode
	labels      map[Label]*criteriaNode
	sets        []*setEntry
	order       []*criteriaNode
	initialized bool
	err         error
	maxPasses   int
	runner      SystemRunner
	tracer      trace.Tracer
}

// NewStage returns an empty stage called name, tracing through the global
// otel tracer provider unless WithTracer says otherwise.
func NewStage(name string, opts ...StageOption) *Stage {
	s := &Stage{
		name:   name,
		labels: make(map[Label]*criteriaNode),
		runner: directRunner{},
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the stage name.
func (s *Stage) Name() string {
	return s.name
}

// AddSystemSet registers set. Configuration errors are kept and reported by
// Initialize and Run.
func (s *Stage) AddSystemSet(set *SystemSet) *Stage {
	entry := &setEntry{systems: append([]SystemDescriptor(nil), set.systems...)}
	if c := set.criteria; c != nil {
		if !c.label.IsZero() {
			if existing, ok := s.labels[c.label]; ok {
				if !c.discardIfDuplicate {
					s.err = errors.Join(s.err, fmt.Errorf("stage %q: %w: %s", s.name, ErrDuplicateLabel, c.label))
					return s
				}
				entry.node = existing
			}
		}
		if entry.node == nil {
			node := &criteriaNode{
				label:  c.label,
				after:  append([]Label(nil), c.after...),
				before: append([]Label(nil), c.before...),
				fn:     c.fn,
			}
			s.nodes = append(s.nodes, node)
			if !c.label.IsZero() {
				s.labels[c.label] = node
			}
			entry.node = node
		}
	}
	s.sets = append(s.sets, entry)
	s.initialized = false
	return s
}

// AddSystem registers an unguarded system, run once per Run.
func (s *Stage) AddSystem(fn System) *Stage {
	return s.AddSystemSet(NewSystemSet().WithSystem(fn))
}

// Initialize orders the criteria nodes. Nodes without constraints between
// them keep their registration order.
func (s *Stage) Initialize() error {
	if s.err != nil {
		return s.err
	}
	index := make(map[*criteriaNode]int, len(s.nodes))
	for i, n := range s.nodes {
		index[n] = i
	}
	edges := make([][]int, len(s.nodes))
	indegree := make([]int, len(s.nodes))
	for i, n := range s.nodes {
		for _, l := range n.after {
			dep, ok := s.labels[l]
			if !ok {
				return fmt.Errorf("stage %q: %w: %s after %s", s.name, ErrUnknownLabel, n.label, l)
			}
			edges[index[dep]] = append(edges[index[dep]], i)
			indegree[i]++
		}
		for _, l := range n.before {
			dep, ok := s.labels[l]
			if !ok {
				return fmt.Errorf("stage %q: %w: %s before %s", s.name, ErrUnknownLabel, n.label, l)
			}
			edges[i] = append(edges[i], index[dep])
			indegree[index[dep]]++
		}
	}

	order := make([]*criteriaNode, 0, len(s.nodes))
	done := make([]bool, len(s.nodes))
	for len(order) < len(s.nodes) {
		next := -1
		for i := range s.nodes {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, n := range s.nodes {
				if !done[i] {
					stuck = append(stuck, n.label.String())
				}
			}
			return fmt.Errorf("stage %q: %w: %s", s.name, ErrDependencyCycle, strings.Join(stuck, ", "))
		}
		done[next] = true
		order = append(order, s.nodes[next])
		for _, j := range edges[next] {
			indegree[j]--
		}
	}
	s.order = order
	s.initialized = true
	return nil
}

// Run executes one frame of the stage against w.
//
// Every criteria is evaluated once, then the stage loops: sets whose criteria
// answered Yes or YesAndCheckAgain run (unguarded sets only on the first
// pass), Yes answers drop to No, and CheckAgain answers are evaluated again.
// The loop ends once no criteria has anything left to do.
//
// A done ctx stops Run before anything is evaluated; cancellation during the
// run is not observed.
func (s *Stage) Run(ctx context.Context, w *World) (err error) {
	if !s.initialized {
		if err := s.Initialize(); err != nil {
			return err
		}
	}

	ctx, span := s.tracer.Start(ctx, "ecsx.stage.run",
		trace.WithAttributes(attribute.String("ecsx.stage", s.name)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	// ctx is only consulted here. A started run always settles.
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, n := range s.order {
		n.evaluate(w)
	}

	passes := 0
	for {
		first := passes == 0
		passes++

		for _, set := range s.sets {
			if set.node == nil && !first {
				continue
			}
			if set.node != nil && !set.node.last.Runs() {
				continue
			}
			for _, sys := range set.systems {
				s.runner.RunSystem(ctx, w, sys)
			}
		}

		again := false
		for _, n := range s.order {
			switch n.last {
			case No:
			case Yes:
				n.last = No
			default:
				n.evaluate(w)
				if n.last != No {
					again = true
				}
			}
		}
		if !again {
			break
		}
		if s.maxPasses > 0 && passes >= s.maxPasses {
			err := fmt.Errorf("ecsx: stage %q: %w (%d passes)", s.name, ErrSettleLimit, passes)
			span.RecordError(err)
			panic(err)
		}
	}
	span.SetAttributes(attribute.Int("ecsx.stage.passes", passes))
	return nil
}

// CriteriaInfo describes one criteria node for introspection.
type CriteriaInfo struct {
	Label       string
	After       []string
	Before      []string
	Last        ShouldRun
	Evaluations uint64
}

// SetInfo describes one registered system set.
type SetInfo struct {
	Criteria string
	Systems  []string
}

// StageGraph is a read-only view of a stage's nodes and edges.
type StageGraph struct {
	Name     string
	Criteria []CriteriaInfo
	Sets     []SetInfo
}

func labelStrings(ls []Label) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.String()
	}
	return out
}

func nodeName(n *criteriaNode, i int) string {
	if n.label.IsZero() {
		return fmt.Sprintf("criteria#%d", i)
	}
	return n.label.String()
}

// Graph returns the stage's criteria, in execution order once initialized.
func (s *Stage) Graph() StageGraph {
	nodes := s.nodes
	if s.initialized {
		nodes = s.order
	}
	index := make(map[*criteriaNode]int, len(s.nodes))
	for i, n := range s.nodes {
		index[n] = i
	}
	g := StageGraph{Name: s.name}
	for _, n := range nodes {
		g.Criteria = append(g.Criteria, CriteriaInfo{
			Label:       nodeName(n, index[n]),
			After:       labelStrings(n.after),
			Before:      labelStrings(n.before),
			Last:        n.last,
			Evaluations: n.evaluations,
		})
	}
	for _, set := range s.sets {
		info := SetInfo{}
		if set.node != nil {
			info.Criteria = nodeName(set.node, index[set.node])
		}
		for _, sys := range set.systems {
			info.Systems = append(info.Systems, sys.Name)
		}
		g.Sets = append(g.Sets, info)
	}
	return g
}

// Schedule runs named stages in insertion order.
type Schedule struct {
	stages []*Stage
	names  map[string]*Stage
}

func NewSchedule() *Schedule {
	return &Schedule{names: make(map[string]*Stage)}
}

// AddStage appends a new stage called name.
func (sc *Schedule) AddStage(name string, opts ...StageOption) (*Stage, error) {
	if _, ok := sc.names[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateStage, name)
	}
	st := NewStage(name, opts...)
	sc.stages = append(sc.stages, st)
	sc.names[name] = st
	return st, nil
}

// Stage returns the stage called name.
func (sc *Schedule) Stage(name string) (*Stage, bool) {
	st, ok := sc.names[name]
	return st, ok
}

// Run runs every stage once, stopping at the first error.
func (sc *Schedule) Run(ctx context.Context, w *World) error {
	for _, st := range sc.stages {
		if err := st.Run(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// Graph returns the graph of every stage in run order.
func (sc *Schedule) Graph() []StageGraph {
	out := make([]StageGraph, 0, len(sc.stages))
	for _, st := range sc.stages {
		out = append(out, st.Graph())
	}
	return out
}

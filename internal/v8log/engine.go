package v8log

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"v8prof-mcp/internal/workqueue"
)

const (
	// DefaultSliceBudget bounds the time spent in one chunk of a log.
	DefaultSliceBudget = 60 * time.Millisecond
	// DefaultCheckInterval is the number of lines between clock checks.
	DefaultCheckInterval = 10
)

// Scheduler accepts chunked jobs. The engine only enqueues; the host runs them.
type Scheduler interface {
	Append(job workqueue.Job)
	Prepend(job workqueue.Job)
}

// Diagnostics receives human readable notes about tolerated log problems.
type Diagnostics interface {
	LogText(text string)
}

type nopDiagnostics struct{}

func (nopDiagnostics) LogText(string) {}

// RefRecord is the timeline record a profile payload arrived with.
type RefRecord interface {
	Sequence() int
	SetHasJavaScriptProfile(has bool)
	SetProcessingJavaScriptProfile()
}

// Options configure an Engine. Zero values select the defaults.
type Options struct {
	// Scheduler enables chunked processing. Without one every payload is
	// processed synchronously.
	Scheduler     Scheduler
	SliceBudget   time.Duration
	CheckInterval int
	Clock         func() time.Time
	Diagnostics   Diagnostics
	Sanitizer     Sanitizer
	Stats         *DebugStats
}

// State is the processing state of an Engine.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateSuspended
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateSuspended:
		return "suspended"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type handler func(e *Engine, c *Cursor, fields []string) error

// Engine folds the v8 log of one VM into a symbol table and bottom-up
// profiles. All state that the log format carries from line to line (tag
// bases, aliases, live code, the decompression window) lives here, so
// successive payloads of the same VM must go through the same Engine.
// An Engine is not safe for concurrent use.
type Engine struct {
	opts Options

	codec        *AddressCodec
	registry     *AliasRegistry
	symbols      *SymbolTable
	stats        *DebugStats
	decompressor *LineDecompressor
	handlers     map[int]handler

	state State
	err   error
}

func NewEngine(opts Options) *Engine {
	if opts.SliceBudget <= 0 {
		opts.SliceBudget = DefaultSliceBudget
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = nopDiagnostics{}
	}
	if opts.Sanitizer == nil {
		opts.Sanitizer = HTMLSanitizer{}
	}
	if opts.Stats == nil {
		opts.Stats = &DebugStats{}
	}

	e := &Engine{
		opts:     opts,
		codec:    NewAddressCodec(),
		registry: NewAliasRegistry(),
		symbols:  NewSymbolTable(opts.Stats),
		stats:    opts.Stats,
	}
	e.handlers = map[int]handler{
		ActionAlias:        (*Engine).handleAlias,
		ActionProfiler:     (*Engine).handleProfiler,
		ActionCodeCreation: (*Engine).handleCodeCreation,
		ActionCodeMove:     (*Engine).handleCodeMove,
		ActionCodeDelete:   (*Engine).handleCodeDelete,
		ActionTick:         (*Engine).handleTick,
		ActionRepeat:       (*Engine).handleRepeat,
	}
	return e
}

func (e *Engine) Stats() *DebugStats { return e.stats }
func (e *Engine) Symbols() *SymbolTable { return e.symbols }
func (e *Engine) Registry() *AliasRegistry { return e.registry }
func (e *Engine) Codec() *AddressCodec { return e.codec }
func (e *Engine) Decompressor() *LineDecompressor { return e.decompressor }
func (e *Engine) State() State { return e.state }

// Err returns the format error that ended processing, if any.
func (e *Engine) Err() error { return e.err }

// FindSymbol returns the symbol currently mapped at addr.
func (e *Engine) FindSymbol(addr uint64) (*Symbol, bool) {
	return e.symbols.Lookup(addr)
}

// Cursor is the resumable position within one payload.
type Cursor struct {
	lines   []string
	offset  int
	ref     RefRecord
	profile ProfileSink
}

// NewCursor splits payload into lines positioned at the first one.
func NewCursor(payload string, ref RefRecord, profile ProfileSink) *Cursor {
	return &Cursor{
		lines:   strings.Split(payload, "\n"),
		ref:     ref,
		profile: profile,
	}
}

func (c *Cursor) Offset() int { return c.offset }
func (c *Cursor) Len() int { return len(c.lines) }

// ParseRawEvent folds a profile payload into profile. An empty payload marks
// ref as having no profile. With a Scheduler the work is queued and ref is
// marked as processing; otherwise the payload is processed before returning.
func (e *Engine) ParseRawEvent(ctx context.Context, payload string, ref RefRecord, profile ProfileSink) error {
	if e.err != nil {
		return e.err
	}
	if payload == "" {
		ref.SetHasJavaScriptProfile(false)
		return nil
	}

	if e.opts.Scheduler == nil {
		c := NewCursor(payload, ref, profile)
		for {
			done, err := e.ProcessSlice(ctx, c)
			if err != nil || done {
				return err
			}
		}
	}

	ref.SetProcessingJavaScriptProfile()
	e.opts.Scheduler.Append(&newProfileDataJob{e: e, payload: payload, ref: ref, profile: profile})
	return nil
}

// ProcessSlice processes lines from the cursor until the payload is
// exhausted or, in chunked mode, the slice budget runs out. The budget is
// only checked every CheckInterval lines and never before the first line of
// the slice, so each slice makes progress.
func (e *Engine) ProcessSlice(ctx context.Context, c *Cursor) (done bool, err error) {
	if e.err != nil {
		return true, e.err
	}
	e.state = StateProcessing

	chunked := e.opts.Scheduler != nil
	start := c.offset
	deadline := e.opts.Clock().Add(e.opts.SliceBudget)

	for ; c.offset < len(c.lines); c.offset++ {
		if chunked && c.offset > start && c.offset%e.opts.CheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				e.state = StateIdle
				return true, err
			}
			if !e.opts.Clock().Before(deadline) {
				break
			}
		}

		line := c.lines[c.offset]
		// Release consumed lines.
		c.lines[c.offset] = ""
		if err := e.processLine(c, line); err != nil {
			e.state = StateFailed
			e.err = withLine(err, c.offset+1)
			return true, e.err
		}
	}

	if c.offset < len(c.lines) {
		e.state = StateSuspended
		return false, nil
	}

	e.state = StateDone
	c.ref.SetHasJavaScriptProfile(c.profile.BottomUpProfile() != nil)
	return true, nil
}

func (e *Engine) processLine(c *Cursor, line string) error {
	if e.decompressor != nil {
		var err error
		if line, err = e.decompressor.Decompress(line); err != nil {
			return err
		}
	}
	fields := SplitLogLine(line)
	if len(fields) == 0 {
		return nil
	}
	return e.dispatch(c, fields)
}

func (e *Engine) dispatch(c *Cursor, fields []string) error {
	h, ok := e.handlers[e.registry.Action(fields[0])]
	if !ok {
		e.opts.Diagnostics.LogText("Unknown v8 profiler command: " + fields[0])
		return nil
	}
	return h(e, c, fields)
}

func requireFields(fields []string, n int) error {
	if len(fields) < n {
		return formatErrorf(strings.Join(fields, ","), "%s record needs %d fields, got %d", fields[0], n, len(fields))
	}
	return nil
}

// alias,aliasName,originalName
func (e *Engine) handleAlias(_ *Cursor, fields []string) error {
	if err := requireFields(fields, 3); err != nil {
		return err
	}
	if !e.registry.Alias(fields[1], fields[2]) {
		e.opts.Diagnostics.LogText(fmt.Sprintf("Unable to find command: '%s' to match alias: %s", fields[2], fields[1]))
	}
	return nil
}

// profiler,"kind",...
func (e *Engine) handleProfiler(_ *Cursor, fields []string) error {
	if err := requireFields(fields, 2); err != nil {
		return err
	}

	kind := fields[1]
	switch {
	case kind == `"compression"`:
		if err := requireFields(fields, 3); err != nil {
			return err
		}
		window, err := parseInt(fields[2])
		if err != nil {
			return err
		}
		e.decompressor = NewLineDecompressor(window)
	case strings.HasSuffix(kind, `"begin"`):
		e.codec.Reset()
	case kind == `"pause"` || strings.HasSuffix(kind, `"resume"`):
	default:
		e.opts.Diagnostics.LogText("Ignoring profiler command: " + strings.Join(fields, ","))
	}
	return nil
}

// code-creation,symbolType,address,size,"name"
func (e *Engine) handleCodeCreation(_ *Cursor, fields []string) error {
	if err := requireFields(fields, 5); err != nil {
		return err
	}

	symbolType := e.registry.SymbolType(fields[1])
	addr, err := e.codec.ParseAddress(fields[2], TagCode)
	if err != nil {
		return err
	}
	size, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return &FormatError{Token: fields[3], Err: err}
	}

	e.symbols.Add(&Symbol{
		Name:       e.opts.Sanitizer.Sanitize(stripQuotes(fields[4])),
		SymbolType: symbolType,
		Address:    addr,
		Size:       uint32(size),
	})
	return nil
}

// code-move,fromAddress,toAddress
func (e *Engine) handleCodeMove(_ *Cursor, fields []string) error {
	if err := requireFields(fields, 3); err != nil {
		return err
	}
	from, err := e.codec.ParseAddress(fields[1], TagCode)
	if err != nil {
		return err
	}
	to, err := e.codec.ParseAddress(fields[2], TagCodeMove)
	if err != nil {
		return err
	}

	sym, ok := e.symbols.Lookup(from)
	if !ok {
		e.stats.MoveMisses.Inc()
		return nil
	}
	e.symbols.Remove(sym)
	e.symbols.Add(&Symbol{
		Name:       sym.Name,
		SymbolType: sym.SymbolType,
		Address:    to,
		Size:       sym.Size,
	})
	return nil
}

// code-delete,address
func (e *Engine) handleCodeDelete(_ *Cursor, fields []string) error {
	if err := requireFields(fields, 2); err != nil {
		return err
	}
	addr, err := e.codec.ParseAddress(fields[1], TagCode)
	if err != nil {
		return err
	}

	sym, ok := e.symbols.Lookup(addr)
	if !ok {
		e.stats.RemoveMisses.Inc()
		return nil
	}
	e.symbols.Remove(sym)
	return nil
}

// tick,codeAddress,stackAddress,vmState[,callerAddress...]
func (e *Engine) handleTick(c *Cursor, fields []string) error {
	if err := requireFields(fields, 4); err != nil {
		return err
	}
	addr, err := e.codec.ParseAddress(fields[1], TagCode)
	if err != nil {
		return err
	}
	// Only parsed to keep the stack base current.
	if _, err := e.codec.ParseAddress(fields[2], TagStack); err != nil {
		return err
	}
	vmState, err := parseInt(fields[3])
	if err != nil {
		return err
	}
	state := VMState(vmState)

	c.profile.AddStateTime(state, 1)
	root := c.profile.GetOrCreateBottomUpProfile()
	root.AddTime(1)
	child := e.recordAddressInProfile(root, addr, false)

	e.codec.SetBase(TagScratch, addr)
	for _, token := range fields[4:] {
		addr, err := e.codec.ParseAddress(token, TagScratch)
		if err != nil {
			return err
		}
		child = e.recordAddressInProfile(child, addr, child != root)
	}

	if child == root {
		// Nothing on the stack resolved.
		child = root.GetOrInsertChild("unknown - " + state.String())
		child.AddSelfTime(1)
	}
	return nil
}

// repeat,count,command,...
func (e *Engine) handleRepeat(c *Cursor, fields []string) error {
	if err := requireFields(fields, 3); err != nil {
		return err
	}
	count, err := parseInt(fields[1])
	if err != nil {
		return err
	}
	sub := fields[2:]
	for i := 0; i < count; i++ {
		if err := e.dispatch(c, sub); err != nil {
			return err
		}
	}
	return nil
}

type newProfileDataJob struct {
	e       *Engine
	payload string
	ref     RefRecord
	profile ProfileSink
}

func (j *newProfileDataJob) Description() string {
	return fmt.Sprintf("NewProfileData seq %d", j.ref.Sequence())
}

func (j *newProfileDataJob) Execute(_ context.Context) error {
	if j.e.err != nil {
		return nil
	}
	j.e.opts.Scheduler.Prepend(&logLinesJob{e: j.e, c: NewCursor(j.payload, j.ref, j.profile)})
	return nil
}

type logLinesJob struct {
	e *Engine
	c *Cursor
}

func (j *logLinesJob) Description() string {
	return fmt.Sprintf("LogLines seq %d offset %d", j.c.ref.Sequence(), j.c.offset)
}

func (j *logLinesJob) Execute(ctx context.Context) error {
	done, err := j.e.ProcessSlice(ctx, j.c)
	if err != nil {
		return err
	}
	if !done {
		j.e.opts.Scheduler.Prepend(j)
	}
	return nil
}

// Record is a RefRecord for hosts that have no timeline record of their own.
type Record struct {
	Seq        int
	hasProfile bool
	processing bool
}

func (r *Record) Sequence() int { return r.Seq }

func (r *Record) SetHasJavaScriptProfile(has bool) {
	r.hasProfile = has
	r.processing = false
}

func (r *Record) SetProcessingJavaScriptProfile() { r.processing = true }

func (r *Record) HasJavaScriptProfile() bool { return r.hasProfile }
func (r *Record) Processing() bool { return r.processing }

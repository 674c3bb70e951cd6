package engine

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neovim/go-client/nvim"

	"contextwin/buffer"
	"contextwin/header"
	"contextwin/logger"
	"contextwin/pattern"
	"contextwin/syntax"
	"contextwin/types"
)

// Buffer is the editor surface the engine computes against. Satisfied by
// buffer.NvimBuffer; mocked in tests.
type Buffer interface {
	SetClient(n *nvim.Nvim)
	Sync() (*buffer.SyncResult, error)
	Lines() []string
	Row() int
	Col() int
	Language() string
	FirstVisibleLine() int
	TreeSnapshot(row, col int) (*syntax.Tree, error)
	HighlightCaptures(ranges []types.Range) ([]types.Capture, error)
	ShowContext(lines []string, gutterLabels []int, spans []types.HighlightSpan, changed []int) error
	CloseContext() error
}

type EngineConfig struct {
	NsID          int
	MaxLines      int // 0 = unbounded
	Throttle      bool
	ThrottleDelay time.Duration
	Context       types.ContextConfig
}

type Engine struct {
	buffer  Buffer
	n       *nvim.Nvim
	matcher *pattern.Matcher
	reducer *header.Reducer

	mu        sync.RWMutex
	eventChan chan Event

	// Main context and cancel for the engine lifecycle
	mainCtx    context.Context
	mainCancel context.CancelFunc
	stopped    bool
	stopOnce   sync.Once

	// Display state for the current cycle's diffing
	renderState      header.RenderState
	enabled          bool
	lastRow          int // cursor row of the last completed cycle
	lastFirstVisible int

	// Throttle state: at most one pending recompute; triggers arriving
	// while pending are dropped, not queued.
	throttleTimer   *time.Timer
	throttlePending bool
	pendingForce    bool

	config EngineConfig
}

func NewEngine(buf Buffer, config EngineConfig) *Engine {
	if config.ThrottleDelay <= 0 {
		config.ThrottleDelay = 100 * time.Millisecond
	}
	matcher := pattern.NewMatcher(config.Context)
	return &Engine{
		buffer:    buf,
		matcher:   matcher,
		reducer:   header.NewReducer(matcher, config.Context),
		eventChan: make(chan Event, 100),
		enabled:   true,
		config:    config,
	}
}

func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.mainCtx, e.mainCancel = context.WithCancel(ctx)
	e.mu.Unlock()

	go e.eventLoop(e.mainCtx)
	logger.Info("engine started")
}

// Stop gracefully shuts down the engine and cleans up all resources
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		logger.Info("stopping engine...")

		e.stopped = true
		if e.mainCancel != nil {
			e.mainCancel()
		}
		e.stopThrottleTimer()
		e.renderState = header.RenderState{}
		close(e.eventChan)

		logger.Info("engine stopped")
	})
}

// eventLoopRestarts tracks the number of event loop restarts for panic recovery
var eventLoopRestarts atomic.Int32

const maxEventLoopRestarts = 3

func (e *Engine) eventLoop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			restarts := eventLoopRestarts.Add(1)
			logger.Error("event loop panic [%d/%d]: %v\n%s",
				restarts, maxEventLoopRestarts, r, debug.Stack())

			if int(restarts) < maxEventLoopRestarts {
				e.eventLoop(e.mainCtx) // Restart the event loop
			} else {
				logger.Error("max event loop restarts reached, stopping engine")
				go e.Stop() // async to avoid deadlock
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-e.eventChan:
			if !ok {
				return
			}

			e.mu.RLock()
			stopped := e.stopped
			e.mu.RUnlock()

			if stopped {
				return
			}

			e.handleEvent(event)
		}
	}
}

func (e *Engine) handleEvent(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}

	logger.Debug("handle event: %v", event.Type)

	switch event.Type {
	case EventDisable:
		e.enabled = false
		e.stopThrottleTimer()
		e.closeDisplay()
	case EventEnable:
		e.enabled = true
		e.scheduleUpdate(true)
	case EventThrottleTimeout:
		force := e.pendingForce
		e.throttlePending = false
		e.pendingForce = false
		e.runCycle(force)
	case EventCursorMoved:
		e.scheduleUpdate(false)
	case EventWinScrolled:
		e.scheduleUpdate(false)
	case EventWinEnter, EventWinResized, EventBufEnter, EventInsertLeave, EventSessionRestore:
		// Text or window shape may have changed; recompute even on the
		// same cursor line.
		e.scheduleUpdate(true)
	}
}

// scheduleUpdate runs a recompute cycle, either synchronously or, with
// throttling on, after the delay. At most one recompute is pending;
// further triggers inside the window are dropped.
func (e *Engine) scheduleUpdate(force bool) {
	if !e.enabled {
		return
	}
	if !e.config.Throttle {
		e.runCycle(force)
		return
	}

	e.pendingForce = e.pendingForce || force
	if e.throttlePending {
		return
	}
	e.throttlePending = true
	e.throttleTimer = time.AfterFunc(e.config.ThrottleDelay, func() {
		select {
		case e.eventChan <- Event{Type: EventThrottleTimeout}:
		case <-e.mainCtx.Done():
		}
	})
}

func (e *Engine) stopThrottleTimer() {
	if e.throttleTimer != nil {
		e.throttleTimer.Stop()
		e.throttleTimer = nil
	}
	e.throttlePending = false
	e.pendingForce = false
}

// closeDisplay takes the header down and forgets the previous snapshot.
func (e *Engine) closeDisplay() {
	if e.renderState.Rendered() && e.n != nil {
		if err := e.buffer.CloseContext(); err != nil {
			logger.Error("error closing context: %v", err)
		}
	}
	e.renderState = header.RenderState{}
	e.lastRow = 0
	e.lastFirstVisible = 0
}

// runCycle is the single recompute-and-diff entry point. Any fault while
// deriving the stack or text is caught here and leaves the previous
// display untouched; the next trigger simply supersedes the failed cycle.
func (e *Engine) runCycle(force bool) {
	defer logger.Trace("engine.runCycle")()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("context cycle panic recovered: %v\n%s", r, debug.Stack())
		}
	}()

	if e.n == nil || !e.enabled {
		return
	}

	res, err := e.buffer.Sync()
	if err != nil {
		logger.Error("cycle sync failed: %v", err)
		return
	}
	if res.BufferChanged || res.TextChanged {
		// Edits shift the constructs above the viewport even when the
		// cursor stayed on its line.
		force = true
	}

	row := e.buffer.Row()
	firstVisible := e.buffer.FirstVisibleLine()
	if !force && row == e.lastRow && firstVisible == e.lastFirstVisible {
		return
	}
	e.lastRow = row
	e.lastFirstVisible = firstVisible

	frame, err := e.computeFrame(row, firstVisible)
	if err != nil {
		logger.Error("cycle failed: %v", err)
		return
	}

	if len(frame.Entries) == 0 {
		e.closeDisplay()
		// closeDisplay clears the row bookkeeping used for the
		// same-line skip; restore it so an unmoved cursor stays a no-op.
		e.lastRow = row
		e.lastFirstVisible = firstVisible
		return
	}

	next, pub := header.Diff(e.renderState, frame)
	e.renderState = next
	if pub == nil {
		logger.Debug("context unchanged, skipping redraw")
		return
	}

	if err := e.buffer.ShowContext(pub.Lines, pub.GutterLabels, pub.Spans, pub.ChangedLines); err != nil {
		logger.Error("error showing context: %v", err)
	}
}

// computeFrame derives the context stack for the current cursor and
// viewport and reduces it to display lines with remapped highlights.
func (e *Engine) computeFrame(row, firstVisible int) (header.Frame, error) {
	var frame header.Frame

	tree, err := e.buffer.TreeSnapshot(row, e.buffer.Col())
	if err != nil {
		return frame, err
	}
	if tree == nil {
		return frame, nil // no parser: nothing to display
	}

	cursor := types.Position{Row: row - 1, Col: e.buffer.Col()}
	language := e.buffer.Language()
	entries := header.BuildStack(tree, cursor, firstVisible, language, e.matcher, e.config.MaxLines)
	if len(entries) == 0 {
		return frame, nil
	}
	frame.Entries = entries

	lines := e.buffer.Lines()
	ranges := make([]types.Range, len(entries))
	frame.Lines = make([]header.DisplayLine, len(entries))
	for i, entry := range entries {
		frame.Lines[i] = e.reducer.Reduce(lines, entry.Node, language)
		ranges[i] = frame.Lines[i].Range
	}

	captures, err := e.buffer.HighlightCaptures(ranges)
	if err != nil {
		return frame, err
	}
	for i, dl := range frame.Lines {
		frame.Spans = append(frame.Spans, header.RemapCaptures(dl, captures, i)...)
	}

	return frame, nil
}

// SetNvim sets a new nvim instance for the engine (used for socket connections)
func (e *Engine) SetNvim(n *nvim.Nvim) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}

	e.n = n
	e.buffer.SetClient(n)

	// Re-register the event handler for the new connection
	if err := e.n.RegisterHandler("contextwin_event", func(n *nvim.Nvim, event string) {
		e.mu.RLock()
		stopped := e.stopped
		e.mu.RUnlock()

		if stopped {
			return
		}

		eventType := EventTypeFromString(event)
		if eventType != "" {
			select {
			case e.eventChan <- Event{Type: eventType, Data: nil}:
			case <-e.mainCtx.Done():
				return
			}
		}
	}); err != nil {
		logger.Error("error registering event handler for new connection: %v", err)
	}
}

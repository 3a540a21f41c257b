package kestrel

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// features records which optional capabilities a Runtime was built with.
type features struct {
	io bool
	fs bool
}

// ctxFrame is the triple published for the duration of a BlockOn call
// and every task poll: the current ready queue, the current reactor,
// and the feature flags in effect.
type ctxFrame struct {
	queue    *readyQueue
	reactor  *Reactor
	features features
	logger   Logger
}

// contextStack is a goroutine-ID-keyed frame stack standing in for a
// thread-local, since Go has no native equivalent and a goroutine may
// resume the same logical "thread of execution" across multiple calls
// (e.g. a task body running on a dedicated goroutine via Async/Go,
// which must see the same context the executor goroutine published).
var contextStack = struct {
	mu     sync.Mutex
	frames map[uint64][]ctxFrame
}{frames: make(map[uint64][]ctxFrame)}

// goroutineID parses runtime.Stack's "goroutine N [...]" header to
// recover the calling goroutine's id. There is no supported API for
// this, but it is a well-worn trick for reentrancy checks keyed on
// "which goroutine is this".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// enterContext pushes frame for the calling goroutine, runs fn, then
// pops it — restoring whatever was previously published, on every
// exit path including a panic unwinding through fn.
func enterContext(q *readyQueue, r *Reactor, f features, logger Logger, fn func()) {
	id := goroutineID()

	contextStack.mu.Lock()
	contextStack.frames[id] = append(contextStack.frames[id], ctxFrame{queue: q, reactor: r, features: f, logger: logger})
	contextStack.mu.Unlock()

	defer func() {
		contextStack.mu.Lock()
		stack := contextStack.frames[id]
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			delete(contextStack.frames, id)
		} else {
			contextStack.frames[id] = stack
		}
		contextStack.mu.Unlock()
	}()

	fn()
}

// currentFrame returns the frame published for the calling goroutine,
// if any.
func currentFrame() (ctxFrame, bool) {
	id := goroutineID()
	contextStack.mu.Lock()
	defer contextStack.mu.Unlock()
	stack := contextStack.frames[id]
	if len(stack) == 0 {
		return ctxFrame{}, false
	}
	return stack[len(stack)-1], true
}

// currentReactorIO returns the reactor in scope, requiring that I/O
// support was enabled when the runtime was constructed.
func currentReactorIO() *Reactor {
	frame, ok := currentFrame()
	if !ok {
		panic("kestrel: no reactor in current context. I/O operations must be called within kestrel.BlockOn")
	}
	ensureFeature(frame.features.io, "I/O", "kestrel.WithIO()")
	return frame.reactor
}

// currentReactorFS returns the reactor in scope, requiring that
// filesystem support was enabled when the runtime was constructed.
func currentReactorFS() *Reactor {
	frame, ok := currentFrame()
	if !ok {
		panic("kestrel: no reactor in current context. Filesystem operations must be called within kestrel.BlockOn")
	}
	ensureFeature(frame.features.fs, "filesystem", "kestrel.WithFS()")
	return frame.reactor
}

// currentLogger returns the logger in scope, or a no-op logger if
// called outside any runtime context.
func currentLogger() Logger {
	frame, ok := currentFrame()
	if !ok {
		return noOpLogger{}
	}
	return frame.logger
}

// ReactorForIO exposes the current context's reactor to the net and fs
// subpackages, which cannot reach the unexported context accessors
// directly. It panics with the same remediation-hint messages as any
// other gated-feature misuse.
func ReactorForIO() *Reactor { return currentReactorIO() }

// ReactorForFS exposes the current context's reactor, requiring the
// filesystem feature, to the fs subpackage.
func ReactorForFS() *Reactor { return currentReactorFS() }

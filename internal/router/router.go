package router

import (
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

type Handler func(types.Envelope)

type entry struct {
	fn      Handler
	removed atomic.Bool
}

// Router fans each envelope out to the handlers registered for its code, in
// registration order. It has no opinion about payloads.
type Router struct {
	mu       sync.Mutex
	handlers map[types.Code][]*entry
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		handlers: make(map[types.Code][]*entry),
		logger:   logger,
	}
}

// Subscription removes its handler when disposed.
type Subscription struct {
	r    *Router
	code types.Code
	e    *entry
}

func (s *Subscription) Code() types.Code { return s.code }

// Unsubscribe is idempotent. A handler unsubscribed while a dispatch is in
// flight is not invoked for the remainder of that dispatch.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.e.removed.Swap(true) {
		return
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	hs := slices.DeleteFunc(s.r.handlers[s.code], func(e *entry) bool { return e == s.e })
	if len(hs) == 0 {
		delete(s.r.handlers, s.code)
		return
	}
	s.r.handlers[s.code] = hs
}

func (r *Router) Subscribe(code types.Code, h Handler) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &entry{fn: h}
	r.handlers[code] = append(r.handlers[code], e)
	return &Subscription{r: r, code: code, e: e}
}

// Dispatch invokes every handler registered for env.Code and reports how many
// ran. Envelopes nobody listens to are dropped.
func (r *Router) Dispatch(env types.Envelope) int {
	r.mu.Lock()
	hs := slices.Clone(r.handlers[env.Code])
	r.mu.Unlock()

	n := 0
	for _, e := range hs {
		if e.removed.Load() {
			continue
		}
		e.fn(env)
		n++
	}
	if n == 0 {
		r.logger.Debug("no handlers for envelope", zap.Stringer("code", env.Code))
	}
	return n
}

// Handlers reports how many handlers are registered for code.
func (r *Router) Handlers(code types.Code) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[code])
}

// On subscribes fn to T's code and hands it the decoded payload. Payloads that
// do not match T's schema are logged and skipped.
func On[T types.Payload](r *Router, fn func(T)) *Subscription {
	var zero T
	code := zero.Code()
	return r.Subscribe(code, func(env types.Envelope) {
		msg, err := types.DecodeAs[T](env)
		if err != nil {
			r.logger.Warn("dropping malformed payload", zap.Stringer("code", code), zap.Error(err))
			return
		}
		fn(msg)
	})
}

// UnsubscribeAll disposes every subscription in subs.
func UnsubscribeAll(subs []*Subscription) {
	for _, s := range subs {
		s.Unsubscribe()
	}
}

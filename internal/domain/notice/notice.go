package notice

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Kind tells a success notice from a failure notice.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Action names the user intent a notice reports on.
type Action string

const (
	ActionSession  Action = "session"
	ActionSend     Action = "send"
	ActionSync     Action = "sync"
	ActionCreate   Action = "create"
	ActionSelect   Action = "select"
	ActionDelete   Action = "delete"
	ActionShare    Action = "share"
	ActionSummary  Action = "summarize"
	ActionUpload   Action = "upload"
	ActionExecute  Action = "execute"
	ActionShared   Action = "shared"
	ActionRegistry Action = "conversations"
)

// Notice is a user-visible message about the outcome of an action.
type Notice struct {
	Action  Action    `json:"action"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Success reports whether the notice describes a successful action.
func (n Notice) Success() bool {
	return n.Kind == KindSuccess
}

// Notifier delivers notices without blocking the caller.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Succeeded builds a success notice stamped with the current time.
func Succeeded(action Action, message string) Notice {
	return Notice{Action: action, Kind: KindSuccess, Message: message, At: time.Now().UTC()}
}

// Failed builds a failure notice stamped with the current time.
func Failed(action Action, message string) Notice {
	return Notice{Action: action, Kind: KindFailure, Message: message, At: time.Now().UTC()}
}

// Queue is a bounded, non-blocking Notifier. When the buffer is full the oldest
// pending notice is dropped to make room for the new one.
type Queue struct {
	ch      chan Notice
	mu      sync.Mutex
	dropped int
	log     zerolog.Logger
}

// NewQueue creates a queue buffering up to size notices.
func NewQueue(size int, log zerolog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		ch:  make(chan Notice, size),
		log: log.With().Str("component", "notice-queue").Logger(),
	}
}

// Notify enqueues n, evicting the oldest pending notice when full.
func (q *Queue) Notify(n Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		select {
		case q.ch <- n:
			return
		default:
		}
		select {
		case old := <-q.ch:
			q.dropped++
			q.log.Warn().Str("action", string(old.Action)).Msg("notice queue full, dropping oldest notice")
		default:
		}
	}
}

// C exposes the receive side for renderers.
func (q *Queue) C() <-chan Notice {
	return q.ch
}

// Drain returns every pending notice without blocking.
func (q *Queue) Drain() []Notice {
	var out []Notice
	for {
		select {
		case n := <-q.ch:
			out = append(out, n)
		default:
			return out
		}
	}
}

// Dropped reports how many notices were evicted.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Recorder keeps every notice in memory. Useful for one-shot commands and tests.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify appends n.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last returns the most recent notice, if any.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

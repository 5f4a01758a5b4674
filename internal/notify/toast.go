// Package notify implements the transient toast layer: fire-and-forget
// messages with a fixed lifetime and at most one visible toast per channel.
package notify

import (
	"sync"
	"time"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 3000 * time.Millisecond

// Well-known channels used by mutation outcomes.
const (
	ChannelError   = "error"
	ChannelSuccess = "success"
	ChannelMemory  = "memory"
	ChannelGoal    = "goal"
)

// Notifier is the sink mutation code reports outcomes to.
type Notifier interface {
	// Notify shows message on the channel, replacing any visible toast there.
	Notify(channel, message string)
}

// Func adapts a function to Notifier.
type Func func(channel, message string)

// Notify implements Notifier.
func (f Func) Notify(channel, message string) { f(channel, message) }

// Discard drops all notifications.
var Discard Notifier = Func(func(string, string) {})

type toast struct {
	message string
	timer   *time.Timer
}

// Toaster keeps one visible toast per channel and hides each after a fixed
// duration. It is not part of the correctness contract of any mutation.
type Toaster struct {
	mu       sync.Mutex
	duration time.Duration
	visible  map[string]*toast
	onShow   func(channel, message string)
	onHide   func(channel string)
}

// ToasterOption customizes a Toaster.
type ToasterOption func(*Toaster)

// WithDuration overrides the visible duration (tests).
func WithDuration(d time.Duration) ToasterOption {
	return func(t *Toaster) { t.duration = d }
}

// WithHooks registers show/hide callbacks for rendering. Either may be nil.
func WithHooks(onShow func(channel, message string), onHide func(channel string)) ToasterOption {
	return func(t *Toaster) { t.onShow, t.onHide = onShow, onHide }
}

// NewToaster constructs a Toaster with the default 3 s lifetime.
func NewToaster(opts ...ToasterOption) *Toaster {
	t := &Toaster{duration: DefaultDuration, visible: map[string]*toast{}}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Notify shows message on the channel. A toast already visible on the same
// channel is replaced and its lifetime restarts.
func (t *Toaster) Notify(channel, message string) {
	t.mu.Lock()
	if cur, ok := t.visible[channel]; ok {
		cur.timer.Stop()
	}
	tt := &toast{message: message}
	tt.timer = time.AfterFunc(t.duration, func() { t.expire(channel, tt) })
	t.visible[channel] = tt
	show := t.onShow
	t.mu.Unlock()
	if show != nil {
		show(channel, message)
	}
}

// Visible returns the currently shown message on a channel, if any.
func (t *Toaster) Visible(channel string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.visible[channel]
	if !ok {
		return "", false
	}
	return cur.message, true
}

func (t *Toaster) expire(channel string, tt *toast) {
	t.mu.Lock()
	if t.visible[channel] != tt { // already replaced
		t.mu.Unlock()
		return
	}
	delete(t.visible, channel)
	hide := t.onHide
	t.mu.Unlock()
	if hide != nil {
		hide(channel)
	}
}

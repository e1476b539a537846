package chat

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Errors returned by Copilot operations.
var (
	ErrRequestInFlight = errors.New("Message is Requesting, you can create a new conversation after request done or abort it right now...")
	ErrAlreadyNew      = errors.New("It is now a new conversation.")
	ErrUnknownSession  = errors.New("chat: unknown session")
	ErrSwitching       = errors.New("chat: session switch in progress")
	ErrEmptyMessage    = errors.New("chat: message is empty")
)

// errStale stops a stream whose request has been superseded.
var errStale = errors.New("chat: stale request")

// Agent streams a completion for a conversation. onChunk receives the raw
// data field of every stream event in order; a non-nil return stops the
// stream and is returned by Stream.
type Agent interface {
	Stream(ctx context.Context, msgs []Message, onChunk func(data string) error) error
}

// State is the session-switch state.
type State int

const (
	Idle State = iota
	Switching
)

func (s State) String() string {
	if s == Switching {
		return "switching"
	}
	return "idle"
}

// Update is a snapshot published to subscribers after every change.
type Update struct {
	Session    string    `json:"session"`
	State      string    `json:"state"`
	Requesting bool      `json:"requesting"`
	Messages   []Message `json:"messages"`
}

// subscriberBuffer is the channel capacity of each subscriber.
const subscriberBuffer = 16

// Options holds parameters for creating a Copilot.
type Options struct {
	Agent       Agent
	SettleDelay time.Duration    // wait between cancelling and loading a session
	LabelMax    int              // rune limit of labels taken from a first message
	Sessions    []Session        // defaults to DefaultSessions()
	Now         func() time.Time // defaults to time.Now
}

// Copilot drives one chat panel: the session list, the active message
// list, and the single in-flight request.
type Copilot struct {
	agent    Agent
	settle   time.Duration
	labelMax int
	now      func() time.Time
	tracker  Tracker
	history  *History

	mu         sync.Mutex
	sessions   []Session
	current    string
	messages   []Message
	state      State
	requesting bool
	subs       map[int]chan Update
	nextSub    int

	wg sync.WaitGroup
}

// New creates a Copilot. The first session of the list is current.
func New(opts Options) (*Copilot, error) {
	if opts.Agent == nil {
		return nil, errors.New("chat: copilot: agent is required")
	}
	if opts.SettleDelay < 0 {
		return nil, errors.New("chat: copilot: settle delay must not be negative")
	}
	sessions := opts.Sessions
	if len(sessions) == 0 {
		sessions = DefaultSessions()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Copilot{
		agent:    opts.Agent,
		settle:   opts.SettleDelay,
		labelMax: opts.LabelMax,
		now:      now,
		history:  NewHistory(),
		sessions: slices.Clone(sessions),
		current:  sessions[0].Key,
		subs:     make(map[int]chan Update),
	}, nil
}

// Current returns the key of the active session.
func (c *Copilot) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns the session-switch state.
func (c *Copilot) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Requesting reports whether a request is in flight.
func (c *Copilot) Requesting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requesting
}

// Messages returns a copy of the active message list.
func (c *Copilot) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// History returns the messages stored for key.
func (c *Copilot) History(key string) []Message {
	return c.history.Load(key)
}

// Sessions returns the conversation list with the active entry labelled.
func (c *Copilot) Sessions() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := slices.Clone(c.sessions)
	for i := range out {
		if out[i].Key == c.current {
			out[i].Label = currentPrefix + out[i].Label
		}
	}
	return out
}

// Subscribe returns a channel of snapshots and a func that ends the
// subscription. A subscriber that falls behind loses intermediate
// snapshots, never the latest one.
func (c *Copilot) Subscribe() (<-chan Update, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Update, subscriberBuffer)
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

// Submit sends text as a user message in the active session and starts
// streaming the answer in the background. Cancelling ctx aborts the
// request.
func (c *Copilot) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Switching {
		return ErrSwitching
	}
	if c.requesting {
		return ErrRequestInFlight
	}

	c.messages = append(c.messages, Message{Role: RoleUser, Content: text, Status: StatusDone})
	convo := slices.Clone(c.messages)
	c.messages = append(c.messages, Message{Role: RoleAssistant, Status: StatusLoading})
	c.renameLocked(c.current, text)

	reqCtx, req := c.tracker.Begin(ctx)
	c.requesting = true
	c.history.Save(c.current, c.messages)
	c.publishLocked()

	log.Debug().Uint64("request_id", req.ID).Str("session", c.current).Msg("chat: request started")

	c.wg.Add(1)
	go c.run(reqCtx, req, c.current, convo)
	return nil
}

// run streams one request and applies its result if still current.
func (c *Copilot) run(ctx context.Context, req Request, session string, convo []Message) {
	defer c.wg.Done()
	defer c.tracker.Release(req)

	err := c.agent.Stream(ctx, convo, func(data string) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.tracker.Current(req.ID) {
			return errStale
		}
		last := &c.messages[len(c.messages)-1]
		last.Content = Fold(last.Content, data)
		c.history.Save(c.current, c.messages)
		c.publishLocked()
		return nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tracker.Current(req.ID) {
		log.Debug().Uint64("request_id", req.ID).Str("session", session).Err(err).
			Msg("chat: discarding result of superseded request")
		return
	}

	last := &c.messages[len(c.messages)-1]
	switch {
	case err == nil:
		last.Status = StatusDone
	case errors.Is(err, context.Canceled):
		*last = Message{Role: RoleAssistant, Content: AbortedContent, Status: StatusError}
		log.Info().Uint64("request_id", req.ID).Str("session", session).Msg("chat: request aborted")
	default:
		*last = Message{Role: RoleAssistant, Content: FailedContent, Status: StatusError}
		log.Error().Err(err).Uint64("request_id", req.ID).Str("session", session).Msg("chat: request failed")
	}
	c.requesting = false
	c.history.Save(c.current, c.messages)
	c.publishLocked()
}

// Cancel aborts the in-flight request. The aborted message is still shown
// in the active session. It is a no-op when nothing is in flight.
func (c *Copilot) Cancel() {
	if c.tracker.Cancel() {
		log.Debug().Msg("chat: cancel requested")
	}
}

// Wait blocks until every started request goroutine has returned.
func (c *Copilot) Wait() {
	c.wg.Wait()
}

// SwitchSession makes key the active session: the in-flight request is
// cancelled and retired, and after the settle delay the session's stored
// history replaces the message list. Switching to the active session is a
// no-op.
func (c *Copilot) SwitchSession(ctx context.Context, key string) error {
	c.mu.Lock()
	if c.state == Switching {
		c.mu.Unlock()
		return ErrSwitching
	}
	if c.indexLocked(key) < 0 {
		c.mu.Unlock()
		return errors.Wrap(ErrUnknownSession, key)
	}
	if key == c.current {
		c.mu.Unlock()
		return nil
	}
	from := c.current
	c.beginSwitchLocked()
	c.mu.Unlock()

	if err := c.settleWait(ctx); err != nil {
		c.mu.Lock()
		c.state = Idle
		c.publishLocked()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = key
	c.messages = c.history.Load(key)
	c.state = Idle
	c.publishLocked()
	log.Debug().Str("from", from).Str("to", key).Msg("chat: switched session")
	return nil
}

// NewConversation starts a fresh session at the head of the list and
// makes it active. It refuses while a request is in flight or when the
// active conversation is still empty.
func (c *Copilot) NewConversation(ctx context.Context) (Session, error) {
	c.mu.Lock()
	if c.state == Switching {
		c.mu.Unlock()
		return Session{}, ErrSwitching
	}
	if c.requesting {
		c.mu.Unlock()
		return Session{}, ErrRequestInFlight
	}
	if len(c.messages) == 0 {
		c.mu.Unlock()
		return Session{}, ErrAlreadyNew
	}
	ms := c.now().UnixMilli()
	for c.indexLocked(strconv.FormatInt(ms, 10)) >= 0 {
		ms++
	}
	s := Session{Key: strconv.FormatInt(ms, 10), Label: NewSessionLabel, Group: GroupToday}
	c.beginSwitchLocked()
	c.mu.Unlock()

	if err := c.settleWait(ctx); err != nil {
		c.mu.Lock()
		c.state = Idle
		c.publishLocked()
		c.mu.Unlock()
		return Session{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = append([]Session{s}, c.sessions...)
	c.current = s.Key
	c.messages = nil
	c.state = Idle
	c.publishLocked()
	log.Debug().Str("session", s.Key).Msg("chat: new conversation")
	return s, nil
}

// Regroup recomputes Today/Yesterday/Earlier for sessions whose keys are
// creation timestamps. It returns the number of sessions that moved.
func (c *Copilot) Regroup(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	moved := 0
	for i := range c.sessions {
		g, ok := groupFor(c.sessions[i].Key, now)
		if ok && g != c.sessions[i].Group {
			c.sessions[i].Group = g
			moved++
		}
	}
	return moved
}

// beginSwitchLocked enters Switching and retires the in-flight request.
// The retired request's loading message is settled as aborted in the
// history of the session it belongs to.
func (c *Copilot) beginSwitchLocked() {
	c.state = Switching
	c.tracker.Cancel()
	c.tracker.Invalidate()
	if c.requesting {
		if n := len(c.messages); n > 0 && c.messages[n-1].Status == StatusLoading {
			c.messages[n-1] = Message{Role: RoleAssistant, Content: AbortedContent, Status: StatusError}
		}
		c.history.Save(c.current, c.messages)
		c.requesting = false
	}
	c.publishLocked()
}

// settleWait sleeps for the settle delay unless ctx ends first.
func (c *Copilot) settleWait(ctx context.Context) error {
	if c.settle <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// renameLocked labels a placeholder session after its first message.
func (c *Copilot) renameLocked(key, text string) {
	i := c.indexLocked(key)
	if i < 0 || c.sessions[i].Label != NewSessionLabel {
		return
	}
	c.sessions[i].Label = truncateLabel(text, c.labelMax)
}

func (c *Copilot) indexLocked(key string) int {
	return slices.IndexFunc(c.sessions, func(s Session) bool { return s.Key == key })
}

// publishLocked sends a snapshot to every subscriber without blocking.
func (c *Copilot) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	u := Update{
		Session:    c.current,
		State:      c.state.String(),
		Requesting: c.requesting,
		Messages:   slices.Clone(c.messages),
	}
	for _, ch := range c.subs {
		select {
		case ch <- u:
		default:
			// Drop the oldest snapshot to make room for the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
}

package panel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/domain/state"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

const testBase = "http://127.0.0.1:8888/"

// fakeNav records navigations. With autoLoad set it reports each one back
// as a load event, like a real frame would.
type fakeNav struct {
	mu       sync.Mutex
	urls     []string
	frame    *Frame
	autoLoad bool
	err      error
}

func (n *fakeNav) Navigate(url string) error {
	n.mu.Lock()
	n.urls = append(n.urls, url)
	frame, auto, err := n.frame, n.autoLoad, n.err
	n.mu.Unlock()

	if err != nil {
		return err
	}
	if auto && frame != nil {
		frame.Load(LoadEvent{Href: "http://127.0.0.1:8888" + url})
	}
	return nil
}

func (n *fakeNav) URLs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}

func (n *fakeNav) Last() string {
	urls := n.URLs()
	if len(urls) == 0 {
		return ""
	}
	return urls[len(urls)-1]
}

type fakeView struct {
	mu         sync.Mutex
	ports      [][]types.PortEntry
	selections []Selection
	titles     []string
}

func (v *fakeView) ShowPorts(entries []types.PortEntry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ports = append(v.ports, entries)
}

func (v *fakeView) ShowSelection(sel Selection) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selections = append(v.selections, sel)
}

func (v *fakeView) ShowTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.titles = append(v.titles, title)
}

func (v *fakeView) LastPorts() []types.PortEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.ports) == 0 {
		return nil
	}
	return v.ports[len(v.ports)-1]
}

func (v *fakeView) LastSelection() Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.selections) == 0 {
		return Selection{}
	}
	return v.selections[len(v.selections)-1]
}

func (v *fakeView) Titles() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.titles...)
}

// pollCall is one outstanding Directory.Poll, answered by the test
type pollCall struct {
	reply chan pollReply
}

type pollReply struct {
	entries []types.PortEntry
	err     error
}

type fakeDirectory struct {
	calls chan *pollCall
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{calls: make(chan *pollCall, 16)}
}

func (d *fakeDirectory) Poll(ctx context.Context) ([]types.PortEntry, error) {
	call := &pollCall{reply: make(chan pollReply, 1)}
	d.calls <- call
	select {
	case r := <-call.reply:
		return r.entries, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *fakeDirectory) next() *pollCall {
	select {
	case c := <-d.calls:
		return c
	case <-time.After(2 * time.Second):
		panic("no poll issued")
	}
}

func (c *pollCall) answer(entries ...types.PortEntry) {
	c.reply <- pollReply{entries: entries}
}

func (c *pollCall) fail(err error) {
	c.reply <- pollReply{err: err}
}

type fakeTicker struct {
	ch      chan time.Time
	started atomic.Int32
	stopped atomic.Int32
	period  time.Duration
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time)}
}

func (t *fakeTicker) Func(d time.Duration) (<-chan time.Time, func()) {
	t.started.Add(1)
	t.period = d
	return t.ch, func() { t.stopped.Add(1) }
}

func (t *fakeTicker) tick() {
	select {
	case t.ch <- time.Now():
	case <-time.After(2 * time.Second):
		panic("poll loop not receiving ticks")
	}
}

type fakeRecorder struct {
	opened, closed atomic.Int32
	mu             sync.Mutex
	polls          map[string]int
}

func (r *fakeRecorder) PanelOpened() { r.opened.Add(1) }
func (r *fakeRecorder) PanelClosed() { r.closed.Add(1) }
func (r *fakeRecorder) RecordPoll(status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.polls == nil {
		r.polls = map[string]int{}
	}
	r.polls[status]++
}

func (r *fakeRecorder) Polls(status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.polls[status]
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, location.Location) error {
	return errors.New("store down")
}

func (failingStore) Fetch(context.Context, string) (location.Location, bool, error) {
	return location.Location{}, false, errors.New("store down")
}

func (failingStore) Remove(context.Context, string) error {
	return errors.New("store down")
}

type harness struct {
	panel  *Panel
	nav    *fakeNav
	view   *fakeView
	store  *state.Manager
	dir    *fakeDirectory
	ticker *fakeTicker
	rec    *fakeRecorder
}

func newHarness(full bool) *harness {
	h := &harness{
		nav:    &fakeNav{},
		view:   &fakeView{},
		store:  state.NewManager(state.NewMemoryBackend()),
		dir:    newFakeDirectory(),
		ticker: newFakeTicker(),
		rec:    &fakeRecorder{},
	}
	frame := NewFrame(h.nav)
	h.nav.frame = frame
	h.panel = New("lb-test", frame, h.view, Config{
		Codec:       location.NewCodec(testBase),
		Store:       h.store,
		Directory:   h.dir,
		FullToolbar: full,
		Ticker:      h.ticker.Func,
		Metrics:     h.rec,
	})
	return h
}

func sentinel() types.PortEntry {
	return types.PortEntry{Port: "_placeholder", Label: "Select a Port"}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// flakyStore fails the first Fetch and counts removals, delegating
// everything else to a real manager.
type flakyStore struct {
	*state.Manager
	fetches atomic.Int32
	removes atomic.Int32
}

func (s *flakyStore) Fetch(ctx context.Context, id string) (location.Location, bool, error) {
	if s.fetches.Add(1) == 1 {
		return location.Location{}, false, errors.New("store down")
	}
	return s.Manager.Fetch(ctx, id)
}

func (s *flakyStore) Remove(ctx context.Context, id string) error {
	s.removes.Add(1)
	return s.Manager.Remove(ctx, id)
}

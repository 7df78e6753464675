package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/domain/ports"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

var (
	// ErrClosed is returned by operations on a closed panel
	ErrClosed = errors.New("panel closed")
	// ErrAlreadyOpen is returned when Open is called twice
	ErrAlreadyOpen = errors.New("panel already open")
	// ErrNotOpen is returned by toolbar and reload before Open
	ErrNotOpen = errors.New("panel not open")
)

// DefaultPollInterval is how often the port list is refreshed
const DefaultPollInterval = 10 * time.Second

// State of the frame
type State int

const (
	Landing State = iota
	Proxied
)

func (s State) String() string {
	if s == Proxied {
		return "proxied"
	}
	return "landing"
}

// Selection is what the toolbar shows and edits. Path may carry a query
// and fragment.
type Selection struct {
	Mode location.Mode
	Port string
	Path string
}

// View renders panel output
type View interface {
	ShowPorts(entries []types.PortEntry)
	ShowSelection(sel Selection)
	ShowTitle(title string)
}

// StateStore persists the panel location
type StateStore interface {
	Save(ctx context.Context, id string, loc location.Location) error
	Fetch(ctx context.Context, id string) (location.Location, bool, error)
	Remove(ctx context.Context, id string) error
}

// Directory lists selectable ports, sentinel first
type Directory interface {
	Poll(ctx context.Context) ([]types.PortEntry, error)
}

// Recorder receives panel metrics
type Recorder interface {
	PanelOpened()
	PanelClosed()
	RecordPoll(status string, d time.Duration)
}

// TickerFunc starts a periodic timer and returns its channel and stop function
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// DefaultTicker uses time.Ticker
func DefaultTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Config holds the dependencies shared by every panel
type Config struct {
	Codec     location.Codec
	Store     StateStore
	Directory Directory // nil disables polling
	// PollInterval defaults to DefaultPollInterval
	PollInterval time.Duration
	// FullToolbar enables mode and path editing; otherwise only the port is
	// selectable and the target is always relative at its root
	FullToolbar bool
	Ticker      TickerFunc
	Logger      *zap.Logger
	Metrics     Recorder
}

// Panel is one embedded browser view
type Panel struct {
	id     string
	frame  *Frame
	view   View
	cfg    Config
	logger *zap.Logger
	policy *bluemonday.Policy

	mu         sync.Mutex
	state      State
	current    location.Location
	entries    []types.PortEntry
	url        string
	title      string
	opened     bool
	live       bool // fully opened, counted in metrics
	closed     bool
	issuedSeq  uint64
	appliedSeq uint64

	// held while checking and emitting a poll result so emissions keep
	// sequence order
	emitMu sync.Mutex

	cancelLoad func()
	stopTicker func()
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// New creates a panel. It does nothing until Open.
func New(id string, frame *Frame, view View, cfg Config) *Panel {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Ticker == nil {
		cfg.Ticker = DefaultTicker
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Panel{
		id:      id,
		frame:   frame,
		view:    view,
		cfg:     cfg,
		logger:  logger.With(zap.String("panel_id", id)),
		policy:  bluemonday.StrictPolicy(),
		state:   Landing,
		current: location.Landing(),
		entries: []types.PortEntry{ports.Sentinel()},
	}
}

// Open subscribes to frame loads, restores the stored location (or shows the
// landing page) and starts polling. If navigation fails everything acquired
// so far is released and the panel is closed.
func (p *Panel) Open(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.opened {
		p.mu.Unlock()
		return ErrAlreadyOpen
	}
	p.opened = true
	p.ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	p.mu.Unlock()

	cancelLoad := p.frame.OnLoad(p.handleLoad)
	p.mu.Lock()
	p.cancelLoad = cancelLoad
	p.mu.Unlock()

	target := location.Landing()
	loc, ok, err := p.cfg.Store.Fetch(ctx, p.id)
	switch {
	case err != nil:
		p.logger.Warn("Failed to restore panel location", zap.Error(err))
	case ok:
		target = loc
	}

	if err := ctx.Err(); err != nil {
		p.Close()
		return err
	}

	url := p.cfg.Codec.Encode(target)
	p.mu.Lock()
	p.current = target
	p.state = stateOf(target)
	p.url = url
	sel := p.selectionLocked()
	entries := p.entriesLocked()
	p.mu.Unlock()

	p.view.ShowPorts(entries)
	p.view.ShowSelection(sel)

	if err := p.frame.Navigate(url); err != nil {
		p.Close()
		return fmt.Errorf("initial navigation: %w", err)
	}

	var ticks <-chan time.Time
	var stop func()
	if p.cfg.Directory != nil {
		ticks, stop = p.cfg.Ticker(p.cfg.PollInterval)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if stop != nil {
			stop()
		}
		return ErrClosed
	}
	if stop != nil {
		p.stopTicker = stop
		p.wg.Add(1)
		go p.pollLoop(ticks)
	}
	p.live = true
	p.mu.Unlock()

	if p.cfg.Metrics != nil {
		p.cfg.Metrics.PanelOpened()
	}
	p.logger.Info("Panel opened",
		zap.String("state", stateOf(target).String()),
		zap.Bool("restored", ok),
	)
	return nil
}

// ToolbarChanged applies a toolbar edit
func (p *Panel) ToolbarChanged(ctx context.Context, sel Selection) error {
	target := p.fromSelection(sel)

	p.mu.Lock()
	if err := p.usableLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	prev := p.state

	if !target.IsUnselected() && !location.ValidPort(target.Port) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %q", location.ErrInvalidPort, target.Port)
	}

	if target.IsUnselected() {
		if prev == Landing {
			p.mu.Unlock()
			return nil
		}
		p.state = Landing
		p.current = location.Landing()
		p.url = p.cfg.Codec.LandingPath()
		url := p.url
		p.mu.Unlock()

		if err := p.cfg.Store.Remove(ctx, p.id); err != nil {
			p.logger.Warn("Failed to remove panel location", zap.Error(err))
		}
		p.view.ShowSelection(selectionOf(location.Landing(), p.cfg.FullToolbar))
		return p.frame.Navigate(url)
	}

	p.state = Proxied
	p.current = target
	p.url = p.cfg.Codec.Encode(target)
	url := p.url
	p.mu.Unlock()

	return p.frame.Navigate(url)
}

// Reload navigates the frame to its current URL again
func (p *Panel) Reload() error {
	p.mu.Lock()
	if err := p.usableLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	url := p.url
	p.mu.Unlock()

	return p.frame.Navigate(url)
}

// Close releases the load subscription and the poll loop and waits for
// in-flight polls. Safe to call more than once. Must not be called from a
// View or Directory callback.
func (p *Panel) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		live := p.live
		cancelLoad, stop, cancel := p.cancelLoad, p.stopTicker, p.cancel
		p.mu.Unlock()

		if cancelLoad != nil {
			cancelLoad()
		}
		if cancel != nil {
			cancel()
		}
		if stop != nil {
			stop()
		}
		p.wg.Wait()

		if live {
			if p.cfg.Metrics != nil {
				p.cfg.Metrics.PanelClosed()
			}
			p.logger.Info("Panel closed")
		}
	})
}

// ID returns the panel id
func (p *Panel) ID() string { return p.id }

// Frame returns the frame the panel is attached to
func (p *Panel) Frame() *Frame { return p.frame }

// State returns the current state
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Location returns the current target
func (p *Panel) Location() location.Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Selection returns what the toolbar should display
func (p *Panel) Selection() Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectionLocked()
}

// Ports returns the last applied port list
func (p *Panel) Ports() []types.PortEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entriesLocked()
}

// URL returns the frame URL
func (p *Panel) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Title returns the sanitised document title
func (p *Panel) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

// Closed reports whether Close has run
func (p *Panel) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Panel) handleLoad(ev LoadEvent) {
	loc := p.cfg.Codec.Decode(ev.Href)
	title := strings.TrimSpace(p.policy.Sanitize(ev.Title))

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	prev := p.state
	p.url = ev.Href
	titleChanged := title != "" && title != p.title
	if titleChanged {
		p.title = title
	}
	if loc.IsUnselected() {
		p.state = Landing
		p.current = location.Landing()
	} else {
		p.state = Proxied
		p.current = loc
	}
	sel := p.selectionLocked()
	ctx := p.ctx
	p.mu.Unlock()

	// every landing load clears the entry, even one Open failed to fetch
	if loc.IsUnselected() {
		if err := p.cfg.Store.Remove(ctx, p.id); err != nil {
			p.logger.Warn("Failed to remove panel location", zap.Error(err))
		}
	} else if err := p.cfg.Store.Save(ctx, p.id, loc); err != nil {
		p.logger.Warn("Failed to save panel location", zap.Error(err))
	}

	if !loc.IsUnselected() || prev == Proxied {
		p.view.ShowSelection(sel)
	}
	if titleChanged {
		p.view.ShowTitle(title)
	}
}

func (p *Panel) pollLoop(ticks <-chan time.Time) {
	defer p.wg.Done()

	p.spawnPoll()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticks:
			p.spawnPoll()
		}
	}
}

func (p *Panel) spawnPoll() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.issuedSeq++
	seq := p.issuedSeq
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.poll(seq)
	}()
}

func (p *Panel) poll(seq uint64) {
	start := time.Now()
	entries, err := p.cfg.Directory.Poll(p.ctx)
	if err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.recordPoll("error", start)
		p.logger.Warn("Port poll failed", zap.Uint64("seq", seq), zap.Error(err))
		return
	}

	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if p.closed || seq <= p.appliedSeq {
		p.mu.Unlock()
		p.recordPoll("stale", start)
		return
	}
	p.appliedSeq = seq
	p.entries = append([]types.PortEntry(nil), entries...)
	out := p.entriesLocked()
	p.mu.Unlock()

	p.recordPoll("success", start)
	p.view.ShowPorts(out)
}

func (p *Panel) recordPoll(status string, start time.Time) {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordPoll(status, time.Since(start))
	}
}

func (p *Panel) usableLocked() error {
	if p.closed {
		return ErrClosed
	}
	if !p.opened {
		return ErrNotOpen
	}
	return nil
}

func (p *Panel) selectionLocked() Selection {
	return selectionOf(p.current, p.cfg.FullToolbar)
}

func (p *Panel) entriesLocked() []types.PortEntry {
	return append([]types.PortEntry(nil), p.entries...)
}

// fromSelection turns toolbar input into a target location. A path typed
// with "?" or "#" is split into its query and fragment.
func (p *Panel) fromSelection(sel Selection) location.Location {
	if !p.cfg.FullToolbar {
		return location.Location{Mode: location.Relative, Port: strings.TrimSpace(sel.Port)}.Normalize()
	}

	path, fragment := cutKeep(sel.Path, "#")
	path, query := cutKeep(path, "?")
	return location.Location{
		Mode:     sel.Mode,
		Port:     strings.TrimSpace(sel.Port),
		Path:     path,
		Query:    query,
		Fragment: fragment,
	}.Normalize()
}

func selectionOf(loc location.Location, full bool) Selection {
	if loc.IsUnselected() {
		return Selection{Mode: location.Relative, Port: location.Unselected}
	}
	if !full {
		return Selection{Mode: location.Relative, Port: loc.Port}
	}
	return Selection{Mode: loc.Mode, Port: loc.Port, Path: loc.Path + loc.Query + loc.Fragment}
}

func stateOf(loc location.Location) State {
	if loc.IsUnselected() {
		return Landing
	}
	return Proxied
}

// cutKeep splits s at the first sep, keeping sep on the second half
func cutKeep(s, sep string) (before, after string) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

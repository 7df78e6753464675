package panel

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/localbrowser/internal/domain/state"
	"github.com/GriffinCanCode/localbrowser/internal/shared/id"
)

// Tracker creates, restores and closes panels by id
type Tracker struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	panels map[string]*Panel
}

// NewTracker creates a tracker whose panels share cfg
func NewTracker(cfg Config) *Tracker {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		cfg:    cfg,
		logger: logger,
		panels: make(map[string]*Panel),
	}
}

// Open creates and opens a panel. An empty panelID gets a fresh id. If a
// panel with the same id is already open it is closed first, so a
// reconnecting client takes over its panel and restores its location.
func (t *Tracker) Open(ctx context.Context, panelID string, nav Navigator, view View) (*Panel, error) {
	if panelID == "" {
		panelID = id.NewPanelID().String()
	}
	if err := state.ValidateID(panelID); err != nil {
		return nil, err
	}

	t.mu.Lock()
	previous := t.panels[panelID]
	delete(t.panels, panelID)
	t.mu.Unlock()

	if previous != nil {
		t.logger.Info("Taking over open panel", zap.String("panel_id", panelID))
		previous.Close()
	}

	p := New(panelID, NewFrame(nav), view, t.cfg)
	if err := p.Open(ctx); err != nil {
		return nil, err
	}

	t.mu.Lock()
	displaced := t.panels[panelID]
	t.panels[panelID] = p
	t.mu.Unlock()

	if displaced != nil {
		displaced.Close()
	}
	return p, nil
}

// Get returns the open panel with id
func (t *Tracker) Get(panelID string) (*Panel, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panels[panelID]
	return p, ok
}

// Release closes p and forgets it, unless another panel has since taken
// over its id
func (t *Tracker) Release(p *Panel) {
	t.mu.Lock()
	if t.panels[p.ID()] == p {
		delete(t.panels, p.ID())
	}
	t.mu.Unlock()

	p.Close()
}

// Close closes the panel with id. It reports whether one was open.
func (t *Tracker) Close(panelID string) bool {
	t.mu.Lock()
	p, ok := t.panels[panelID]
	delete(t.panels, panelID)
	t.mu.Unlock()

	if ok {
		p.Close()
	}
	return ok
}

// CloseAll closes every open panel
func (t *Tracker) CloseAll() {
	t.mu.Lock()
	panels := make([]*Panel, 0, len(t.panels))
	for _, p := range t.panels {
		panels = append(panels, p)
	}
	t.panels = make(map[string]*Panel)
	t.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range panels {
		wg.Add(1)
		go func(p *Panel) {
			defer wg.Done()
			p.Close()
		}(p)
	}
	wg.Wait()
}

// IDs returns the ids of open panels, sorted
func (t *Tracker) IDs() []string {
	t.mu.Lock()
	ids := make([]string, 0, len(t.panels))
	for panelID := range t.panels {
		ids = append(ids, panelID)
	}
	t.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Len returns the number of open panels
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.panels)
}

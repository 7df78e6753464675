package panel

import "sync"

// LoadEvent reports that the frame finished loading a document
type LoadEvent struct {
	Href  string
	Title string
}

// Navigator points the real frame at a URL
type Navigator interface {
	Navigate(url string) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(url string) error

func (f NavigatorFunc) Navigate(url string) error { return f(url) }

// Frame is the panel's handle on the embedded document: it forwards
// navigation to a Navigator and fans load events out to subscribers
type Frame struct {
	nav Navigator

	mu     sync.Mutex
	nextID int
	subs   map[int]func(LoadEvent)
}

// NewFrame creates a frame driven by nav
func NewFrame(nav Navigator) *Frame {
	return &Frame{nav: nav, subs: make(map[int]func(LoadEvent))}
}

// Navigate asks the frame to load url
func (f *Frame) Navigate(url string) error {
	return f.nav.Navigate(url)
}

// OnLoad registers fn for load events. The returned cancel is idempotent.
func (f *Frame) OnLoad(fn func(LoadEvent)) (cancel func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Load delivers ev to every current subscriber
func (f *Frame) Load(ev LoadEvent) {
	f.mu.Lock()
	fns := make([]func(LoadEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribers returns the number of registered load handlers
func (f *Frame) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

package chart

import (
	"sort"
	"sync"
)

// Chart panel container IDs on the host page.
const (
	DailyContainer  = "daily-chart"
	H1Container     = "h1-chart"
	RegimeContainer = "regime-chart"
)

// Container is a host page element a chart is drawn into. Its size is the
// content box reported by the browser.
type Container struct {
	ID string

	mu        sync.Mutex
	width     int
	height    int
	observers map[int]func(width, height int)
	nextID    int
}

// NewContainer creates a container with an initial content box.
func NewContainer(id string, width, height int) *Container {
	return &Container{
		ID:        id,
		width:     width,
		height:    height,
		observers: make(map[int]func(int, int)),
	}
}

// Size returns the current content box.
func (c *Container) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Observe registers fn to be called on every resize. The returned func
// detaches the observer.
func (c *Container) Observe(fn func(width, height int)) (disconnect func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Observers returns the number of attached resize observers.
func (c *Container) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

// Resize updates the content box and notifies observers.
func (c *Container) Resize(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	fns := make([]func(int, int), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(width, height)
	}
}

// Surface is the set of chart containers present on the host page.
type Surface struct {
	containers map[string]*Container
}

// NewSurface creates a surface holding the given containers.
func NewSurface(containers ...*Container) *Surface {
	s := &Surface{containers: make(map[string]*Container, len(containers))}
	for _, c := range containers {
		s.containers[c.ID] = c
	}
	return s
}

// DefaultSurface returns the three dashboard chart panels with a zero
// content box; the browser reports real sizes once laid out.
func DefaultSurface() *Surface {
	return NewSurface(
		NewContainer(DailyContainer, 0, 0),
		NewContainer(H1Container, 0, 0),
		NewContainer(RegimeContainer, 0, 0),
	)
}

// Container looks up a container by ID.
func (s *Surface) Container(id string) (*Container, bool) {
	c, ok := s.containers[id]
	return c, ok
}

// IDs returns the container IDs in sorted order.
func (s *Surface) IDs() []string {
	ids := make([]string, 0, len(s.containers))
	for id := range s.containers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

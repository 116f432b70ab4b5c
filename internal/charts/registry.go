package charts

import (
	"sync"
	"time"
)

// Canvas ids of the dashboard.
const (
	CanvasCategory = "categoryChart"
	CanvasMonthly  = "monthlyChart"
)

// Instance is a chart currently drawn on a canvas.
type Instance struct {
	Canvas   string
	Kind     string
	Path     string
	Tooltips []string
	Rendered time.Time

	mu        sync.Mutex
	destroyed bool
	onDestroy func() error
}

// Destroy releases the instance. Calling it again is a no-op.
func (i *Instance) Destroy() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return nil
	}
	i.destroyed = true
	if i.onDestroy != nil {
		return i.onDestroy()
	}
	return nil
}

func (i *Instance) Destroyed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.destroyed
}

// Registry holds at most one live instance per canvas.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*Instance
	locks     map[string]*sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[string]*Instance),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Bind destroys whatever is on canvas, then draws and records the new
// instance. Draws on different canvases run in parallel; draws on the same
// canvas are serialized.
func (r *Registry) Bind(canvas string, draw func() (*Instance, error)) (*Instance, error) {
	lock := r.canvasLock(canvas)
	lock.Lock()
	defer lock.Unlock()

	if err := r.Clear(canvas); err != nil {
		return nil, err
	}

	inst, err := draw()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.instances[canvas] = inst
	r.mu.Unlock()
	return inst, nil
}

// Clear destroys the instance on canvas, if any.
func (r *Registry) Clear(canvas string) error {
	r.mu.Lock()
	inst, ok := r.instances[canvas]
	delete(r.instances, canvas)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return inst.Destroy()
}

func (r *Registry) Get(canvas string) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[canvas]
	return inst, ok
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

func (r *Registry) canvasLock(canvas string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[canvas]
	if !ok {
		l = &sync.Mutex{}
		r.locks[canvas] = l
	}
	return l
}

package grading

import "sync/atomic"

// Registry holds the current classifier. Publishing swaps a pointer to an
// immutable Classifier; holders of the previous one keep a consistent view.
type Registry struct {
	current atomic.Pointer[Classifier]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Current returns the published classifier, or ErrUntrained if none is
// ready.
func (r *Registry) Current() (*Classifier, error) {
	c := r.current.Load()
	if !c.Ready() {
		return nil, ErrUntrained
	}
	return c, nil
}

// Publish makes c current and returns the classifier it replaced.
func (r *Registry) Publish(c *Classifier) *Classifier {
	return r.current.Swap(c)
}

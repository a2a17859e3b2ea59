package visualization

import (
	"errors"
	"fmt"

	"volslicer/pkg/volume"
)

// Slider is an integer control with step 1 over [Min, Max].
//
// A Slider is not safe for concurrent use. All calls must come from one
// goroutine, typically the GUI main loop or an EventLoop task, which keeps
// every change and the renders it triggers strictly ordered.
type Slider struct {
	min, max int
	value    int
	closed   bool

	nextID    int
	observers []observer
}

type observer struct {
	id int
	fn func(value int) error
}

// NewSlider creates a slider over [min, max] positioned at value.
func NewSlider(min, max, value int) (*Slider, error) {
	if min > max {
		return nil, fmt.Errorf("%w: slider bounds [%d, %d]", volume.ErrInvalidRange, min, max)
	}
	if value < min || value > max {
		return nil, fmt.Errorf("%w: value %d outside [%d, %d]", volume.ErrIndexOutOfRange, value, min, max)
	}
	return &Slider{min: min, max: max, value: value}, nil
}

func (s *Slider) Min() int   { return s.min }
func (s *Slider) Max() int   { return s.max }
func (s *Slider) Value() int { return s.value }

// Observe registers fn to run after every change of value. The returned
// function removes the registration.
func (s *Slider) Observe(fn func(value int) error) (cancel func()) {
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})

	return func() {
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Set moves the slider and synchronously notifies every observer before
// returning. Setting the current value is a no-op. Observer errors are
// joined; all observers run even when one fails.
func (s *Slider) Set(value int) error {
	if s.closed {
		return ErrClosed
	}
	if value < s.min || value > s.max {
		return fmt.Errorf("%w: value %d outside [%d, %d]", volume.ErrIndexOutOfRange, value, s.min, s.max)
	}
	if value == s.value {
		return nil
	}
	s.value = value

	// observers may unregister themselves while running
	snapshot := append([]observer(nil), s.observers...)
	var errs []error
	for _, o := range snapshot {
		if err := o.fn(value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// setClamped is Set with value limited to the slider's bounds. Closed
// sliders ignore it.
func (s *Slider) setClamped(value int) error {
	if s.closed {
		return nil
	}
	return s.Set(min(max(value, s.min), s.max))
}

// Close disposes the slider; later Set calls fail with ErrClosed.
func (s *Slider) Close() {
	s.closed = true
	s.observers = nil
}

// Link keeps the values of sliders equal. Neighbouring sliders are chained
// pairwise in both directions, so a change on any member reaches all others
// before its Set returns. Members whose bounds do not contain the new value
// take the nearest bound. On creation every member takes the value of the
// last slider. Fewer than two sliders is a no-op.
func Link(sliders ...*Slider) error {
	if len(sliders) < 2 {
		return nil
	}

	for i := 1; i < len(sliders); i++ {
		a, b := sliders[i-1], sliders[i]
		// updating stops a clamped value echoing back to its source
		updating := false
		forward := func(dst *Slider) func(int) error {
			return func(v int) error {
				if updating {
					return nil
				}
				updating = true
				defer func() { updating = false }()
				return dst.setClamped(v)
			}
		}
		a.Observe(forward(b))
		b.Observe(forward(a))
	}

	last := sliders[len(sliders)-1]
	var errs []error
	for _, s := range sliders[:len(sliders)-1] {
		if err := s.setClamped(last.Value()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

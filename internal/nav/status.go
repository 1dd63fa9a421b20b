package nav

import "github.com/san-kum/fraczoom/internal/viewport"

// Status is everything the status lines show, already formatted.
type Status struct {
	Precision string
	Center    string
	Min       string
	Max       string
	HalfSpan  string
	Mouse     string
	Depth     int
	Seq       uint64
	Gesture   Gesture
	Notice    string
	HasFrame  bool
}

// Fields are the editable text fields for the committed viewport.
type Fields struct {
	CenterHex string
	SpanX     string
	SpanY     string
}

func (c *Controller[T]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	top := c.history.Top()
	v := top.Viewport
	min, max := v.Corners()
	s := Status{
		Precision: c.num.Name(),
		Center:    viewport.FormatPoint(c.num, v.Center()),
		Min:       viewport.FormatPoint(c.num, min),
		Max:       viewport.FormatPoint(c.num, max),
		HalfSpan:  viewport.FormatPoint(c.num, v.HalfSpan()),
		Depth:     c.history.Len(),
		Seq:       top.Seq,
		Gesture:   c.gesture,
		Notice:    c.notice,
		HasFrame:  c.frame != nil,
	}
	if m, ok := c.mouseLocked(); ok {
		s.Mouse = viewport.FormatPoint(c.num, m)
	}
	return s
}

func (c *Controller[T]) Fields() Fields {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.history.Top().Viewport
	half := v.HalfSpan()
	return Fields{
		CenterHex: c.codec.Encode(v.Center()),
		SpanX:     c.num.Format(half.X),
		SpanY:     c.num.Format(half.Y),
	}
}

package raycast

// TestRig is a headless frame harness. It wires a GridMap, Camera and
// Compositor to a RecordingSink so frames can be stepped and inspected
// without a window. Used by tests and the headless report.
type TestRig struct {
	Grid       *GridMap
	Camera     Camera
	Sink       *RecordingSink
	Compositor *Compositor
	FrameLog   *FrameLog
	Stats      []FrameStats

	layout        []string
	turnStep      float64 // degrees applied after every frame
	lastFrameOnly bool
	casterOps     []CasterOption
	compOps       []CompositorOption
}

// RigOption is a builder function applied to a TestRig during construction.
type RigOption func(*TestRig)

// WithLayout replaces the default 16x16 map.
func WithLayout(rows ...string) RigOption {
	return func(tr *TestRig) { tr.layout = rows }
}

// WithCamera sets the starting pose (degrees).
func WithCamera(x, y, angle float64) RigOption {
	return func(tr *TestRig) {
		tr.Camera.X, tr.Camera.Y, tr.Camera.Angle = x, y, angle
	}
}

// WithFOV sets the camera field of view (degrees).
func WithFOV(fov float64) RigOption {
	return func(tr *TestRig) { tr.Camera.FOV = fov }
}

// WithTurnPerFrame rotates the camera by deg after each frame, the way the
// viewer's demo mode spins.
func WithTurnPerFrame(deg float64) RigOption {
	return func(tr *TestRig) { tr.turnStep = deg }
}

// WithLastFrameOnly makes the sink forget earlier frames, so Sink.Draws holds
// only the frame most recently stepped. Long sweeps need it.
func WithLastFrameOnly() RigOption {
	return func(tr *TestRig) { tr.lastFrameOnly = true }
}

// WithVerboseLog records routine flush and stats entries.
func WithVerboseLog(v bool) RigOption {
	return func(tr *TestRig) { tr.FrameLog = NewFrameLog(v) }
}

// WithCasterOptions forwards options to the RayCaster.
func WithCasterOptions(opts ...CasterOption) RigOption {
	return func(tr *TestRig) { tr.casterOps = append(tr.casterOps, opts...) }
}

// WithCompositorOptions forwards options to the Compositor.
func WithCompositorOptions(opts ...CompositorOption) RigOption {
	return func(tr *TestRig) { tr.compOps = append(tr.compOps, opts...) }
}

// NewTestRig builds a rig. The map layout must be valid; an invalid layout is
// returned as an error.
func NewTestRig(opts ...RigOption) (*TestRig, error) {
	tr := &TestRig{
		Camera:   NewCamera(2.0, 5.0, DefaultAngle),
		Sink:     &RecordingSink{},
		FrameLog: NewFrameLog(false),
		layout:   defaultLayout,
	}
	for _, o := range opts {
		o(tr)
	}
	gm, err := ParseLayout(tr.layout)
	if err != nil {
		return nil, err
	}
	tr.Grid = gm
	compOps := []CompositorOption{
		WithCaster(NewRayCaster(tr.casterOps...)),
		WithFrameLog(tr.FrameLog),
	}
	tr.Compositor = NewCompositor(tr.Sink, append(compOps, tr.compOps...)...)
	return tr, nil
}

// Step renders one frame, then applies the per-frame turn.
func (tr *TestRig) Step() (FrameStats, error) {
	if tr.lastFrameOnly {
		tr.Sink.Reset()
	}
	st, err := tr.Compositor.RenderFrame(tr.Camera, tr.Grid)
	tr.Stats = append(tr.Stats, st)
	tr.Camera.Turn(tr.turnStep)
	return st, err
}

// RunFrames steps n frames, stopping at the first error.
func (tr *TestRig) RunFrames(n int) error {
	for i := 0; i < n; i++ {
		if _, err := tr.Step(); err != nil {
			return err
		}
	}
	return nil
}

package raycast

import "math"

const (
	// DefaultStep is the march increment in map cells.
	DefaultStep = 0.01
	// DefaultMaxRange is the distance after which a ray gives up.
	DefaultMaxRange = 20.0
)

// ColumnHit is the result of casting one column's ray.
type ColumnHit struct {
	Column   int
	Angle    float64 // radians
	Distance float64 // Euclidean, map cells; MaxRange when Hit is false
	HitX     float64 // sample point that entered the hit cell
	HitY     float64
	Col      int // hit cell
	Row      int
	Kind     TileKind
	Hit      bool
}

// RayCaster marches rays outward in fixed steps. It is not a grid-exact DDA:
// a step larger than a cell can skip thin walls at glancing angles.
type RayCaster struct {
	Step     float64
	MaxRange float64
}

// CasterOption configures a RayCaster.
type CasterOption func(*RayCaster)

// WithStep sets the march increment. Non-positive values are ignored.
func WithStep(step float64) CasterOption {
	return func(rc *RayCaster) {
		if step > 0 {
			rc.Step = step
		}
	}
}

// WithMaxRange sets the give-up distance. Non-positive values are ignored.
func WithMaxRange(r float64) CasterOption {
	return func(rc *RayCaster) {
		if r > 0 {
			rc.MaxRange = r
		}
	}
}

// NewRayCaster returns a caster with the default step and range.
func NewRayCaster(opts ...CasterOption) *RayCaster {
	rc := &RayCaster{Step: DefaultStep, MaxRange: DefaultMaxRange}
	for _, o := range opts {
		o(rc)
	}
	return rc
}

// ColumnAngle returns the ray angle in radians for column i of n. With no
// columns the centre ray is returned.
func ColumnAngle(cam Camera, column, columnCount int) float64 {
	if columnCount <= 0 {
		return cam.Angle * math.Pi / 180
	}
	deg := cam.Angle - cam.FOV/2 + float64(column)*cam.FOV/float64(columnCount)
	return deg * math.Pi / 180
}

// CastColumn casts the ray for one output column. Samples are truncated to
// integer cells, which biases hits toward the lower-indexed cell edge. A ray
// that leaves the grid before hitting anything reports no hit.
func (rc *RayCaster) CastColumn(cam Camera, gm *GridMap, column, columnCount int) ColumnHit {
	angle := ColumnAngle(cam, column, columnCount)
	hit := ColumnHit{Column: column, Angle: angle, Distance: rc.MaxRange}
	if columnCount <= 0 {
		return hit
	}
	dx, dy := math.Cos(angle), math.Sin(angle)

	for k := 0; ; k++ {
		r := float64(k) * rc.Step
		if r >= rc.MaxRange {
			break
		}
		px := cam.X + r*dx
		py := cam.Y + r*dy
		// int() truncates toward zero, so -0.5 would land in cell 0.
		if px < 0 || py < 0 {
			break
		}
		col, row := int(px), int(py)
		kind, err := gm.TileAt(col, row)
		if err != nil {
			break
		}
		if kind == TileEmpty {
			continue
		}
		hit.Hit = true
		hit.Distance = r
		hit.HitX, hit.HitY = px, py
		hit.Col, hit.Row = col, row
		hit.Kind = kind
		return hit
	}
	hit.HitX = cam.X + rc.MaxRange*dx
	hit.HitY = cam.Y + rc.MaxRange*dy
	return hit
}

// CastAll casts every column in increasing column order. It returns nil for
// a non-positive column count.
func (rc *RayCaster) CastAll(cam Camera, gm *GridMap, columnCount int) []ColumnHit {
	if columnCount <= 0 {
		return nil
	}
	hits := make([]ColumnHit, columnCount)
	for i := 0; i < columnCount; i++ {
		hits[i] = rc.CastColumn(cam, gm, i, columnCount)
	}
	return hits
}

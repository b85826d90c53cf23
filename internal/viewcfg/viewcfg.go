// Package viewcfg holds the command-line settings shared by every viewer
// binary and turns them into ray caster and compositor options.
package viewcfg

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Garsondee/raycaster/internal/raycast"
)

// Config is the parsed flag set.
type Config struct {
	Step     float64
	Range    float64
	FOV      float64
	Columns  int
	Capacity int
	X, Y     float64
	Angle    float64
	MapPath  string
	Mode     string
}

// Register binds the shared flags on fs and returns the config they fill.
func Register(fs *flag.FlagSet) *Config {
	c := &Config{}
	fs.Float64Var(&c.Step, "step", raycast.DefaultStep, "ray march step in cells")
	fs.Float64Var(&c.Range, "range", raycast.DefaultMaxRange, "maximum ray distance in cells")
	fs.Float64Var(&c.FOV, "fov", raycast.DefaultFOV, "horizontal field of view in degrees")
	fs.IntVar(&c.Columns, "columns", 0, "rays per frame (0 = one per surface column)")
	fs.IntVar(&c.Capacity, "capacity", raycast.DefaultCapacity, "vertices per batch before a flush")
	fs.Float64Var(&c.X, "x", 2.0, "camera start X in cells")
	fs.Float64Var(&c.Y, "y", 5.0, "camera start Y in cells")
	fs.Float64Var(&c.Angle, "angle", raycast.DefaultAngle, "camera start angle in degrees")
	fs.StringVar(&c.MapPath, "map", "", "layout file, one row per line (default: built-in 16x16 map)")
	fs.StringVar(&c.Mode, "mode", "lines", "ray overlay: lines or none")
	return c
}

// Validate rejects settings no frame could be drawn with.
func (c *Config) Validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("-step must be > 0, got %v", c.Step)
	}
	if c.Range <= 0 {
		return fmt.Errorf("-range must be > 0, got %v", c.Range)
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("-fov must be in (0, 180), got %v", c.FOV)
	}
	if c.Columns < 0 {
		return fmt.Errorf("-columns must be >= 0, got %d", c.Columns)
	}
	if c.Capacity < 6 {
		return fmt.Errorf("-capacity must hold at least one quad (6), got %d", c.Capacity)
	}
	if _, err := raycast.ParseDrawMode(c.Mode); err != nil {
		return err
	}
	return nil
}

// Grid loads the map named by -map, or the built-in map.
func (c *Config) Grid() (*raycast.GridMap, error) {
	if c.MapPath == "" {
		return raycast.DefaultMap(), nil
	}
	rows, err := ReadLayoutFile(c.MapPath)
	if err != nil {
		return nil, err
	}
	gm, err := raycast.ParseLayout(rows)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", c.MapPath, err)
	}
	return gm, nil
}

// Camera returns the starting pose.
func (c *Config) Camera() raycast.Camera {
	cam := raycast.NewCamera(c.X, c.Y, c.Angle)
	cam.FOV = c.FOV
	return cam
}

// DrawMode returns the parsed -mode. Call Validate first.
func (c *Config) DrawMode() raycast.DrawMode {
	m, _ := raycast.ParseDrawMode(c.Mode)
	return m
}

// CompositorOptions converts the flags. The surface size is left to the
// driver.
func (c *Config) CompositorOptions() []raycast.CompositorOption {
	opts := []raycast.CompositorOption{
		raycast.WithCaster(raycast.NewRayCaster(raycast.WithStep(c.Step), raycast.WithMaxRange(c.Range))),
		raycast.WithCapacity(c.Capacity),
		raycast.WithDrawMode(c.DrawMode()),
	}
	if c.Columns > 0 {
		opts = append(opts, raycast.WithColumns(c.Columns))
	}
	return opts
}

// ReadLayoutFile reads one map row per line. Trailing carriage returns are
// stripped and a final empty line is ignored; interior spaces are floor.
func ReadLayoutFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	var rows []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		rows = append(rows, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

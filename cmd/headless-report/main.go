package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/Garsondee/raycaster/internal/viewcfg"
)

type runStats struct {
	runIndex   int
	startAngle float64

	frames          int
	columns         int
	hits            int
	misses          int
	minDistance     float64
	maxDistance     float64
	meanDistance    float64
	flushes         int
	capacityFlushes int
	vertices        int

	firstCapacityFlushFrame int
	firstBlindFrame         int // first frame with no hits at all

	lastReport string
	log        *raycast.FrameLog
}

func main() {
	cfg := viewcfg.Register(flag.CommandLine)
	var runs int
	var frames int
	var turn float64
	var buckets int
	var verbose bool

	flag.IntVar(&runs, "runs", 4, "number of runs, start angles spread evenly over 360 degrees")
	flag.IntVar(&frames, "frames", 90, "frames per run")
	flag.Float64Var(&turn, "turn", 1.0, "camera turn per frame in degrees")
	flag.IntVar(&buckets, "buckets", 8, "distance profile buckets in the last-frame report")
	flag.BoolVar(&verbose, "verbose", false, "dump the frame log of every run")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		os.Exit(2)
	}
	if frames <= 0 {
		fmt.Println("error: -frames must be > 0")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(2)
	}
	gm, err := cfg.Grid()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Headless Frame Report ===\n")
	fmt.Printf("map=%dx%d runs=%d frames=%d turn=%.2f step=%v range=%v fov=%v\n\n",
		gm.Cols, gm.Rows, runs, frames, turn, cfg.Step, cfg.Range, cfg.FOV)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		angle := cfg.Angle + float64(i)*360/float64(runs)
		tr, err := newSweepRig(cfg, gm.Layout(), angle, turn, verbose)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			os.Exit(1)
		}
		rs, err := runSweep(tr, i+1, angle, frames, buckets)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			os.Exit(1)
		}
		all = append(all, rs)
		printRun(rs, verbose)
	}

	printAggregate(all)
}

// newSweepRig builds the rig for one run. The sink keeps only the latest
// frame; the report reads stats and the frame log, never the geometry.
func newSweepRig(cfg *viewcfg.Config, layout []string, angle, turn float64, verbose bool) (*raycast.TestRig, error) {
	return raycast.NewTestRig(
		raycast.WithLayout(layout...),
		raycast.WithCamera(cfg.X, cfg.Y, angle),
		raycast.WithFOV(cfg.FOV),
		raycast.WithTurnPerFrame(turn),
		raycast.WithVerboseLog(verbose),
		raycast.WithLastFrameOnly(),
		raycast.WithCompositorOptions(cfg.CompositorOptions()...),
	)
}

// runSweep renders frames on tr, which turns between frames. A sink
// rejection aborts the run.
func runSweep(tr *raycast.TestRig, runIndex int, angle float64, frames, buckets int) (runStats, error) {
	rs := runStats{runIndex: runIndex, startAngle: angle}
	for f := 0; f < frames; f++ {
		// Capture the pose the frame is rendered from; Step turns afterwards.
		cam := tr.Camera
		st, err := tr.Step()
		if err != nil {
			return rs, fmt.Errorf("frame %d: %w", st.Frame, err)
		}
		rs.lastReport = raycast.FormatFrameReport(cam, st, tr.Compositor.LastHits(), buckets)
	}
	summarize(&rs, tr.Stats, tr.FrameLog)
	return rs, nil
}

// summarize folds per-frame stats and log entries into rs.
func summarize(rs *runStats, stats []raycast.FrameStats, fl *raycast.FrameLog) {
	rs.log = fl
	rs.frames = len(stats)
	rs.firstBlindFrame = -1
	distSum := 0.0
	for _, st := range stats {
		rs.columns += st.Columns
		rs.hits += st.Hits
		rs.misses += st.Misses
		rs.flushes += st.Flushes
		rs.capacityFlushes += st.CapacityFlushes
		rs.vertices += st.Vertices
		if st.Hits == 0 {
			if rs.firstBlindFrame < 0 {
				rs.firstBlindFrame = st.Frame
			}
			continue
		}
		distSum += st.MeanDistance * float64(st.Hits)
		if rs.minDistance == 0 || st.MinDistance < rs.minDistance {
			rs.minDistance = st.MinDistance
		}
		rs.maxDistance = math.Max(rs.maxDistance, st.MaxDistance)
	}
	if rs.hits > 0 {
		rs.meanDistance = distSum / float64(rs.hits)
	}
	rs.firstCapacityFlushFrame = firstFrame(fl.Entries(), "batch", "capacity_flush", "")
}

func firstFrame(entries []raycast.FrameLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Frame
		}
	}
	return -1
}

// hitRate is the share of cast columns that found a wall, in percent.
func hitRate(rs runStats) float64 {
	if rs.columns == 0 {
		return 0
	}
	return float64(rs.hits) / float64(rs.columns) * 100
}

// detectLeak flags a run whose rays escape the map: any blind frame, or
// more than one column in a hundred missing. Only open layouts should leak.
func detectLeak(rs runStats) (bool, string) {
	var reasons []string
	if rs.firstBlindFrame >= 0 {
		reasons = append(reasons, fmt.Sprintf("blind_frame=%d", rs.firstBlindFrame))
	}
	if rs.columns > 0 && rs.misses*100 > rs.columns {
		reasons = append(reasons, fmt.Sprintf("miss_rate=%.1f%%", 100-hitRate(rs)))
	}
	if len(reasons) == 0 {
		return false, "closed"
	}
	return true, strings.Join(reasons, ",")
}

func printRun(rs runStats, verbose bool) {
	fmt.Printf("--- Run %d (start_angle=%.1f) ---\n", rs.runIndex, rs.startAngle)
	fmt.Printf("columns=%d hits=%d misses=%d hit_rate=%.1f%%\n", rs.columns, rs.hits, rs.misses, hitRate(rs))
	fmt.Printf("distance: min=%.2f max=%.2f mean=%.2f\n", rs.minDistance, rs.maxDistance, rs.meanDistance)
	fmt.Printf("batches: flushes=%d capacity_flushes=%d first_capacity_flush=%d vertices=%d\n",
		rs.flushes, rs.capacityFlushes, rs.firstCapacityFlushFrame, rs.vertices)
	leak, reason := detectLeak(rs)
	fmt.Printf("leak=%v (%s)\n", leak, reason)
	fmt.Println("last frame:")
	fmt.Print(rs.lastReport)
	if verbose && rs.log != nil {
		fmt.Print(rs.log.Dump())
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	totalHits := 0
	totalColumns := 0
	totalCapacity := 0
	totalVertices := 0
	leaks := 0
	minD := 0.0
	maxD := 0.0
	capFrames := make([]int, 0, len(all))
	for _, rs := range all {
		totalHits += rs.hits
		totalColumns += rs.columns
		totalCapacity += rs.capacityFlushes
		totalVertices += rs.vertices
		if leak, _ := detectLeak(rs); leak {
			leaks++
		}
		if rs.hits > 0 && (minD == 0 || rs.minDistance < minD) {
			minD = rs.minDistance
		}
		maxD = math.Max(maxD, rs.maxDistance)
		if rs.firstCapacityFlushFrame >= 0 {
			capFrames = append(capFrames, rs.firstCapacityFlushFrame)
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d leaking_runs=%d\n", len(all), leaks)
	fmt.Printf("avg_per_run: hits=%.1f capacity_flushes=%.1f vertices=%.1f\n",
		avg(totalHits, len(all)), avg(totalCapacity, len(all)), avg(totalVertices, len(all)))
	fmt.Printf("distance_range: %.2f..%.2f\n", minD, maxD)
	fmt.Printf("first_capacity_flush_avg_frame=%s\n", avgFrameString(capFrames))
	if totalColumns > 0 {
		fmt.Printf("overall_hit_rate=%.2f%%\n", float64(totalHits)/float64(totalColumns)*100)
	}
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgFrameString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

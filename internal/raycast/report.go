package raycast

import (
	"fmt"
	"math"
	"strings"
)

// ProfileBucket aggregates a contiguous run of columns.
type ProfileBucket struct {
	From, To     int // column range [From, To)
	Hits         int
	MeanDistance float64 // over hits; MaxRange-style misses excluded
}

// DistanceProfile splits hits into n equal column buckets.
func DistanceProfile(hits []ColumnHit, n int) []ProfileBucket {
	if n <= 0 || len(hits) == 0 {
		return nil
	}
	if n > len(hits) {
		n = len(hits)
	}
	out := make([]ProfileBucket, n)
	for b := 0; b < n; b++ {
		from := b * len(hits) / n
		to := (b + 1) * len(hits) / n
		pb := ProfileBucket{From: from, To: to}
		sum := 0.0
		for _, h := range hits[from:to] {
			if !h.Hit {
				continue
			}
			pb.Hits++
			sum += h.Distance
		}
		if pb.Hits > 0 {
			pb.MeanDistance = sum / float64(pb.Hits)
		}
		out[b] = pb
	}
	return out
}

// ProfileSymmetry returns the largest absolute distance difference between
// columns mirrored about the centre ray (column i against n-i). Column 0 has
// no mirror inside the cast range and is skipped.
func ProfileSymmetry(hits []ColumnHit) float64 {
	n := len(hits)
	worst := 0.0
	for i := 1; i < n-i; i++ {
		if d := math.Abs(hits[i].Distance - hits[n-i].Distance); d > worst {
			worst = d
		}
	}
	return worst
}

// FormatFrameReport renders a camera pose, frame stats and a bucketed
// distance profile as plain text.
//
//	frame=12 pos=(2.00,5.00) heading=90.0 fov=60
//	columns=1024 hits=1024 misses=0 dist min=1.73 max=10.00 mean=4.21
//	flushes=3 capacity_flushes=0 vertices=8146
//	profile:
//	  [   0, 128) hits=128  mean=2.05 ########
func FormatFrameReport(cam Camera, st FrameStats, hits []ColumnHit, buckets int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "frame=%d pos=(%.2f,%.2f) heading=%.1f fov=%.0f\n", st.Frame, cam.X, cam.Y, cam.Heading(), cam.FOV)
	fmt.Fprintf(&sb, "columns=%d hits=%d misses=%d dist min=%.2f max=%.2f mean=%.2f\n",
		st.Columns, st.Hits, st.Misses, st.MinDistance, st.MaxDistance, st.MeanDistance)
	fmt.Fprintf(&sb, "flushes=%d capacity_flushes=%d vertices=%d\n", st.Flushes, st.CapacityFlushes, st.Vertices)
	profile := DistanceProfile(hits, buckets)
	if len(profile) == 0 {
		return sb.String()
	}
	sb.WriteString("profile:\n")
	for _, pb := range profile {
		bar := int(math.Round(pb.MeanDistance))
		fmt.Fprintf(&sb, "  [%4d,%4d) hits=%-4d mean=%5.2f %s\n", pb.From, pb.To, pb.Hits, pb.MeanDistance, strings.Repeat("#", bar))
	}
	return sb.String()
}

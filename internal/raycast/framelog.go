package raycast

import (
	"fmt"
	"strings"
)

// FrameLogEntry is one recorded event.
type FrameLogEntry struct {
	Frame    int
	Category string  // "batch" or "frame"
	Key      string  // flush, capacity_flush, sink_rejected, stats
	Value    string
	NumVal   float64 // count for batch entries, mean distance for frame/stats
}

// String renders e in the column layout used by Dump.
//
//	[F=042] batch    flush            walls 6144
func (e FrameLogEntry) String() string {
	return fmt.Sprintf("[F=%03d] %-8s %-16s %s", e.Frame, e.Category, e.Key, e.Value)
}

// FrameLog collects structured events from the compositor. It is unbounded;
// drivers that run forever should not attach one.
type FrameLog struct {
	entries []FrameLogEntry
	verbose bool
}

// NewFrameLog returns an empty log. A quiet log keeps capacity flushes and
// rejections only; a verbose one also keeps every flush and frame summary.
func NewFrameLog(verbose bool) *FrameLog {
	return &FrameLog{verbose: verbose}
}

// Add appends an entry.
func (fl *FrameLog) Add(frame int, category, key, value string, numVal float64) {
	fl.entries = append(fl.entries, FrameLogEntry{
		Frame:    frame,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose is Add for routine entries; it does nothing unless verbose.
func (fl *FrameLog) AddVerbose(frame int, category, key, value string, numVal float64) {
	if !fl.verbose {
		return
	}
	fl.Add(frame, category, key, value, numVal)
}

// Entries returns the log in recording order. The slice is shared.
func (fl *FrameLog) Entries() []FrameLogEntry {
	return fl.entries
}

// Filter returns the entries in category with the given key. An empty
// category or key is a wildcard.
func (fl *FrameLog) Filter(category, key string) []FrameLogEntry {
	var out []FrameLogEntry
	for _, e := range fl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// CountCategory is len(Filter(category, key)).
func (fl *FrameLog) CountCategory(category, key string) int {
	return len(fl.Filter(category, key))
}

// LastOf returns the newest entry Filter would return.
func (fl *FrameLog) LastOf(category, key string) (FrameLogEntry, bool) {
	entries := fl.Filter(category, key)
	if len(entries) == 0 {
		return FrameLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry reports whether some category/key entry mentions valueSubstr.
func (fl *FrameLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range fl.entries {
		if e.Category == category && e.Key == key && strings.Contains(e.Value, valueSubstr) {
			return true
		}
	}
	return false
}

// Dump formats every entry, one per line.
func (fl *FrameLog) Dump() string {
	var sb strings.Builder
	for _, e := range fl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

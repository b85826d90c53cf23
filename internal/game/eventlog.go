package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	logPanelWidth = 300
	logMaxEntries = 40
	logLineHeight = 14
)

// EventKind tags an event log line.
type EventKind uint8

const (
	EventInfo EventKind = iota
	EventMove
	EventFlush
	EventError
)

// EventEntry is a single line in the event log.
type EventEntry struct {
	Tick    int
	Kind    EventKind
	Message string
}

// EventLog is a ring buffer of viewer events rendered on-screen.
type EventLog struct {
	entries []EventEntry
	head    int
	count   int
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{
		entries: make([]EventEntry, logMaxEntries),
	}
}

// Add appends an entry, overwriting the oldest once full.
func (el *EventLog) Add(tick int, kind EventKind, msg string) {
	el.entries[el.head] = EventEntry{Tick: tick, Kind: kind, Message: msg}
	el.head = (el.head + 1) % logMaxEntries
	if el.count < logMaxEntries {
		el.count++
	}
}

// Addf formats and appends an entry.
func (el *EventLog) Addf(tick int, kind EventKind, format string, args ...any) {
	el.Add(tick, kind, fmt.Sprintf(format, args...))
}

// Recent returns entries in chronological order (oldest first).
func (el *EventLog) Recent() []EventEntry {
	result := make([]EventEntry, el.count)
	for i := 0; i < el.count; i++ {
		idx := (el.head - el.count + i + logMaxEntries) % logMaxEntries
		result[i] = el.entries[idx]
	}
	return result
}

func (k EventKind) color() color.RGBA {
	switch k {
	case EventMove:
		return color.RGBA{R: 90, G: 170, B: 230, A: 255}
	case EventFlush:
		return color.RGBA{R: 200, G: 200, B: 90, A: 255}
	case EventError:
		return color.RGBA{R: 230, G: 70, B: 70, A: 255}
	default:
		return color.RGBA{R: 150, G: 150, B: 150, A: 255}
	}
}

// Draw renders the event panel at panelX, full height.
func (el *EventLog) Draw(screen *ebiten.Image, panelX int, panelH int) {
	vector.DrawFilledRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 10, G: 10, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 60, G: 60, B: 80, A: 255}, false)

	vector.DrawFilledRect(screen, float32(panelX), 0, float32(logPanelWidth), 16, color.RGBA{R: 22, G: 22, B: 34, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENTS", panelX+8, 0)

	entries := el.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}

	y := 20
	for _, e := range entries {
		vector.DrawFilledRect(screen, float32(panelX+5), float32(y+4), 3, 6, e.Kind.color(), false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%5d %s", e.Tick, e.Message), panelX+12, y)
		y += logLineHeight
	}
}

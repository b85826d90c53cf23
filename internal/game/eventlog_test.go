package game

import (
	"fmt"
	"testing"
)

func TestEventLog_RecentOrder(t *testing.T) {
	el := NewEventLog()
	el.Add(1, EventInfo, "a")
	el.Add(2, EventMove, "b")
	got := el.Recent()
	if len(got) != 2 || got[0].Message != "a" || got[1].Message != "b" {
		t.Fatalf("recent=%+v", got)
	}
}

func TestEventLog_WrapsAtCapacity(t *testing.T) {
	el := NewEventLog()
	for i := 0; i < logMaxEntries+5; i++ {
		el.Addf(i, EventFlush, "e%d", i)
	}
	got := el.Recent()
	if len(got) != logMaxEntries {
		t.Fatalf("len=%d, want %d", len(got), logMaxEntries)
	}
	if got[0].Message != "e5" {
		t.Fatalf("oldest=%q, want e5", got[0].Message)
	}
	if last := got[len(got)-1]; last.Message != fmt.Sprintf("e%d", logMaxEntries+4) {
		t.Fatalf("newest=%q", last.Message)
	}
}

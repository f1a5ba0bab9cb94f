package batch

import (
	"slices"
	"testing"

	"kcoord/pkg/primitives"
)

func TestGroupManagerCreate(t *testing.T) {
	gm := NewGroupManager(Options{DefaultTimeout: 100})

	if !gm.CreateDefault(1, Quorum, 5, 0) {
		t.Fatal("CreateDefault failed")
	}
	if gm.Create(1, AllComplete, 2, 0, 0) {
		t.Error("duplicate Create should fail")
	}
	g, ok := gm.Get(1)
	if !ok || g.Timeout != 100 || g.QuorumSize != 3 {
		t.Fatalf("Get(1) = %+v, %v", g, ok)
	}
	if _, ok := gm.Get(2); ok {
		t.Error("Get(2) found a group that was never created")
	}
	if !gm.Destroy(1) || gm.Destroy(1) {
		t.Error("Destroy should succeed once")
	}
}

func TestGroupManagerUnknownGroup(t *testing.T) {
	gm := NewGroupManager(Options{})
	const missing primitives.GroupID = 3

	if gm.AddParticipant(missing, 1, 0) || gm.SignalReady(missing, 1, 0, 0) || gm.Abort(missing, 1) {
		t.Error("participant operations on unknown group succeeded")
	}
	if gm.TryResolve(missing, 0) || gm.CheckTimeout(missing, 0) {
		t.Error("resolution on unknown group succeeded")
	}
}

func TestGroupManagerLifecycle(t *testing.T) {
	gm := NewGroupManager(Options{})
	gm.Create(1, AllComplete, 2, 0, 0)
	gm.Create(2, AllComplete, 2, 30, 0)
	gm.Create(3, AnyComplete, 2, 30, 10)

	for _, id := range []primitives.GroupID{1, 2, 3} {
		gm.AddParticipant(id, 1, 0)
		gm.AddParticipant(id, 2, 0)
	}

	gm.SignalReady(1, 1, 0, 5)
	gm.SignalReady(1, 2, 0, 8)
	if !gm.TryResolve(1, 8) {
		t.Fatal("group 1 should commit")
	}

	timedOut := gm.CheckTimeouts(30)
	if !slices.Equal(timedOut, []primitives.GroupID{2}) {
		t.Fatalf("CheckTimeouts(30) = %v, want [2]", timedOut)
	}
	if again := gm.CheckTimeouts(31); len(again) != 0 {
		t.Errorf("group timed out twice: %v", again)
	}

	s := gm.Stats()
	if s.Created != 3 || s.Succeeded != 1 || s.TimedOut != 1 {
		t.Errorf("created/succeeded/timed out = %d/%d/%d", s.Created, s.Succeeded, s.TimedOut)
	}
	if s.Active != 1 || s.Resolved != 2 || s.Waiting != 2 {
		t.Errorf("active/resolved/waiting = %d/%d/%d", s.Active, s.Resolved, s.Waiting)
	}
	// resolution ticks: 8 and 30
	if s.AvgResolutionTicks != 19 {
		t.Errorf("AvgResolutionTicks = %v, want 19", s.AvgResolutionTicks)
	}

	summaries := gm.ReapResolved()
	if len(summaries) != 2 || summaries[0].ID != 1 || !summaries[0].Success || summaries[1].Success {
		t.Fatalf("ReapResolved() = %+v", summaries)
	}
	if summaries[0].ResolutionTicks != 8 || summaries[0].AvgWaitTicks != 6.5 {
		t.Errorf("summary 1 = %+v", summaries[0])
	}
	if ids := gm.IDs(); !slices.Equal(ids, []primitives.GroupID{3}) {
		t.Errorf("IDs() after reap = %v", ids)
	}
	if gm.Stats().Reaped != 2 {
		t.Error("reaped count not updated")
	}
}

func TestGroupManagerTimeoutAfterQuorum(t *testing.T) {
	gm := NewGroupManager(Options{})
	gm.Create(1, Quorum, 5, 100, 0)
	for pid := range primitives.RequesterID(5) {
		gm.AddParticipant(1, pid+1, 0)
	}
	for pid := range primitives.RequesterID(3) {
		gm.SignalReady(1, pid+1, 0, 10)
	}

	if timedOut := gm.CheckTimeouts(200); len(timedOut) != 0 {
		t.Fatalf("CheckTimeouts(200) = %v, want none", timedOut)
	}
	g, _ := gm.Get(1)
	if !g.Resolved || !g.Success || g.Ready != 3 {
		t.Fatalf("Get(1) = %+v", g)
	}
	s := gm.Stats()
	if s.Succeeded != 1 || s.TimedOut != 0 || s.AvgResolutionTicks != 200 {
		t.Errorf("succeeded/timed out/avg = %d/%d/%v", s.Succeeded, s.TimedOut, s.AvgResolutionTicks)
	}
	if gm.TryResolve(1, 201) {
		t.Error("committed group resolved again")
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	gm := NewGroupManager(Options{})
	gm.Create(1, AllComplete, 1, 0, 0)
	gm.AddParticipant(1, 9, 0)

	before, _ := gm.Get(1)
	gm.SignalReady(1, 9, 42, 3)
	gm.TryResolve(1, 4)

	if before.Resolved || before.Ready != 0 {
		t.Errorf("earlier snapshot changed: %+v", before)
	}
	if ps := gm.Participants(1); len(ps) != 1 || ps[0].State != Committed || ps[0].Result != 42 {
		t.Errorf("Participants(1) = %+v", ps)
	}
	if gm.Participants(2) != nil {
		t.Error("Participants of an unknown group should be nil")
	}
	if gm.Stats().Succeeded != 1 {
		t.Error("commit not counted")
	}
}

func TestParseOp(t *testing.T) {
	for _, o := range []Op{AllComplete, AnyComplete, Quorum, Ordered} {
		got, err := ParseOp(o.String())
		if err != nil || got != o {
			t.Errorf("ParseOp(%q) = %v, %v", o.String(), got, err)
		}
	}
	if _, err := ParseOp("majority"); err == nil {
		t.Error("unknown op should fail")
	}
}

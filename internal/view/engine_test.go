package view

import (
	"testing"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/aggregate"
	"github.com/MrSnakeDoc/logbook/internal/domain"
)

const project = "p1"

var base = time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)

func entry(id, projectID string, offset time.Duration, text string) *domain.Entry {
	at := base.Add(offset)
	return &domain.Entry{
		ID:        id,
		ProjectID: projectID,
		CreatedAt: at,
		Content:   domain.NewContentItems(id, at, []string{text}),
	}
}

func snapshot() aggregate.Buckets {
	return aggregate.Buckets{
		{Day: "Jun 3", Entries: []*domain.Entry{entry("b", project, time.Hour, "beta"), entry("a", project, 0, "alpha")}},
		{Day: "Jun 2", Entries: []*domain.Entry{entry("z", project, -24*time.Hour, "zulu")}},
	}
}

func days(b aggregate.Buckets) []string {
	out := make([]string, len(b))
	for i, bucket := range b {
		out[i] = bucket.Day
	}
	return out
}

func TestLiveEntryIgnoredWhileEmpty(t *testing.T) {
	e := NewEngine(project)
	if e.OnLiveEntry(entry("x", project, 0, "x"), "Jun 3") {
		t.Error("OnLiveEntry() applied before a snapshot was loaded")
	}
	if e.State() != Empty {
		t.Errorf("State() = %v, want empty", e.State())
	}
}

func TestLiveEntryOtherProjectIgnored(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	if e.OnLiveEntry(entry("x", "other", 2*time.Hour, "x"), "Jun 3") {
		t.Error("OnLiveEntry() applied an entry of another project")
	}
	if e.ApplyFilter(nil).Count() != 3 {
		t.Errorf("view changed by foreign entry")
	}
}

func TestLiveEntryInsertsAtHead(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	e.OnLiveEntry(entry("c", project, 2*time.Hour, "gamma"), "Jun 3")

	got := e.ApplyFilter(nil)
	if got[0].Entries[0].ID != "c" || len(got[0].Entries) != 3 {
		t.Errorf("head bucket = %v, want c first of 3", got[0].Entries)
	}
}

// Concurrent ingests may publish out of store order; the merged view must
// still match what a fresh snapshot would hold.
func TestLiveEntriesOutOfOrderMatchRefetch(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	older := entry("c1", project, 2*time.Hour, "first stored")
	older.Seq = 10
	newer := entry("c2", project, 2*time.Hour+time.Millisecond, "second stored")
	newer.Seq = 11
	tie := entry("c3", project, 2*time.Hour+time.Millisecond, "same ms")
	tie.Seq = 12

	e.OnLiveEntry(tie, "Jun 3")
	e.OnLiveEntry(older, "Jun 3")
	e.OnLiveEntry(newer, "Jun 3")

	live := e.ApplyFilter(nil)
	var flat []*domain.Entry
	for _, b := range snapshot() {
		flat = append(flat, b.Entries...)
	}
	refetch := aggregate.GroupByDay(append(flat, older, newer, tie), domain.NewCalendar(time.UTC, ""))

	if !equal(days(live), days(refetch)) {
		t.Fatalf("days = %v, want %v", days(live), days(refetch))
	}
	for i := range refetch {
		got, want := ids(live[i].Entries), ids(refetch[i].Entries)
		if !equal(got, want) {
			t.Errorf("bucket %s = %v, want %v", refetch[i].Day, got, want)
		}
	}
	if got := ids(live[0].Entries); !equal(got, []string{"c3", "c2", "c1", "b", "a"}) {
		t.Errorf("head bucket = %v, want [c3 c2 c1 b a]", got)
	}
}

func TestLiveEntryOlderThanBucketAppends(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	e.OnLiveEntry(entry("early", project, -time.Hour, "early"), "Jun 3")

	if got := ids(e.ApplyFilter(nil)[0].Entries); !equal(got, []string{"b", "a", "early"}) {
		t.Errorf("head bucket = %v, want [b a early]", got)
	}
}

func TestLiveEntryCreatesNewHeadBucket(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	e.OnLiveEntry(entry("n", project, 24*time.Hour, "next day"), "Jun 4")

	want := []string{"Jun 4", "Jun 3", "Jun 2"}
	if got := days(e.ApplyFilter(nil)); !equal(got, want) {
		t.Errorf("days = %v, want %v", got, want)
	}
}

func TestLiveEntryMovesExistingBucketToHead(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	e.OnLiveEntry(entry("late", project, -20*time.Hour, "late"), "Jun 2")

	got := e.ApplyFilter(nil)
	if got[0].Day != "Jun 2" || got[0].Entries[0].ID != "late" {
		t.Errorf("head = %s/%s, want Jun 2/late", got[0].Day, got[0].Entries[0].ID)
	}
	if len(got) != 2 {
		t.Errorf("buckets = %d, want 2", len(got))
	}
}

func TestLiveEntryDedup(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	c := entry("c", project, 2*time.Hour, "gamma")
	if !e.OnLiveEntry(c, "Jun 3") {
		t.Fatal("first delivery not applied")
	}
	if e.OnLiveEntry(c, "Jun 3") {
		t.Error("duplicate delivery applied")
	}
	if e.OnLiveEntry(entry("a", project, 0, "alpha"), "Jun 3") {
		t.Error("entry already in snapshot applied again")
	}

	occurrences := 0
	for _, b := range e.ApplyFilter(nil) {
		for _, x := range b.Entries {
			if x.ID == "c" {
				occurrences++
			}
		}
	}
	if occurrences != 1 {
		t.Errorf("entry c appears %d times, want 1", occurrences)
	}
}

func TestDeleteEntryDropsEmptiedBucket(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	if !e.OnDeleteEntry("z") {
		t.Fatal("OnDeleteEntry(z) = false")
	}
	if got := days(e.ApplyFilter(nil)); !equal(got, []string{"Jun 3"}) {
		t.Errorf("days = %v, want [Jun 3]", got)
	}
	if e.OnDeleteEntry("z") {
		t.Error("second delete reported a change")
	}

	e.OnDeleteEntry("a")
	if got := e.ApplyFilter(nil); got.Count() != 1 || got[0].Entries[0].ID != "b" {
		t.Errorf("after deleting a: %v", got)
	}
}

func TestDeleteRange(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	if n := e.OnDeleteRange("Jun 3"); n != 2 {
		t.Errorf("OnDeleteRange(Jun 3) = %d, want 2", n)
	}
	if n := e.OnDeleteRange("Jan 1"); n != 0 {
		t.Errorf("OnDeleteRange(missing) = %d, want 0", n)
	}
	// A deleted entry delivered live again counts as new.
	if !e.OnLiveEntry(entry("b", project, time.Hour, "beta"), "Jun 3") {
		t.Error("entry removed by range delete was still indexed")
	}
	if n := e.OnDeleteRange(""); n != 2 {
		t.Errorf("OnDeleteRange(all) = %d, want 2", n)
	}
	if got := e.ApplyFilter(nil); len(got) != 0 {
		t.Errorf("buckets after clear = %v", got)
	}
}

func TestApplyFilterNeverMutates(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())

	alpha := e.ApplyFilter(aggregate.ContainsText("alpha"))
	zulu := e.ApplyFilter(aggregate.ContainsText("zulu"))

	if alpha.Count() != 1 || zulu.Count() != 1 {
		t.Errorf("filters = %d, %d entries, want 1 each", alpha.Count(), zulu.Count())
	}
	if e.ApplyFilter(nil).Count() != 3 {
		t.Error("ApplyFilter() mutated held state")
	}

	// Mutating a returned view leaves the engine alone.
	all := e.ApplyFilter(nil)
	all[0].Entries = nil
	if e.ApplyFilter(nil).Count() != 3 {
		t.Error("returned view aliases engine state")
	}
}

func TestLoadSnapshotDoesNotAliasInput(t *testing.T) {
	snap := snapshot()
	e := NewEngine(project)
	e.LoadSnapshot(snap)

	e.OnLiveEntry(entry("c", project, 2*time.Hour, "gamma"), "Jun 3")
	if len(snap[0].Entries) != 2 {
		t.Errorf("LoadSnapshot() input mutated: %d entries", len(snap[0].Entries))
	}
}

func TestResetRescopes(t *testing.T) {
	e := NewEngine(project)
	e.LoadSnapshot(snapshot())
	e.Reset("p2")

	if e.State() != Empty || e.ProjectID() != "p2" {
		t.Errorf("Reset() state = %v/%s", e.State(), e.ProjectID())
	}
	if e.OnLiveEntry(entry("x", "p2", 0, "x"), "Jun 3") {
		t.Error("live entry applied before new snapshot")
	}
}

func TestSearchMinimumLength(t *testing.T) {
	tests := []struct {
		q       string
		wantNil bool
	}{
		{"", true},
		{"ab", true},
		{"  ab  ", true},
		{"abc", false},
		{"ééé", false},
	}
	for _, tt := range tests {
		if got := Search(tt.q) == nil; got != tt.wantNil {
			t.Errorf("Search(%q) nil = %v, want %v", tt.q, got, tt.wantNil)
		}
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ids(entries []*domain.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

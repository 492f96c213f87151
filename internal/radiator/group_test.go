package radiator

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jenkinsci/radiatorview/internal/protocol"
)

func resultEntry(name string, r protocol.Result) *Entry {
	return entryFor(newJob(name, settledBuild(r)))
}

func claimedEntry(name string, r protocol.Result) *Entry {
	b := settledBuild(r)
	b.claims = []ClaimRecord{{Claimed: true, ClaimedBy: "alice", Reason: "known"}}
	return entryFor(newJob(name, b))
}

func names(entries []ViewEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func mustAdd(t *testing.T, g *Group, entries ...ViewEntry) {
	t.Helper()
	for _, e := range entries {
		if err := g.Add(e); err != nil {
			t.Fatalf("add %s: %v", e.Name(), err)
		}
	}
}

func TestEmptyGroup(t *testing.T) {
	g := NewGroup("empty")
	if !g.Stable() || g.Broken() || g.Building() || g.Claimed() || g.NotBuilt() {
		t.Fatalf("empty group flags: stable=%v broken=%v", g.Stable(), g.Broken())
	}
	if g.TestCount() != 0 || g.FailCount() != 0 || g.SuccessCount() != 0 || g.SuccessPercentage() != "" {
		t.Fatal("empty group should have zero test counts")
	}
	if g.BackgroundColor() != "green" || g.Status() != StatusSuccessful || g.HasChildren() {
		t.Fatalf("empty group: color=%s status=%s", g.BackgroundColor(), g.Status())
	}
	if g.Culprit() != "" || g.Claim() != "" {
		t.Fatalf("empty group culprit/claim: %q %q", g.Culprit(), g.Claim())
	}
}

func TestGroupRejectsNil(t *testing.T) {
	g := NewGroup("g")
	if err := g.Add(nil); !errors.Is(err, ErrNilEntry) {
		t.Fatalf("nil child: got %v", err)
	}
	var e *Entry
	if err := g.Add(e); !errors.Is(err, ErrNilEntry) {
		t.Fatalf("typed nil entry: got %v", err)
	}
	var sub *Group
	if err := g.Add(sub); !errors.Is(err, ErrNilEntry) {
		t.Fatalf("typed nil group: got %v", err)
	}
	if g.Len() != 0 {
		t.Fatalf("rejected children must not be stored, len=%d", g.Len())
	}
	if err := g.Add(g); !errors.Is(err, ErrCycle) {
		t.Fatalf("group should not accept itself: got %v", err)
	}
}

func TestGroupRejectsIndirectCycle(t *testing.T) {
	outer := NewGroup("outer")
	middle := NewGroup("middle")
	inner := NewGroup("inner")
	mustAdd(t, outer, middle)
	mustAdd(t, middle, inner)

	if err := inner.Add(outer); !errors.Is(err, ErrCycle) {
		t.Fatalf("indirect cycle: got %v", err)
	}
	if err := middle.Add(outer); !errors.Is(err, ErrCycle) {
		t.Fatalf("two-level cycle: got %v", err)
	}
	if inner.Len() != 0 || middle.Len() != 1 {
		t.Fatalf("rejected cycles must not be stored: inner=%d middle=%d", inner.Len(), middle.Len())
	}
	// Sharing a group between siblings is not a cycle.
	other := NewGroup("other")
	mustAdd(t, other, inner)
	mustAdd(t, outer, other)
	if outer.Broken() || !outer.Stable() {
		t.Fatal("tree of empty groups should be calm")
	}
}

func TestGroupFolds(t *testing.T) {
	ok := resultEntry("ok", protocol.ResultSuccess)
	unstable := resultEntry("flaky", protocol.ResultUnstable)
	broken := resultEntry("broken", protocol.ResultFailure)

	g := NewGroup("g")
	mustAdd(t, g, ok)
	if !g.Stable() || g.Broken() {
		t.Fatal("group with only stable child should be stable")
	}
	mustAdd(t, g, unstable)
	if g.Stable() || g.Broken() || g.Status() != StatusUnstable {
		t.Fatalf("group with unstable child: stable=%v broken=%v status=%s", g.Stable(), g.Broken(), g.Status())
	}
	mustAdd(t, g, broken)
	if !g.Broken() || g.Status() != StatusFailing || g.BackgroundColor() != "red" {
		t.Fatalf("group with broken child: broken=%v status=%s color=%s", g.Broken(), g.Status(), g.BackgroundColor())
	}
}

func TestGroupTestCountsAndTitle(t *testing.T) {
	a := settledBuild(protocol.ResultSuccess)
	a.tests = []TestSummary{{Total: 10}}
	b := settledBuild(protocol.ResultUnstable)
	b.tests = []TestSummary{{Total: 30, Failed: 5}}
	g := NewGroup("core")
	mustAdd(t, g, entryFor(newJob("core-a", a)), entryFor(newJob("core-b", b)))

	if g.TestCount() != 40 || g.FailCount() != 5 || g.SuccessCount() != 35 {
		t.Fatalf("sums: %d/%d/%d", g.TestCount(), g.FailCount(), g.SuccessCount())
	}
	if g.SuccessPercentage() != "88%" {
		t.Fatalf("percentage: got %q", g.SuccessPercentage())
	}
	if g.Title() != "core: core-b, core-a" {
		t.Fatalf("title: got %q", g.Title())
	}
	if g.BackgroundColor() != "red" {
		t.Fatalf("failing tests without claim should be red, got %s", g.BackgroundColor())
	}
}

func TestGroupClaimedColors(t *testing.T) {
	g := NewGroup("g")
	mustAdd(t, g, resultEntry("ok", protocol.ResultSuccess), claimedEntry("broken", protocol.ResultFailure))
	if g.BackgroundColor() != "orange" {
		t.Fatalf("all failures claimed should be orange, got %s", g.BackgroundColor())
	}
	if !g.Claimed() || !g.CompletelyClaimed() || g.Status() != StatusClaimed {
		t.Fatalf("claimed group: claimed=%v complete=%v status=%s", g.Claimed(), g.CompletelyClaimed(), g.Status())
	}
	if g.Claim() != "broken: known (alice).;" {
		t.Fatalf("group claim: got %q", g.Claim())
	}
}

func TestGroupPartitionsLenientWithoutHardFailure(t *testing.T) {
	g := NewGroup("g")
	mustAdd(t, g,
		resultEntry("ok", protocol.ResultSuccess),
		resultEntry("flaky", protocol.ResultUnstable),
		resultEntry("new", protocol.ResultNotBuilt),
	)
	if diff := cmp.Diff([]string{"new", "flaky", "ok"}, names(g.PassingJobs())); diff != "" {
		t.Fatalf("passing (-want +got):\n%s", diff)
	}
	if len(g.FailingJobs()) != 0 {
		t.Fatalf("no hard failure means no failing jobs, got %v", names(g.FailingJobs()))
	}
	if diff := cmp.Diff([]string{"flaky"}, names(g.UnclaimedJobs())); diff != "" {
		t.Fatalf("unclaimed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"new"}, names(g.UnbuiltJobs())); diff != "" {
		t.Fatalf("unbuilt (-want +got):\n%s", diff)
	}
}

func TestGroupPartitionsStrictWithHardFailure(t *testing.T) {
	g := NewGroup("g")
	mustAdd(t, g,
		resultEntry("ok", protocol.ResultSuccess),
		resultEntry("flaky", protocol.ResultUnstable),
	)
	if len(g.FailingJobs()) != 0 {
		t.Fatal("precondition: nothing failing yet")
	}
	mustAdd(t, g, claimedEntry("broken", protocol.ResultFailure))

	if diff := cmp.Diff([]string{"broken", "flaky"}, names(g.FailingJobs())); diff != "" {
		t.Fatalf("failing (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ok"}, names(g.PassingJobs())); diff != "" {
		t.Fatalf("passing (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"broken"}, names(g.ClaimedJobs())); diff != "" {
		t.Fatalf("claimed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"flaky"}, names(g.UnclaimedJobs())); diff != "" {
		t.Fatalf("unclaimed (-want +got):\n%s", diff)
	}
}

func TestNestedGroupMutationRefreshesParent(t *testing.T) {
	sub := NewGroup("sub")
	mustAdd(t, sub, resultEntry("ok", protocol.ResultSuccess))
	root := NewGroup("root")
	mustAdd(t, root, sub)
	if len(root.PassingJobs()) != 1 || len(root.UnclaimedJobs()) != 0 {
		t.Fatal("precondition: nested group passing")
	}

	mustAdd(t, sub, resultEntry("broken", protocol.ResultFailure))
	if len(root.FailingJobs()) != 1 || len(root.PassingJobs()) != 0 {
		t.Fatalf("parent partitions stale after nested add: passing=%v failing=%v",
			names(root.PassingJobs()), names(root.FailingJobs()))
	}
	if diff := cmp.Diff([]string{"sub"}, names(root.UnclaimedJobs())); diff != "" {
		t.Fatalf("unclaimed (-want +got):\n%s", diff)
	}
}

func TestGroupOfPassingAndNeverBuiltJobsIsCalm(t *testing.T) {
	alpha := NewGroup("alpha")
	mustAdd(t, alpha, resultEntry("alpha_build", protocol.ResultFailure))
	beta := NewGroup("beta")
	mustAdd(t, beta,
		resultEntry("beta_build", protocol.ResultSuccess),
		resultEntry("beta_new", protocol.ResultNotBuilt),
	)
	root := NewGroup("root")
	mustAdd(t, root, alpha, beta)

	if beta.Broken() || beta.NotBuilt() || beta.Stable() {
		t.Fatalf("beta flags: broken=%v notBuilt=%v stable=%v", beta.Broken(), beta.NotBuilt(), beta.Stable())
	}
	if beta.Status() != StatusSuccessful || beta.BackgroundColor() != "green" {
		t.Fatalf("beta: status=%q color=%q", beta.Status(), beta.BackgroundColor())
	}
	if diff := cmp.Diff([]string{"alpha"}, names(root.FailingJobs())); diff != "" {
		t.Fatalf("failing (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"beta"}, names(root.PassingJobs())); diff != "" {
		t.Fatalf("passing (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alpha"}, names(root.UnclaimedJobs())); diff != "" {
		t.Fatalf("unclaimed (-want +got):\n%s", diff)
	}
	if rows := LayoutRows(root.FailingJobs(), true); len(rows) != 1 || rows[0][0].Name() != "alpha" {
		t.Fatalf("failing rows: %v", rows)
	}
}

func TestGroupKeepsEqualEntries(t *testing.T) {
	g := NewGroup("g")
	first := resultEntry("same", protocol.ResultFailure)
	second := resultEntry("same", protocol.ResultFailure)
	mustAdd(t, g, first, second)
	children := g.Children()
	if len(children) != 2 || children[0] != ViewEntry(first) || children[1] != ViewEntry(second) {
		t.Fatalf("equal entries should both be kept in insertion order")
	}
}

func TestGroupCulprits(t *testing.T) {
	failing := &fakeBuild{result: protocol.ResultFailure, culprits: []string{"dave"}}
	passing := &fakeBuild{result: protocol.ResultSuccess, culprits: []string{"erin"}}
	g := NewGroup("g")
	mustAdd(t, g, entryFor(newJob("a", failing)), entryFor(newJob("b", passing)))
	if g.Culprit() != "dave" {
		t.Fatalf("group culprit: got %q", g.Culprit())
	}
}

var allResults = []protocol.Result{
	protocol.ResultSuccess, protocol.ResultUnstable, protocol.ResultFailure,
	protocol.ResultNotBuilt, protocol.ResultAborted,
}

func TestGroupProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genResults := gen.SliceOf(gen.IntRange(0, len(allResults)-1))
	build := func(idx []int) (*Group, []*Entry) {
		g := NewGroup("prop")
		entries := make([]*Entry, 0, len(idx))
		for i, r := range idx {
			e := resultEntry(string(rune('a'+i%26))+"-job", allResults[r])
			entries = append(entries, e)
			_ = g.Add(e)
		}
		return g, entries
	}

	properties.Property("broken iff some child is broken, stable iff all are", prop.ForAll(
		func(idx []int) bool {
			g, entries := build(idx)
			anyBroken, allStable := false, true
			for _, e := range entries {
				anyBroken = anyBroken || e.Broken()
				allStable = allStable && e.Stable()
			}
			return g.Broken() == anyBroken && g.Stable() == allStable && g.Len() == len(entries)
		},
		genResults,
	))

	properties.Property("passing and failing split the children before and after each add", prop.ForAll(
		func(idx []int) bool {
			g := NewGroup("prop")
			for i, r := range idx {
				if !partitionsConsistent(g) {
					return false
				}
				_ = g.Add(resultEntry(string(rune('a'+i%26)), allResults[r]))
				if !partitionsConsistent(g) {
					return false
				}
			}
			return true
		},
		genResults,
	))

	properties.TestingRun(t)
}

func partitionsConsistent(g *Group) bool {
	seen := map[ViewEntry]int{}
	for _, e := range g.PassingJobs() {
		seen[e]++
	}
	for _, e := range g.FailingJobs() {
		seen[e]++
	}
	children := g.Children()
	if len(seen) != len(children) {
		return false
	}
	for _, c := range children {
		if seen[c] != 1 {
			return false
		}
	}
	return len(g.ClaimedJobs())+len(g.UnclaimedJobs()) <= len(children)
}

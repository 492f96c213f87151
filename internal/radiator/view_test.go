package radiator

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jenkinsci/radiatorview/internal/protocol"
)

func testSource() *fakeSource {
	api := newJob("web_api", settledBuild(protocol.ResultSuccess))
	api.queueItem = "q-api"
	ui := newJob("web_ui", settledBuild(protocol.ResultFailure))
	disabled := newJob("web_old", settledBuild(protocol.ResultFailure))
	disabled.disabled = true
	nightly := newJob("team/nightly-build", settledBuild(protocol.ResultUnstable))
	nightly.queueItem = "q-nightly"
	scratch := newJob("scratch-test", settledBuild(protocol.ResultFailure))
	return &fakeSource{
		items: []Item{
			api, ui, disabled, scratch,
			&fakeFolder{name: "team", items: []Item{nightly}},
		},
		queue: []string{"q-nightly", "q-api"},
	}
}

func TestViewContents(t *testing.T) {
	exclude, err := CompileExclude("scratch.*")
	if err != nil {
		t.Fatalf("compile exclude: %v", err)
	}
	v := &View{Name: "radiator", Exclude: exclude}
	root, err := v.Contents(context.Background(), testSource())
	if err != nil {
		t.Fatalf("contents: %v", err)
	}
	if diff := cmp.Diff([]string{"web_ui", "team/nightly-build", "web_api"}, names(root.Children())); diff != "" {
		t.Fatalf("contents (-want +got):\n%s", diff)
	}
	for _, c := range root.Children() {
		e := c.(*Entry)
		switch e.Name() {
		case "team/nightly-build":
			if e.QueueNumber() != 1 {
				t.Fatalf("nightly queue number: got %d", e.QueueNumber())
			}
		case "web_api":
			if e.QueueNumber() != 2 {
				t.Fatalf("api queue number: got %d", e.QueueNumber())
			}
		}
	}
}

func TestViewQueuePositionsRebuiltPerRender(t *testing.T) {
	src := testSource()
	v := &View{Name: "radiator"}
	if _, err := v.Contents(context.Background(), src); err != nil {
		t.Fatalf("first render: %v", err)
	}
	src.queue = []string{"q-api"}
	root, err := v.Contents(context.Background(), src)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	for _, c := range root.Children() {
		e := c.(*Entry)
		if e.Name() == "web_api" && e.QueueNumber() != 1 {
			t.Fatalf("api queue number after queue change: got %d", e.QueueNumber())
		}
		if e.Name() == "team/nightly-build" && e.QueueNumber() != 0 {
			t.Fatalf("stale queue number for nightly: got %d", e.QueueNumber())
		}
	}
}

func TestViewInclude(t *testing.T) {
	v := &View{Name: "radiator", Include: []string{"team/**", "web_a*"}}
	root, err := v.Contents(context.Background(), testSource())
	if err != nil {
		t.Fatalf("contents: %v", err)
	}
	if diff := cmp.Diff([]string{"team/nightly-build", "web_api"}, names(root.Children())); diff != "" {
		t.Fatalf("included (-want +got):\n%s", diff)
	}
}

func TestViewRenderGrouped(t *testing.T) {
	v := &View{Name: "radiator", GroupByPrefix: true}
	root, err := v.Render(context.Background(), testSource())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff([]string{"scratch", "team/nightly", "web"}, names(root.Children())); diff != "" {
		t.Fatalf("groups (-want +got):\n%s", diff)
	}
	if !root.Broken() || root.Stable() {
		t.Fatal("root should be broken")
	}
}

func TestViewPropagatesSourceErrors(t *testing.T) {
	boom := errors.New("boom")
	v := &View{Name: "radiator"}

	src := testSource()
	src.itemsErr = boom
	if _, err := v.Contents(context.Background(), src); !errors.Is(err, boom) {
		t.Fatalf("items error: got %v", err)
	}

	src = testSource()
	src.queueErr = boom
	if _, err := v.Contents(context.Background(), src); !errors.Is(err, boom) {
		t.Fatalf("queue error: got %v", err)
	}
}

func TestViewHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := &View{Name: "radiator"}
	if _, err := v.Contents(ctx, testSource()); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled render: got %v", err)
	}
}

func TestCompileExclude(t *testing.T) {
	re, err := CompileExclude("")
	if err != nil || re != nil {
		t.Fatalf("empty pattern: re=%v err=%v", re, err)
	}
	re, err = CompileExclude("web")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if re.MatchString("web_api") || !re.MatchString("web") {
		t.Fatal("exclude pattern must match the whole name")
	}
	if _, err := CompileExclude("("); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestEntryViewTree(t *testing.T) {
	v := &View{Name: "radiator", GroupByPrefix: true}
	root, err := v.Render(context.Background(), testSource())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := EntryView(root)
	if out.Name != "radiator" || len(out.Children) != 3 {
		t.Fatalf("tree root: %+v", out)
	}
	web := out.Children[2]
	if web.Title != "web: web_ui, web_api" || web.BackgroundColor != "red" {
		t.Fatalf("web group view: %+v", web)
	}
	if web.Children[0].Result != protocol.ResultFailure || web.Children[0].LastBuildURL == "" {
		t.Fatalf("leaf view: %+v", web.Children[0])
	}
	rows := RowViews(LayoutRows(root.FailingJobs(), true))
	if len(rows) != 3 || len(rows[0]) != 1 {
		t.Fatalf("failing rows: got %d", len(rows))
	}
}

package radiator

import (
	"context"
	"fmt"
	"time"

	"github.com/jenkinsci/radiatorview/internal/protocol"
)

type fakeBuild struct {
	number      int
	result      protocol.Result
	building    bool
	notStarted  bool
	logUpdated  bool
	prev        *fakeBuild
	tests       []TestSummary
	culprits    []string
	runs        []*fakeBuild
	combination string
	claims      []ClaimRecord
	started     time.Time
}

func (b *fakeBuild) Number() int             { return b.number }
func (b *fakeBuild) URL() string             { return fmt.Sprintf("job/x/%d/", b.number) }
func (b *fakeBuild) Result() protocol.Result { return b.result }
func (b *fakeBuild) Building() bool          { return b.building }
func (b *fakeBuild) HasntStartedYet() bool   { return b.notStarted }
func (b *fakeBuild) LogUpdated() bool        { return b.logUpdated }
func (b *fakeBuild) Timestamp() time.Time    { return b.started }
func (b *fakeBuild) TimestampString() string { return fmt.Sprintf("build %d", b.number) }
func (b *fakeBuild) DurationString() string  { return "1 min" }
func (b *fakeBuild) TestResults() []TestSummary {
	return b.tests
}
func (b *fakeBuild) Culprits() []string  { return b.culprits }
func (b *fakeBuild) Combination() string { return b.combination }

func (b *fakeBuild) PreviousBuild() Build {
	if b.prev == nil {
		return nil
	}
	return b.prev
}

func (b *fakeBuild) PreviousBuildInProgress() Build {
	for p := b.prev; p != nil; p = p.prev {
		if p.building {
			return p
		}
	}
	return nil
}

func (b *fakeBuild) Runs() []Build {
	if len(b.runs) == 0 {
		return nil
	}
	out := make([]Build, 0, len(b.runs))
	for _, r := range b.runs {
		out = append(out, r)
	}
	return out
}

// chain links builds given newest first and numbers them downwards.
func chain(builds ...*fakeBuild) *fakeBuild {
	for i, b := range builds {
		if b.number == 0 {
			b.number = len(builds) - i
		}
		if i+1 < len(builds) {
			b.prev = builds[i+1]
		}
	}
	if len(builds) == 0 {
		return nil
	}
	return builds[0]
}

func settledBuild(r protocol.Result) *fakeBuild {
	return &fakeBuild{result: r}
}

type fakeJob struct {
	name      string
	url       string
	disabled  bool
	queueItem string
	project   string
	icon      protocol.IconColor
	last      *fakeBuild
}

func (j *fakeJob) FullName() string {
	return j.name
}
func (j *fakeJob) Name() string                  { return j.name }
func (j *fakeJob) URL() string                   { return j.url }
func (j *fakeJob) Disabled() bool                { return j.disabled }
func (j *fakeJob) InQueue() bool                 { return j.queueItem != "" }
func (j *fakeJob) QueueItem() string             { return j.queueItem }
func (j *fakeJob) ProjectName() string           { return j.project }
func (j *fakeJob) IconColor() protocol.IconColor { return j.icon }

func (j *fakeJob) LastBuild() Build {
	if j.last == nil {
		return nil
	}
	return j.last
}

func (j *fakeJob) find(match func(*fakeBuild) bool) Build {
	for b := j.last; b != nil; b = b.prev {
		if match(b) {
			return b
		}
	}
	return nil
}

func (j *fakeJob) LastSuccessfulBuild() Build {
	return j.find(func(b *fakeBuild) bool {
		return !b.building && b.result.Valid() && b.result.IsBetterOrEqualTo(protocol.ResultUnstable)
	})
}

func (j *fakeJob) LastStableBuild() Build {
	return j.find(func(b *fakeBuild) bool { return !b.building && b.result == protocol.ResultSuccess })
}

func (j *fakeJob) LastCompletedBuild() Build {
	return j.find(func(b *fakeBuild) bool { return !b.building && !b.notStarted })
}

func newJob(name string, builds ...*fakeBuild) *fakeJob {
	return &fakeJob{name: name, url: "job/" + name + "/", icon: protocol.IconBlue, last: chain(builds...)}
}

type fakeFolder struct {
	name  string
	items []Item
}

func (f *fakeFolder) FullName() string { return f.name }
func (f *fakeFolder) Items() []Item    { return f.items }

type fakeClaims struct{}

func (fakeClaims) ClaimsFor(b Build) []ClaimRecord {
	if fb, ok := b.(*fakeBuild); ok {
		return fb.claims
	}
	return nil
}

type fakeSource struct {
	items    []Item
	queue    []string
	itemsErr error
	queueErr error
}

func (s *fakeSource) Items(context.Context) ([]Item, error) { return s.items, s.itemsErr }
func (s *fakeSource) Queue(context.Context) ([]string, error) {
	return s.queue, s.queueErr
}

func entryFor(job Job) *Entry {
	return NewEntry(&RenderContext{Palette: DefaultPalette, Claims: fakeClaims{}}, job)
}

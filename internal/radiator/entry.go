package radiator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jenkinsci/radiatorview/internal/protocol"
)

const (
	StatusNeverBuilt = "never built"
	StatusSuccessful = "successful"
	StatusClaimed    = "claimed"
	StatusFailing    = "failing"
	StatusUnstable   = "unstable"

	noCulprit = " - "
)

// ViewEntry is what the radiator renders: a single job (Entry) or a group of
// entries (Group).
type ViewEntry interface {
	Name() string
	URL() string
	Status() string
	BackgroundColor() string
	Color() string

	Broken() bool
	Building() bool
	Stable() bool
	NotBuilt() bool
	Queued() bool

	TestCount() int
	FailCount() int
	SuccessCount() int
	SuccessPercentage() string
	Diff() string
	DiffColor() string

	Culprit() string
	Culprits() []string

	Claim() string
	Claimed() bool
	CompletelyClaimed() bool

	LastCompletedBuild() string
	LastStableBuild() string
	LastFinishedResult() protocol.Result
	HasChildren() bool
}

// RenderContext is shared read-only by every entry of one render.
type RenderContext struct {
	Palette Palette
	// QueuePositions maps a queue item id to its 1-based position.
	QueuePositions map[string]int
	Claims         ClaimService
}

// Entry is the radiator view of one job. All values are computed when the
// entry is built; the getters never go back to the CI engine.
type Entry struct {
	job Job

	name         string
	url          string
	lastBuildURL string
	projectName  string

	result   protocol.Result
	bgColor  string
	fgColor  string
	broken   bool
	building bool
	stable   bool
	notBuilt bool

	queued      bool
	queueNumber int

	testCount    int
	failCount    int
	skipCount    int
	successPerc  string
	diff         string
	diffColor    string
	culprits     []string
	inProgress   []Build
	lastComplete string
	lastStable   string

	claim jobClaim
}

var _ ViewEntry = (*Entry)(nil)

func NewEntry(rc *RenderContext, job Job) *Entry {
	if rc == nil {
		rc = &RenderContext{}
	}
	e := &Entry{
		job:         job,
		name:        job.FullName(),
		url:         job.URL(),
		projectName: strings.TrimSpace(job.ProjectName()),
		queued:      job.InQueue(),
	}
	e.findStatus(rc.Palette.WithDefaults(), job)
	e.building = protocol.IsBuildingIcon(job.IconColor())

	if item := job.QueueItem(); item != "" {
		e.queueNumber = rc.QueuePositions[item]
	}
	e.lastBuildURL = e.url
	if b := job.LastBuild(); b != nil {
		e.lastBuildURL = b.URL()
	}

	if b := job.LastCompletedBuild(); b != nil {
		t := sumTests(b.TestResults())
		e.testCount, e.failCount, e.skipCount = t.Total, t.Failed, t.Skipped
		e.lastComplete = b.TimestampString() + " (" + b.DurationString() + ")"
	}
	if b := job.LastStableBuild(); b != nil {
		e.lastStable = b.TimestampString() + " (in " + b.DurationString() + ")"
	}

	e.diff = testDiff(job)
	e.diffColor = diffColor(e.diff)
	if e.testCount > 0 {
		e.successPerc = formatPercent(float64(e.SuccessCount()) / float64(e.testCount))
	}
	e.culprits = culprits(job)
	e.inProgress = buildsInProgress(job)
	e.claim = resolveJobClaim(rc.Claims, job)
	return e
}

func (e *Entry) findStatus(p Palette, job Job) {
	e.result = LastFinishedResult(job)
	switch e.result {
	case protocol.ResultNotBuilt:
		e.bgColor, e.fgColor = p.OtherBG, p.OtherFG
		e.notBuilt = true
	case protocol.ResultSuccess:
		e.bgColor, e.fgColor = p.OkBG, p.OkFG
		e.stable = true
	case protocol.ResultUnstable:
		e.bgColor, e.fgColor = p.FailedBG, p.FailedFG
	default:
		e.bgColor, e.fgColor = p.BrokenBG, p.BrokenFG
		e.broken = true
	}
}

func (e *Entry) Job() Job { return e.job }

func (e *Entry) Name() string { return e.name }

func (e *Entry) URL() string { return e.url }

func (e *Entry) LastBuildURL() string { return e.lastBuildURL }

// ProjectName is the group name assigned to the job, "" when none.
func (e *Entry) ProjectName() string { return e.projectName }

func (e *Entry) Status() string {
	switch {
	case e.notBuilt:
		return StatusNeverBuilt
	case e.stable:
		return StatusSuccessful
	case e.CompletelyClaimed():
		return StatusClaimed
	case e.broken:
		return StatusFailing
	default:
		return StatusUnstable
	}
}

func (e *Entry) BackgroundColor() string { return e.bgColor }
func (e *Entry) Color() string           { return e.fgColor }
func (e *Entry) Broken() bool            { return e.broken }
func (e *Entry) Building() bool          { return e.building }
func (e *Entry) Stable() bool            { return e.stable }
func (e *Entry) NotBuilt() bool          { return e.notBuilt }
func (e *Entry) Queued() bool            { return e.queued }

// QueueNumber is the job's position in the build queue, 0 when not queued.
func (e *Entry) QueueNumber() int { return e.queueNumber }

func (e *Entry) TestCount() int { return e.testCount }
func (e *Entry) FailCount() int { return e.failCount }
func (e *Entry) SkipCount() int { return e.skipCount }

func (e *Entry) SuccessCount() int {
	return e.testCount - e.failCount - e.skipCount
}

func (e *Entry) SuccessPercentage() string { return e.successPerc }
func (e *Entry) Diff() string              { return e.diff }
func (e *Entry) DiffColor() string         { return e.diffColor }

func (e *Entry) Culprits() []string { return append([]string(nil), e.culprits...) }

func (e *Entry) Culprit() string {
	if len(e.culprits) == 0 {
		return noCulprit
	}
	return strings.Join(e.culprits, ", ")
}

// BuildsInProgress lists the job's running builds, newest first.
func (e *Entry) BuildsInProgress() []Build { return append([]Build(nil), e.inProgress...) }

func (e *Entry) LastCompletedBuild() string { return e.lastComplete }
func (e *Entry) LastStableBuild() string    { return e.lastStable }

// ClaimAvailable reports whether claim tracking was available for this render.
func (e *Entry) ClaimAvailable() bool { return e.claim.available }

func (e *Entry) Claim() string { return e.claim.text }

// UnclaimedMatrixBuilds lists the failing combinations of a matrix build that
// nobody has claimed yet.
func (e *Entry) UnclaimedMatrixBuilds() string { return e.claim.unclaimedMatrix }

func (e *Entry) Claimed() bool           { return e.claim.claimed }
func (e *Entry) CompletelyClaimed() bool { return e.claim.complete }

func (e *Entry) LastFinishedResult() protocol.Result { return e.result }

func (e *Entry) HasChildren() bool { return false }

func (e *Entry) String() string {
	return fmt.Sprintf("%s[%s]", e.name, e.result)
}

func sumTests(summaries []TestSummary) TestSummary {
	var t TestSummary
	for _, s := range summaries {
		t.Total += s.Total
		t.Failed += s.Failed
		t.Skipped += s.Skipped
	}
	return t
}

func testDiff(job Job) string {
	run := job.LastSuccessfulBuild()
	if run == nil {
		return ""
	}
	prev := lastSuccessfulFrom(run)
	if prev == nil {
		return ""
	}
	cur, old := run.TestResults(), prev.TestResults()
	if len(cur) == 0 || len(old) == 0 {
		return ""
	}
	c, o := sumTests(cur), sumTests(old)
	diff := (c.Total - c.Failed) - (o.Total - o.Failed)
	if diff == 0 {
		return ""
	}
	return diffString(diff)
}

func diffString(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func diffColor(diff string) string {
	diff = strings.TrimSpace(diff)
	if diff == "" {
		return diffColorNeutral
	}
	if strings.HasPrefix(diff, "-") {
		return diffColorNegative
	}
	return diffColorPositive
}

func formatPercent(ratio float64) string {
	return strconv.FormatFloat(math.RoundToEven(ratio*100), 'f', 0, 64) + "%"
}

// culprits collects the contributors of the latest build and of every build
// before it up to the most recent successful one.
func culprits(job Job) []string {
	seen := map[string]struct{}{}
	for b := job.LastBuild(); b != nil; {
		for _, name := range b.Culprits() {
			if name = strings.TrimSpace(name); name != "" {
				seen[name] = struct{}{}
			}
		}
		b = b.PreviousBuild()
		if b != nil && b.Result() == protocol.ResultSuccess {
			break
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

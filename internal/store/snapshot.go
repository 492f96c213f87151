package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jenkinsci/radiatorview/internal/protocol"
	"github.com/jenkinsci/radiatorview/internal/radiator"
)

// Snapshot is a read-only copy of the store taken at one point in time. It
// serves a render as both its radiator.Source and its radiator.ClaimService.
type Snapshot struct {
	takenAt time.Time
	items   []radiator.Item
	jobs    map[string]*snapJob
	queue   []string
	claims  map[claimKey][]radiator.ClaimRecord
}

type claimKey struct {
	job         string
	number      int
	combination string
}

type snapFolder struct {
	fullName string
	items    []radiator.Item
	byName   map[string]*snapFolder
}

func (f *snapFolder) FullName() string       { return f.fullName }
func (f *snapFolder) Items() []radiator.Item { return append([]radiator.Item(nil), f.items...) }

type snapJob struct {
	fullName  string
	url       string
	disabled  bool
	project   string
	icon      protocol.IconColor
	queueItem string
	last      *snapBuild
}

type snapBuild struct {
	job         *snapJob
	takenAt     time.Time
	number      int
	url         string
	result      protocol.Result
	building    bool
	notStarted  bool
	logUpdated  bool
	started     time.Time
	duration    time.Duration
	tests       []radiator.TestSummary
	culprits    []string
	runs        []*snapBuild
	combination string
	prev        *snapBuild
}

// Snapshot loads every job with its full build history, the claims and the
// queue.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	snap := &Snapshot{
		takenAt: time.Now().UTC(),
		jobs:    map[string]*snapJob{},
		claims:  map[claimKey][]radiator.ClaimRecord{},
	}
	byID, err := snap.loadJobs(ctx, tx)
	if err != nil {
		return nil, err
	}
	builds, err := snap.loadBuilds(ctx, tx, byID)
	if err != nil {
		return nil, err
	}
	if err := loadTestReports(ctx, tx, builds); err != nil {
		return nil, err
	}
	if err := snap.loadRuns(ctx, tx, builds); err != nil {
		return nil, err
	}
	if err := snap.loadClaims(ctx, tx); err != nil {
		return nil, err
	}
	if err := snap.loadQueue(ctx, tx); err != nil {
		return nil, err
	}
	return snap, nil
}

func (snap *Snapshot) loadJobs(ctx context.Context, tx *sql.Tx) (map[int64]*snapJob, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, full_name, url, disabled, icon_color, project_name
		FROM jobs
		ORDER BY full_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	root := &snapFolder{byName: map[string]*snapFolder{}}
	byID := map[int64]*snapJob{}
	for rows.Next() {
		var (
			id       int64
			j        snapJob
			disabled int
			icon     string
		)
		if err := rows.Scan(&id, &j.fullName, &j.url, &disabled, &icon, &j.project); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.disabled = disabled != 0
		j.icon = protocol.IconColor(icon)
		job := &j
		byID[id] = job
		snap.jobs[job.fullName] = job
		root.place(job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	snap.items = root.items
	return byID, nil
}

// place files a job under the folders named by its full name.
func (f *snapFolder) place(j *snapJob) {
	segments := strings.Split(j.fullName, "/")
	cur := f
	for i := 0; i < len(segments)-1; i++ {
		sub, ok := cur.byName[segments[i]]
		if !ok {
			sub = &snapFolder{fullName: strings.Join(segments[:i+1], "/"), byName: map[string]*snapFolder{}}
			cur.byName[segments[i]] = sub
			cur.items = append(cur.items, sub)
		}
		cur = sub
	}
	cur.items = append(cur.items, j)
}

func (snap *Snapshot) loadBuilds(ctx context.Context, tx *sql.Tx, jobs map[int64]*snapJob) (map[int64]*snapBuild, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, job_id, number, url, result, building, not_started, log_updated, started_utc, duration_ms, culprits_json
		FROM builds
		ORDER BY job_id, number
	`)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	out := map[int64]*snapBuild{}
	for rows.Next() {
		var (
			id, jobID                    int64
			b                            snapBuild
			result, culpritsJSON         string
			building, notStarted, logUpd int
			started                      sql.NullString
			durationMS                   int64
		)
		if err := rows.Scan(&id, &jobID, &b.number, &b.url, &result, &building, &notStarted, &logUpd, &started, &durationMS, &culpritsJSON); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		job, ok := jobs[jobID]
		if !ok {
			continue
		}
		b.job = job
		b.takenAt = snap.takenAt
		b.result = protocol.ParseResult(result)
		b.building = building != 0
		b.notStarted = notStarted != 0
		b.logUpdated = logUpd != 0
		b.started = parseTime(started)
		b.duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(culpritsJSON), &b.culprits); err != nil {
			return nil, fmt.Errorf("decode culprits of build %d: %w", id, err)
		}

		build := &b
		// Rows arrive oldest first, so the current head becomes the predecessor.
		build.prev = job.last
		job.last = build
		out[id] = build
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	for _, j := range snap.jobs {
		if j.icon == "" {
			j.icon = deriveIconColor(j)
		}
	}
	return out, nil
}

func loadTestReports(ctx context.Context, tx *sql.Tx, builds map[int64]*snapBuild) error {
	rows, err := tx.QueryContext(ctx, `SELECT build_id, total, failed, skipped FROM test_reports ORDER BY id`)
	if err != nil {
		return fmt.Errorf("list test reports: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			buildID int64
			t       radiator.TestSummary
		)
		if err := rows.Scan(&buildID, &t.Total, &t.Failed, &t.Skipped); err != nil {
			return fmt.Errorf("scan test report: %w", err)
		}
		if b, ok := builds[buildID]; ok {
			b.tests = append(b.tests, t)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate test reports: %w", err)
	}
	return nil
}

func (snap *Snapshot) loadRuns(ctx context.Context, tx *sql.Tx, builds map[int64]*snapBuild) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT build_id, combination, number, url, result, building, started_utc, duration_ms
		FROM matrix_runs
		ORDER BY build_id, id
	`)
	if err != nil {
		return fmt.Errorf("list matrix runs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			buildID    int64
			r          snapBuild
			result     string
			building   int
			started    sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&buildID, &r.combination, &r.number, &r.url, &result, &building, &started, &durationMS); err != nil {
			return fmt.Errorf("scan matrix run: %w", err)
		}
		parent, ok := builds[buildID]
		if !ok {
			continue
		}
		r.job = parent.job
		r.takenAt = snap.takenAt
		r.result = protocol.ParseResult(result)
		r.building = building != 0
		r.started = parseTime(started)
		r.duration = time.Duration(durationMS) * time.Millisecond
		parent.runs = append(parent.runs, &r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate matrix runs: %w", err)
	}
	return nil
}

func (snap *Snapshot) loadClaims(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT job_full_name, build_number, combination, claimed, claimed_by, reason
		FROM claims
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k       claimKey
			claimed int
			rec     radiator.ClaimRecord
		)
		if err := rows.Scan(&k.job, &k.number, &k.combination, &claimed, &rec.ClaimedBy, &rec.Reason); err != nil {
			return fmt.Errorf("scan claim: %w", err)
		}
		rec.Claimed = claimed != 0
		snap.claims[k] = append(snap.claims[k], rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate claims: %w", err)
	}
	return nil
}

func (snap *Snapshot) loadQueue(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT item, job_full_name FROM queue ORDER BY position`)
	if err != nil {
		return fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item, job string
		if err := rows.Scan(&item, &job); err != nil {
			return fmt.Errorf("scan queue item: %w", err)
		}
		snap.queue = append(snap.queue, item)
		if j, ok := snap.jobs[job]; ok && j.queueItem == "" {
			j.queueItem = item
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate queue: %w", err)
	}
	return nil
}

func (snap *Snapshot) Items(ctx context.Context) ([]radiator.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]radiator.Item(nil), snap.items...), nil
}

func (snap *Snapshot) Queue(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), snap.queue...), nil
}

// ClaimsFor returns the claim records of a build of this snapshot, in the
// order they were recorded.
func (snap *Snapshot) ClaimsFor(b radiator.Build) []radiator.ClaimRecord {
	sb, ok := b.(*snapBuild)
	if !ok || sb.job == nil {
		return nil
	}
	recs := snap.claims[claimKey{job: sb.job.fullName, number: sb.number, combination: sb.combination}]
	return append([]radiator.ClaimRecord(nil), recs...)
}

// JobNames lists every job full name, sorted.
func (snap *Snapshot) JobNames() []string {
	out := make([]string, 0, len(snap.jobs))
	for name := range snap.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (j *snapJob) FullName() string { return j.fullName }

func (j *snapJob) Name() string {
	if i := strings.LastIndex(j.fullName, "/"); i >= 0 {
		return j.fullName[i+1:]
	}
	return j.fullName
}

func (j *snapJob) URL() string                   { return j.url }
func (j *snapJob) Disabled() bool                { return j.disabled }
func (j *snapJob) InQueue() bool                 { return j.queueItem != "" }
func (j *snapJob) QueueItem() string             { return j.queueItem }
func (j *snapJob) ProjectName() string           { return j.project }
func (j *snapJob) IconColor() protocol.IconColor { return j.icon }

func (j *snapJob) LastBuild() radiator.Build { return asBuild(j.last) }

func (j *snapJob) LastSuccessfulBuild() radiator.Build {
	return asBuild(j.find(func(b *snapBuild) bool {
		return !b.building && b.result.Valid() && b.result.IsBetterOrEqualTo(protocol.ResultUnstable)
	}))
}

func (j *snapJob) LastStableBuild() radiator.Build {
	return asBuild(j.find(func(b *snapBuild) bool {
		return !b.building && b.result == protocol.ResultSuccess
	}))
}

func (j *snapJob) LastCompletedBuild() radiator.Build {
	return asBuild(j.find(func(b *snapBuild) bool {
		return !b.building && !b.notStarted
	}))
}

func (j *snapJob) find(match func(*snapBuild) bool) *snapBuild {
	for b := j.last; b != nil; b = b.prev {
		if match(b) {
			return b
		}
	}
	return nil
}

// deriveIconColor computes the ball color the CI engine would show when none
// was recorded.
func deriveIconColor(j *snapJob) protocol.IconColor {
	if j.disabled {
		return protocol.IconDisabled
	}
	if j.last == nil {
		return protocol.IconNotBuilt
	}
	var color protocol.IconColor
	switch done := j.find(func(b *snapBuild) bool { return !b.building }); {
	case done == nil:
		color = protocol.IconNotBuilt
	case done.result == protocol.ResultSuccess:
		color = protocol.IconBlue
	case done.result == protocol.ResultUnstable:
		color = protocol.IconYellow
	case done.result == protocol.ResultFailure:
		color = protocol.IconRed
	case done.result == protocol.ResultAborted:
		color = protocol.IconAborted
	default:
		color = protocol.IconNotBuilt
	}
	if j.last.building {
		color += "_anime"
	}
	return color
}

// asBuild keeps a missing link a nil interface.
func asBuild(b *snapBuild) radiator.Build {
	if b == nil {
		return nil
	}
	return b
}

func (b *snapBuild) Number() int             { return b.number }
func (b *snapBuild) URL() string             { return b.url }
func (b *snapBuild) Result() protocol.Result { return b.result }
func (b *snapBuild) Building() bool          { return b.building }
func (b *snapBuild) HasntStartedYet() bool   { return b.notStarted }
func (b *snapBuild) LogUpdated() bool        { return b.logUpdated }
func (b *snapBuild) Timestamp() time.Time    { return b.started }
func (b *snapBuild) Combination() string     { return b.combination }

func (b *snapBuild) PreviousBuild() radiator.Build { return asBuild(b.prev) }

func (b *snapBuild) PreviousBuildInProgress() radiator.Build {
	for p := b.prev; p != nil; p = p.prev {
		if p.building {
			return p
		}
	}
	return nil
}

func (b *snapBuild) TimestampString() string {
	if b.started.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(b.started, b.takenAt, "ago", "from now")
}

func (b *snapBuild) DurationString() string {
	return b.duration.Round(time.Second).String()
}

func (b *snapBuild) TestResults() []radiator.TestSummary {
	return append([]radiator.TestSummary(nil), b.tests...)
}

func (b *snapBuild) Culprits() []string { return append([]string(nil), b.culprits...) }

func (b *snapBuild) Runs() []radiator.Build {
	if len(b.runs) == 0 {
		return nil
	}
	out := make([]radiator.Build, 0, len(b.runs))
	for _, r := range b.runs {
		out = append(out, r)
	}
	return out
}

func parseTime(v sql.NullString) time.Time {
	if !v.Valid || v.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

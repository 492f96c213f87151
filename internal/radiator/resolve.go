package radiator

import "github.com/jenkinsci/radiatorview/internal/protocol"

// LastFinishedResult returns the result of the job's most recent settled build,
// skipping builds that are queued, running or still writing their log. A job
// without a settled build is NOT_BUILT.
func LastFinishedResult(job Job) protocol.Result {
	b := lastFinishedBuild(job)
	if b == nil {
		return protocol.ResultNotBuilt
	}
	r := b.Result()
	if !r.Valid() {
		return protocol.ResultNotBuilt
	}
	return r
}

func lastFinishedBuild(job Job) Build {
	if job == nil {
		return nil
	}
	b := job.LastBuild()
	for b != nil && !settled(b) {
		b = b.PreviousBuild()
	}
	return b
}

func settled(b Build) bool {
	return !b.HasntStartedYet() && !b.Building() && !b.LogUpdated()
}

// lastCompletedRun walks back past running builds only; claims are recorded
// against finished builds.
func lastCompletedRun(job Job) Build {
	b := job.LastBuild()
	for b != nil && b.Building() {
		b = b.PreviousBuild()
	}
	return b
}

// lastSuccessfulFrom returns the nearest build before b that is settled and no
// worse than UNSTABLE.
func lastSuccessfulFrom(b Build) Build {
	prev := b.PreviousBuild()
	for prev != nil && skipForDiff(prev) {
		prev = prev.PreviousBuild()
	}
	return prev
}

func skipForDiff(b Build) bool {
	if b.Building() {
		return true
	}
	r := b.Result()
	if !r.Valid() {
		return true
	}
	return r.IsWorseThan(protocol.ResultUnstable)
}

func buildsInProgress(job Job) []Build {
	var runs []Build
	b := job.LastBuild()
	if b == nil {
		return nil
	}
	if b.Building() {
		runs = append(runs, b)
	}
	for prev := b.PreviousBuildInProgress(); prev != nil; prev = prev.PreviousBuildInProgress() {
		runs = append(runs, prev)
	}
	return runs
}

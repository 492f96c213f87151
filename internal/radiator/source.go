// Package radiator resolves the status of CI jobs from their build history
// and aggregates them into the tree shown on a radiator screen.
//
// The CI engine itself is not part of this package. Jobs, builds, claims and
// the build queue are consumed through the interfaces below, and a render
// builds a fresh, read-only tree of entries on every call.
package radiator

import (
	"context"
	"time"

	"github.com/jenkinsci/radiatorview/internal/protocol"
)

// Item is a top-level entry of the CI engine: a Job or a Folder.
type Item interface {
	FullName() string
}

type Folder interface {
	Item
	Items() []Item
}

type Job interface {
	Item
	Name() string
	URL() string
	Disabled() bool
	InQueue() bool
	// QueueItem is the id of the job's pending queue item, "" when not queued.
	QueueItem() string
	// ProjectName is an explicitly assigned group name, "" when unset.
	ProjectName() string
	IconColor() protocol.IconColor

	LastBuild() Build
	LastSuccessfulBuild() Build
	LastStableBuild() Build
	LastCompletedBuild() Build
}

// Build is one run of a job. Implementations must return a nil interface, not
// a typed nil, when a link does not exist.
type Build interface {
	Number() int
	URL() string
	Result() protocol.Result
	Building() bool
	HasntStartedYet() bool
	LogUpdated() bool
	PreviousBuild() Build
	PreviousBuildInProgress() Build

	Timestamp() time.Time
	TimestampString() string
	DurationString() string

	TestResults() []TestSummary
	Culprits() []string

	// Runs lists the combination runs of a matrix build, nil otherwise.
	Runs() []Build
	// Combination identifies a combination run, e.g. "jdk=8,os=linux".
	Combination() string
}

type TestSummary struct {
	Total   int
	Failed  int
	Skipped int
}

type ClaimRecord struct {
	Claimed   bool
	ClaimedBy string
	Reason    string
}

// ClaimService looks up the claims recorded against a build. A nil
// ClaimService means claim tracking is not installed.
type ClaimService interface {
	ClaimsFor(b Build) []ClaimRecord
}

type Source interface {
	Items(ctx context.Context) ([]Item, error)
	// Queue returns the queue item ids in queue order.
	Queue(ctx context.Context) ([]string, error)
}

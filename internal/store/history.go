package store

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jenkinsci/radiatorview/internal/protocol"
)

// History is the import file format: jobs with their build history, plus the
// current build queue.
type History struct {
	Version int           `yaml:"version"`
	Jobs    []JobRecord   `yaml:"jobs"`
	Queue   []QueueRecord `yaml:"queue,omitempty"`
}

type JobRecord struct {
	Name      string             `yaml:"name"`
	URL       string             `yaml:"url,omitempty"`
	Disabled  bool               `yaml:"disabled,omitempty"`
	Project   string             `yaml:"project,omitempty"`
	IconColor protocol.IconColor `yaml:"icon_color,omitempty"`
	Builds    []BuildRecord      `yaml:"builds,omitempty"`
}

type BuildRecord struct {
	Number     int           `yaml:"number"`
	URL        string        `yaml:"url,omitempty"`
	Result     string        `yaml:"result,omitempty"`
	Building   bool          `yaml:"building,omitempty"`
	NotStarted bool          `yaml:"not_started,omitempty"`
	LogUpdated bool          `yaml:"log_updated,omitempty"`
	Started    time.Time     `yaml:"started,omitempty"`
	Duration   time.Duration `yaml:"duration,omitempty"`
	Tests      []TestRecord  `yaml:"tests,omitempty"`
	Culprits   []string      `yaml:"culprits,omitempty"`
	Runs       []RunRecord   `yaml:"runs,omitempty"`
	Claims     []ClaimRecord `yaml:"claims,omitempty"`
}

type TestRecord struct {
	Total   int `yaml:"total"`
	Failed  int `yaml:"failed,omitempty"`
	Skipped int `yaml:"skipped,omitempty"`
}

// RunRecord is one combination of a matrix build. Number defaults to the
// parent build's number.
type RunRecord struct {
	Combination string        `yaml:"combination"`
	Number      int           `yaml:"number,omitempty"`
	URL         string        `yaml:"url,omitempty"`
	Result      string        `yaml:"result,omitempty"`
	Building    bool          `yaml:"building,omitempty"`
	Started     time.Time     `yaml:"started,omitempty"`
	Duration    time.Duration `yaml:"duration,omitempty"`
	Claims      []ClaimRecord `yaml:"claims,omitempty"`
}

type ClaimRecord struct {
	Claimed   *bool  `yaml:"claimed,omitempty"`
	ClaimedBy string `yaml:"claimed_by"`
	Reason    string `yaml:"reason,omitempty"`
}

func (c ClaimRecord) isClaimed() bool {
	return c.Claimed == nil || *c.Claimed
}

type QueueRecord struct {
	Item string `yaml:"item"`
	Job  string `yaml:"job"`
}

func LoadHistory(path string) (History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return History{}, fmt.Errorf("read history file %q: %w", path, err)
	}
	return ParseHistory(data, path)
}

func ParseHistory(data []byte, source string) (History, error) {
	var h History

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&h); err != nil {
		return h, fmt.Errorf("parse YAML in %q: %w", source, err)
	}

	if errs := h.Validate(); len(errs) > 0 {
		return h, fmt.Errorf("invalid history in %q: %s", source, strings.Join(errs, "; "))
	}
	return h, nil
}

func (h History) Validate() []string {
	var errs []string

	if h.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported history version %d", h.Version))
	}

	names := map[string]struct{}{}
	for i, j := range h.Jobs {
		if strings.TrimSpace(j.Name) == "" {
			errs = append(errs, fmt.Sprintf("jobs[%d].name is required", i))
		} else {
			if _, dup := names[j.Name]; dup {
				errs = append(errs, fmt.Sprintf("jobs[%d].name duplicate %q", i, j.Name))
			}
			names[j.Name] = struct{}{}
		}
		if strings.HasPrefix(j.Name, "/") || strings.HasSuffix(j.Name, "/") || strings.Contains(j.Name, "//") {
			errs = append(errs, fmt.Sprintf("jobs[%d].name %q has an empty folder segment", i, j.Name))
		}

		numbers := map[int]struct{}{}
		for k, b := range j.Builds {
			if b.Number <= 0 {
				errs = append(errs, fmt.Sprintf("jobs[%d].builds[%d].number must be > 0", i, k))
			}
			if _, dup := numbers[b.Number]; dup {
				errs = append(errs, fmt.Sprintf("jobs[%d].builds[%d].number duplicate %d", i, k, b.Number))
			}
			numbers[b.Number] = struct{}{}
			if !validResultName(b.Result) {
				errs = append(errs, fmt.Sprintf("jobs[%d].builds[%d].result unknown %q", i, k, b.Result))
			}
			for t, tr := range b.Tests {
				if tr.Total < 0 || tr.Failed < 0 || tr.Skipped < 0 || tr.Failed+tr.Skipped > tr.Total {
					errs = append(errs, fmt.Sprintf("jobs[%d].builds[%d].tests[%d] inconsistent counts", i, k, t))
				}
			}
			combos := map[string]struct{}{}
			for r, run := range b.Runs {
				if strings.TrimSpace(run.Combination) == "" {
					errs = append(errs, fmt.Sprintf("jobs[%d].builds[%d].runs[%d].combination is required", i, k, r))
				}
				if _, dup := combos[run.Combination]; dup {
					errs = append(errs, fmt.Sprintf("jobs[%d].builds[%d].runs[%d].combination duplicate %q", i, k, r, run.Combination))
				}
				combos[run.Combination] = struct{}{}
				if !validResultName(run.Result) {
					errs = append(errs, fmt.Sprintf("jobs[%d].builds[%d].runs[%d].result unknown %q", i, k, r, run.Result))
				}
			}
		}
	}

	for i, q := range h.Queue {
		if strings.TrimSpace(q.Item) == "" {
			errs = append(errs, fmt.Sprintf("queue[%d].item is required", i))
		}
		if strings.TrimSpace(q.Job) == "" {
			errs = append(errs, fmt.Sprintf("queue[%d].job is required", i))
		}
	}
	return errs
}

// validResultName accepts an empty result (still running or never settled).
func validResultName(name string) bool {
	return strings.TrimSpace(name) == "" || protocol.ParseResult(name).Valid()
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jenkinsci/radiatorview/internal/protocol"
)

// Import writes a history file in one transaction. Jobs and builds are
// upserted, claims are appended and the queue is replaced when the file
// carries one.
func (s *Store) Import(ctx context.Context, h History) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, j := range h.Jobs {
		jobID, err := upsertJob(ctx, tx, j, now)
		if err != nil {
			return err
		}
		for _, b := range j.Builds {
			if err := upsertBuild(ctx, tx, jobID, j.Name, b, now); err != nil {
				return err
			}
		}
	}
	if h.Queue != nil {
		if err := replaceQueue(ctx, tx, h.Queue); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) UpsertJob(ctx context.Context, j JobRecord) error {
	return s.Import(ctx, History{Version: 1, Jobs: []JobRecord{j}})
}

func (s *Store) ReplaceQueue(ctx context.Context, queue []QueueRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceQueue(ctx, tx, queue); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SetClaim replaces every claim record of one build, or of one combination
// of a matrix build. The build must exist.
func (s *Store) SetClaim(ctx context.Context, req protocol.ClaimRequest) (protocol.ClaimResponse, error) {
	job := strings.TrimSpace(req.Job)
	if job == "" || req.Build <= 0 {
		return protocol.ClaimResponse{}, fmt.Errorf("%w: job and build are required", ErrInvalid)
	}
	claimed := req.Claimed == nil || *req.Claimed
	if claimed && strings.TrimSpace(req.ClaimedBy) == "" {
		return protocol.ClaimResponse{}, fmt.Errorf("%w: claimed_by is required", ErrInvalid)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return protocol.ClaimResponse{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := buildExists(ctx, tx, job, req.Build, req.Combination); err != nil {
		return protocol.ClaimResponse{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM claims WHERE job_full_name = ? AND build_number = ? AND combination = ?
	`, job, req.Build, req.Combination); err != nil {
		return protocol.ClaimResponse{}, fmt.Errorf("clear claims: %w", err)
	}
	rec := ClaimRecord{Claimed: &claimed, ClaimedBy: req.ClaimedBy, Reason: req.Reason}
	if err := insertClaim(ctx, tx, job, req.Build, req.Combination, rec, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return protocol.ClaimResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return protocol.ClaimResponse{}, fmt.Errorf("commit tx: %w", err)
	}
	return protocol.ClaimResponse{Job: job, Build: req.Build, Combination: req.Combination, Claimed: claimed}, nil
}

func buildExists(ctx context.Context, tx *sql.Tx, job string, number int, combination string) error {
	var buildID int64
	err := tx.QueryRowContext(ctx, `
		SELECT b.id FROM builds b JOIN jobs j ON j.id = b.job_id
		WHERE j.full_name = ? AND b.number = ?
	`, job, number).Scan(&buildID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("build %s #%d: %w", job, number, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find build %s #%d: %w", job, number, err)
	}
	if combination == "" {
		return nil
	}
	var runID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM matrix_runs WHERE build_id = ? AND combination = ?`, buildID, combination).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("combination %q of %s #%d: %w", combination, job, number, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find combination %q: %w", combination, err)
	}
	return nil
}

func upsertJob(ctx context.Context, tx *sql.Tx, j JobRecord, now string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (full_name, url, disabled, icon_color, project_name, created_utc, updated_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_name) DO UPDATE SET
			url=excluded.url,
			disabled=excluded.disabled,
			icon_color=excluded.icon_color,
			project_name=excluded.project_name,
			updated_utc=excluded.updated_utc
	`, j.Name, j.URL, boolInt(j.Disabled), string(protocol.NormalizeIconColor(string(j.IconColor))), strings.TrimSpace(j.Project), now, now); err != nil {
		return 0, fmt.Errorf("upsert job %q: %w", j.Name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM jobs WHERE full_name = ?`, j.Name).Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve job id %q: %w", j.Name, err)
	}
	return id, nil
}

func upsertBuild(ctx context.Context, tx *sql.Tx, jobID int64, jobName string, b BuildRecord, now string) error {
	culpritsJSON, _ := json.Marshal(b.Culprits)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO builds (job_id, number, url, result, building, not_started, log_updated, started_utc, duration_ms, culprits_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id, number) DO UPDATE SET
			url=excluded.url,
			result=excluded.result,
			building=excluded.building,
			not_started=excluded.not_started,
			log_updated=excluded.log_updated,
			started_utc=excluded.started_utc,
			duration_ms=excluded.duration_ms,
			culprits_json=excluded.culprits_json
	`, jobID, b.Number, b.URL, resultName(b.Result), boolInt(b.Building), boolInt(b.NotStarted), boolInt(b.LogUpdated),
		formatTime(b.Started), b.Duration.Milliseconds(), string(culpritsJSON)); err != nil {
		return fmt.Errorf("upsert build %s #%d: %w", jobName, b.Number, err)
	}
	var buildID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM builds WHERE job_id = ? AND number = ?`, jobID, b.Number).Scan(&buildID); err != nil {
		return fmt.Errorf("resolve build id %s #%d: %w", jobName, b.Number, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM test_reports WHERE build_id = ?`, buildID); err != nil {
		return fmt.Errorf("clear test reports: %w", err)
	}
	for _, t := range b.Tests {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO test_reports (build_id, total, failed, skipped) VALUES (?, ?, ?, ?)
		`, buildID, t.Total, t.Failed, t.Skipped); err != nil {
			return fmt.Errorf("insert test report: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM matrix_runs WHERE build_id = ?`, buildID); err != nil {
		return fmt.Errorf("clear matrix runs: %w", err)
	}
	for _, r := range b.Runs {
		number := r.Number
		if number == 0 {
			number = b.Number
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO matrix_runs (build_id, combination, number, url, result, building, started_utc, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, buildID, r.Combination, number, r.URL, resultName(r.Result), boolInt(r.Building), formatTime(r.Started), r.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("insert matrix run %q: %w", r.Combination, err)
		}
		for _, c := range r.Claims {
			if err := insertClaim(ctx, tx, jobName, b.Number, r.Combination, c, now); err != nil {
				return err
			}
		}
	}
	for _, c := range b.Claims {
		if err := insertClaim(ctx, tx, jobName, b.Number, "", c, now); err != nil {
			return err
		}
	}
	return nil
}

func insertClaim(ctx context.Context, tx *sql.Tx, job string, build int, combination string, c ClaimRecord, now string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO claims (job_full_name, build_number, combination, claimed, claimed_by, reason, updated_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, job, build, combination, boolInt(c.isClaimed()), c.ClaimedBy, c.Reason, now); err != nil {
		return fmt.Errorf("insert claim for %s #%d: %w", job, build, err)
	}
	return nil
}

func replaceQueue(ctx context.Context, tx *sql.Tx, queue []QueueRecord) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM queue`); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	for i, q := range queue {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO queue (position, item, job_full_name) VALUES (?, ?, ?)
		`, i+1, q.Item, q.Job); err != nil {
			return fmt.Errorf("insert queue item %q: %w", q.Item, err)
		}
	}
	return nil
}

func resultName(name string) string {
	r := protocol.ParseResult(name)
	if !r.Valid() {
		return ""
	}
	return r.String()
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

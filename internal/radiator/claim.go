package radiator

import (
	"log/slog"
	"strings"

	"github.com/jenkinsci/radiatorview/internal/protocol"
)

const (
	NotClaimedText   = "Not Claimed."
	ClaimErrorText   = "Error parsing claim details."
	matrixLineBreak  = "<br/>"
	matrixComboDelim = ": "
)

type ClaimState int

const (
	// ClaimUnavailable means no claim service is installed. It is never
	// rendered as "not claimed".
	ClaimUnavailable ClaimState = iota
	ClaimNotClaimed
	ClaimClaimed
	// ClaimAmbiguous means more than one claim record was found for a build.
	ClaimAmbiguous
)

func (s ClaimState) String() string {
	switch s {
	case ClaimNotClaimed:
		return "not_claimed"
	case ClaimClaimed:
		return "claimed"
	case ClaimAmbiguous:
		return "ambiguous"
	default:
		return "unavailable"
	}
}

type ClaimOutcome struct {
	State     ClaimState
	ClaimedBy string
	Reason    string
}

// Text renders the outcome the way it is shown on a tile.
func (o ClaimOutcome) Text() string {
	switch o.State {
	case ClaimClaimed:
		var sb strings.Builder
		if o.Reason != "" {
			sb.WriteString(o.Reason)
			sb.WriteString(" ")
		}
		sb.WriteString("(")
		sb.WriteString(o.ClaimedBy)
		sb.WriteString(").")
		return sb.String()
	case ClaimNotClaimed:
		return NotClaimedText
	case ClaimAmbiguous:
		return ClaimErrorText
	default:
		return ""
	}
}

// ResolveClaim looks up the claim of a single finished build.
func ResolveClaim(svc ClaimService, b Build) ClaimOutcome {
	if svc == nil {
		return ClaimOutcome{State: ClaimUnavailable}
	}
	if b == nil {
		return ClaimOutcome{State: ClaimNotClaimed}
	}
	records := svc.ClaimsFor(b)
	switch len(records) {
	case 0:
		return ClaimOutcome{State: ClaimNotClaimed}
	case 1:
		rec := records[0]
		if !rec.Claimed {
			return ClaimOutcome{State: ClaimNotClaimed}
		}
		return ClaimOutcome{State: ClaimClaimed, ClaimedBy: rec.ClaimedBy, Reason: rec.Reason}
	default:
		slog.Warn("multiple claim records found for build",
			"build", b.Number(),
			"url", b.URL(),
			"combination", b.Combination(),
			"count", len(records),
		)
		return ClaimOutcome{State: ClaimAmbiguous}
	}
}

// jobClaim is the claim state of a job's last finished build, resolved once
// when an Entry is built.
type jobClaim struct {
	available       bool
	text            string
	unclaimedMatrix string
	claimed         bool
	complete        bool
}

func resolveJobClaim(svc ClaimService, job Job) jobClaim {
	if svc == nil {
		return jobClaim{}
	}
	out := jobClaim{available: true}
	b := lastCompletedRun(job)
	if b == nil {
		return out
	}
	if runs := b.Runs(); len(runs) > 0 {
		m := resolveMatrixClaims(svc, b)
		out.text = m.report(true)
		out.unclaimedMatrix = m.report(false)
		out.claimed = m.claimedCount > 0
		out.complete = m.claimedCount > 0 && m.unclaimedCount == 0
		return out
	}
	outcome := ResolveClaim(svc, b)
	out.text = outcome.Text()
	out.claimed = outcome.State == ClaimClaimed
	out.complete = out.claimed
	return out
}

type matrixClaims struct {
	claimed        strings.Builder
	unclaimed      strings.Builder
	claimedCount   int
	unclaimedCount int
}

func resolveMatrixClaims(svc ClaimService, parent Build) *matrixClaims {
	m := &matrixClaims{}
	for _, combo := range parent.Runs() {
		if combo == nil || combo.Number() != parent.Number() {
			// left over from an earlier run of the parent
			continue
		}
		r := combo.Result()
		if r != protocol.ResultFailure && r != protocol.ResultUnstable {
			continue
		}
		outcome := ResolveClaim(svc, combo)
		if outcome.State == ClaimClaimed {
			m.claimedCount++
			writeMatrixLine(&m.claimed, combo.Combination(), outcome.Text())
			continue
		}
		m.unclaimedCount++
		writeMatrixLine(&m.unclaimed, combo.Combination(), outcome.Text())
	}
	return m
}

func writeMatrixLine(sb *strings.Builder, combination, text string) {
	sb.WriteString(combination)
	sb.WriteString(matrixComboDelim)
	sb.WriteString(text)
	sb.WriteString(matrixLineBreak)
}

func (m *matrixClaims) report(includeClaimed bool) string {
	out := m.unclaimed.String()
	if includeClaimed {
		out += m.claimed.String()
	}
	return out
}

package mapping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"firmdesk.app/intake/internal/model"
)

const (
	PenaltyMultiAccount = 0.25
	PenaltyMixedThread  = 0.35
	PenaltySubjectDrift = 0.15
	PenaltyStaleAnchor  = 0.30

	multipleAccountsMarker = "multiple accounts"
)

// Assessment is the confidence after staleness penalties.
type Assessment struct {
	Confidence     float64
	Reasons        []string
	RequiresTriage bool
}

type Detector struct {
	dir        Directory
	thresholds ThresholdSource
	now        func() time.Time
}

type DetectorOption func(*Detector)

// WithClock overrides the time source used for the stale-anchor check.
func WithClock(now func() time.Time) DetectorOption {
	return func(d *Detector) { d.now = now }
}

func NewDetector(dir Directory, thresholds ThresholdSource, opts ...DetectorOption) *Detector {
	d := &Detector{dir: dir, thresholds: thresholds, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect looks for contradictory or decayed evidence behind a suggestion and
// lowers its confidence accordingly.
func (d *Detector) Detect(ctx context.Context, tenantID int64, artifact *model.EmailArtifact, suggestion Suggestion) (Assessment, error) {
	t := d.thresholds.For(tenantID)

	var (
		penalty float64
		reasons []string
		forced  bool
	)

	contacts, err := d.dir.ContactsByEmail(ctx, tenantID, artifact.FromAddress)
	if err != nil {
		return Assessment{}, fmt.Errorf("contacts by email: %w", err)
	}
	if accounts := distinctAccounts(contacts); len(accounts) > 1 {
		penalty += PenaltyMultiAccount
		forced = true
		reasons = append(reasons, fmt.Sprintf("sender matches contacts in %s (%d)", multipleAccountsMarker, len(accounts)))
	}

	var history []model.EmailArtifact
	if artifact.ThreadID != nil && *artifact.ThreadID != "" {
		history, err = d.dir.ThreadHistory(ctx, tenantID, *artifact.ThreadID, artifact.ID)
		if err != nil {
			return Assessment{}, fmt.Errorf("thread history: %w", err)
		}
	}

	expected := suggestion.Targets.AccountID
	if len(contacts) > 0 {
		accountID := contacts[0].AccountID
		expected = &accountID
	}
	if expected != nil {
		for _, other := range history {
			if other.IsConfirmed() && *other.Confirmed.AccountID != *expected {
				penalty += PenaltyMixedThread
				forced = true
				reasons = append(reasons, "thread contains messages confirmed to a different account")
				break
			}
		}
	}

	if prior := latestPrior(history, artifact.ReceivedAt); prior != nil {
		if NormalizeSubject(prior.Subject) != NormalizeSubject(artifact.Subject) {
			penalty += PenaltySubjectDrift
			reasons = append(reasons, "subject changed within thread")
		}
	}

	if anchor := latestAnchor(history, t.AnchorConfidence); anchor != nil {
		if age := d.now().Sub(anchor.ReceivedAt); age > t.StalenessWindow {
			penalty += PenaltyStaleAnchor
			forced = true
			reasons = append(reasons, fmt.Sprintf("thread's confident mapping is %d days old", int(age.Hours()/24)))
		}
	}

	a := Assessment{
		Confidence: clamp(suggestion.Confidence - penalty),
		Reasons:    reasons,
	}
	a.RequiresTriage = forced ||
		a.Confidence < t.Triage ||
		len(reasons) >= 2 ||
		mentionsMultipleAccounts(reasons)

	return a, nil
}

func distinctAccounts(contacts []model.Contact) map[int64]struct{} {
	accounts := make(map[int64]struct{}, len(contacts))
	for _, c := range contacts {
		accounts[c.AccountID] = struct{}{}
	}
	return accounts
}

// latestPrior returns the newest artifact received no later than at.
func latestPrior(history []model.EmailArtifact, at time.Time) *model.EmailArtifact {
	for i := range history {
		if !history[i].ReceivedAt.After(at) {
			return &history[i]
		}
	}
	return nil
}

func latestAnchor(history []model.EmailArtifact, minConfidence float64) *model.EmailArtifact {
	for i := range history {
		if history[i].Status == model.ArtifactStatusMapped && history[i].MappingConfidence >= minConfidence {
			return &history[i]
		}
	}
	return nil
}

func mentionsMultipleAccounts(reasons []string) bool {
	for _, r := range reasons {
		if strings.Contains(strings.ToLower(r), multipleAccountsMarker) {
			return true
		}
	}
	return false
}

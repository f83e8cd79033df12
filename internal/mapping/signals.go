package mapping

import (
	"context"
	"fmt"
	"math"
	"strings"

	"firmdesk.app/intake/internal/model"
)

// Signal weights. Signals only ever add; penalties belong to the Detector.
const (
	WeightContactMatch      = 0.40
	WeightActiveEngagement  = 0.20
	WeightDomainMatch       = 0.25
	WeightSubjectReference  = 0.35
	WeightThreadAccount     = 0.30
	WeightThreadEngagement  = 0.20
	noSignalReason          = "no strong signals found"
	reasonSeparator         = "; "
	confidenceRoundingScale = 10000
)

// Suggestion is the raw output of signal extraction.
type Suggestion struct {
	Targets    model.MappingTargets
	Confidence float64
	Reasons    []string
}

// Reason joins the individual signal reasons for storage.
func (s Suggestion) Reason() string {
	if len(s.Reasons) == 0 {
		return noSignalReason
	}
	return strings.Join(s.Reasons, reasonSeparator)
}

type Extractor struct {
	dir Directory
}

func NewExtractor(dir Directory) *Extractor {
	return &Extractor{dir: dir}
}

// Extract scores how confidently the artifact belongs to a CRM account,
// engagement and work item.
func (e *Extractor) Extract(ctx context.Context, tenantID int64, artifact *model.EmailArtifact) (Suggestion, error) {
	var (
		s          Suggestion
		confidence float64
	)

	contacts, err := e.dir.ContactsByEmail(ctx, tenantID, artifact.FromAddress)
	if err != nil {
		return Suggestion{}, fmt.Errorf("contacts by email: %w", err)
	}

	if len(contacts) > 0 {
		accountID := contacts[0].AccountID
		confidence += WeightContactMatch
		s.Targets.AccountID = &accountID
		s.Reasons = append(s.Reasons, "sender matches a known contact")

		eng, err := e.dir.ActiveEngagement(ctx, tenantID, accountID)
		if err != nil {
			return Suggestion{}, fmt.Errorf("active engagement: %w", err)
		}
		if eng != nil {
			engagementID := eng.ID
			confidence += WeightActiveEngagement
			s.Targets.EngagementID = &engagementID
			s.Reasons = append(s.Reasons, "contact's account has an active engagement")
		}
	} else if domain := senderDomain(artifact.FromAddress); domain != "" {
		domainContacts, err := e.dir.ContactsByDomain(ctx, tenantID, domain)
		if err != nil {
			return Suggestion{}, fmt.Errorf("contacts by domain: %w", err)
		}
		if len(domainContacts) > 0 {
			accountID := domainContacts[0].AccountID
			confidence += WeightDomainMatch
			s.Targets.AccountID = &accountID
			s.Reasons = append(s.Reasons, fmt.Sprintf("sender domain %s matches a known contact", domain))
		}
	}

	// Thread history outranks contact guesses; a subject code outranks both.
	var inherited model.MappingTargets
	if artifact.ThreadID != nil && *artifact.ThreadID != "" {
		history, err := e.dir.ThreadHistory(ctx, tenantID, *artifact.ThreadID, artifact.ID)
		if err != nil {
			return Suggestion{}, fmt.Errorf("thread history: %w", err)
		}
		if prior := latestConfirmed(history); prior != nil {
			inherited = prior.Confirmed
			confidence += WeightThreadAccount
			s.Targets.AccountID = inherited.AccountID
			s.Reasons = append(s.Reasons, "thread continues a confirmed conversation")
			if inherited.EngagementID != nil {
				confidence += WeightThreadEngagement
				s.Targets.EngagementID = inherited.EngagementID
				s.Reasons = append(s.Reasons, "thread's engagement carried over")
			}
			s.Targets.WorkItemID = inherited.WorkItemID
		}
	}

	for _, engagementID := range ReferenceCodes(artifact.Subject) {
		eng, err := e.dir.Engagement(ctx, tenantID, engagementID)
		if err != nil {
			return Suggestion{}, fmt.Errorf("engagement %d: %w", engagementID, err)
		}
		if eng == nil {
			continue
		}
		accountID, engID := eng.AccountID, eng.ID
		confidence += WeightSubjectReference
		s.Targets.AccountID = &accountID
		s.Targets.EngagementID = &engID
		if !sameID(inherited.EngagementID, &engID) {
			s.Targets.WorkItemID = nil
		}
		s.Reasons = append(s.Reasons, fmt.Sprintf("subject references engagement ENG-%d", engID))
		break
	}

	s.Confidence = clamp(confidence)
	return s, nil
}

// latestConfirmed returns the newest confirmed artifact in history, which is
// ordered newest first.
func latestConfirmed(history []model.EmailArtifact) *model.EmailArtifact {
	for i := range history {
		if history[i].IsConfirmed() {
			return &history[i]
		}
	}
	return nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// clamp bounds v to [0,1] and rounds away float noise from summed weights.
func clamp(v float64) float64 {
	v = math.Round(v*confidenceRoundingScale) / confidenceRoundingScale
	return math.Max(0, math.Min(1, v))
}

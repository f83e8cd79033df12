package mapping_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"firmdesk.app/intake/internal/mapping"
	"firmdesk.app/intake/internal/model"
)

const tenant int64 = 7

func artifactFrom(from, subject string) *model.EmailArtifact {
	return &model.EmailArtifact{
		ID:          100,
		TenantID:    tenant,
		FromAddress: from,
		Subject:     subject,
		ReceivedAt:  time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		Status:      model.ArtifactStatusIngested,
	}
}

var _ = Describe("Extractor", func() {
	var (
		ctx       context.Context
		dir       *fakeDirectory
		extractor *mapping.Extractor
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = newFakeDirectory()
		extractor = mapping.NewExtractor(dir)
	})

	It("reports no signal with zero confidence", func() {
		s, err := extractor.Extract(ctx, tenant, artifactFrom("stranger@nowhere.example", "hello"))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Confidence).To(BeZero())
		Expect(s.Targets.IsEmpty()).To(BeTrue())
		Expect(s.Reason()).To(Equal("no strong signals found"))
	})

	It("scores an exact contact with an active engagement at 0.60", func() {
		dir.addContact(tenant, 1, "pat@acme.example")
		dir.addEngagement(tenant, 55, 1, model.EngagementStatusActive)

		s, err := extractor.Extract(ctx, tenant, artifactFrom("Pat@Acme.example", "Q2 filings"))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Confidence).To(Equal(0.60))
		Expect(*s.Targets.AccountID).To(Equal(int64(1)))
		Expect(*s.Targets.EngagementID).To(Equal(int64(55)))
	})

	It("ignores closed engagements", func() {
		dir.addContact(tenant, 1, "pat@acme.example")
		dir.addEngagement(tenant, 55, 1, model.EngagementStatusClosed)

		s, err := extractor.Extract(ctx, tenant, artifactFrom("pat@acme.example", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Confidence).To(Equal(0.40))
		Expect(s.Targets.EngagementID).To(BeNil())
	})

	It("falls back to a domain match at 0.25", func() {
		dir.addContact(tenant, 2, "finance@globex.example")

		s, err := extractor.Extract(ctx, tenant, artifactFrom("ceo@globex.example", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Confidence).To(Equal(0.25))
		Expect(*s.Targets.AccountID).To(Equal(int64(2)))
	})

	It("does not match contacts of another tenant", func() {
		dir.addContact(tenant+1, 2, "pat@acme.example")

		s, err := extractor.Extract(ctx, tenant, artifactFrom("pat@acme.example", ""))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Confidence).To(BeZero())
	})

	It("lets a subject reference override the contact's account", func() {
		dir.addContact(tenant, 1, "pat@acme.example")
		dir.addEngagement(tenant, 900, 3, model.EngagementStatusActive)

		s, err := extractor.Extract(ctx, tenant, artifactFrom("pat@acme.example", "Re: [ENG-900] engagement letter"))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Confidence).To(Equal(0.75))
		Expect(*s.Targets.AccountID).To(Equal(int64(3)))
		Expect(*s.Targets.EngagementID).To(Equal(int64(900)))
		Expect(s.Reason()).To(ContainSubstring("ENG-900"))
	})

	It("skips reference codes that match no engagement", func() {
		s, err := extractor.Extract(ctx, tenant, artifactFrom("x@y.example", "ENG-404 missing"))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Confidence).To(BeZero())
	})

	It("inherits the confirmed mapping of the thread", func() {
		dir.threads["t-1"] = []model.EmailArtifact{{
			ID:         90,
			TenantID:   tenant,
			Status:     model.ArtifactStatusMapped,
			Confirmed:  model.MappingTargets{AccountID: ptr(int64(4)), EngagementID: ptr(int64(40)), WorkItemID: ptr(int64(400))},
			ReceivedAt: time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC),
		}}
		a := artifactFrom("unknown@else.example", "status")
		a.ThreadID = ptr("t-1")

		s, err := extractor.Extract(ctx, tenant, a)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Confidence).To(Equal(0.50))
		Expect(*s.Targets.AccountID).To(Equal(int64(4)))
		Expect(*s.Targets.EngagementID).To(Equal(int64(40)))
		Expect(*s.Targets.WorkItemID).To(Equal(int64(400)))
	})

	It("clamps stacked signals to 1.0", func() {
		dir.addContact(tenant, 4, "pat@acme.example")
		dir.addEngagement(tenant, 40, 4, model.EngagementStatusActive)
		dir.threads["t-2"] = []model.EmailArtifact{{
			ID:        91,
			TenantID:  tenant,
			Status:    model.ArtifactStatusMapped,
			Confirmed: model.MappingTargets{AccountID: ptr(int64(4)), EngagementID: ptr(int64(40)), WorkItemID: ptr(int64(401))},
		}}
		a := artifactFrom("pat@acme.example", "ENG#40 follow-up")
		a.ThreadID = ptr("t-2")

		s, err := extractor.Extract(ctx, tenant, a)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Confidence).To(Equal(1.0))
		Expect(*s.Targets.WorkItemID).To(Equal(int64(401)))
	})

	It("never lowers confidence when an exact contact match is added", func() {
		dir.addContact(tenant, 2, "finance@globex.example")
		a := artifactFrom("ceo@globex.example", "")

		without, err := extractor.Extract(ctx, tenant, a)
		Expect(err).NotTo(HaveOccurred())

		dir.addContact(tenant, 2, "ceo@globex.example")
		with, err := extractor.Extract(ctx, tenant, a)
		Expect(err).NotTo(HaveOccurred())

		Expect(with.Confidence).To(BeNumerically(">=", without.Confidence))
	})

	It("surfaces directory failures", func() {
		dir.lookupErr = errors.New("db down")
		_, err := extractor.Extract(ctx, tenant, artifactFrom("pat@acme.example", ""))
		Expect(err).To(MatchError(ContainSubstring("db down")))
	})
})

package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"firmdesk.app/intake/common/id"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/service"
)

var _ = Describe("DLQService", func() {
	const (
		tenantID int64 = 7
		staff          = "ops@firm.example"
	)

	var (
		ctx      context.Context
		stores   *mockStoreProvider
		notifier *mockNotifier
		txRunner *mockTxRunner
		jobs     service.JobService
		svc      service.DLQService
		now      time.Time
	)

	// deadLetter runs a job through one non-retryable failure.
	deadLetter := func(key string) *model.DLQEntry {
		job, err := jobs.Enqueue(ctx, tenantID, service.EnqueueParams{
			JobType: model.JobTypeEmailIngest,
			Payload: &model.JobPayload{
				TenantID:       tenantID,
				IdempotencyKey: key,
				CorrelationID:  "corr-" + key,
				EmailIngest:    &model.EmailIngestPayload{ConnectionID: 70, ExternalMessageID: "gm-" + key},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		ok, err := jobs.ClaimForProcessing(ctx, tenantID, job.ID, "worker-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		outcome, err := jobs.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{
			ErrorClass: model.ErrorClassNonRetryable,
			Message:    "message not found",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.DLQEntry).NotTo(BeNil())
		return outcome.DLQEntry
	}

	BeforeEach(func() {
		Expect(id.Init(1)).To(Succeed())
		ctx = context.Background()
		stores = newMockStoreProvider()
		notifier = &mockNotifier{}
		now = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		txRunner = &mockTxRunner{stores: stores}
		jobs = service.NewJobServiceWithClock(stores, txRunner, notifier, service.JobsConfig{}, clock, 1.0)
		svc = service.NewDLQServiceWithClock(stores, txRunner, notifier, 5, clock)
	})

	It("derives replay keys from the original key and the time", func() {
		Expect(service.RetryKey("gmail:70:abc", now)).To(Equal(fmt.Sprintf("gmail:70:abc_retry_%d", now.Unix())))
	})

	Describe("Reprocess", func() {
		It("creates an urgent replay job with the same payload", func() {
			entry := deadLetter("k-1")
			notifier.ready = nil

			job, err := svc.Reprocess(ctx, tenantID, entry.ID, staff, ptr("provider fixed"))

			Expect(err).NotTo(HaveOccurred())
			Expect(job.ID).NotTo(Equal(entry.OriginalJobID))
			Expect(job.Priority).To(Equal(model.ReprocessJobPriority))
			Expect(job.Status).To(Equal(model.JobStatusPending))
			Expect(job.IdempotencyKey).To(Equal(service.RetryKey("k-1", now)))
			Expect(*job.DLQSourceID).To(Equal(entry.ID))
			Expect(job.JobType).To(Equal(entry.JobType))

			var original, replay map[string]any
			Expect(json.Unmarshal(entry.Payload, &original)).To(Succeed())
			Expect(json.Unmarshal(job.Payload, &replay)).To(Succeed())
			Expect(replay["idempotency_key"]).To(Equal(job.IdempotencyKey))
			delete(original, "idempotency_key")
			delete(replay, "idempotency_key")
			Expect(replay).To(Equal(original))

			stored := stores.dlq.entries[entry.ID]
			Expect(stored.Status).To(Equal(model.DLQStatusReprocessing))
			Expect(*stored.ReprocessedJobID).To(Equal(job.ID))
			Expect(*stored.ReprocessedBy).To(Equal(staff))
			Expect(*stored.ReprocessNotes).To(Equal("provider fixed"))

			Expect(stores.audit.actions()).To(Equal([]model.AuditAction{
				model.AuditActionReprocessRequested,
				model.AuditActionReprocessSucceeded,
			}))
			Expect(notifier.ready).To(HaveLen(1))
			Expect(notifier.ready[0].JobID).To(Equal(job.ID))
		})

		It("keeps the request on record when the replay cannot be created", func() {
			entry := deadLetter("k-7")
			txRunner.withTxFn = func(ctx context.Context, fn func(service.StoreProvider) error) error {
				mark := len(stores.audit.events)
				if err := fn(stores); err != nil {
					stores.audit.events = stores.audit.events[:mark]
					return err
				}
				return nil
			}
			stores.jobs.createFn = func(ctx context.Context, job *model.Job) (*model.Job, error) {
				return nil, errors.New("connection reset")
			}

			_, err := svc.Reprocess(ctx, tenantID, entry.ID, staff, ptr("provider fixed"))

			Expect(err).To(MatchError(ContainSubstring("creating replay job")))
			Expect(stores.audit.actions()).To(Equal([]model.AuditAction{model.AuditActionReprocessRequested}))
			Expect(*stores.audit.events[0].Notes).To(Equal("provider fixed"))
			Expect(stores.dlq.entries[entry.ID].Status).To(Equal(model.DLQStatusPendingReview))
		})

		It("gives the replay the attempt budget of the original job", func() {
			original, err := jobs.Enqueue(ctx, tenantID, service.EnqueueParams{
				JobType:     model.JobTypeEmailIngest,
				MaxAttempts: 2,
				Payload: &model.JobPayload{
					TenantID:       tenantID,
					IdempotencyKey: "k-8",
					EmailIngest:    &model.EmailIngestPayload{ConnectionID: 70, ExternalMessageID: "gm-k-8"},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = jobs.ClaimForProcessing(ctx, tenantID, original.ID, "worker-1")
			Expect(err).NotTo(HaveOccurred())
			outcome, err := jobs.MarkFailed(ctx, tenantID, original.ID, service.FailureParams{
				ErrorClass: model.ErrorClassNonRetryable,
				Message:    "message not found",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.DLQEntry.MaxAttempts).To(Equal(int32(2)))

			job, err := svc.Reprocess(ctx, tenantID, outcome.DLQEntry.ID, staff, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(job.MaxAttempts).To(Equal(int32(2)))
		})

		It("falls back to the configured budget for entries without one", func() {
			entry := deadLetter("k-9")
			stores.dlq.entries[entry.ID].MaxAttempts = 0

			job, err := svc.Reprocess(ctx, tenantID, entry.ID, staff, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(job.MaxAttempts).To(Equal(int32(5)))
		})

		It("accepts the replay payload as a valid job document", func() {
			entry := deadLetter("k-2")

			job, err := svc.Reprocess(ctx, tenantID, entry.ID, staff, nil)
			Expect(err).NotTo(HaveOccurred())

			payload, err := job.DecodePayload()
			Expect(err).NotTo(HaveOccurred())
			Expect(payload.Validate(tenantID, job.IdempotencyKey)).To(Succeed())
			Expect(model.ValidatePayloadDocument(job.Payload)).To(Succeed())
			Expect(payload.CorrelationID).To(Equal("corr-k-2"))
		})

		It("refuses a second replay while the first is in flight", func() {
			entry := deadLetter("k-3")
			_, err := svc.Reprocess(ctx, tenantID, entry.ID, staff, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Reprocess(ctx, tenantID, entry.ID, staff, nil)

			Expect(err).To(MatchError(service.ErrDLQNotReprocessable))
			Expect(stores.audit.events).To(HaveLen(2))
		})

		It("refuses a discarded entry", func() {
			entry := deadLetter("k-4")
			_, err := svc.Discard(ctx, tenantID, entry.ID, staff, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Reprocess(ctx, tenantID, entry.ID, staff, nil)

			Expect(err).To(MatchError(service.ErrDLQNotReprocessable))
		})

		It("requires a user", func() {
			entry := deadLetter("k-5")

			_, err := svc.Reprocess(ctx, tenantID, entry.ID, "", nil)

			Expect(err).To(MatchError(service.ErrDLQNotReprocessable))
		})

		It("hides entries of other tenants", func() {
			entry := deadLetter("k-6")

			_, err := svc.Reprocess(ctx, tenantID+1, entry.ID, staff, nil)

			Expect(err).To(MatchError(service.ErrDLQNotFound))
		})

		It("resolves the entry when the replay completes", func() {
			entry := deadLetter("k-7")
			job, err := svc.Reprocess(ctx, tenantID, entry.ID, staff, nil)
			Expect(err).NotTo(HaveOccurred())

			claimedJob, err := jobs.ClaimNext(ctx, "worker-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(claimedJob.ID).To(Equal(job.ID))
			_, err = jobs.MarkCompleted(ctx, tenantID, job.ID, nil)
			Expect(err).NotTo(HaveOccurred())

			resolved, err := svc.Get(ctx, tenantID, entry.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.Status).To(Equal(model.DLQStatusResolved))
			Expect(resolved.ResolvedAt).NotTo(BeNil())
		})

		It("opens a new entry when the replay dead-letters again", func() {
			entry := deadLetter("k-8")
			job, err := svc.Reprocess(ctx, tenantID, entry.ID, staff, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = jobs.ClaimForProcessing(ctx, tenantID, job.ID, "worker-2")
			Expect(err).NotTo(HaveOccurred())

			outcome, err := jobs.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{
				ErrorClass: model.ErrorClassNonRetryable,
				Message:    "still missing",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.DLQEntry.ID).NotTo(Equal(entry.ID))
			Expect(outcome.DLQEntry.IdempotencyKey).To(Equal(job.IdempotencyKey))
			Expect(stores.dlq.entries[entry.ID].Status).To(Equal(model.DLQStatusReprocessing))
		})
	})

	Describe("Discard", func() {
		It("closes the entry and audits who did it", func() {
			entry := deadLetter("k-9")

			discarded, err := svc.Discard(ctx, tenantID, entry.ID, staff, ptr("spam"))

			Expect(err).NotTo(HaveOccurred())
			Expect(discarded.Status).To(Equal(model.DLQStatusDiscarded))
			Expect(*discarded.DiscardedBy).To(Equal(staff))
			Expect(stores.audit.actions()).To(Equal([]model.AuditAction{model.AuditActionDLQDiscarded}))
			Expect(string(stores.audit.events[0].Before)).To(ContainSubstring(`"status":"pending_review"`))
			Expect(string(stores.audit.events[0].After)).To(ContainSubstring(`"status":"discarded"`))
		})

		It("can abandon a replay in flight", func() {
			entry := deadLetter("k-10")
			_, err := svc.Reprocess(ctx, tenantID, entry.ID, staff, nil)
			Expect(err).NotTo(HaveOccurred())

			discarded, err := svc.Discard(ctx, tenantID, entry.ID, staff, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(discarded.Status).To(Equal(model.DLQStatusDiscarded))
		})

		It("refuses a closed entry", func() {
			entry := deadLetter("k-11")
			_, err := svc.Discard(ctx, tenantID, entry.ID, staff, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Discard(ctx, tenantID, entry.ID, staff, nil)

			Expect(err).To(MatchError(service.ErrDLQNotDiscardable))
		})
	})

	Describe("List", func() {
		It("filters by status", func() {
			deadLetter("k-12")
			second := deadLetter("k-13")
			_, err := svc.Discard(ctx, tenantID, second.ID, staff, nil)
			Expect(err).NotTo(HaveOccurred())

			pending := model.DLQStatusPendingReview
			entries, err := svc.List(ctx, tenantID, &pending, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].IdempotencyKey).To(Equal("k-12"))
		})

		It("rejects unknown statuses", func() {
			bogus := model.DLQStatus("archived")

			_, err := svc.List(ctx, tenantID, &bogus, 0)

			Expect(err).To(HaveOccurred())
		})
	})
})

package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"firmdesk.app/intake/common/id"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/service"
)

var _ = Describe("JobService", func() {
	const tenantID int64 = 7

	var (
		ctx      context.Context
		stores   *mockStoreProvider
		notifier *mockNotifier
		svc      service.JobService
		now      time.Time
	)

	ingestPayload := func(key string) *model.JobPayload {
		return &model.JobPayload{
			TenantID:       tenantID,
			IdempotencyKey: key,
			EmailIngest: &model.EmailIngestPayload{
				ConnectionID:      70,
				ExternalMessageID: "gm-" + key,
			},
		}
	}

	enqueue := func(key string, priority int32) *model.Job {
		job, err := svc.Enqueue(ctx, tenantID, service.EnqueueParams{
			JobType:  model.JobTypeEmailIngest,
			Payload:  ingestPayload(key),
			Priority: &priority,
		})
		Expect(err).NotTo(HaveOccurred())
		return job
	}

	claimed := func(key string) *model.Job {
		job := enqueue(key, model.DefaultJobPriority)
		ok, err := svc.ClaimForProcessing(ctx, tenantID, job.ID, "worker-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		return job
	}

	BeforeEach(func() {
		Expect(id.Init(1)).To(Succeed())
		ctx = context.Background()
		stores = newMockStoreProvider()
		notifier = &mockNotifier{}
		now = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
		svc = service.NewJobServiceWithClock(stores, &mockTxRunner{stores: stores}, notifier, service.JobsConfig{}, func() time.Time { return now }, 1.0)
	})

	Describe("Enqueue", func() {
		It("fills payload defaults and announces the job", func() {
			job := enqueue("k-1", model.DefaultJobPriority)

			Expect(job.Status).To(Equal(model.JobStatusPending))
			Expect(job.Category).To(Equal(model.JobCategoryIngestion))
			Expect(job.MaxAttempts).To(Equal(model.DefaultMaxAttempts))
			Expect(job.IdempotencyKey).To(Equal("k-1"))
			Expect(job.ScheduledAt).To(Equal(now))

			payload, err := job.DecodePayload()
			Expect(err).NotTo(HaveOccurred())
			Expect(payload.Version).To(Equal(model.PayloadVersion))
			Expect(payload.Kind).To(Equal(model.JobTypeEmailIngest))
			Expect(payload.CorrelationID).NotTo(BeEmpty())

			Expect(notifier.ready).To(HaveLen(1))
			Expect(notifier.ready[0].JobID).To(Equal(job.ID))
		})

		It("does not announce a job scheduled for later", func() {
			later := now.Add(time.Hour)
			_, err := svc.Enqueue(ctx, tenantID, service.EnqueueParams{
				JobType:     model.JobTypeEmailIngest,
				Payload:     ingestPayload("k-2"),
				ScheduledAt: &later,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.ready).To(BeEmpty())
		})

		It("still enqueues when the notification fails", func() {
			notifier.readyErr = errors.New("redis down")

			job := enqueue("k-3", model.DefaultJobPriority)

			Expect(stores.jobs.jobs).To(HaveKey(job.ID))
		})

		It("rejects a second job with the same idempotency key", func() {
			enqueue("k-4", model.DefaultJobPriority)

			_, err := svc.Enqueue(ctx, tenantID, service.EnqueueParams{
				JobType: model.JobTypeEmailIngest,
				Payload: ingestPayload("k-4"),
			})

			Expect(err).To(MatchError(service.ErrDuplicateJob))
			Expect(stores.jobs.jobs).To(HaveLen(1))
		})

		DescribeTable("rejects inconsistent payloads",
			func(jobType model.JobType, mutate func(*model.JobPayload)) {
				p := ingestPayload("k-5")
				mutate(p)

				_, err := svc.Enqueue(ctx, tenantID, service.EnqueueParams{JobType: jobType, Payload: p})

				Expect(err).To(MatchError(service.ErrInvalidPayload))
				Expect(stores.jobs.jobs).To(BeEmpty())
			},
			Entry("kind differs from job type", model.JobTypeEmailRemap, func(p *model.JobPayload) { p.Kind = model.JobTypeEmailIngest }),
			Entry("missing idempotency key", model.JobTypeEmailIngest, func(p *model.JobPayload) { p.IdempotencyKey = " " }),
			Entry("another tenant", model.JobTypeEmailIngest, func(p *model.JobPayload) { p.TenantID = tenantID + 1 }),
			Entry("missing variant", model.JobTypeEmailIngest, func(p *model.JobPayload) { p.EmailIngest = nil }),
			Entry("future version", model.JobTypeEmailIngest, func(p *model.JobPayload) { p.Version = model.PayloadVersion + 1 }),
		)

		It("requires a payload", func() {
			_, err := svc.Enqueue(ctx, tenantID, service.EnqueueParams{JobType: model.JobTypeEmailIngest})

			Expect(err).To(MatchError(service.ErrInvalidPayload))
		})
	})

	Describe("claiming", func() {
		It("claims the most urgent due job first", func() {
			enqueue("k-low", 100)
			urgent := enqueue("k-urgent", 10)

			job, err := svc.ClaimNext(ctx, "worker-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(job.ID).To(Equal(urgent.ID))
			Expect(job.Status).To(Equal(model.JobStatusProcessing))
			Expect(*job.ClaimedBy).To(Equal("worker-1"))
			Expect(job.AttemptCount).To(Equal(int32(1)))
		})

		It("returns nil when nothing is due", func() {
			job, err := svc.ClaimNext(ctx, "worker-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(job).To(BeNil())
		})

		It("claims a specific job only once", func() {
			job := enqueue("k-6", model.DefaultJobPriority)

			first, err := svc.ClaimForProcessing(ctx, tenantID, job.ID, "worker-1")
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.ClaimForProcessing(ctx, tenantID, job.ID, "worker-2")
			Expect(err).NotTo(HaveOccurred())

			Expect(first).To(BeTrue())
			Expect(second).To(BeFalse())
			Expect(*stores.jobs.jobs[job.ID].ClaimedBy).To(Equal("worker-1"))
		})
	})

	Describe("MarkCompleted", func() {
		It("completes a claimed job once", func() {
			job := claimed("k-7")

			done, err := svc.MarkCompleted(ctx, tenantID, job.ID, json.RawMessage(`{"artifact_id":1}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(done.Status).To(Equal(model.JobStatusCompleted))
			Expect(done.CompletedAt).NotTo(BeNil())

			_, err = svc.MarkCompleted(ctx, tenantID, job.ID, nil)
			Expect(err).To(MatchError(service.ErrJobNotClaimed))
		})

		It("resolves the dead letter a replay came from", func() {
			job := claimed("k-8")
			dlqID := int64(900)
			stores.dlq.entries[dlqID] = &model.DLQEntry{ID: dlqID, TenantID: tenantID, Status: model.DLQStatusReprocessing}
			stores.jobs.jobs[job.ID].DLQSourceID = &dlqID

			_, err := svc.MarkCompleted(ctx, tenantID, job.ID, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(stores.dlq.entries[dlqID].Status).To(Equal(model.DLQStatusResolved))
		})
	})

	Describe("MarkFailed", func() {
		It("schedules a retry with exponential backoff", func() {
			job := claimed("k-9")

			outcome, err := svc.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{
				ErrorClass:  model.ErrorClassTransient,
				Message:     "provider timeout",
				ShouldRetry: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Status).To(Equal(model.JobStatusPending))
			Expect(outcome.DLQEntry).To(BeNil())
			Expect(*outcome.NextRetryAt).To(Equal(now.Add(2 * time.Second)))

			stored := stores.jobs.jobs[job.ID]
			Expect(stored.Status).To(Equal(model.JobStatusPending))
			Expect(*stored.ErrorClass).To(Equal(model.ErrorClassTransient))
			Expect(*stored.LastError).To(Equal("provider timeout"))
		})

		It("stamps the retry time on the failed attempts of the run", func() {
			job := claimed("k-15")
			payload, err := job.DecodePayload()
			Expect(err).NotTo(HaveOccurred())
			stores.attempts.attempts = []model.IngestionAttempt{
				{TenantID: tenantID, CorrelationID: payload.CorrelationID, Operation: model.AttemptOperationFetch, Status: model.AttemptStatusFail},
				{TenantID: tenantID, CorrelationID: payload.CorrelationID, Operation: model.AttemptOperationFetch, Status: model.AttemptStatusFail, RetryCount: 1},
				{TenantID: tenantID, CorrelationID: "other", Operation: model.AttemptOperationFetch, Status: model.AttemptStatusFail},
			}

			outcome, err := svc.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{
				ErrorClass:  model.ErrorClassTransient,
				Message:     "provider timeout",
				ShouldRetry: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(stores.attempts.attempts[0].NextRetryAt).To(Equal(outcome.NextRetryAt))
			Expect(stores.attempts.attempts[1].NextRetryAt).To(BeNil())
			Expect(stores.attempts.attempts[2].NextRetryAt).To(BeNil())
		})

		It("waits at least as long as a rate limit asks", func() {
			job := claimed("k-10")

			outcome, err := svc.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{
				ErrorClass:  model.ErrorClassRateLimited,
				Message:     "429",
				ShouldRetry: true,
				RetryAfter:  30 * time.Second,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(*outcome.NextRetryAt).To(Equal(now.Add(30 * time.Second)))
		})

		It("dead-letters a job that used its last attempt", func() {
			job := claimed("k-11")
			stores.jobs.jobs[job.ID].AttemptCount = job.MaxAttempts

			outcome, err := svc.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{
				ErrorClass:  model.ErrorClassRetryable,
				Message:     "upstream 503",
				ShouldRetry: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Status).To(Equal(model.JobStatusDLQ))
			Expect(stores.jobs.jobs[job.ID].Status).To(Equal(model.JobStatusDLQ))

			entry := outcome.DLQEntry
			Expect(entry.Status).To(Equal(model.DLQStatusPendingReview))
			Expect(entry.OriginalJobID).To(Equal(job.ID))
			Expect(entry.AttemptCount).To(Equal(job.MaxAttempts))
			Expect(entry.IdempotencyKey).To(Equal("k-11"))
			Expect(entry.Payload).To(MatchJSON(job.Payload))

			Expect(notifier.dead).To(HaveLen(1))
			Expect(notifier.dead[0].DLQID).To(Equal(entry.ID))
		})

		It("dead-letters a non-retryable failure immediately", func() {
			job := claimed("k-12")

			outcome, err := svc.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{
				ErrorClass:  model.ErrorClassNonRetryable,
				Message:     "message not found",
				ShouldRetry: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Status).To(Equal(model.JobStatusDLQ))
			Expect(outcome.DLQEntry.ErrorClass).To(Equal(model.ErrorClassNonRetryable))
			Expect(outcome.DLQEntry.AttemptCount).To(Equal(int32(1)))
		})

		It("dead-letters when the caller forbids retries", func() {
			job := claimed("k-13")

			outcome, err := svc.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{
				ErrorClass: model.ErrorClassRetryable,
				Message:    "handler gave up",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Status).To(Equal(model.JobStatusDLQ))
		})

		It("redacts addresses from the stored message", func() {
			job := claimed("k-14")

			_, err := svc.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{
				ErrorClass:  model.ErrorClassRetryable,
				Message:     "bounce from partner@client.example",
				ShouldRetry: true,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(*stores.jobs.jobs[job.ID].LastError).To(Equal("bounce from <email>"))
		})

		It("refuses jobs that are not processing", func() {
			job := enqueue("k-15", model.DefaultJobPriority)

			_, err := svc.MarkFailed(ctx, tenantID, job.ID, service.FailureParams{ShouldRetry: true})

			Expect(err).To(MatchError(service.ErrJobNotClaimed))
		})

		It("reports unknown jobs", func() {
			_, err := svc.MarkFailed(ctx, tenantID, 404, service.FailureParams{ShouldRetry: true})

			Expect(err).To(MatchError(service.ErrJobNotFound))
		})
	})

	DescribeTable("backoff",
		func(attempts int32, class model.ErrorClass, retryAfter, want time.Duration) {
			Expect(service.Backoff(svc, attempts, class, retryAfter)).To(Equal(want))
		},
		Entry("first failure", int32(0), model.ErrorClassTransient, time.Duration(0), time.Second),
		Entry("third failure", int32(3), model.ErrorClassRetryable, time.Duration(0), 8*time.Second),
		Entry("capped", int32(10), model.ErrorClassRetryable, time.Duration(0), service.DefaultMaxBackoff),
		Entry("rate limit longer than backoff", int32(1), model.ErrorClassRateLimited, time.Minute, time.Minute),
		Entry("rate limit shorter than backoff", int32(4), model.ErrorClassRateLimited, time.Second, 16*time.Second),
		Entry("retry-after ignored for other classes", int32(1), model.ErrorClassTransient, time.Minute, 2*time.Second),
	)

	It("keeps jittered backoff within twenty percent", func() {
		low := service.NewJobServiceWithClock(stores, &mockTxRunner{stores: stores}, notifier, service.JobsConfig{}, time.Now, 0.8)
		high := service.NewJobServiceWithClock(stores, &mockTxRunner{stores: stores}, notifier, service.JobsConfig{}, time.Now, 1.2)

		Expect(service.Backoff(low, 3, model.ErrorClassRetryable, 0)).To(Equal(6400 * time.Millisecond))
		Expect(service.Backoff(high, 3, model.ErrorClassRetryable, 0)).To(Equal(9600 * time.Millisecond))
		Expect(service.Backoff(high, 8, model.ErrorClassRetryable, 0)).To(Equal(service.DefaultMaxBackoff))
	})

	Describe("ReclaimStale", func() {
		It("returns expired claims to the queue", func() {
			stale := claimed("k-16")
			fresh := claimed("k-17")
			expired := now.Add(-time.Hour)
			stores.jobs.jobs[stale.ID].ClaimedAt = &expired
			recent := now.Add(-time.Minute)
			stores.jobs.jobs[fresh.ID].ClaimedAt = &recent

			n, err := svc.ReclaimStale(ctx, 10*time.Minute)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
			Expect(stores.jobs.jobs[stale.ID].Status).To(Equal(model.JobStatusPending))
			Expect(*stores.jobs.jobs[stale.ID].ErrorClass).To(Equal(model.ErrorClassTransient))
			Expect(*stores.jobs.jobs[stale.ID].LastError).To(Equal("claim by worker-1 expired"))
			Expect(stores.jobs.jobs[fresh.ID].Status).To(Equal(model.JobStatusProcessing))
		})

		It("dead-letters an expired claim with no attempts left", func() {
			job := claimed("k-18")
			expired := now.Add(-time.Hour)
			stores.jobs.jobs[job.ID].ClaimedAt = &expired
			stores.jobs.jobs[job.ID].AttemptCount = job.MaxAttempts

			_, err := svc.ReclaimStale(ctx, 10*time.Minute)

			Expect(err).NotTo(HaveOccurred())
			Expect(stores.jobs.jobs[job.ID].Status).To(Equal(model.JobStatusDLQ))
			Expect(stores.dlq.entries).To(HaveLen(1))
		})
	})

	Describe("queries", func() {
		It("hides jobs of other tenants", func() {
			job := enqueue("k-19", model.DefaultJobPriority)

			_, err := svc.Get(ctx, tenantID+1, job.ID)

			Expect(err).To(MatchError(service.ErrJobNotFound))
		})

		It("rejects unknown statuses", func() {
			_, err := svc.ListByStatus(ctx, tenantID, model.JobStatus("stuck"), 10)

			Expect(err).To(HaveOccurred())
		})
	})
})

package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"firmdesk.app/intake/common/id"
	"firmdesk.app/intake/internal/mapping"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/provider"
	"firmdesk.app/intake/internal/service"
)

var _ = Describe("IngestionService", func() {
	const (
		tenantID     int64 = 7
		connectionID int64 = 70
	)

	var (
		ctx       context.Context
		stores    *mockStoreProvider
		txRunner  *mockTxRunner
		mapper    *mockMapper
		gmail     *mockProvider
		registry  *provider.Registry
		svc       service.IngestionService
		mapCalls  int
		accountID int64
		received  time.Time
	)

	params := func(externalID string) service.IngestParams {
		return service.IngestParams{
			ConnectionID:      connectionID,
			ExternalMessageID: externalID,
			ThreadID:          ptr("thread-1"),
			From:              " Partner@Client.Example ",
			To:                []string{"intake@firm.example"},
			Subject:           "Quarterly filing",
			ReceivedAt:        received,
			BodyPreview:       "Please find attached",
		}
	}

	BeforeEach(func() {
		Expect(id.Init(1)).To(Succeed())
		ctx = context.Background()
		stores = newMockStoreProvider()
		txRunner = &mockTxRunner{stores: stores}
		mapCalls = 0
		accountID = 501
		received = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

		stores.connections.conns[connectionID] = &model.EmailConnection{
			ID:             connectionID,
			TenantID:       tenantID,
			Provider:       model.ProviderGmail,
			MailboxAddress: "intake@firm.example",
			IsEnabled:      true,
		}

		mapper = &mockMapper{
			mapFn: func(ctx context.Context, tid int64, a *model.EmailArtifact) (mapping.Result, error) {
				mapCalls++
				return mapping.Result{
					Suggestion: mapping.Suggestion{
						Targets:    model.MappingTargets{AccountID: &accountID},
						Confidence: 0.60,
						Reasons:    []string{"sender matches a known contact"},
					},
					Assessment: mapping.Assessment{Confidence: 0.60},
					Status:     model.ArtifactStatusIngested,
				}, nil
			},
		}
		gmail = &mockProvider{kind: model.ProviderGmail}
		registry = provider.NewRegistry(gmail)
		svc = service.NewIngestionService(stores, txRunner, mapper, registry, nil)
	})

	Describe("IngestEmail", func() {
		It("stores a new message and records its mapping", func() {
			artifact, err := svc.IngestEmail(ctx, tenantID, params("msg-1"))

			Expect(err).NotTo(HaveOccurred())
			Expect(artifact.TenantID).To(Equal(tenantID))
			Expect(artifact.FromAddress).To(Equal("partner@client.example"))
			Expect(artifact.CcAddresses).To(BeEmpty())
			Expect(artifact.CcAddresses).NotTo(BeNil())
			Expect(artifact.Status).To(Equal(model.ArtifactStatusIngested))
			Expect(artifact.Suggested.AccountID).To(Equal(&accountID))
			Expect(artifact.MappingConfidence).To(Equal(0.60))
			Expect(artifact.MappingReasons).To(Equal("sender matches a known contact"))
			Expect(artifact.Confirmed.IsEmpty()).To(BeTrue())
			Expect(artifact.Version).To(Equal(int32(2)))

			Expect(stores.attempts.ops()).To(Equal([]model.AttemptOperation{
				model.AttemptOperationFetch,
				model.AttemptOperationMap,
			}))
			for _, a := range stores.attempts.attempts {
				Expect(a.Status).To(Equal(model.AttemptStatusSuccess))
				Expect(a.CorrelationID).NotTo(BeEmpty())
				Expect(*a.ArtifactID).To(Equal(artifact.ID))
			}
		})

		It("returns the stored artifact for a duplicate without remapping", func() {
			first, err := svc.IngestEmail(ctx, tenantID, params("msg-1"))
			Expect(err).NotTo(HaveOccurred())

			second, err := svc.IngestEmail(ctx, tenantID, params("msg-1"))
			Expect(err).NotTo(HaveOccurred())

			Expect(second.ID).To(Equal(first.ID))
			Expect(mapCalls).To(Equal(1))
			Expect(stores.artifacts.byID).To(HaveLen(1))
			Expect(stores.attempts.ops()).To(Equal([]model.AttemptOperation{
				model.AttemptOperationFetch,
				model.AttemptOperationMap,
				model.AttemptOperationFetch,
			}))
		})

		It("auto-confirms a mapping the mapper marked as confident", func() {
			mapper.mapFn = func(ctx context.Context, tid int64, a *model.EmailArtifact) (mapping.Result, error) {
				return mapping.Result{
					Suggestion:  mapping.Suggestion{Targets: model.MappingTargets{AccountID: &accountID}},
					Assessment:  mapping.Assessment{Confidence: 0.95},
					Status:      model.ArtifactStatusMapped,
					AutoConfirm: true,
				}, nil
			}

			artifact, err := svc.IngestEmail(ctx, tenantID, params("msg-2"))

			Expect(err).NotTo(HaveOccurred())
			Expect(artifact.Status).To(Equal(model.ArtifactStatusMapped))
			Expect(artifact.Confirmed.AccountID).To(Equal(&accountID))
			Expect(*artifact.ConfirmedBy).To(Equal(service.SystemActor))
			Expect(artifact.ConfirmedAt).NotTo(BeNil())
		})

		It("keeps the artifact ingested when mapping fails", func() {
			mapper.mapFn = func(ctx context.Context, tid int64, a *model.EmailArtifact) (mapping.Result, error) {
				return mapping.Result{}, errors.New("crm unavailable")
			}

			artifact, err := svc.IngestEmail(ctx, tenantID, params("msg-3"))

			Expect(err).NotTo(HaveOccurred())
			Expect(artifact.Status).To(Equal(model.ArtifactStatusIngested))
			Expect(artifact.Version).To(Equal(int32(1)))

			last := stores.attempts.attempts[len(stores.attempts.attempts)-1]
			Expect(last.Operation).To(Equal(model.AttemptOperationMap))
			Expect(last.Status).To(Equal(model.AttemptStatusFail))
			Expect(*last.ErrorClass).To(Equal(model.ErrorClassRetryable))
			Expect(*last.ErrorSummary).To(ContainSubstring("crm unavailable"))
		})

		It("maps the artifact even when the fetch attempt cannot be logged", func() {
			stores.attempts.createFn = func(ctx context.Context, a *model.IngestionAttempt) (*model.IngestionAttempt, error) {
				if a.Operation == model.AttemptOperationFetch {
					return nil, errors.New("attempt log unavailable")
				}
				stores.attempts.attempts = append(stores.attempts.attempts, *a)
				return a, nil
			}

			artifact, err := svc.IngestEmail(ctx, tenantID, params("msg-5"))

			Expect(err).NotTo(HaveOccurred())
			Expect(mapCalls).To(Equal(1))
			Expect(artifact.MappingReasons).NotTo(BeEmpty())
			Expect(artifact.Unmapped()).To(BeFalse())
			Expect(stores.attempts.ops()).To(Equal([]model.AttemptOperation{model.AttemptOperationMap}))
		})

		It("maps a stored but never mapped artifact on redelivery", func() {
			healthy := mapper.mapFn
			mapper.mapFn = func(ctx context.Context, tid int64, a *model.EmailArtifact) (mapping.Result, error) {
				return mapping.Result{}, errors.New("crm unavailable")
			}
			first, err := svc.IngestEmail(ctx, tenantID, params("msg-6"))
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Unmapped()).To(BeTrue())

			mapper.mapFn = healthy
			second, err := svc.IngestEmail(ctx, tenantID, params("msg-6"))

			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
			Expect(mapCalls).To(Equal(1))
			Expect(second.MappingReasons).NotTo(BeEmpty())
			Expect(second.Version).To(Equal(first.Version + 1))
			Expect(stores.artifacts.byID).To(HaveLen(1))
		})

		It("records the job's retry count on attempts", func() {
			mapper.mapFn = func(ctx context.Context, tid int64, a *model.EmailArtifact) (mapping.Result, error) {
				return mapping.Result{}, errors.New("crm unavailable")
			}
			runCtx := service.WithJobRun(ctx, service.JobRun{JobID: 44, RetryCount: 2})

			_, err := svc.IngestEmail(runCtx, tenantID, params("msg-7"))

			Expect(err).NotTo(HaveOccurred())
			for _, a := range stores.attempts.attempts {
				Expect(a.RetryCount).To(Equal(int32(2)))
			}
			Expect(stores.attempts.attempts).NotTo(BeEmpty())
		})

		It("logs a failed fetch attempt when the artifact cannot be stored", func() {
			stores.artifacts.createOrGetFn = func(ctx context.Context, a *model.EmailArtifact) (*model.EmailArtifact, bool, error) {
				return nil, false, errors.New("connection reset")
			}

			_, err := svc.IngestEmail(ctx, tenantID, params("msg-4"))

			Expect(err).To(MatchError(ContainSubstring("storing artifact")))
			Expect(stores.attempts.attempts).To(HaveLen(1))
			Expect(stores.attempts.attempts[0].Status).To(Equal(model.AttemptStatusFail))
			Expect(stores.attempts.attempts[0].ArtifactID).To(BeNil())
		})

		It("rejects a disabled connection as non-retryable", func() {
			stores.connections.conns[connectionID].IsEnabled = false

			_, err := svc.IngestEmail(ctx, tenantID, params("msg-5"))

			Expect(err).To(MatchError(service.ErrConnectionDisabled))
			Expect(model.ClassOf(err)).To(Equal(model.ErrorClassNonRetryable))
			Expect(stores.attempts.attempts).To(BeEmpty())
		})

		It("rejects a connection owned by another tenant", func() {
			_, err := svc.IngestEmail(ctx, tenantID+1, params("msg-6"))

			Expect(err).To(MatchError(service.ErrTenantMismatch))
			Expect(stores.artifacts.byID).To(BeEmpty())
		})

		It("rejects an unknown connection", func() {
			p := params("msg-7")
			p.ConnectionID = 999

			_, err := svc.IngestEmail(ctx, tenantID, p)

			Expect(err).To(MatchError(service.ErrConnectionNotFound))
		})

		DescribeTable("rejects incomplete requests",
			func(mutate func(*service.IngestParams)) {
				p := params("msg-8")
				mutate(&p)

				_, err := svc.IngestEmail(ctx, tenantID, p)

				Expect(err).To(MatchError(service.ErrInvalidIngest))
				Expect(model.ClassOf(err)).To(Equal(model.ErrorClassNonRetryable))
			},
			Entry("no connection", func(p *service.IngestParams) { p.ConnectionID = 0 }),
			Entry("no message id", func(p *service.IngestParams) { p.ExternalMessageID = "  " }),
			Entry("no sender", func(p *service.IngestParams) { p.From = "" }),
			Entry("no received time", func(p *service.IngestParams) { p.ReceivedAt = time.Time{} }),
		)
	})

	Describe("IngestFromProvider", func() {
		BeforeEach(func() {
			gmail.normalizeFn = func(raw []byte) (*provider.InboundEmail, error) {
				return &provider.InboundEmail{
					ExternalMessageID: string(raw),
					From:              "partner@client.example",
					Subject:           "Re: filing",
					ReceivedAt:        received,
				}, nil
			}
		})

		It("fetches, normalizes and ingests the message", func() {
			artifact, err := svc.IngestFromProvider(ctx, tenantID, connectionID, "gm-1", "corr-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(artifact.ExternalMessageID).To(Equal("gm-1"))
			Expect(artifact.Provider).To(Equal(model.ProviderGmail))
			Expect(gmail.fetchCalls).To(Equal(1))
			for _, a := range stores.attempts.attempts {
				Expect(a.CorrelationID).To(Equal("corr-1"))
			}
		})

		It("does not fetch a message that is already stored", func() {
			_, err := svc.IngestFromProvider(ctx, tenantID, connectionID, "gm-1", "")
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.IngestFromProvider(ctx, tenantID, connectionID, "gm-1", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(gmail.fetchCalls).To(Equal(1))
			Expect(mapCalls).To(Equal(1))
		})

		It("records a rate limited fetch with its retry time", func() {
			gmail.fetchFn = func(ctx context.Context, conn *model.EmailConnection, externalID string) ([]byte, error) {
				return nil, model.RateLimitedError(errors.New("quota exceeded"), 30*time.Second)
			}

			_, err := svc.IngestFromProvider(ctx, tenantID, connectionID, "gm-2", "")

			Expect(err).To(HaveOccurred())
			Expect(model.ClassOf(err)).To(Equal(model.ErrorClassRateLimited))
			Expect(model.RetryAfterOf(err)).To(Equal(30 * time.Second))

			Expect(stores.attempts.attempts).To(HaveLen(1))
			attempt := stores.attempts.attempts[0]
			Expect(attempt.Operation).To(Equal(model.AttemptOperationFetch))
			Expect(attempt.Status).To(Equal(model.AttemptStatusFail))
			Expect(*attempt.ErrorClass).To(Equal(model.ErrorClassRateLimited))
			Expect(attempt.NextRetryAt).NotTo(BeNil())
			Expect(attempt.ExternalMessageID).To(Equal("gm-2"))
		})

		It("records a parse attempt when the document is malformed", func() {
			gmail.normalizeFn = func(raw []byte) (*provider.InboundEmail, error) {
				return nil, model.NewJobError(model.ErrorClassNonRetryable, errors.New("bad json"))
			}

			_, err := svc.IngestFromProvider(ctx, tenantID, connectionID, "gm-3", "")

			Expect(model.ClassOf(err)).To(Equal(model.ErrorClassNonRetryable))
			Expect(stores.attempts.ops()).To(Equal([]model.AttemptOperation{model.AttemptOperationParse}))
		})

		It("fails permanently for a provider with no strategy", func() {
			stores.connections.conns[connectionID].Provider = model.ProviderOutlook

			_, err := svc.IngestFromProvider(ctx, tenantID, connectionID, "gm-4", "")

			Expect(err).To(MatchError(provider.ErrUnknownProvider))
			Expect(model.ClassOf(err)).To(Equal(model.ErrorClassNonRetryable))
		})
	})

	Describe("IngestRaw", func() {
		It("rejects an empty document", func() {
			_, err := svc.IngestRaw(ctx, tenantID, connectionID, nil, "")

			Expect(err).To(MatchError(service.ErrInvalidIngest))
		})

		It("normalizes and ingests the document", func() {
			gmail.normalizeFn = func(raw []byte) (*provider.InboundEmail, error) {
				return &provider.InboundEmail{
					ExternalMessageID: "raw-1@client.example",
					From:              "partner@client.example",
					ReceivedAt:        received,
				}, nil
			}

			artifact, err := svc.IngestRaw(ctx, tenantID, connectionID, []byte("From: x"), "")

			Expect(err).NotTo(HaveOccurred())
			Expect(artifact.ExternalMessageID).To(Equal("raw-1@client.example"))
			Expect(gmail.fetchCalls).To(Equal(0))
		})
	})

	Describe("Remap", func() {
		It("remaps an artifact left in triage", func() {
			artifact, err := svc.IngestEmail(ctx, tenantID, params("msg-10"))
			Expect(err).NotTo(HaveOccurred())
			stores.artifacts.byID[artifact.ID].Status = model.ArtifactStatusTriage

			remapped, err := svc.Remap(ctx, tenantID, artifact.ID, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(mapCalls).To(Equal(2))
			Expect(remapped.Version).To(Equal(artifact.Version + 1))
		})

		It("leaves a settled artifact alone", func() {
			artifact, err := svc.IngestEmail(ctx, tenantID, params("msg-11"))
			Expect(err).NotTo(HaveOccurred())
			stores.artifacts.byID[artifact.ID].Status = model.ArtifactStatusIgnored

			result, err := svc.Remap(ctx, tenantID, artifact.ID, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(model.ArtifactStatusIgnored))
			Expect(mapCalls).To(Equal(1))
		})

		It("reports a missing artifact", func() {
			_, err := svc.Remap(ctx, tenantID, 12345, "")

			Expect(err).To(MatchError(service.ErrArtifactNotFound))
		})

		It("surfaces a concurrent edit as a stale version", func() {
			artifact, err := svc.IngestEmail(ctx, tenantID, params("msg-12"))
			Expect(err).NotTo(HaveOccurred())
			mapper.mapFn = func(ctx context.Context, tid int64, a *model.EmailArtifact) (mapping.Result, error) {
				stores.artifacts.byID[a.ID].Version++
				return mapping.Result{Status: model.ArtifactStatusTriage}, nil
			}

			_, err = svc.Remap(ctx, tenantID, artifact.ID, "")

			Expect(err).To(MatchError(service.ErrStaleVersion))
		})
	})

	Describe("ConfirmMapping", func() {
		var artifact *model.EmailArtifact

		BeforeEach(func() {
			var err error
			artifact, err = svc.IngestEmail(ctx, tenantID, params("msg-20"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("confirms the targets and audits the change", func() {
			engagementID := int64(88)
			result, err := svc.ConfirmMapping(ctx, tenantID, artifact.ID, service.ConfirmParams{
				Targets:         model.MappingTargets{AccountID: &accountID, EngagementID: &engagementID},
				ExpectedVersion: &artifact.Version,
				User:            "paralegal@firm.example",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(model.ArtifactStatusMapped))
			Expect(result.Confirmed.EngagementID).To(Equal(&engagementID))
			Expect(*result.ConfirmedBy).To(Equal("paralegal@firm.example"))
			Expect(result.Version).To(Equal(artifact.Version + 1))

			Expect(stores.audit.events).To(HaveLen(1))
			event := stores.audit.events[0]
			Expect(event.Action).To(Equal(model.AuditActionMappingConfirmed))
			Expect(event.SubjectID).To(Equal(artifact.ID))
			Expect(event.Actor).To(Equal("paralegal@firm.example"))
			Expect(string(event.Before)).To(ContainSubstring(`"status":"ingested"`))
			Expect(string(event.After)).To(ContainSubstring(`"status":"mapped"`))
			Expect(txRunner.calls).To(Equal(1))
		})

		It("rejects a stale expected version", func() {
			stale := artifact.Version - 1
			_, err := svc.ConfirmMapping(ctx, tenantID, artifact.ID, service.ConfirmParams{
				Targets:         model.MappingTargets{AccountID: &accountID},
				ExpectedVersion: &stale,
				User:            "paralegal@firm.example",
			})

			Expect(err).To(MatchError(service.ErrStaleVersion))
			Expect(stores.audit.events).To(BeEmpty())
		})

		It("confirms an engagement without an account", func() {
			engagementID := int64(902)

			result, err := svc.ConfirmMapping(ctx, tenantID, artifact.ID, service.ConfirmParams{
				Targets: model.MappingTargets{EngagementID: &engagementID},
				User:    "paralegal@firm.example",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(model.ArtifactStatusMapped))
			Expect(result.Confirmed.AccountID).To(BeNil())
			Expect(result.Confirmed.EngagementID).To(Equal(&engagementID))
		})

		It("requires at least one target and a user", func() {
			_, err := svc.ConfirmMapping(ctx, tenantID, artifact.ID, service.ConfirmParams{User: "x"})
			Expect(err).To(MatchError(service.ErrInvalidCorrection))

			_, err = svc.ConfirmMapping(ctx, tenantID, artifact.ID, service.ConfirmParams{
				Targets: model.MappingTargets{AccountID: &accountID},
			})
			Expect(err).To(MatchError(service.ErrInvalidCorrection))
		})

		It("hides artifacts of other tenants", func() {
			_, err := svc.ConfirmMapping(ctx, tenantID+1, artifact.ID, service.ConfirmParams{
				Targets: model.MappingTargets{AccountID: &accountID},
				User:    "paralegal@firm.example",
			})

			Expect(err).To(MatchError(service.ErrArtifactNotFound))
		})
	})

	Describe("MarkIgnored", func() {
		It("ignores the artifact with the reason as audit notes", func() {
			artifact, err := svc.IngestEmail(ctx, tenantID, params("msg-30"))
			Expect(err).NotTo(HaveOccurred())

			result, err := svc.MarkIgnored(ctx, tenantID, artifact.ID, "newsletter", "paralegal@firm.example", nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(model.ArtifactStatusIgnored))
			Expect(*result.IgnoredReason).To(Equal("newsletter"))
			Expect(stores.audit.actions()).To(Equal([]model.AuditAction{model.AuditActionArtifactIgnored}))
			Expect(*stores.audit.events[0].Notes).To(Equal("newsletter"))

			_, err = svc.Remap(ctx, tenantID, artifact.ID, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(mapCalls).To(Equal(1))
		})
	})

	Describe("ListAttempts", func() {
		It("returns the artifact's attempts", func() {
			artifact, err := svc.IngestEmail(ctx, tenantID, params("msg-40"))
			Expect(err).NotTo(HaveOccurred())

			attempts, err := svc.ListAttempts(ctx, tenantID, artifact.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(attempts).To(HaveLen(2))
		})

		It("reports a missing artifact", func() {
			_, err := svc.ListAttempts(ctx, tenantID, 1)

			Expect(err).To(MatchError(service.ErrArtifactNotFound))
		})
	})
})

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"firmdesk.app/intake/internal/http/handler"
	"firmdesk.app/intake/internal/http/router"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/service"
)

func doJSON(engine *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
	return resp
}

var _ = Describe("EmailHandler", func() {
	var (
		engine    *gin.Engine
		ingestion *mockIngestionService
		jobs      *mockJobService
		artifact  *model.EmailArtifact
		staff     map[string]string
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		ingestion = &mockIngestionService{}
		jobs = &mockJobService{}
		h := handler.NewEmailHandler(ingestion, jobs, "X-Trace-ID")
		router.EmailRouter(engine.Group("/api/v1/tenants/:tenant_id/emails"), h)

		artifact = &model.EmailArtifact{
			ID:                11,
			TenantID:          7,
			ConnectionID:      70,
			Provider:          model.ProviderGmail,
			ExternalMessageID: "gm-1",
			FromAddress:       "partner@client.example",
			Status:            model.ArtifactStatusTriage,
			MappingConfidence: 0.35,
			Version:           3,
		}
		staff = map[string]string{"X-User-ID": "paralegal@firm.example"}
	})

	Describe("POST /emails", func() {
		body := map[string]any{
			"connection_id":       70,
			"external_message_id": "gm-1",
			"from_address":        "partner@client.example",
			"subject":             "Filing",
			"received_at":         "2026-03-02T09:00:00Z",
		}

		It("returns 202 with the artifact", func() {
			var got service.IngestParams
			ingestion.ingestEmailFn = func(_ context.Context, tenantID int64, params service.IngestParams) (*model.EmailArtifact, error) {
				Expect(tenantID).To(Equal(int64(7)))
				got = params
				return artifact, nil
			}

			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails", body, map[string]string{"X-Trace-ID": "trace-1"})

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(got.ExternalMessageID).To(Equal("gm-1"))
			Expect(got.CorrelationID).To(Equal("trace-1"))
			Expect(got.ReceivedAt).To(Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
			resp := decode(w)
			Expect(resp["status"]).To(Equal("triage"))
			Expect(resp["version"]).To(BeEquivalentTo(3))
		})

		It("returns 400 when required fields are missing", func() {
			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails", map[string]any{"connection_id": 70}, nil)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for a malformed tenant", func() {
			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/abc/emails", body, nil)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("maps service errors",
			func(err error, status int) {
				ingestion.ingestEmailFn = func(context.Context, int64, service.IngestParams) (*model.EmailArtifact, error) {
					return nil, err
				}

				w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails", body, nil)

				Expect(w.Code).To(Equal(status))
			},
			Entry("unknown connection", model.NewJobError(model.ErrorClassNonRetryable, service.ErrConnectionNotFound), http.StatusNotFound),
			Entry("foreign connection", model.NewJobError(model.ErrorClassNonRetryable, service.ErrTenantMismatch), http.StatusNotFound),
			Entry("disabled connection", model.NewJobError(model.ErrorClassNonRetryable, service.ErrConnectionDisabled), http.StatusUnprocessableEntity),
			Entry("invalid request", fmt.Errorf("%w: from_address is required", service.ErrInvalidIngest), http.StatusUnprocessableEntity),
			Entry("database down", errors.New("connection refused"), http.StatusInternalServerError),
		)

		It("does not reveal that a connection belongs to another tenant", func() {
			ingestion.ingestEmailFn = func(context.Context, int64, service.IngestParams) (*model.EmailArtifact, error) {
				return nil, model.NewJobError(model.ErrorClassNonRetryable, service.ErrTenantMismatch)
			}

			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails", body, nil)

			Expect(decode(w)["error"]).To(Equal(service.ErrConnectionNotFound.Error()))
		})
	})

	Describe("POST /emails/raw", func() {
		It("passes the body through as raw MIME", func() {
			var gotRaw []byte
			ingestion.ingestRawFn = func(_ context.Context, _, connectionID int64, raw []byte, _ string) (*model.EmailArtifact, error) {
				Expect(connectionID).To(Equal(int64(70)))
				gotRaw = raw
				return artifact, nil
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/7/emails/raw?connection_id=70",
				bytes.NewBufferString("Message-ID: <a@b>\r\n\r\nhello"))
			req.Header.Set("Content-Type", "message/rfc822")
			w := httptest.NewRecorder()

			engine.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(string(gotRaw)).To(HavePrefix("Message-ID: <a@b>"))
		})

		It("requires a connection id", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/7/emails/raw", bytes.NewBufferString("x"))
			w := httptest.NewRecorder()

			engine.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 422 for an unparseable message", func() {
			ingestion.ingestRawFn = func(context.Context, int64, int64, []byte, string) (*model.EmailArtifact, error) {
				return nil, model.NewJobError(model.ErrorClassNonRetryable, errors.New("missing Message-ID header"))
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/7/emails/raw?connection_id=70", bytes.NewBufferString("x"))
			w := httptest.NewRecorder()

			engine.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})
	})

	Describe("GET /emails/:id", func() {
		It("returns the artifact", func() {
			ingestion.getArtifactFn = func(_ context.Context, tenantID, artifactID int64) (*model.EmailArtifact, error) {
				Expect(artifactID).To(Equal(int64(11)))
				return artifact, nil
			}

			w := doJSON(engine, http.MethodGet, "/api/v1/tenants/7/emails/11", nil, nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["external_message_id"]).To(Equal("gm-1"))
		})

		It("returns 404 when missing", func() {
			w := doJSON(engine, http.MethodGet, "/api/v1/tenants/7/emails/12", nil, nil)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns an empty attempt list rather than null", func() {
			w := doJSON(engine, http.MethodGet, "/api/v1/tenants/7/emails/11/attempts", nil, nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"attempts":[]}`))
		})
	})

	Describe("POST /emails/:id/confirm", func() {
		It("confirms on behalf of the acting user", func() {
			ingestion.confirmMappingFn = func(_ context.Context, _, _ int64, params service.ConfirmParams) (*model.EmailArtifact, error) {
				Expect(params.User).To(Equal("paralegal@firm.example"))
				Expect(*params.Targets.AccountID).To(Equal(int64(501)))
				Expect(*params.ExpectedVersion).To(Equal(int32(3)))
				return artifact, nil
			}

			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails/11/confirm",
				map[string]any{"account_id": 501, "expected_version": 3}, staff)

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("requires the user header", func() {
			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails/11/confirm",
				map[string]any{"account_id": 501}, nil)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns 409 on a stale version", func() {
			ingestion.confirmMappingFn = func(context.Context, int64, int64, service.ConfirmParams) (*model.EmailArtifact, error) {
				return nil, fmt.Errorf("%w: version mismatch", service.ErrStaleVersion)
			}

			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails/11/confirm",
				map[string]any{"account_id": 501, "expected_version": 2}, staff)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("POST /emails/:id/ignore", func() {
		It("passes the reason through", func() {
			ingestion.markIgnoredFn = func(_ context.Context, _, _ int64, reason, user string, expected *int32) (*model.EmailArtifact, error) {
				Expect(reason).To(Equal("newsletter"))
				Expect(user).To(Equal("paralegal@firm.example"))
				Expect(expected).To(BeNil())
				return artifact, nil
			}

			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails/11/ignore",
				map[string]any{"reason": "newsletter"}, staff)

			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("POST /emails/:id/remap", func() {
		BeforeEach(func() {
			ingestion.getArtifactFn = func(context.Context, int64, int64) (*model.EmailArtifact, error) {
				return artifact, nil
			}
		})

		It("enqueues a remap job keyed by artifact version", func() {
			var params service.EnqueueParams
			jobs.enqueueFn = func(_ context.Context, _ int64, p service.EnqueueParams) (*model.Job, error) {
				params = p
				return &model.Job{ID: 99}, nil
			}

			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails/11/remap", nil, nil)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(params.JobType).To(Equal(model.JobTypeEmailRemap))
			Expect(params.Payload.IdempotencyKey).To(Equal("remap:11:v3"))
			Expect(params.Payload.EmailRemap.ArtifactID).To(Equal(int64(11)))
			Expect(decode(w)["job_id"]).To(BeEquivalentTo(99))
		})

		It("reports a repeated request as duplicated", func() {
			jobs.enqueueFn = func(context.Context, int64, service.EnqueueParams) (*model.Job, error) {
				return nil, service.ErrDuplicateJob
			}

			w := doJSON(engine, http.MethodPost, "/api/v1/tenants/7/emails/11/remap", nil, nil)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(decode(w)["duplicated"]).To(BeTrue())
		})
	})
})

package model_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"firmdesk.app/intake/internal/model"
)

func ingestPayload() *model.JobPayload {
	return &model.JobPayload{
		Version:        model.PayloadVersion,
		Kind:           model.JobTypeEmailIngest,
		TenantID:       7,
		CorrelationID:  "corr-1",
		IdempotencyKey: "gmail:7:msg-1",
		EmailIngest: &model.EmailIngestPayload{
			ConnectionID:      11,
			ExternalMessageID: "msg-1",
		},
	}
}

var _ = Describe("JobPayload", func() {
	Describe("Validate", func() {
		It("accepts a consistent ingest payload", func() {
			Expect(ingestPayload().Validate(7, "gmail:7:msg-1")).To(Succeed())
		})

		It("rejects a payload for another tenant", func() {
			err := ingestPayload().Validate(8, "gmail:7:msg-1")
			Expect(errors.Is(err, model.ErrPayloadMismatch)).To(BeTrue())
		})

		It("rejects an idempotency key that differs from the row", func() {
			err := ingestPayload().Validate(7, "other")
			Expect(errors.Is(err, model.ErrPayloadMismatch)).To(BeTrue())
		})

		It("rejects a variant that does not match the kind", func() {
			p := ingestPayload()
			p.EmailRemap = &model.EmailRemapPayload{ArtifactID: 3}
			Expect(p.Validate(7, "gmail:7:msg-1")).NotTo(Succeed())

			p = ingestPayload()
			p.Kind = model.JobTypeEmailRemap
			Expect(p.Validate(7, "gmail:7:msg-1")).NotTo(Succeed())
		})

		It("requires a correlation id", func() {
			p := ingestPayload()
			p.CorrelationID = ""
			Expect(p.Validate(7, "gmail:7:msg-1")).NotTo(Succeed())
		})

		It("rejects versions newer than this build understands", func() {
			p := ingestPayload()
			p.Version = model.PayloadVersion + 1
			Expect(p.Validate(7, "gmail:7:msg-1")).NotTo(Succeed())
		})
	})

	Describe("ValidatePayloadDocument", func() {
		It("accepts a marshalled payload", func() {
			raw, err := json.Marshal(ingestPayload())
			Expect(err).NotTo(HaveOccurred())
			Expect(model.ValidatePayloadDocument(raw)).To(Succeed())
		})

		It("accepts a raw MIME ingest", func() {
			p := ingestPayload()
			p.EmailIngest.ExternalMessageID = ""
			p.EmailIngest.RawMIME = []byte("Subject: hi\r\n\r\nbody")
			raw, err := json.Marshal(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(model.ValidatePayloadDocument(raw)).To(Succeed())
		})

		It("rejects a document missing required members", func() {
			Expect(model.ValidatePayloadDocument(json.RawMessage(`{"version":1,"kind":"email.ingest"}`))).NotTo(Succeed())
		})

		It("rejects unknown kinds", func() {
			doc := `{"version":1,"kind":"email.delete","tenant_id":7,"correlation_id":"c","idempotency_key":"k"}`
			Expect(model.ValidatePayloadDocument(json.RawMessage(doc))).NotTo(Succeed())
		})

		It("rejects unknown members", func() {
			doc := `{"version":1,"kind":"email.remap","tenant_id":7,"correlation_id":"c","idempotency_key":"k","email_remap":{"artifact_id":1},"extra":true}`
			Expect(model.ValidatePayloadDocument(json.RawMessage(doc))).NotTo(Succeed())
		})
	})

	Describe("WithIdempotencyKey", func() {
		It("replaces only the idempotency key", func() {
			raw, err := json.Marshal(ingestPayload())
			Expect(err).NotTo(HaveOccurred())

			out, err := model.WithIdempotencyKey(raw, "gmail:7:msg-1_retry_1700000000")
			Expect(err).NotTo(HaveOccurred())

			var before, after map[string]any
			Expect(json.Unmarshal(raw, &before)).To(Succeed())
			Expect(json.Unmarshal(out, &after)).To(Succeed())

			Expect(after["idempotency_key"]).To(Equal("gmail:7:msg-1_retry_1700000000"))
			delete(before, "idempotency_key")
			delete(after, "idempotency_key")
			Expect(after).To(Equal(before))
		})

		It("fails on a non-object document", func() {
			_, err := model.WithIdempotencyKey(json.RawMessage(`[1,2]`), "k")
			Expect(err).To(HaveOccurred())
		})
	})
})

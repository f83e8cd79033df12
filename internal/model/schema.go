package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const payloadSchemaURL = "https://firmdesk.app/schemas/job-payload.json"

var (
	payloadSchemaOnce sync.Once
	payloadSchema     *jsonschema.Schema
	payloadSchemaErr  error
)

// PayloadSchemaDocument reflects JobPayload into a JSON Schema document.
func PayloadSchemaDocument() ([]byte, error) {
	reflector := invopop.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&JobPayload{})
	schema.ID = invopop.ID(payloadSchemaURL)
	return json.Marshal(schema)
}

func compiledPayloadSchema() (*jsonschema.Schema, error) {
	payloadSchemaOnce.Do(func() {
		raw, err := PayloadSchemaDocument()
		if err != nil {
			payloadSchemaErr = fmt.Errorf("reflect payload schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			payloadSchemaErr = fmt.Errorf("load payload schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(payloadSchemaURL, doc); err != nil {
			payloadSchemaErr = fmt.Errorf("add payload schema: %w", err)
			return
		}
		payloadSchema, payloadSchemaErr = c.Compile(payloadSchemaURL)
	})
	return payloadSchema, payloadSchemaErr
}

// ValidatePayloadDocument checks a marshalled payload against the reflected
// JobPayload schema.
func ValidatePayloadDocument(raw json.RawMessage) error {
	sch, err := compiledPayloadSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("payload schema: %w", err)
	}
	return nil
}

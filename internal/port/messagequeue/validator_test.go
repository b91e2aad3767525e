package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateValidReviewCreated(t *testing.T) {
	data := []byte(`{"review_id":"r1","task_type":"sql","urgency":"high","framework":"rest","blocking":true}`)
	if err := Validate(SubjectReviewCreated, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateValidReviewDecided(t *testing.T) {
	data := []byte(`{"review_id":"r1","decision_type":"approve","reviewer_name":"alex"}`)
	if err := Validate(SubjectReviewDecided, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	// Unknown subjects should pass (future-proof).
	data := []byte(`{"foo":"bar"}`)
	if err := Validate("unknown.subject", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	data := []byte(`{not valid json`)
	err := Validate(SubjectReviewCreated, data)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected 'invalid JSON' in error, got: %v", err)
	}
}

func TestValidateInvalidSchema(t *testing.T) {
	// Valid JSON but not unmarshalable into ReviewCreatedPayload.
	data := []byte(`"just a string"`)
	err := Validate(SubjectReviewCreated, data)
	if err == nil {
		t.Fatal("expected schema validation error")
	}
	if !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("expected 'schema validation failed' in error, got: %v", err)
	}
}

func TestValidateEmptyJSON(t *testing.T) {
	// Empty object is valid JSON and valid for all schemas (all fields are zero-value).
	data := []byte(`{}`)
	if err := Validate(SubjectReviewCreated, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

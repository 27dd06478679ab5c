package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/cocoaloft/storefront-backend/pkg/errors"
)

type samplePayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100"`
}

func TestDecodeJSONBodyOK(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(
		`{"product_id":"6a4f86a2-9f0e-4f03-a6f8-3f2c9f0b8d11","quantity":3}`))

	var payload samplePayload
	if err := DecodeJSONBody(req, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", payload.Quantity)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(
		`{"product_id":"6a4f86a2-9f0e-4f03-a6f8-3f2c9f0b8d11","quantity":3,"surprise":true}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyFieldMessagesUseJSONNames(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(
		`{"product_id":"not-a-uuid","quantity":500}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}

	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["product_id"] != "must be a valid uuid" {
		t.Fatalf("unexpected product_id message %q", details["product_id"])
	}
	if details["quantity"] != "must be at most 100" {
		t.Fatalf("unexpected quantity message %q", details["quantity"])
	}
}

func TestDecodeJSONBodyMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"quantity":`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// Metrics Hub - Team Analytics and Presence Dashboard
// Copyright 2026 Metrics Hub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Metrics-Hub/metrics-hub

package validation

import (
	"strings"
	"testing"
)

type heartbeatRequest struct {
	UserID    string `validate:"required,max=128"`
	UserEmail string `validate:"omitempty,email"`
	Status    string `validate:"omitempty,oneof=online offline"`
}

func TestGetValidatorSingleton(t *testing.T) {
	a := GetValidator()
	b := GetValidator()
	if a != b {
		t.Error("GetValidator returned distinct instances")
	}
}

func TestValidateStructValid(t *testing.T) {
	tests := []struct {
		name string
		req  heartbeatRequest
	}{
		{"full", heartbeatRequest{UserID: "u1", UserEmail: "a@example.com", Status: "online"}},
		{"minimal", heartbeatRequest{UserID: "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.req); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStructInvalid(t *testing.T) {
	tests := []struct {
		name      string
		req       heartbeatRequest
		wantField string
		wantTag   string
	}{
		{"missing user id", heartbeatRequest{UserEmail: "a@example.com"}, "UserID", "required"},
		{"bad email", heartbeatRequest{UserID: "u1", UserEmail: "nope"}, "UserEmail", "email"},
		{"bad status", heartbeatRequest{UserID: "u1", Status: "away"}, "Status", "oneof"},
		{"user id too long", heartbeatRequest{UserID: strings.Repeat("x", 200)}, "UserID", "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("error = %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	err := ValidateStruct(&heartbeatRequest{UserEmail: "a@example.com"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %s", apiErr.Code)
	}
	if apiErr.Message != "UserID is required" {
		t.Errorf("message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "UserID" {
		t.Errorf("details = %v", apiErr.Details)
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	err := ValidateStruct(&heartbeatRequest{UserEmail: "nope", Status: "away"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(err.Errors()), err)
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %s", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]any)
	if !ok || len(fields) != 3 {
		t.Errorf("details fields = %v", apiErr.Details["fields"])
	}
}

func TestTranslatedMessages(t *testing.T) {
	tests := []struct {
		name string
		req  any
		want string
	}{
		{"required", &heartbeatRequest{}, "UserID is required"},
		{"email", &heartbeatRequest{UserID: "u1", UserEmail: "x"}, "UserEmail must be a valid email address"},
		{"oneof", &heartbeatRequest{UserID: "u1", Status: "x"}, "Status must be one of: online offline"},
		{"max string", &heartbeatRequest{UserID: strings.Repeat("x", 200)}, "UserID must be at most 128 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if got := err.Errors()[0].Error(); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

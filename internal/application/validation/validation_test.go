package validation

import (
	"errors"
	"testing"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/ports"
)

func fieldMessages(t *testing.T, err error) map[string]string {
	t.Helper()

	var ve *entities.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected *entities.ValidationError, got %T (%v)", err, err)
	}
	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestStructValid(t *testing.T) {
	v := New()

	err := v.Struct(ports.CreateUserRequest{
		Name:  "Ana Ruiz",
		Email: "ana@example.com",
		Role:  entities.UserRoleUser,
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestStructUsesJSONFieldNames(t *testing.T) {
	v := New()

	fields := fieldMessages(t, v.Struct(ports.CreateUserRequest{
		Name:  "A",
		Email: "not-an-email",
		Role:  "Owner",
	}))

	expected := map[string]string{
		"name":  "must be at least 2 characters",
		"email": "must be a valid email address",
		"role":  "must be one of [Admin User]",
	}
	for field, msg := range expected {
		if fields[field] != msg {
			t.Errorf("Expected %s to be %q, got %q", field, msg, fields[field])
		}
	}
}

func TestNestedLocationPaths(t *testing.T) {
	v := New()

	fields := fieldMessages(t, v.Struct(ports.CreateOwnerRequest{
		FirstName: "Lena",
		LastName:  "Vogel",
		Email:     "lena@example.com",
		Phone:     "+49 30 1234",
		Locations: []ports.LocationInput{
			{Name: "Studio", DeviceIDs: []string{"RF-1"}},
			{Name: "", DeviceIDs: nil},
		},
	}))

	if got := fields["locations[1].name"]; got != "is required" {
		t.Errorf("Expected locations[1].name to be required, got %q (all: %v)", got, fields)
	}
	if got := fields["locations[1].deviceIds"]; got != "must contain at least 1 item(s)" {
		t.Errorf("Expected locations[1].deviceIds to need an item, got %q", got)
	}
	if _, ok := fields["locations[0].name"]; ok {
		t.Errorf("Expected first location to be valid, got %v", fields)
	}
}

func TestEmbeddedRequestDropsTypeName(t *testing.T) {
	v := New()

	fields := fieldMessages(t, v.Struct(ports.UpdateProductRequest{
		ID: "p-1",
		CreateProductRequest: ports.CreateProductRequest{
			Name:          "Sound Pod",
			DeviceID:      "RF 01!",
			Description:   "A small speaker for guided sessions",
			Price:         49.5,
			StockQuantity: 3,
			Category:      entities.ProductCategoryTherapy,
		},
	}))

	if len(fields) != 1 {
		t.Fatalf("Expected exactly one field error, got %v", fields)
	}
	if got := fields["deviceId"]; got != "may only contain letters, digits, '-' and '_'" {
		t.Errorf("Expected deviceId pattern error, got %q", got)
	}
}

func TestValidateMatchesStruct(t *testing.T) {
	v := New()

	err := v.Validate(&ports.DeleteRequest{})
	fields := fieldMessages(t, err)
	if fields["id"] != "is required" {
		t.Errorf("Expected id to be required, got %v", fields)
	}
	if !entities.IsValidation(err) {
		t.Error("Expected IsValidation to recognise the error")
	}
}

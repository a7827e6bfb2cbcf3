package ports

import (
	"github.com/relaxflow/core/internal/domain/entities"
)

// CreateUserRequest is the payload for adding a dashboard user.
type CreateUserRequest struct {
	Name   string            `json:"name" validate:"required,min=2,max=100"`
	Email  string            `json:"email" validate:"required,email"`
	Role   entities.UserRole `json:"role" validate:"required,oneof=Admin User"`
	Avatar string            `json:"avatar" validate:"omitempty,max=2048"`
}

// UpdateUserRequest replaces a user record.
type UpdateUserRequest struct {
	ID        string              `json:"id" validate:"required"`
	Name      string              `json:"name" validate:"required,min=2,max=100"`
	Email     string              `json:"email" validate:"required,email"`
	Role      entities.UserRole   `json:"role" validate:"required,oneof=Admin User"`
	Status    entities.UserStatus `json:"status" validate:"required,oneof=Active Inactive"`
	LastLogin string              `json:"lastLogin"`
	Avatar    string              `json:"avatar" validate:"omitempty,max=2048"`
}

// LocationInput describes one owner location.
type LocationInput struct {
	ID        string   `json:"id"`
	Name      string   `json:"name" validate:"required"`
	DeviceIDs []string `json:"deviceIds" validate:"min=1,dive,required"`
}

// CreateOwnerRequest is the payload for adding an owner.
type CreateOwnerRequest struct {
	FirstName string          `json:"firstName" validate:"required"`
	LastName  string          `json:"lastName" validate:"required"`
	Email     string          `json:"email" validate:"required,email"`
	Phone     string          `json:"phone" validate:"required"`
	Locations []LocationInput `json:"locations" validate:"dive"`
}

// UpdateOwnerRequest replaces an owner record.
type UpdateOwnerRequest struct {
	ID        string               `json:"id" validate:"required"`
	FirstName string               `json:"firstName" validate:"required"`
	LastName  string               `json:"lastName" validate:"required"`
	Email     string               `json:"email" validate:"required,email"`
	Phone     string               `json:"phone" validate:"required"`
	Status    entities.OwnerStatus `json:"status" validate:"required,oneof=active inactive"`
	Locations []LocationInput      `json:"locations" validate:"dive"`
}

// CreateProductRequest is the payload for adding a product.
type CreateProductRequest struct {
	Name          string                   `json:"name" validate:"required,min=2"`
	DeviceID      string                   `json:"deviceId" validate:"required,min=3,deviceid"`
	Description   string                   `json:"description" validate:"required,min=10,max=500"`
	Price         float64                  `json:"price" validate:"gte=0.01"`
	StockQuantity int                      `json:"stockQuantity" validate:"gte=0"`
	Category      entities.ProductCategory `json:"category" validate:"required,oneof=therapy meditation accessories software"`
	Image         string                   `json:"image"`
	IsActive      bool                     `json:"isActive"`
}

// UpdateProductRequest replaces a product record.
type UpdateProductRequest struct {
	ID string `json:"id" validate:"required"`
	CreateProductRequest
}

// CreateMeditationRequest is the payload for adding a meditation.
type CreateMeditationRequest struct {
	Title       string                      `json:"title" validate:"required"`
	Duration    string                      `json:"duration" validate:"required,oneof=less-than-15 15-30 30-60 greater-than-60"`
	Category    entities.MeditationCategory `json:"category" validate:"required,oneof=relaxation healing meditation sleep"`
	Artist      string                      `json:"artist" validate:"required"`
	Description string                      `json:"description" validate:"required"`
	Thumbnail   string                      `json:"thumbnail"`
	AudioURL    string                      `json:"audioUrl"`
}

// UpdateMeditationRequest replaces a meditation record.
type UpdateMeditationRequest struct {
	ID string `json:"id" validate:"required"`
	CreateMeditationRequest
}

// RecordPlayRequest counts one play of a meditation on a calendar date.
type RecordPlayRequest struct {
	Date         string `json:"date" validate:"required"`
	MeditationID string `json:"meditationId"`
}

// DeleteRequest names the record to remove.
type DeleteRequest struct {
	ID string `json:"id" validate:"required"`
}

// LoginRequest carries dashboard credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned after a successful login.
type AuthResponse struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expiresAt"`
}

// MessageResponse acknowledges an operation.
type MessageResponse struct {
	Message string `json:"message"`
}

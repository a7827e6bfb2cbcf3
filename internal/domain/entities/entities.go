package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrOwnerNotFound      = fmt.Errorf("owner %w", ErrNotFound)
	ErrProductNotFound    = fmt.Errorf("product %w", ErrNotFound)
	ErrMeditationNotFound = fmt.Errorf("meditation %w", ErrNotFound)
	ErrInvalidDate        = errors.New("invalid calendar date")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Collection names double as storage keys and change-feed topics.
const (
	CollectionUsers       = "users"
	CollectionOwners      = "owners"
	CollectionProducts    = "products"
	CollectionMeditations = "meditations"
	CollectionDailyPlay   = "daily-play"
)

// DefaultImage is used when a user avatar or meditation thumbnail is not supplied.
const DefaultImage = "/placeholder.svg"

// DateLayout is the calendar date format used as the daily play key.
const DateLayout = "2006-01-02"

// TimestampLayout renders UTC instants with millisecond precision and a Z
// suffix, e.g. "2024-05-01T10:00:00.000Z".
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is an ISO 8601 instant kept exactly as stored. Records written
// elsewhere may carry other precisions or an empty value, and rewriting a
// collection must not alter them.
type Timestamp string

// NewTimestamp formats t in UTC using TimestampLayout.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Format(TimestampLayout))
}

// Time parses the timestamp. ok is false for empty or malformed values.
func (ts Timestamp) Time() (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, string(ts))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Enums and types
type UserRole string

const (
	UserRoleAdmin UserRole = "Admin"
	UserRoleUser  UserRole = "User"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
)

type OwnerStatus string

const (
	OwnerStatusActive   OwnerStatus = "active"
	OwnerStatusInactive OwnerStatus = "inactive"
)

type ProductStatus string

const (
	ProductStatusAvailable  ProductStatus = "Available"
	ProductStatusOutOfStock ProductStatus = "Out of Stock"
)

type ProductCategory string

const (
	ProductCategoryTherapy     ProductCategory = "therapy"
	ProductCategoryMeditation  ProductCategory = "meditation"
	ProductCategoryAccessories ProductCategory = "accessories"
	ProductCategorySoftware    ProductCategory = "software"
)

type MeditationCategory string

const (
	MeditationCategoryRelaxation MeditationCategory = "relaxation"
	MeditationCategoryHealing    MeditationCategory = "healing"
	MeditationCategoryMeditation MeditationCategory = "meditation"
	MeditationCategorySleep      MeditationCategory = "sleep"
)

// Duration buckets offered by the meditation editor.
const (
	DurationUnder15 = "less-than-15"
	Duration15To30  = "15-30"
	Duration30To60  = "30-60"
	DurationOver60  = "greater-than-60"
)

// User is a dashboard account.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
	LastLogin string     `json:"lastLogin"`
	Avatar    string     `json:"avatar,omitempty"`
}

// Location groups the devices an owner keeps at one place.
type Location struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DeviceIDs []string `json:"deviceIds"`
}

// Owner is a device custodian.
type Owner struct {
	ID        string      `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Status    OwnerStatus `json:"status"`
	CreatedAt Timestamp   `json:"createdAt,omitempty"`
	Locations []Location  `json:"locations"`
}

// Product is a sellable device or software item.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	DeviceID      string          `json:"deviceId"`
	Description   string          `json:"description"`
	Price         float64         `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Status        ProductStatus   `json:"status"`
	Category      ProductCategory `json:"category"`
	Image         string          `json:"image"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     Timestamp       `json:"createdAt,omitempty"`
	UpdatedAt     Timestamp       `json:"updatedAt,omitempty"`
}

// Meditation is a piece of music meditation content.
type Meditation struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Duration        string             `json:"duration"`
	DurationMinutes int                `json:"durationMinutes"`
	Category        MeditationCategory `json:"category"`
	Artist          string             `json:"artist"`
	Description     string             `json:"description"`
	Thumbnail       string             `json:"thumbnail"`
	AudioURL        string             `json:"audioUrl"`
	CreatedAt       Timestamp          `json:"createdAt,omitempty"`
	UpdatedAt       Timestamp          `json:"updatedAt,omitempty"`
}

// DailyPlay counts meditation plays for one calendar date.
type DailyPlay struct {
	Date  string `json:"date"`
	Plays int    `json:"plays"`
}

// GetID methods let the generic store helpers find records by identifier.
func (u User) GetID() string       { return u.ID }
func (o Owner) GetID() string      { return o.ID }
func (p Product) GetID() string    { return p.ID }
func (m Meditation) GetID() string { return m.ID }
func (d DailyPlay) GetID() string  { return d.Date }

// StatusForStock derives product availability from stock.
func StatusForStock(stockQuantity int) ProductStatus {
	if stockQuantity > 0 {
		return ProductStatusAvailable
	}
	return ProductStatusOutOfStock
}

// RefreshStatus keeps Status consistent with StockQuantity.
func (p *Product) RefreshStatus() {
	p.Status = StatusForStock(p.StockQuantity)
}

// DurationMinutes maps a duration bucket to a representative minute count.
// Unknown buckets map to zero.
func DurationMinutes(bucket string) int {
	switch bucket {
	case DurationUnder15:
		return 10
	case Duration15To30:
		return 20
	case Duration30To60:
		return 45
	case DurationOver60:
		return 75
	default:
		return 0
	}
}

// DeviceCount returns the number of devices across all locations.
func (o Owner) DeviceCount() int {
	n := 0
	for _, loc := range o.Locations {
		n += len(loc.DeviceIDs)
	}
	return n
}

// NormalizeDate converts a YYYY-MM-DD or RFC 3339 value to a UTC calendar date.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t.Format(DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format(DateLayout), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// Package domain defines the persistence models for service requests,
// payments, and task confirmations. These types are mapped with GORM and form
// the core data layer of the marketplace escrow application.
package domain

import (
	"time"
)

// RequestStatus enumerates the lifecycle states of a ServiceRequest.
type RequestStatus string

// ServiceRequest lifecycle states.
const (
	RequestPending    RequestStatus = "PENDING"
	RequestPriced     RequestStatus = "PRICED"
	RequestInProgress RequestStatus = "IN_PROGRESS"
	RequestCompleted  RequestStatus = "COMPLETED"
	RequestCancelled  RequestStatus = "CANCELLED"
)

// PaymentStatus enumerates the states of a Payment.
type PaymentStatus string

// Payment states. APPROVED is terminal and reached exactly once, either by
// explicit client confirmation or by timeout-based auto-release.
const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentEscrow   PaymentStatus = "ESCROW"
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentRejected PaymentStatus = "REJECTED"
)

// ServiceRequest represents one unit of work between a client and a provider.
// It is created PENDING by the client, priced by the provider (PRICED), moves
// to IN_PROGRESS when the client accepts the quote, and COMPLETED when the
// provider marks the work done. Price must be set (> 0) before the request
// can become IN_PROGRESS.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - ClientID / ProviderID: principal identifiers; ProviderID is empty until
//     a provider picks up the request.
//   - ServiceTypeID: catalog reference, opaque to this core.
//   - Status: lifecycle state (see RequestStatus constants).
//   - Price: agreed amount; nil until the provider quotes.
type ServiceRequest struct {
	ID            string        `json:"id"              gorm:"type:char(36);primaryKey"`
	ClientID      string        `json:"client_id"       gorm:"type:varchar(64);not null;index:idx_client_requests"`
	ProviderID    string        `json:"provider_id"     gorm:"type:varchar(64);index:idx_provider_requests"`
	ServiceTypeID string        `json:"service_type_id" gorm:"type:varchar(64);not null"`
	Status        RequestStatus `json:"status"          gorm:"type:varchar(16);not null;default:'PENDING';check:status IN ('PENDING','PRICED','IN_PROGRESS','COMPLETED','CANCELLED')"`
	Price         *float64      `json:"price,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TableName returns the database table name for ServiceRequest.
func (ServiceRequest) TableName() string { return "service_requests" }

// Payment is the monetary instrument tied 1:1 to a ServiceRequest. Funds move
// into ESCROW when the request starts and are released to APPROVED exactly
// once, never reversed.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - RequestID: foreign key to the owning request (unique, 1:1).
//   - UserID: paying client; ProviderID: payee.
//   - Amount: escrowed amount.
//   - ExternalReference: payment-gateway correlation key (opaque).
//   - Metadata: opaque key/value pairs stored as JSON.
type Payment struct {
	ID                string            `json:"id"                 gorm:"type:char(36);primaryKey"`
	RequestID         string            `json:"request_id"         gorm:"type:char(36);not null;uniqueIndex:ux_payment_request"`
	UserID            string            `json:"user_id"            gorm:"type:varchar(64);not null;index"`
	ProviderID        string            `json:"provider_id"        gorm:"type:varchar(64);not null;index"`
	Amount            float64           `json:"amount"             gorm:"not null"`
	Status            PaymentStatus     `json:"status"             gorm:"type:varchar(16);not null;default:'PENDING';check:status IN ('PENDING','ESCROW','APPROVED','REJECTED')"`
	ExternalReference string            `json:"external_reference" gorm:"type:varchar(128)"`
	Metadata          map[string]string `json:"metadata,omitempty" gorm:"serializer:json"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	// Request is the parent unit of work.
	Request ServiceRequest `json:"-" gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Payment.
func (Payment) TableName() string { return "payments" }

// TaskConfirmation is the timing/consent record created the instant a
// ServiceRequest becomes COMPLETED (exactly one per request). It is mutated
// exactly once, by either the client-confirmation path or the expiry-sweep
// path, and retained forever as an audit record.
//
// Confirmed and AutoReleased are mutually exclusive; once either is true the
// record is terminal. ExpiresAt is immutable after creation.
type TaskConfirmation struct {
	ID             string     `json:"id"                         gorm:"type:char(36);primaryKey"`
	RequestID      string     `json:"request_id"                 gorm:"type:char(36);not null;uniqueIndex:ux_confirmation_request"`
	ExpiresAt      time.Time  `json:"expires_at"                 gorm:"not null;index"`
	Confirmed      bool       `json:"confirmed"                  gorm:"not null;default:false"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	AutoReleased   bool       `json:"auto_released"              gorm:"not null;default:false"`
	AutoReleasedAt *time.Time `json:"auto_released_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Request is the completed unit of work this confirmation gates.
	Request ServiceRequest `json:"-" gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for TaskConfirmation.
func (TaskConfirmation) TableName() string { return "task_confirmations" }

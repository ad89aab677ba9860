package messaging

import (
	"time"

	"github.com/google/uuid"
)

const (
	ExchangeName = "complaints.events"

	RoutingKeyComplaintCreated    = "complaint.created"
	RoutingKeyComplaintAssigned   = "complaint.assigned"
	RoutingKeyStatusUpdated       = "complaint.status.updated"
	RoutingKeyPasswordResetIssued = "password.reset.requested"
)

// Envelope wraps every published payload.
type Envelope struct {
	ID         string    `json:"id"`
	RoutingKey string    `json:"routing_key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func NewEnvelope(routingKey string, payload any, now time.Time) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		RoutingKey: routingKey,
		OccurredAt: now.UTC(),
		Payload:    payload,
	}
}

type ComplaintCreated struct {
	ComplaintID string `json:"complaint_id"`
	Kind        string `json:"kind"`
	OwnerID     string `json:"owner_id"`
	Station     string `json:"station,omitempty"`
	ProofCount  int    `json:"proof_count"`
}

type ComplaintAssigned struct {
	ComplaintID string `json:"complaint_id"`
	Kind        string `json:"kind"`
	OfficerID   string `json:"officer_id"`
	AssignedBy  string `json:"assigned_by"`
}

type StatusUpdated struct {
	ComplaintID  string `json:"complaint_id"`
	Kind         string `json:"kind"`
	Status       string `json:"status,omitempty"`
	PoliceStatus string `json:"police_status,omitempty"`
	UpdatedBy    string `json:"updated_by"`
}

// PasswordResetRequested carries the raw reset token to the mailer.
type PasswordResetRequested struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

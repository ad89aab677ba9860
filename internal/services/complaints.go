package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harentsoaR/complaint-api/internal/apperrors"
	"github.com/harentsoaR/complaint-api/internal/messaging"
	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/storage"
	"github.com/harentsoaR/complaint-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type ComplaintService struct {
	Complaints ComplaintRepository
	Users      UserRepository
	Images     storage.ImageStore
	Events     messaging.Publisher
	Notifier   Notifier
	Log        *zap.Logger

	now func() time.Time
}

func (s *ComplaintService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// SubmitInput is a new complaint of any kind. Only the detail block that
// matches Kind is kept.
type SubmitInput struct {
	Kind          models.Kind
	Station       string
	Description   string
	IncidentDate  string
	IncidentPlace string
	Incident      *models.IncidentDetails
	Person        *models.PersonDetails
	Property      *models.PropertyDetails
	Device        *models.DeviceDetails
	Files         []Upload
}

// Submit stores the proof images and then the complaint. If either step
// fails every stored image is deleted again.
func (s *ComplaintService) Submit(ctx context.Context, caller Caller, in SubmitInput) (*models.Complaint, error) {
	if !in.Kind.Valid() {
		return nil, apperrors.Validation("unknown complaint kind")
	}
	if !checkImages(in.Files) {
		return nil, apperrors.WrongCredentials("invalid image file!")
	}

	owner, err := s.Users.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, lookupErr(err, "No user found!")
	}

	now := s.clock()
	prefix := fmt.Sprintf("%s/%s", in.Kind.Collection(), caller.ID.Hex())
	objs, err := uploadAll(ctx, s.Images, s.Log, prefix, in.Files, now)
	if err != nil {
		s.Log.Error("proof upload failed",
			zap.String("user_id", caller.ID.Hex()),
			zap.String("kind", string(in.Kind)),
			zap.Error(err))
		return nil, apperrors.ServerError(err)
	}

	c := &models.Complaint{
		Kind:          in.Kind,
		OwnerID:       owner.ID,
		OwnerName:     owner.Name,
		Station:       strings.TrimSpace(in.Station),
		Description:   in.Description,
		IncidentDate:  in.IncidentDate,
		IncidentPlace: in.IncidentPlace,
		ProofImages:   make([]string, 0, len(objs)),
		ProofKeys:     make([]string, 0, len(objs)),
	}
	for _, o := range objs {
		c.ProofImages = append(c.ProofImages, o.URL)
		c.ProofKeys = append(c.ProofKeys, o.Key)
	}
	switch in.Kind {
	case models.KindReport:
		c.Incident = in.Incident
	case models.KindMissing, models.KindUnidentified:
		c.Person = in.Person
	case models.KindMSLF:
		c.Property = in.Property
	case models.KindMobileApp:
		c.Device = in.Device
	}

	if err := s.Complaints.Create(ctx, c); err != nil {
		cleanup(s.Images, s.Log, objs)
		return nil, apperrors.ServerError(err)
	}

	s.Log.Info("complaint submitted",
		zap.String("complaint_id", c.ID.Hex()),
		zap.String("kind", string(c.Kind)),
		zap.Int("proofs", len(objs)))
	s.publish(ctx, messaging.RoutingKeyComplaintCreated, messaging.ComplaintCreated{
		ComplaintID: c.ID.Hex(),
		Kind:        string(c.Kind),
		OwnerID:     c.OwnerID.Hex(),
		Station:     c.Station,
		ProofCount:  len(c.ProofImages),
	})
	s.Notifier.NotifyUser(c.OwnerID, "Complaint registered",
		"Your complaint has been registered and is pending review.",
		map[string]string{"complaintId": c.ID.Hex(), "kind": string(c.Kind)})
	return c, nil
}

// Assign sets the officer working a complaint. The officer must be an
// existing user with the officer role. Status is left unchanged.
func (s *ComplaintService) Assign(ctx context.Context, caller Caller, kind models.Kind, id, officerID primitive.ObjectID) (*models.Complaint, error) {
	officer, err := s.Users.FindByID(ctx, officerID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !officer.Role.IsOfficer()) {
		return nil, apperrors.NotFound("Police officer not found")
	}
	if err != nil {
		return nil, apperrors.ServerError(err)
	}

	c, err := s.Complaints.Assign(ctx, kind, id, officer.ID, caller.ID)
	if err != nil {
		return nil, complaintErr(err)
	}

	s.Log.Info("complaint assigned",
		zap.String("complaint_id", c.ID.Hex()),
		zap.String("kind", string(kind)),
		zap.String("officer_id", officer.ID.Hex()),
		zap.String("assigned_by", caller.ID.Hex()))
	s.publish(ctx, messaging.RoutingKeyComplaintAssigned, messaging.ComplaintAssigned{
		ComplaintID: c.ID.Hex(),
		Kind:        string(kind),
		OfficerID:   officer.ID.Hex(),
		AssignedBy:  caller.ID.Hex(),
	})
	s.Notifier.NotifyUser(officer.ID, "New complaint assigned",
		"A complaint has been assigned to you.",
		map[string]string{"complaintId": c.ID.Hex(), "kind": string(kind)})
	return c, nil
}

// UpdateStatus sets any value of the status enumeration. Transitions are
// not restricted.
func (s *ComplaintService) UpdateStatus(ctx context.Context, caller Caller, kind models.Kind, id primitive.ObjectID, status models.Status) (*models.Complaint, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("Invalid status")
	}
	c, err := s.Complaints.UpdateStatus(ctx, kind, id, status)
	if err != nil {
		return nil, complaintErr(err)
	}

	s.Log.Info("complaint status updated",
		zap.String("complaint_id", c.ID.Hex()),
		zap.String("kind", string(kind)),
		zap.String("status", string(status)))
	s.publish(ctx, messaging.RoutingKeyStatusUpdated, messaging.StatusUpdated{
		ComplaintID: c.ID.Hex(),
		Kind:        string(kind),
		Status:      string(status),
		UpdatedBy:   caller.ID.Hex(),
	})
	s.Notifier.NotifyUser(c.OwnerID, "Complaint status updated",
		"Your complaint is now "+FormatStatus(string(status))+".",
		map[string]string{"complaintId": c.ID.Hex(), "kind": string(kind), "status": string(status)})
	return c, nil
}

// UpdatePoliceStatus records the working status reported by an officer.
func (s *ComplaintService) UpdatePoliceStatus(ctx context.Context, caller Caller, kind models.Kind, id primitive.ObjectID, policeStatus string) (*models.Complaint, error) {
	policeStatus = strings.TrimSpace(policeStatus)
	if policeStatus == "" {
		return nil, apperrors.Validation("policeStatus is required")
	}
	c, err := s.Complaints.UpdatePoliceStatus(ctx, kind, id, policeStatus)
	if err != nil {
		return nil, complaintErr(err)
	}

	s.publish(ctx, messaging.RoutingKeyStatusUpdated, messaging.StatusUpdated{
		ComplaintID:  c.ID.Hex(),
		Kind:         string(kind),
		PoliceStatus: policeStatus,
		UpdatedBy:    caller.ID.Hex(),
	})
	return c, nil
}

// Page selects a slice of a listing. Number starts at 1.
type Page struct {
	Number int
	Size   int
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// List returns current (non-terminal) or history records of kind visible
// to the caller, newest first.
func (s *ComplaintService) List(ctx context.Context, caller Caller, kind models.Kind, history bool, page Page) ([]models.Complaint, error) {
	f, ok := scopeFor(caller)
	if !ok {
		return []models.Complaint{}, nil
	}
	page = page.normalize()
	f.History = history
	f.Skip = int64((page.Number - 1) * page.Size)
	f.Limit = int64(page.Size)

	list, err := s.Complaints.List(ctx, kind, f)
	if err != nil {
		return nil, apperrors.ServerError(err)
	}
	if list == nil {
		list = []models.Complaint{}
	}
	return list, nil
}

// scopeFor maps the caller to the records they may list. A station admin
// without a posting area sees nothing.
func scopeFor(caller Caller) (store.ComplaintFilter, bool) {
	var f store.ComplaintFilter
	switch {
	case caller.Station != "":
		f.Station = caller.Station
	case caller.Role.IsOfficer():
		id := caller.ID
		f.AssignedTo = &id
	case caller.Role.IsCitizen():
		id := caller.ID
		f.OwnerID = &id
	case caller.Role.IsSystemAdmin():
	default:
		return f, false
	}
	return f, true
}

func (s *ComplaintService) publish(ctx context.Context, key string, payload any) {
	if err := s.Events.Publish(ctx, key, payload); err != nil {
		s.Log.Warn("publish event failed", zap.String("routing_key", key), zap.Error(err))
	}
}

func complaintErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("Complaint not found")
	}
	return apperrors.ServerError(err)
}

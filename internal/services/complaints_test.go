package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/harentsoaR/complaint-api/internal/messaging"
	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/services/servicetest"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type complaintFixture struct {
	svc        *ComplaintService
	users      *servicetest.Users
	complaints *servicetest.Complaints
	images     *servicetest.Images
	events     *servicetest.Publisher
	notifier   *servicetest.Notifier

	citizen *models.User
	officer *models.User
	admin   *models.User
}

func newComplaintFixture() *complaintFixture {
	citizen := &models.User{ID: primitive.NewObjectID(), Name: "Ann Lee", Email: "ann@x.com", Role: models.RoleCitizen,
		UserDetails: &models.UserDetails{AdhaarCard: "1234"}}
	officer := &models.User{ID: primitive.NewObjectID(), Name: "Officer Raj", Email: "raj@x.com", Role: models.RoleOfficer,
		UserDetails: &models.UserDetails{PostingAreaAddress: "Central"}}
	admin := &models.User{ID: primitive.NewObjectID(), Name: "Station Head", Email: "head@x.com", Role: models.RoleStationAdmin,
		UserDetails: &models.UserDetails{PostingAreaAddress: "Central"}}

	f := &complaintFixture{
		users:      servicetest.NewUsers(citizen, officer, admin),
		complaints: servicetest.NewComplaints(),
		images:     servicetest.NewImages(),
		events:     &servicetest.Publisher{},
		notifier:   &servicetest.Notifier{},
		citizen:    citizen,
		officer:    officer,
		admin:      admin,
	}
	f.svc = &ComplaintService{
		Complaints: f.complaints,
		Users:      f.users,
		Images:     f.images,
		Events:     f.events,
		Notifier:   f.notifier,
		Log:        zap.NewNop(),
	}
	return f
}

func (f *complaintFixture) caller(u *models.User) Caller {
	c := Caller{ID: u.ID, Role: u.Role}
	if u.Role.IsStationAdmin() {
		c.Station = u.Station()
	}
	return c
}

func (f *complaintFixture) submit(t *testing.T, kind models.Kind) *models.Complaint {
	t.Helper()
	c, err := f.svc.Submit(context.Background(), f.caller(f.citizen), SubmitInput{
		Kind:    kind,
		Station: "Central",
		Person:  &models.PersonDetails{Name: "Ravi"},
		Files:   []Upload{imageUpload("a.png", "A")},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return c
}

func TestSubmit_StoresProofsAndPublishes(t *testing.T) {
	f := newComplaintFixture()
	c, err := f.svc.Submit(context.Background(), f.caller(f.citizen), SubmitInput{
		Kind:        models.KindReport,
		Station:     " Central ",
		Description: "bike stolen",
		Incident:    &models.IncidentDetails{Category: "theft"},
		Person:      &models.PersonDetails{Name: "ignored"},
		Files:       []Upload{imageUpload("a.png", "A"), imageUpload("b.jpg", "B")},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if c.OwnerID != f.citizen.ID || c.OwnerName != "Ann Lee" || c.Station != "Central" {
		t.Errorf("unexpected owner fields: %+v", c)
	}
	if c.Status != models.StatusPending {
		t.Errorf("status = %q", c.Status)
	}
	if len(c.ProofImages) != 2 || len(c.ProofKeys) != 2 || f.images.Stored() != 2 {
		t.Fatalf("proofs = %v keys = %v stored = %d", c.ProofImages, c.ProofKeys, f.images.Stored())
	}
	if c.Incident == nil || c.Person != nil {
		t.Errorf("detail block not selected by kind: %+v", c)
	}
	if keys := f.events.Keys(); len(keys) != 1 || keys[0] != messaging.RoutingKeyComplaintCreated {
		t.Errorf("events = %v", keys)
	}
	if f.notifier.Count() != 1 {
		t.Errorf("notifications = %d, want 1", f.notifier.Count())
	}
}

func TestSubmit_RejectsNonImage(t *testing.T) {
	f := newComplaintFixture()
	_, err := f.svc.Submit(context.Background(), f.caller(f.citizen), SubmitInput{
		Kind:  models.KindMSLF,
		Files: []Upload{imageUpload("a.png", "A"), textUpload("notes.txt", "text/plain", "x")},
	})
	appErr := wantStatus(t, err, http.StatusUnauthorized)
	if appErr.Message != "invalid image file!" {
		t.Errorf("message = %q", appErr.Message)
	}
	if f.images.Puts() != 0 {
		t.Error("files uploaded before validation")
	}
}

func TestSubmit_PartialUploadIsCleanedUp(t *testing.T) {
	f := newComplaintFixture()
	f.images.FailAt = 2
	_, err := f.svc.Submit(context.Background(), f.caller(f.citizen), SubmitInput{
		Kind:  models.KindMissing,
		Files: []Upload{imageUpload("a.png", "A"), imageUpload("b.png", "B"), imageUpload("c.png", "C")},
	})
	wantStatus(t, err, http.StatusInternalServerError)
	if f.images.Stored() != 0 {
		t.Errorf("%d objects left behind", f.images.Stored())
	}
	if len(f.images.Deleted()) != 2 {
		t.Errorf("deleted = %v, want 2 keys", f.images.Deleted())
	}
	if f.complaints.Len() != 0 {
		t.Error("complaint persisted after failed upload")
	}
}

func TestSubmit_PersistFailureCleansUp(t *testing.T) {
	f := newComplaintFixture()
	f.complaints.CreateErr = errors.New("insert failed")
	_, err := f.svc.Submit(context.Background(), f.caller(f.citizen), SubmitInput{
		Kind:  models.KindUnidentified,
		Files: []Upload{imageUpload("a.png", "A")},
	})
	wantStatus(t, err, http.StatusInternalServerError)
	if f.images.Stored() != 0 {
		t.Errorf("%d objects left behind", f.images.Stored())
	}
	if f.notifier.Count() != 0 || len(f.events.Keys()) != 0 {
		t.Error("side effects fired for failed submission")
	}
}

func TestSubmit_OpenFailureCleansUp(t *testing.T) {
	f := newComplaintFixture()
	broken := Upload{Filename: "b.png", ContentType: "image/png", Open: func() (io.ReadCloser, error) {
		return nil, errors.New("temp file gone")
	}}
	_, err := f.svc.Submit(context.Background(), f.caller(f.citizen), SubmitInput{
		Kind:  models.KindMobileApp,
		Files: []Upload{imageUpload("a.png", "A"), broken},
	})
	wantStatus(t, err, http.StatusInternalServerError)
	if f.images.Stored() != 0 {
		t.Errorf("%d objects left behind", f.images.Stored())
	}
}

func TestSubmit_WithoutFiles(t *testing.T) {
	f := newComplaintFixture()
	c, err := f.svc.Submit(context.Background(), f.caller(f.citizen), SubmitInput{
		Kind:   models.KindMobileApp,
		Device: &models.DeviceDetails{Brand: "Acme", IMEI1: "1111"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if c.ProofImages == nil || len(c.ProofImages) != 0 {
		t.Errorf("ProofImages = %#v, want empty slice", c.ProofImages)
	}
	if c.Device == nil || c.Device.IMEI1 != "1111" {
		t.Errorf("device = %+v", c.Device)
	}
}

func TestAssign(t *testing.T) {
	f := newComplaintFixture()
	c := f.submit(t, models.KindReport)
	ctx := context.Background()

	got, err := f.svc.Assign(ctx, f.caller(f.admin), models.KindReport, c.ID, f.officer.ID)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if got.AssignedTo == nil || *got.AssignedTo != f.officer.ID || *got.AssignedBy != f.admin.ID {
		t.Fatalf("assignment fields: %+v", got)
	}
	if got.Status != models.StatusPending {
		t.Errorf("assignment changed status to %q", got.Status)
	}

	_, err = f.svc.Assign(ctx, f.caller(f.admin), models.KindReport, c.ID, f.citizen.ID)
	appErr := wantStatus(t, err, http.StatusNotFound)
	if appErr.Message != "Police officer not found" {
		t.Errorf("message = %q", appErr.Message)
	}
	_, err = f.svc.Assign(ctx, f.caller(f.admin), models.KindReport, c.ID, primitive.NewObjectID())
	wantStatus(t, err, http.StatusNotFound)

	_, err = f.svc.Assign(ctx, f.caller(f.admin), models.KindMissing, c.ID, f.officer.ID)
	appErr = wantStatus(t, err, http.StatusNotFound)
	if appErr.Message != "Complaint not found" {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestAssign_ByOfficerCaller(t *testing.T) {
	f := newComplaintFixture()
	c := f.submit(t, models.KindReport)
	if _, err := f.svc.Assign(context.Background(), f.caller(f.officer), models.KindReport, c.ID, f.officer.ID); err != nil {
		t.Fatalf("Assign by officer failed: %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newComplaintFixture()
	c := f.submit(t, models.KindMissing)
	ctx := context.Background()
	before := f.notifier.Count()

	got, err := f.svc.UpdateStatus(ctx, f.caller(f.officer), models.KindMissing, c.ID, models.StatusResolved)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if got.Status != models.StatusResolved {
		t.Errorf("status = %q", got.Status)
	}
	if f.notifier.Count() != before+1 {
		t.Error("owner not notified")
	}

	// any transition is allowed
	if _, err := f.svc.UpdateStatus(ctx, f.caller(f.officer), models.KindMissing, c.ID, models.StatusPending); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	_, err = f.svc.UpdateStatus(ctx, f.caller(f.officer), models.KindMissing, c.ID, "lost")
	wantStatus(t, err, http.StatusUnprocessableEntity)
}

func TestUpdatePoliceStatus(t *testing.T) {
	f := newComplaintFixture()
	c := f.submit(t, models.KindMSLF)
	ctx := context.Background()

	got, err := f.svc.UpdatePoliceStatus(ctx, f.caller(f.officer), models.KindMSLF, c.ID, "visited site")
	if err != nil {
		t.Fatalf("UpdatePoliceStatus failed: %v", err)
	}
	if got.PoliceStatus != "visited site" {
		t.Errorf("policeStatus = %q", got.PoliceStatus)
	}
	_, err = f.svc.UpdatePoliceStatus(ctx, f.caller(f.officer), models.KindMSLF, c.ID, "  ")
	wantStatus(t, err, http.StatusUnprocessableEntity)
}

func TestList_ScopesByCaller(t *testing.T) {
	f := newComplaintFixture()
	ctx := context.Background()
	c := f.submit(t, models.KindReport)
	f.submit(t, models.KindReport)
	if _, err := f.svc.Assign(ctx, f.caller(f.admin), models.KindReport, c.ID, f.officer.ID); err != nil {
		t.Fatal(err)
	}

	sysAdmin := Caller{ID: primitive.NewObjectID(), Role: models.RoleSystemAdmin}
	noStation := Caller{ID: primitive.NewObjectID(), Role: models.RoleStationAdmin}
	tests := []struct {
		name   string
		caller Caller
		want   int
	}{
		{"station admin", f.caller(f.admin), 2},
		{"officer", f.caller(f.officer), 1},
		{"citizen", f.caller(f.citizen), 2},
		{"other citizen", Caller{ID: primitive.NewObjectID(), Role: models.RoleCitizen}, 0},
		{"system admin", sysAdmin, 2},
		{"station admin without station", noStation, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := f.svc.List(ctx, tt.caller, models.KindReport, false, Page{})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("got %d records, want %d", len(list), tt.want)
			}
			if list == nil {
				t.Error("nil list")
			}
		})
	}
}

func TestList_HistoryAndPaging(t *testing.T) {
	f := newComplaintFixture()
	ctx := context.Background()
	c := f.submit(t, models.KindMissing)
	f.submit(t, models.KindMissing)
	if _, err := f.svc.UpdateStatus(ctx, f.caller(f.admin), models.KindMissing, c.ID, models.StatusClosed); err != nil {
		t.Fatal(err)
	}

	current, _ := f.svc.List(ctx, f.caller(f.admin), models.KindMissing, false, Page{})
	history, _ := f.svc.List(ctx, f.caller(f.admin), models.KindMissing, true, Page{})
	if len(current) != 1 || len(history) != 1 || history[0].ID != c.ID {
		t.Fatalf("current=%d history=%d", len(current), len(history))
	}

	f.svc.List(ctx, f.caller(f.admin), models.KindMissing, false, Page{Number: 3, Size: 500})
	if f.complaints.LastList.Limit != MaxPageSize || f.complaints.LastList.Skip != 2*MaxPageSize {
		t.Errorf("paging = skip %d limit %d", f.complaints.LastList.Skip, f.complaints.LastList.Limit)
	}
	f.svc.List(ctx, f.caller(f.admin), models.KindMissing, false, Page{Number: -1})
	if f.complaints.LastList.Limit != DefaultPageSize || f.complaints.LastList.Skip != 0 {
		t.Errorf("default paging = skip %d limit %d", f.complaints.LastList.Skip, f.complaints.LastList.Limit)
	}
}

package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/services/servicetest"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newUserFixture(users ...*models.User) (*UserService, *servicetest.Users, *servicetest.Admins, *servicetest.Images, *servicetest.Notifier) {
	fu, fa, fi, fn := servicetest.NewUsers(users...), servicetest.NewAdmins(), servicetest.NewImages(), &servicetest.Notifier{}
	return &UserService{Users: fu, Admins: fa, Images: fi, Notifier: fn, Log: zap.NewNop()}, fu, fa, fi, fn
}

func TestMe(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Name: "Ann", Role: models.RoleCitizen}
	svc, _, admins, _, _ := newUserFixture(u)
	admin := &models.Admin{ID: primitive.NewObjectID(), Name: "Root"}
	admins.Create(context.Background(), admin)
	ctx := context.Background()

	p, err := svc.Me(ctx, Caller{ID: u.ID, Role: models.RoleCitizen})
	if err != nil || p.User == nil || p.User.ID != u.ID {
		t.Fatalf("Me(user) = %+v, %v", p, err)
	}
	p, err = svc.Me(ctx, Caller{ID: admin.ID, Role: models.RoleSystemAdmin})
	if err != nil || p.Admin == nil || p.Admin.ID != admin.ID {
		t.Fatalf("Me(admin) = %+v, %v", p, err)
	}
	_, err = svc.Me(ctx, Caller{ID: primitive.NewObjectID(), Role: models.RoleCitizen})
	wantStatus(t, err, http.StatusNotFound)
}

func TestPoliceListings(t *testing.T) {
	central := &models.User{ID: primitive.NewObjectID(), Role: models.RoleOfficer, UserDetails: &models.UserDetails{PostingAreaAddress: "Central"}}
	north := &models.User{ID: primitive.NewObjectID(), Role: models.RoleOfficer, UserDetails: &models.UserDetails{PostingAreaAddress: "North"}}
	citizen := &models.User{ID: primitive.NewObjectID(), Role: models.RoleCitizen}
	svc, _, _, _, _ := newUserFixture(central, north, citizen)
	ctx := context.Background()

	all, err := svc.AllPolice(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("AllPolice = %d, %v", len(all), err)
	}
	everyone, _ := svc.AllUsers(ctx)
	if len(everyone) != 3 {
		t.Errorf("AllUsers = %d", len(everyone))
	}

	tests := []struct {
		name   string
		caller Caller
		want   int
	}{
		{"station", Caller{Role: models.RoleStationAdmin, Station: "Central"}, 1},
		{"system admin", Caller{Role: models.RoleSystemAdmin}, 2},
		{"no station", Caller{Role: models.RoleStationAdmin}, 0},
		{"citizen", Caller{Role: models.RoleCitizen}, 0},
	}
	for _, tt := range tests {
		got, err := svc.StationPolice(ctx, tt.caller)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if len(got) != tt.want {
			t.Errorf("%s: got %d officers, want %d", tt.name, len(got), tt.want)
		}
	}
}

func TestUpdateDetails(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleCitizen}
	svc, _, _, _, _ := newUserFixture(u)
	ctx := context.Background()
	caller := Caller{ID: u.ID, Role: u.Role}

	got, err := svc.UpdateCitizenDetails(ctx, caller, CitizenDetails{PanCard: " ABCDE1234F ", Phone: "99"})
	if err != nil {
		t.Fatalf("UpdateCitizenDetails failed: %v", err)
	}
	if !got.IdentityVerified() || got.UserDetails.PanCard != "ABCDE1234F" {
		t.Errorf("details = %+v", got.UserDetails)
	}

	got, err = svc.UpdatePoliceDetails(ctx, caller, PoliceDetails{PostingAreaAddress: "Central", Rank: "SI"})
	if err != nil {
		t.Fatalf("UpdatePoliceDetails failed: %v", err)
	}
	if got.Station() != "Central" || got.UserDetails.PanCard != "ABCDE1234F" {
		t.Errorf("partial update lost fields: %+v", got.UserDetails)
	}

	_, err = svc.UpdateCitizenDetails(ctx, Caller{ID: primitive.NewObjectID()}, CitizenDetails{Phone: "1"})
	wantStatus(t, err, http.StatusNotFound)
}

func TestAddExpoToken(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleCitizen}
	svc, users, _, _, _ := newUserFixture(u)
	ctx := context.Background()
	caller := Caller{ID: u.ID}

	for i := 0; i < 2; i++ {
		if err := svc.AddExpoToken(ctx, caller, "ExponentPushToken[x]"); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := users.FindByID(ctx, u.ID)
	if len(got.ExpoTokens) != 1 {
		t.Errorf("tokens = %v", got.ExpoTokens)
	}
	wantStatus(t, svc.AddExpoToken(ctx, caller, " "), http.StatusUnprocessableEntity)
}

func TestUploadProfileAndVerification(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleCitizen}
	svc, users, _, images, _ := newUserFixture(u)
	ctx := context.Background()
	caller := Caller{ID: u.ID}

	url, err := svc.UploadProfile(ctx, caller, imageUpload("me.png", "img"))
	if err != nil {
		t.Fatalf("UploadProfile failed: %v", err)
	}
	vurl, err := svc.UploadVerification(ctx, caller, imageUpload("id.jpg", "img"))
	if err != nil {
		t.Fatalf("UploadVerification failed: %v", err)
	}
	got, _ := users.FindByID(ctx, u.ID)
	if got.ProfileImage != url || got.VerificationPaper != vurl {
		t.Errorf("urls not saved: %+v", got)
	}

	_, err = svc.UploadProfile(ctx, caller, textUpload("x.pdf", "application/pdf", "x"))
	wantStatus(t, err, http.StatusUnauthorized)

	_, err = svc.UploadProfile(ctx, Caller{ID: primitive.NewObjectID()}, imageUpload("me.png", "img"))
	wantStatus(t, err, http.StatusNotFound)
	if images.Stored() != 2 {
		t.Errorf("orphan object kept: %d stored", images.Stored())
	}
}

func TestSetActiveAndSendNotification(t *testing.T) {
	officer := &models.User{ID: primitive.NewObjectID(), Role: models.RoleOfficer}
	svc, _, _, _, notifier := newUserFixture(officer)
	ctx := context.Background()

	got, err := svc.SetActive(ctx, officer.ID, true)
	if err != nil || !got.Active {
		t.Fatalf("SetActive = %+v, %v", got, err)
	}
	if notifier.Count() != 1 {
		t.Errorf("activation not notified")
	}
	_, err = svc.SetActive(ctx, primitive.NewObjectID(), true)
	wantStatus(t, err, http.StatusNotFound)

	if err := svc.SendNotification(ctx, officer.ID, "hi", "there"); err != nil {
		t.Fatal(err)
	}
	if notifier.Count() != 2 {
		t.Errorf("notifications = %d", notifier.Count())
	}
	wantStatus(t, svc.SendNotification(ctx, primitive.NewObjectID(), "hi", "x"), http.StatusNotFound)
}

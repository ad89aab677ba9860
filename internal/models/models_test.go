package models

import "testing"

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleCitizen, true},
		{RoleStationAdmin, true},
		{RoleOfficer, true},
		{RoleSystemAdmin, false},
		{0, false},
		{3001, false},
	}
	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%d).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestRoleDefaultActive(t *testing.T) {
	if !RoleCitizen.DefaultActive() {
		t.Error("citizens should be created active")
	}
	if RoleStationAdmin.DefaultActive() || RoleOfficer.DefaultActive() {
		t.Error("police accounts should be created inactive")
	}
}

func TestIdentityVerified(t *testing.T) {
	tests := []struct {
		name    string
		details *UserDetails
		want    bool
	}{
		{"no details", nil, false},
		{"empty details", &UserDetails{Phone: "123"}, false},
		{"adhaar only", &UserDetails{AdhaarCard: "1234-5678"}, true},
		{"pan only", &UserDetails{PanCard: "ABCDE1234F"}, true},
		{"both", &UserDetails{AdhaarCard: "1", PanCard: "2"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{UserDetails: tt.details}
			if got := u.IdentityVerified(); got != tt.want {
				t.Errorf("IdentityVerified() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindCollections(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds {
		if !k.Valid() {
			t.Fatalf("kind %q should be valid", k)
		}
		c := k.Collection()
		if c == "" || seen[c] {
			t.Fatalf("kind %q has empty or shared collection %q", k, c)
		}
		seen[c] = true
	}
	if Kind("parking").Valid() {
		t.Error("unknown kind reported valid")
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusAssigned.Terminal() || StatusInProgress.Terminal() {
		t.Error("open statuses reported terminal")
	}
	for _, s := range TerminalStatuses {
		if !s.Terminal() || !s.Valid() {
			t.Errorf("status %q should be valid and terminal", s)
		}
	}
	if Status("archived").Valid() {
		t.Error("unknown status reported valid")
	}
}

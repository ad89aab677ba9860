// Package servicetest provides in-memory implementations of the service
// repositories and collaborators for tests.
package servicetest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Users struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]*models.User
	FailErr error
}

func NewUsers(users ...*models.User) *Users {
	f := &Users{byID: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *Users) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Users) Create(_ context.Context, u *models.User) error {
	if f.FailErr != nil {
		return f.FailErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.byID {
		if strings.EqualFold(other.Email, u.Email) {
			return store.ErrDuplicateEmail
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	f.byID[u.ID] = u
	return nil
}

func (f *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *Users) List(_ context.Context, flt store.UserFilter) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.byID {
		if flt.Role != 0 && u.Role != flt.Role {
			continue
		}
		if flt.Station != "" && u.Station() != flt.Station {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f *Users) withUser(id primitive.ObjectID, fn func(u *models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(u)
	return nil
}

func (f *Users) UpdateDetails(_ context.Context, id primitive.ObjectID, d models.UserDetails) error {
	return f.withUser(id, func(u *models.User) {
		if u.UserDetails == nil {
			u.UserDetails = &models.UserDetails{}
		}
		set := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		set(&u.UserDetails.AdhaarCard, d.AdhaarCard)
		set(&u.UserDetails.PanCard, d.PanCard)
		set(&u.UserDetails.Phone, d.Phone)
		set(&u.UserDetails.PostingAreaAddress, d.PostingAreaAddress)
		set(&u.UserDetails.BadgeNumber, d.BadgeNumber)
		set(&u.UserDetails.Rank, d.Rank)
	})
}

func (f *Users) SetProfileImage(_ context.Context, id primitive.ObjectID, url string) error {
	return f.withUser(id, func(u *models.User) { u.ProfileImage = url })
}

func (f *Users) SetVerificationPaper(_ context.Context, id primitive.ObjectID, url string) error {
	return f.withUser(id, func(u *models.User) { u.VerificationPaper = url })
}

func (f *Users) AddExpoToken(_ context.Context, id primitive.ObjectID, token string) error {
	return f.withUser(id, func(u *models.User) {
		for _, t := range u.ExpoTokens {
			if t == token {
				return
			}
		}
		u.ExpoTokens = append(u.ExpoTokens, token)
	})
}

func (f *Users) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	return f.withUser(id, func(u *models.User) { u.Active = active })
}

func (f *Users) SetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	return f.withUser(id, func(u *models.User) { u.Password = hash })
}

type Admins struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Admin
}

func NewAdmins() *Admins {
	return &Admins{byID: map[primitive.ObjectID]*models.Admin{}}
}

func (f *Admins) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Admins) Create(_ context.Context, a *models.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	f.byID[a.ID] = a
	return nil
}

func (f *Admins) FindByEmail(_ context.Context, email string) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Admins) FindByID(_ context.Context, id primitive.ObjectID) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

type Tokens struct {
	mu      sync.Mutex
	entries map[string]*models.RefreshToken
	SaveErr error
}

func NewTokens() *Tokens {
	return &Tokens{entries: map[string]*models.RefreshToken{}}
}

func (f *Tokens) Save(_ context.Context, t *models.RefreshToken) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.entries[t.Token]; dup {
		return errors.New("duplicate token")
	}
	f.entries[t.Token] = t
	return nil
}

func (f *Tokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.entries[token]; ok {
		return t, nil
	}
	return nil, store.ErrNotFound
}

func (f *Tokens) Delete(_ context.Context, userID primitive.ObjectID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.entries[token]
	if !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	delete(f.entries, token)
	return nil
}

func (f *Tokens) DeleteAllForUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, t := range f.entries {
		if t.UserID == userID {
			delete(f.entries, k)
			n++
		}
	}
	return n, nil
}

func (f *Tokens) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type Resets struct {
	mu     sync.Mutex
	byHash map[string]*models.PasswordReset
}

func NewResets() *Resets {
	return &Resets{byHash: map[string]*models.PasswordReset{}}
}

func (f *Resets) Create(_ context.Context, r *models.PasswordReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[r.TokenHash] = r
	return nil
}

func (f *Resets) Consume(_ context.Context, hash string, now time.Time) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byHash[hash]
	if !ok || r.Used || !r.ExpiresAt.After(now) {
		return nil, store.ErrNotFound
	}
	r.Used = true
	return r, nil
}

// Tx runs fn directly and counts invocations.
type Tx struct {
	Calls int
}

func (t *Tx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

type Complaints struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]*models.Complaint
	CreateErr error
	LastList  store.ComplaintFilter
}

func NewComplaints() *Complaints {
	return &Complaints{byID: map[primitive.ObjectID]*models.Complaint{}}
}

func (f *Complaints) Create(_ context.Context, c *models.Complaint) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	f.byID[c.ID] = c
	return nil
}

func (f *Complaints) List(_ context.Context, kind models.Kind, flt store.ComplaintFilter) ([]models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastList = flt
	var out []models.Complaint
	for _, c := range f.byID {
		if c.Kind != kind || c.Status.Terminal() != flt.History {
			continue
		}
		if flt.Station != "" && c.Station != flt.Station {
			continue
		}
		if flt.OwnerID != nil && c.OwnerID != *flt.OwnerID {
			continue
		}
		if flt.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *flt.AssignedTo) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *Complaints) mutate(kind models.Kind, id primitive.ObjectID, fn func(c *models.Complaint)) (*models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok || c.Kind != kind {
		return nil, store.ErrNotFound
	}
	fn(c)
	cp := *c
	return &cp, nil
}

func (f *Complaints) Assign(_ context.Context, kind models.Kind, id, officerID, by primitive.ObjectID) (*models.Complaint, error) {
	return f.mutate(kind, id, func(c *models.Complaint) {
		now := time.Now()
		c.AssignedTo, c.AssignedBy, c.AssignedAt = &officerID, &by, &now
	})
}

func (f *Complaints) UpdateStatus(_ context.Context, kind models.Kind, id primitive.ObjectID, status models.Status) (*models.Complaint, error) {
	return f.mutate(kind, id, func(c *models.Complaint) { c.Status = status })
}

func (f *Complaints) UpdatePoliceStatus(_ context.Context, kind models.Kind, id primitive.ObjectID, status string) (*models.Complaint, error) {
	return f.mutate(kind, id, func(c *models.Complaint) { c.PoliceStatus = status })
}

type Images struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
	FailAt  int
	puts    int
}

func NewImages() *Images {
	return &Images{objects: map[string]string{}, FailAt: -1}
}

func (f *Images) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.puts == f.FailAt {
		f.puts++
		return "", errors.New("upload failed")
	}
	f.puts++
	b, _ := io.ReadAll(r)
	f.objects[key] = string(b)
	return "https://img.test/" + key, nil
}

func (f *Images) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *Images) Stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type Published struct {
	Key     string
	Payload any
}

type Publisher struct {
	mu     sync.Mutex
	events []Published
}

func (p *Publisher) Publish(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{key, payload})
	return nil
}

func (p *Publisher) Close() {}

func (p *Publisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Key)
	}
	return out
}

type Notification struct {
	UserID primitive.ObjectID
	Title  string
}

type Notifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *Notifier) NotifyUser(userID primitive.ObjectID, title, _ string, _ map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{UserID: userID, Title: title})
}

func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}


// Len returns the number of stored complaints.
func (f *Complaints) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// Puts returns how many uploads were attempted.
func (f *Images) Puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

// Deleted returns the keys passed to Delete.
func (f *Images) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// Events returns the published events in order.
func (p *Publisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.events...)
}

// Sent returns the delivered notifications in order.
func (n *Notifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

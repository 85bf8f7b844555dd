package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/sse"
	"github.com/GTDGit/market_admin/internal/utils"
	"github.com/GTDGit/market_admin/pkg/geocode"
	"github.com/GTDGit/market_admin/pkg/marketplace"
)

type memAdmins struct {
	users   map[string]*models.AdminUser
	touched []int
}

func (m *memAdmins) GetByEmail(email string) (*models.AdminUser, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memAdmins) Create(u *models.AdminUser) error {
	if m.users == nil {
		m.users = map[string]*models.AdminUser{}
	}
	u.ID = len(m.users) + 1
	m.users[u.Email] = u
	return nil
}

func (m *memAdmins) TouchLastLogin(id int) error {
	m.touched = append(m.touched, id)
	return nil
}

type memTokens map[int]string

func (m memTokens) SetToken(_ context.Context, adminID int, token string) error {
	m[adminID] = token
	return nil
}

func (m memTokens) ClearToken(_ context.Context, adminID int) error {
	delete(m, adminID)
	return nil
}

func TestAdminAuthService_Login(t *testing.T) {
	admins := &memAdmins{}
	svc := NewAdminAuthService(admins, memTokens{}, "secret", time.Hour)

	if err := svc.EnsureBootstrapAdmin("ops@example.com", "hunter22", "Ops"); err != nil {
		t.Fatalf("EnsureBootstrapAdmin: %v", err)
	}
	if err := svc.EnsureBootstrapAdmin("ops@example.com", "other", "Ops"); err != nil {
		t.Fatalf("second EnsureBootstrapAdmin: %v", err)
	}
	if len(admins.users) != 1 {
		t.Fatalf("bootstrap created %d admins", len(admins.users))
	}

	res, err := svc.Login(" ops@example.com ", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := utils.ValidateJWT("secret", res.Token)
	if err != nil || claims.AdminID != res.User.ID {
		t.Errorf("token claims = %+v, err = %v", claims, err)
	}
	if len(admins.touched) != 1 {
		t.Error("last login not recorded")
	}

	if _, err := svc.Login("ops@example.com", "wrong"); !errors.Is(err, utils.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := svc.Login("nobody@example.com", "hunter22"); !errors.Is(err, utils.ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v", err)
	}

	admins.users["ops@example.com"].IsActive = false
	if _, err := svc.Login("ops@example.com", "hunter22"); !errors.Is(err, utils.ErrAccountDisabled) {
		t.Errorf("inactive: err = %v", err)
	}
}

func TestAdminAuthService_CreateAdminHashesPassword(t *testing.T) {
	svc := NewAdminAuthService(&memAdmins{}, memTokens{}, "secret", time.Hour)
	u, err := svc.CreateAdmin("a@b.c", "pw123456", "A")
	if err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash == "pw123456" {
		t.Fatal("password stored in clear")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw123456")) != nil {
		t.Error("hash does not match password")
	}
}

func TestAdminAuthService_MarketplaceToken(t *testing.T) {
	tokens := memTokens{}
	svc := NewAdminAuthService(&memAdmins{}, tokens, "secret", time.Hour)

	if err := svc.SetMarketplaceToken(context.Background(), 3, "Bearer abc"); err != nil {
		t.Fatal(err)
	}
	if tokens[3] != "abc" {
		t.Errorf("token = %q", tokens[3])
	}
	if err := svc.SetMarketplaceToken(context.Background(), 3, "  "); !errors.Is(err, utils.ErrInvalidRequest) {
		t.Errorf("blank token: err = %v", err)
	}
	svc.ClearMarketplaceToken(context.Background(), 3)
	if _, ok := tokens[3]; ok {
		t.Error("token not cleared")
	}
}

type memAudit struct {
	entries []models.AuditEntry
}

func (m *memAudit) Create(e *models.AuditEntry) error {
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memAudit) GetAllPaged(string, int, int, int) ([]models.AuditEntry, int, error) {
	return m.entries, len(m.entries), nil
}

func (m *memAudit) DeleteOlderThan(time.Time) (int64, error) { return 0, nil }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sse.Notification
}

func (r *recordingNotifier) Notify(n sse.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func TestAuditService_Record(t *testing.T) {
	store := &memAudit{}
	notes := &recordingNotifier{}
	svc := NewAuditService(store, notes)

	svc.Record(Activity{AdminID: 1, Entity: EntityCategory, Action: "create", Message: "Category created successfully"}, nil)
	svc.Record(Activity{AdminID: 1, Entity: EntityCategory, Action: "update", EntityID: "c1", Message: "Category updated successfully"},
		&RequestError{Message: "Update failed"})

	if len(store.entries) != 2 {
		t.Fatalf("entries = %d", len(store.entries))
	}
	if store.entries[0].Outcome != models.AuditSuccess || store.entries[1].Outcome != models.AuditFailed {
		t.Errorf("outcomes = %s, %s", store.entries[0].Outcome, store.entries[1].Outcome)
	}
	if store.entries[1].Message != "Update failed" {
		t.Errorf("failure message = %q", store.entries[1].Message)
	}
	if len(notes.sent) != 2 || notes.sent[0].Level != sse.LevelSuccess || notes.sent[1].Level != sse.LevelError {
		t.Errorf("notifications = %+v", notes.sent)
	}
}

type fakeGeocoder struct {
	place *geocode.Place
	err   error
}

func (f fakeGeocoder) Reverse(context.Context, float64, float64) (*geocode.Place, error) {
	return f.place, f.err
}

// addressUpstream serves /userAddress and keeps what was posted.
type addressUpstream struct {
	mu      sync.Mutex
	saved   []models.Address
	failAdd bool
}

func (u *addressUpstream) client(t *testing.T) *marketplace.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			if u.failAdd {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"success":false}`))
				return
			}
			var a models.Address
			json.NewDecoder(r.Body).Decode(&a)
			a.ID = "addr-" + string(rune('1'+len(u.saved)))
			u.saved = append(u.saved, a)
			json.NewEncoder(w).Encode(map[string]any{"success": true, "data": a})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": u.saved})
	}))
	t.Cleanup(srv.Close)
	return marketplace.NewClient(marketplace.Config{BaseURL: srv.URL})
}

func TestLocationService_AddFromPlace(t *testing.T) {
	up := &addressUpstream{}
	svc := NewLocationService(up.client(t), nil, NewAuditService(nil, nil))
	ctx := context.Background()

	place := geocode.Place{
		FormattedAddress: "Jl. Sudirman 1, Jakarta",
		AddressComponents: []geocode.Component{
			{LongName: "Jakarta", Types: []string{"locality", "political"}},
		},
		Geometry: &geocode.Geometry{Location: geocode.LatLng{Lat: -6.2, Lng: 106.8}},
	}
	list, err := svc.AddFromPlace(ctx, 1, place)
	if err != nil {
		t.Fatalf("AddFromPlace: %v", err)
	}
	if len(list) != 1 || !list[0].IsDefault || list[0].Locality != "Jakarta" {
		t.Errorf("list = %+v", list)
	}

	list, err = svc.AddFromPlace(ctx, 1, place)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[1].IsDefault {
		t.Error("only the first address is the default")
	}

	_, err = svc.AddFromPlace(ctx, 1, geocode.Place{FormattedAddress: "typed text"})
	var inputErr *InputError
	if !errors.As(err, &inputErr) || inputErr.Message != geocode.MsgSelectFromDropdown {
		t.Errorf("place without geometry: err = %v", err)
	}
}

func TestLocationService_AddFromCurrentLocation(t *testing.T) {
	lat, lng := -6.2, 106.8
	badLat := 120.0

	tests := []struct {
		name     string
		geocoder Geocoder
		loc      CurrentLocation
		failAdd  bool
		wantErr  error
		wantMsg  string
	}{
		{
			name:    "permission denied",
			loc:     CurrentLocation{ErrorCode: GeoPermissionDenied},
			wantErr: utils.ErrLocationUnavailable,
			wantMsg: "Please allow location access to use this feature",
		},
		{
			name:    "out of range",
			loc:     CurrentLocation{Latitude: &badLat, Longitude: &lng},
			wantErr: utils.ErrInvalidRequest,
		},
		{
			name:     "no results",
			geocoder: fakeGeocoder{err: geocode.ErrNoResults},
			loc:      CurrentLocation{Latitude: &lat, Longitude: &lng},
			wantErr:  utils.ErrLocationUnavailable,
			wantMsg:  "No address found for this location",
		},
		{
			name:     "geocoder down",
			geocoder: fakeGeocoder{err: errors.New("connection refused")},
			loc:      CurrentLocation{Latitude: &lat, Longitude: &lng},
			wantErr:  utils.ErrUpstream,
			wantMsg:  "Failed to get address",
		},
		{
			name:     "save fails",
			geocoder: fakeGeocoder{place: &geocode.Place{FormattedAddress: "Here"}},
			loc:      CurrentLocation{Latitude: &lat, Longitude: &lng},
			failAdd:  true,
			wantErr:  utils.ErrUpstream,
			wantMsg:  "Failed to add address",
		},
		{
			name:     "saved",
			geocoder: fakeGeocoder{place: &geocode.Place{FormattedAddress: "Here"}},
			loc:      CurrentLocation{Latitude: &lat, Longitude: &lng},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &addressUpstream{failAdd: tt.failAdd}
			svc := NewLocationService(up.client(t), tt.geocoder, NewAuditService(nil, nil))

			list, err := svc.AddFromCurrentLocation(context.Background(), 1, tt.loc)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("err = %v", err)
				}
				if len(list) != 1 || list[0].Latitude != lat || list[0].FormattedAddress != "Here" {
					t.Errorf("list = %+v", list)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

type fakeRekognition struct {
	labels []types.ModerationLabel
	err    error
}

func (f fakeRekognition) DetectModerationLabels(context.Context, *rekognition.DetectModerationLabelsInput, ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &rekognition.DetectModerationLabelsOutput{ModerationLabels: f.labels}, nil
}

func TestModerationService_Screen(t *testing.T) {
	var disabled *ModerationService
	if labels, err := disabled.Screen(context.Background(), []byte("img")); err != nil || labels != nil {
		t.Errorf("nil service: %v, %v", labels, err)
	}

	svc := NewModerationServiceWithAPI(fakeRekognition{labels: []types.ModerationLabel{
		{Name: aws.String("Weapons"), ParentName: aws.String("Violence"), Confidence: aws.Float32(91)},
		{Name: aws.String("Smoking"), Confidence: aws.Float32(40)},
	}}, 80)
	labels, err := svc.Screen(context.Background(), []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 1 || labels[0] != "Violence/Weapons" {
		t.Errorf("labels = %v", labels)
	}
	if msg := rejectedImageMessage("a.png", labels); msg != "Image a.png was rejected (Violence/Weapons)" {
		t.Errorf("message = %q", msg)
	}

	failing := NewModerationServiceWithAPI(fakeRekognition{err: errors.New("throttled")}, 80)
	if _, err := failing.Screen(context.Background(), []byte("img")); err == nil {
		t.Error("expected error")
	}
}

package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/utils"
	"github.com/GTDGit/market_admin/pkg/geocode"
	"github.com/GTDGit/market_admin/pkg/marketplace"
)

// Geolocation failure codes reported by the browser.
const (
	GeoPermissionDenied    = "PERMISSION_DENIED"
	GeoPositionUnavailable = "POSITION_UNAVAILABLE"
	GeoTimeout             = "TIMEOUT"
	GeoUnsupported         = "UNSUPPORTED"
)

var geolocationMessages = map[string]string{
	GeoPermissionDenied:    "Please allow location access to use this feature",
	GeoPositionUnavailable: "Location information is unavailable",
	GeoTimeout:             "Location request timed out",
	GeoUnsupported:         "Geolocation is not supported by your browser",
}

// GeolocationMessage maps a browser geolocation error code to the text shown.
func GeolocationMessage(code string) string {
	if msg, ok := geolocationMessages[code]; ok {
		return msg
	}
	return "Failed to get location"
}

// Geocoder resolves coordinates to a place.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*geocode.Place, error)
}

// LocationService manages the saved address book.
type LocationService struct {
	client   *marketplace.Client
	geocoder Geocoder
	audit    *AuditService
}

// NewLocationService constructs a LocationService.
func NewLocationService(client *marketplace.Client, geocoder Geocoder, audit *AuditService) *LocationService {
	return &LocationService{client: client, geocoder: geocoder, audit: audit}
}

// ListAddresses returns the saved addresses.
func (s *LocationService) ListAddresses(ctx context.Context) ([]models.Address, error) {
	list, err := s.client.ListAddresses(ctx)
	if err != nil {
		return nil, requestFailed(err, "Failed to fetch addresses")
	}
	if list == nil {
		list = []models.Address{}
	}
	return list, nil
}

// AddFromPlace saves an autocomplete selection.
func (s *LocationService) AddFromPlace(ctx context.Context, adminID int, place geocode.Place) ([]models.Address, error) {
	addr, err := place.Address()
	if err != nil {
		return nil, invalid(geocode.MsgSelectFromDropdown)
	}
	return s.add(ctx, adminID, addr)
}

// CurrentLocation is the device position, or the code of the error the
// browser raised while reading it.
type CurrentLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	ErrorCode string   `json:"errorCode"`
}

// AddFromCurrentLocation reverse-geocodes the device position and saves it.
func (s *LocationService) AddFromCurrentLocation(ctx context.Context, adminID int, loc CurrentLocation) ([]models.Address, error) {
	if loc.ErrorCode != "" {
		return nil, &InputError{Code: utils.ErrLocationUnavailable, Message: GeolocationMessage(loc.ErrorCode)}
	}
	if loc.Latitude == nil || loc.Longitude == nil {
		return nil, invalid("Latitude and longitude are required")
	}
	lat, lng := *loc.Latitude, *loc.Longitude
	if !models.NewGeoPoint(lng, lat).InRange() {
		return nil, invalid("Coordinates must be within valid ranges")
	}

	place, err := s.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		log.Warn().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("Reverse geocoding failed")
		switch {
		case errors.Is(err, geocode.ErrNoResults):
			return nil, &InputError{Code: utils.ErrLocationUnavailable, Message: "No address found for this location"}
		case errors.Is(err, geocode.ErrNotConfigured):
			return nil, &InputError{Code: utils.ErrLocationUnavailable, Message: "Address lookup is not configured"}
		}
		return nil, &RequestError{Message: "Failed to get address", Err: err}
	}
	return s.add(ctx, adminID, place.AddressAt(lat, lng))
}

// add saves addr and returns the refreshed list. The first address becomes
// the default.
func (s *LocationService) add(ctx context.Context, adminID int, addr models.Address) ([]models.Address, error) {
	existing, err := s.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}
	addr.IsDefault = len(existing) == 0

	created, err := s.client.CreateAddress(ctx, addr)
	err = requestFailed(err, "Failed to add address")
	act := Activity{AdminID: adminID, Entity: EntityAddress, Action: "create", Message: "Address added successfully"}
	if created != nil {
		act.EntityID = created.ID
	}
	s.audit.Record(act, err)
	if err != nil {
		return nil, err
	}
	return s.ListAddresses(ctx)
}

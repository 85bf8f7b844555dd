package geocode

import (
	"errors"

	"github.com/GTDGit/market_admin/internal/models"
)

// MsgSelectFromDropdown is shown when a typed address was not picked from the suggestions.
const MsgSelectFromDropdown = "Please select a location from the dropdown"

var ErrNoGeometry = errors.New("place has no geometry")

// Component is one entry of address_components.
type Component struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geometry struct {
	Location LatLng `json:"location"`
}

// Place is a geocoding or autocomplete result.
type Place struct {
	FormattedAddress  string      `json:"formatted_address"`
	AddressComponents []Component `json:"address_components"`
	Geometry          *Geometry   `json:"geometry,omitempty"`
}

// ExtractComponents fills the structured address fields. Each component is
// classified by its first type only.
func ExtractComponents(components []Component) models.Address {
	var a models.Address
	for _, c := range components {
		if len(c.Types) == 0 {
			continue
		}
		switch c.Types[0] {
		case "street_number":
			a.StreetNumber = c.LongName
		case "route":
			a.Route = c.LongName
		case "locality":
			a.Locality = c.LongName
		case "administrative_area_level_1":
			a.AdministrativeAreaLevel1 = c.LongName
		case "country":
			a.Country = c.LongName
		case "postal_code":
			a.PostalCode = c.LongName
		}
	}
	return a
}

// Address converts a selected place into an address. Places without a
// geometry cannot be saved.
func (p Place) Address() (models.Address, error) {
	if p.Geometry == nil {
		return models.Address{}, ErrNoGeometry
	}
	return p.AddressAt(p.Geometry.Location.Lat, p.Geometry.Location.Lng), nil
}

// AddressAt converts the place using explicit coordinates, as done for the
// device position.
func (p Place) AddressAt(lat, lng float64) models.Address {
	a := ExtractComponents(p.AddressComponents)
	a.FormattedAddress = p.FormattedAddress
	a.Latitude = lat
	a.Longitude = lng
	return a
}

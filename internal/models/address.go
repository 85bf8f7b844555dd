package models

// Address is a saved delivery/pickup location.
type Address struct {
	ID                       string  `json:"_id,omitempty"`
	FormattedAddress         string  `json:"formattedAddress"`
	StreetNumber             string  `json:"streetNumber,omitempty"`
	Route                    string  `json:"route,omitempty"`
	Locality                 string  `json:"locality,omitempty"`
	AdministrativeAreaLevel1 string  `json:"administrativeAreaLevel1,omitempty"`
	Country                  string  `json:"country,omitempty"`
	PostalCode               string  `json:"postalCode,omitempty"`
	Latitude                 float64 `json:"latitude"`
	Longitude                float64 `json:"longitude"`
	IsDefault                bool    `json:"isDefault"`
}

// Point returns the address position as a GeoJSON point.
func (a Address) Point() GeoPoint {
	return NewGeoPoint(a.Longitude, a.Latitude)
}

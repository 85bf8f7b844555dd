// Package productform holds the product listing form: its state record,
// the per-field validation rules, the change reducer and the assembly of a
// type-correct payload for the marketplace API.
//
// Every function in this package is pure. A Form value is never mutated in
// place; Reduce and Submit return new values.
package productform

import (
	"fmt"
	"time"

	"github.com/GTDGit/market_admin/internal/models"
)

const (
	// DefaultMaxImages caps the number of images on one listing.
	DefaultMaxImages = 10

	// MinDescriptionLength is the minimum trimmed description length in characters.
	MinDescriptionLength = 20
)

// Variant selects how the form sources the pickup location.
type Variant string

const (
	// VariantAddressBook requires a saved address for every delivery mode;
	// the listing location follows the selected address.
	VariantAddressBook Variant = "address_book"

	// VariantPickupText takes a free-text pickup address (buyer pickup only)
	// and manual or device coordinates.
	VariantPickupText Variant = "pickup_text"
)

// ParseVariant converts a configuration string into a Variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantAddressBook, VariantPickupText:
		return Variant(s), nil
	case "":
		return VariantAddressBook, nil
	}
	return "", fmt.Errorf("unknown product form variant %q", s)
}

// Field names a form input. Nested inputs use dotted paths, which are also
// the keys of the error map.
type Field string

const (
	FieldName          Field = "name"
	FieldDescription   Field = "description"
	FieldType          Field = "type"
	FieldCategoryID    Field = "categoryId"
	FieldSubcategoryID Field = "subcategoryId"
	FieldCondition     Field = "condition"
	FieldPrice         Field = "price"

	FieldRentPrice      Field = "rentDetails.rentPrice"
	FieldRentDuration   Field = "rentDetails.duration"
	FieldSecurityAmount Field = "rentDetails.securityAmount"

	FieldStartPrice   Field = "auctionDetails.startPrice"
	FieldReservePrice Field = "auctionDetails.reservePrice"
	FieldBidIncrement Field = "auctionDetails.bidIncrement"
	FieldStartTime    Field = "auctionDetails.startTime"
	FieldEndTime      Field = "auctionDetails.endTime"

	FieldDeliveryMode  Field = "deliveryMode"
	FieldPickupAddress Field = "pickupAddress"
	FieldAddressID     Field = "addressId"
	FieldLocation      Field = "location"
	FieldAttributes    Field = "attributes"
	FieldImages        Field = "images"

	// FieldSubmit is the error slot for request failures. It is not an input.
	FieldSubmit Field = "submit"
)

var inputFields = map[Field]bool{
	FieldName: true, FieldDescription: true, FieldType: true,
	FieldCategoryID: true, FieldSubcategoryID: true, FieldCondition: true,
	FieldPrice: true, FieldRentPrice: true, FieldRentDuration: true,
	FieldSecurityAmount: true, FieldStartPrice: true, FieldReservePrice: true,
	FieldBidIncrement: true, FieldStartTime: true, FieldEndTime: true,
	FieldDeliveryMode: true, FieldPickupAddress: true, FieldAddressID: true,
	FieldLocation: true, FieldAttributes: true, FieldImages: true,
}

// Valid reports whether f is an input field.
func (f Field) Valid() bool { return inputFields[f] }

// Options carries what validation needs beyond the state itself.
type Options struct {
	Variant Variant

	// AttributeKeys are the keys of the selected subcategory. When empty,
	// attribute rules are skipped.
	AttributeKeys []models.AttributeKey

	// MaxImages defaults to DefaultMaxImages when zero.
	MaxImages int
}

func (o Options) maxImages() int {
	if o.MaxImages <= 0 {
		return DefaultMaxImages
	}
	return o.MaxImages
}

func (o Options) variant() Variant {
	if o.Variant == "" {
		return VariantAddressBook
	}
	return o.Variant
}

// Upload is a newly selected image file.
type Upload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"-"`
}

// Image is either an already hosted URL or a new upload.
type Image struct {
	URL    string  `json:"url,omitempty"`
	Upload *Upload `json:"upload,omitempty"`
}

// Hosted reports whether the image already lives on the marketplace.
func (i Image) Hosted() bool { return i.Upload == nil && i.URL != "" }

// RentState holds the RENT inputs. Nil pointers and a zero duration mean "not entered".
type RentState struct {
	RentPrice      *float64 `json:"rentPrice"`
	Duration       int      `json:"duration"`
	SecurityAmount *float64 `json:"securityAmount"`
}

// AuctionState holds the AUCTION inputs.
type AuctionState struct {
	StartPrice   *float64   `json:"startPrice"`
	ReservePrice *float64   `json:"reservePrice"`
	BidIncrement *float64   `json:"bidIncrement"`
	StartTime    *time.Time `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
}

// State is the full set of form inputs.
type State struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Type          models.ProductType  `json:"type"`
	CategoryID    string              `json:"categoryId"`
	SubcategoryID string              `json:"subcategoryId"`
	Condition     models.Condition    `json:"condition"`
	Price         *float64            `json:"price"`
	Rent          RentState           `json:"rentDetails"`
	Auction       AuctionState        `json:"auctionDetails"`
	DeliveryMode  models.DeliveryMode `json:"deliveryMode"`
	PickupAddress string              `json:"pickupAddress"`
	AddressID     string              `json:"addressId"`
	Location      models.GeoPoint     `json:"location"`
	Attributes    []models.Attribute  `json:"attributes"`
	Images        []Image             `json:"images"`
}

// NewState returns the blank form: a SELL listing at [0, 0].
func NewState() State {
	return State{
		Type:       models.ProductTypeSell,
		Location:   models.NewGeoPoint(0, 0),
		Attributes: []models.Attribute{},
		Images:     []Image{},
	}
}

// FromProduct seeds the form from an existing listing for editing.
func FromProduct(p models.Product) State {
	s := NewState()
	s.Name = p.Name
	s.Description = p.Description
	if p.Type != "" {
		s.Type = p.Type
	}
	s.CategoryID = p.CategoryID
	s.SubcategoryID = p.SubcategoryID
	s.Condition = p.Condition
	s.Price = p.Price
	if rd := p.RentDetails; rd != nil {
		s.Rent = RentState{RentPrice: floatPtr(rd.RentPrice), Duration: rd.Duration, SecurityAmount: rd.SecurityAmount}
	}
	if ad := p.AuctionDetails; ad != nil {
		start, end := ad.StartTime, ad.EndTime
		s.Auction = AuctionState{
			StartPrice:   floatPtr(ad.StartPrice),
			ReservePrice: floatPtr(ad.ReservePrice),
			BidIncrement: floatPtr(ad.BidIncrement),
			StartTime:    &start,
			EndTime:      &end,
		}
	}
	s.DeliveryMode = p.DeliveryMode
	s.PickupAddress = p.PickupAddress
	s.AddressID = p.AddressID
	if p.Location != nil {
		s.Location = p.Location.Clone()
	}
	s.Attributes = append(s.Attributes, p.Attributes...)
	for _, url := range p.Images {
		s.Images = append(s.Images, Image{URL: url})
	}
	return s
}

// clone copies the slices so the result can be modified independently.
func (s State) clone() State {
	out := s
	out.Location = s.Location.Clone()
	out.Attributes = append([]models.Attribute{}, s.Attributes...)
	out.Images = append([]Image{}, s.Images...)
	return out
}

// Errors maps field paths to human-readable messages.
type Errors map[string]string

// Has reports whether path carries an error.
func (e Errors) Has(path Field) bool {
	_, ok := e[string(path)]
	return ok
}

func (e Errors) clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Form couples the inputs with the current error map.
type Form struct {
	State  State  `json:"state"`
	Errors Errors `json:"errors"`
}

// New returns a blank form with no errors.
func New() Form {
	return Form{State: NewState(), Errors: Errors{}}
}

// Valid reports whether the form has no errors at all.
func (f Form) Valid() bool { return len(f.Errors) == 0 }

// WithSubmitError records a request failure in the submit slot. Field
// errors are kept.
func (f Form) WithSubmitError(message string) Form {
	errs := f.Errors.clone()
	errs[string(FieldSubmit)] = message
	return Form{State: f.State, Errors: errs}
}

func floatPtr(v float64) *float64 { return &v }

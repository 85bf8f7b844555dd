package productform

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GTDGit/market_admin/internal/models"
)

var (
	ErrUnknownField = errors.New("unknown form field")
	ErrInvalidValue = errors.New("invalid value for form field")
)

// Change sets one input to a new value.
//
// Accepted value types per field:
//   - text fields: string
//   - type, condition, deliveryMode: the models enum or string
//   - price and the nested amounts: float64, *float64 or nil
//   - rentDetails.duration: int
//   - auction times: time.Time, *time.Time or nil
//   - addressId: models.Address (moves the location) or string
//   - location: models.GeoPoint
//   - attributes: []models.Attribute (replace) or models.Attribute (set one key)
//   - images: []Image
type Change struct {
	Field Field
	Value any
}

// Reduce applies c to the form. It runs the category cascades and then
// re-validates only the fields c touched, leaving every other error as it was.
func Reduce(f Form, c Change, opts Options) (Form, error) {
	if !c.Field.Valid() {
		return f, fmt.Errorf("%w: %s", ErrUnknownField, c.Field)
	}

	s := f.State.clone()
	errs := f.Errors.clone()
	touched := []Field{c.Field}

	if err := apply(&s, c); err != nil {
		return f, err
	}

	switch c.Field {
	case FieldCategoryID:
		if s.CategoryID != f.State.CategoryID {
			s.SubcategoryID = ""
			s.Attributes = []models.Attribute{}
			drop(errs, FieldSubcategoryID)
			drop(errs, FieldAttributes)
		}
	case FieldSubcategoryID:
		if s.SubcategoryID != f.State.SubcategoryID {
			s.Attributes = []models.Attribute{}
			drop(errs, FieldAttributes)
		}
	case FieldType:
		for _, section := range []Field{FieldPrice, "rentDetails", "auctionDetails"} {
			drop(errs, section)
		}
	case FieldDeliveryMode:
		touched = append(touched, FieldPickupAddress)
	case FieldStartPrice:
		touched = append(touched, FieldReservePrice)
	case FieldStartTime:
		touched = append(touched, FieldEndTime)
	}

	for _, field := range touched {
		drop(errs, field)
		for path, msg := range ValidateField(s, field, opts) {
			errs[path] = msg
		}
	}
	return Form{State: s, Errors: errs}, nil
}

// Submit re-validates every field and replaces the error map with the
// aggregate result. The payload is nil when any error exists.
func Submit(f Form, opts Options) (Form, *Payload) {
	errs := Validate(f.State, opts)
	out := Form{State: f.State, Errors: errs}
	if len(errs) > 0 {
		return out, nil
	}
	return out, BuildPayload(f.State, opts)
}

func drop(errs Errors, f Field) {
	for path := range errs {
		if owns(f, path) {
			delete(errs, path)
		}
	}
}

func apply(s *State, c Change) error {
	bad := func() error {
		return fmt.Errorf("%w %s: %T", ErrInvalidValue, c.Field, c.Value)
	}

	switch c.Field {
	case FieldName, FieldDescription, FieldCategoryID, FieldSubcategoryID, FieldPickupAddress:
		v, ok := c.Value.(string)
		if !ok {
			return bad()
		}
		switch c.Field {
		case FieldName:
			s.Name = v
		case FieldDescription:
			s.Description = v
		case FieldCategoryID:
			s.CategoryID = v
		case FieldSubcategoryID:
			s.SubcategoryID = v
		case FieldPickupAddress:
			s.PickupAddress = v
		}

	case FieldType:
		switch v := c.Value.(type) {
		case models.ProductType:
			s.Type = v
		case string:
			s.Type = models.ProductType(strings.ToUpper(v))
		default:
			return bad()
		}

	case FieldCondition:
		switch v := c.Value.(type) {
		case models.Condition:
			s.Condition = v
		case string:
			s.Condition = models.Condition(v)
		default:
			return bad()
		}

	case FieldDeliveryMode:
		switch v := c.Value.(type) {
		case models.DeliveryMode:
			s.DeliveryMode = v
		case string:
			s.DeliveryMode = models.DeliveryMode(v)
		default:
			return bad()
		}

	case FieldPrice, FieldRentPrice, FieldSecurityAmount,
		FieldStartPrice, FieldReservePrice, FieldBidIncrement:
		v, ok := amount(c.Value)
		if !ok {
			return bad()
		}
		switch c.Field {
		case FieldPrice:
			s.Price = v
		case FieldRentPrice:
			s.Rent.RentPrice = v
		case FieldSecurityAmount:
			s.Rent.SecurityAmount = v
		case FieldStartPrice:
			s.Auction.StartPrice = v
		case FieldReservePrice:
			s.Auction.ReservePrice = v
		case FieldBidIncrement:
			s.Auction.BidIncrement = v
		}

	case FieldRentDuration:
		v, ok := c.Value.(int)
		if !ok {
			return bad()
		}
		s.Rent.Duration = v

	case FieldStartTime, FieldEndTime:
		var t *time.Time
		switch v := c.Value.(type) {
		case nil:
		case time.Time:
			t = &v
		case *time.Time:
			if v != nil {
				copied := *v
				t = &copied
			}
		default:
			return bad()
		}
		if c.Field == FieldStartTime {
			s.Auction.StartTime = t
		} else {
			s.Auction.EndTime = t
		}

	case FieldAddressID:
		switch v := c.Value.(type) {
		case models.Address:
			s.AddressID = v.ID
			s.Location = v.Point()
		case string:
			s.AddressID = v
		default:
			return bad()
		}

	case FieldLocation:
		v, ok := c.Value.(models.GeoPoint)
		if !ok {
			return bad()
		}
		s.Location = v.Clone()
		if s.Location.Type == "" {
			s.Location.Type = models.GeoPointType
		}

	case FieldAttributes:
		switch v := c.Value.(type) {
		case []models.Attribute:
			s.Attributes = dedupeAttributes(v)
		case models.Attribute:
			s.Attributes = setAttribute(s.Attributes, v)
		default:
			return bad()
		}

	case FieldImages:
		v, ok := c.Value.([]Image)
		if !ok {
			return bad()
		}
		s.Images = append([]Image{}, v...)
	}
	return nil
}

func amount(v any) (*float64, bool) {
	switch n := v.(type) {
	case nil:
		return nil, true
	case float64:
		return &n, true
	case *float64:
		if n == nil {
			return nil, true
		}
		copied := *n
		return &copied, true
	case int:
		f := float64(n)
		return &f, true
	}
	return nil, false
}

// setAttribute replaces the entry for a.Key in place, appends a new one, or
// removes the entry when a.Value is empty.
func setAttribute(attrs []models.Attribute, a models.Attribute) []models.Attribute {
	out := make([]models.Attribute, 0, len(attrs)+1)
	found := false
	for _, cur := range attrs {
		if cur.Key != a.Key {
			out = append(out, cur)
			continue
		}
		found = true
		if a.Value != "" {
			out = append(out, a)
		}
	}
	if !found && a.Value != "" {
		out = append(out, a)
	}
	return out
}

// dedupeAttributes keeps the first position of each key and the last value.
func dedupeAttributes(attrs []models.Attribute) []models.Attribute {
	out := make([]models.Attribute, 0, len(attrs))
	index := make(map[string]int, len(attrs))
	for _, a := range attrs {
		if i, ok := index[a.Key]; ok {
			out[i].Value = a.Value
			continue
		}
		index[a.Key] = len(out)
		out = append(out, a)
	}
	return out
}

// AddImages appends imgs to the current images.
func (s State) AddImages(imgs ...Image) []Image {
	out := make([]Image, 0, len(s.Images)+len(imgs))
	out = append(out, s.Images...)
	return append(out, imgs...)
}

// RemoveImage returns the images without the one at index i.
func (s State) RemoveImage(i int) []Image {
	out := make([]Image, 0, len(s.Images))
	for j, img := range s.Images {
		if j != i {
			out = append(out, img)
		}
	}
	return out
}

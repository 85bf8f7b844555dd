package productform

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/GTDGit/market_admin/internal/models"
)

// Validation messages.
const (
	MsgNameRequired         = "Product name is required"
	MsgDescriptionRequired  = "Product description is required"
	MsgDescriptionTooShort  = "Description must be at least 20 characters"
	MsgInvalidType          = "Invalid product type"
	MsgCategoryRequired     = "Category is required"
	MsgSubcategoryRequired  = "Subcategory is required"
	MsgConditionRequired    = "Product condition is required"
	MsgPriceRequired        = "Valid price is required for sell products"
	MsgRentPriceRequired    = "Rent price is required"
	MsgDurationInvalid      = "Valid duration is required"
	MsgSecurityNegative     = "Security amount must be positive"
	MsgStartPriceRequired   = "Start price is required"
	MsgReservePriceInvalid  = "Reserve price must be greater than start price"
	MsgBidIncrementInvalid  = "Bid increment must be at least 1"
	MsgStartTimeRequired    = "Start time is required"
	MsgEndTimeInvalid       = "End time must be after start time"
	MsgDeliveryModeRequired = "Delivery mode is required"
	MsgPickupRequired       = "Pickup address is required when buyer pickup is selected"
	MsgAddressRequired      = "Please select an address"
	MsgCoordinatesRequired  = "Valid coordinates are required"
	MsgCoordinatesRange     = "Coordinates must be within valid ranges"
	MsgImagesRequired       = "At least one image is required"
	MsgUnknownAttribute     = "Unknown attribute"
)

// rule checks one error path. It returns the message, or "" when the path is valid.
type rule struct {
	path  Field
	check func(s State, opts Options) string
}

var rules = []rule{
	{FieldName, func(s State, _ Options) string {
		if strings.TrimSpace(s.Name) == "" {
			return MsgNameRequired
		}
		return ""
	}},
	{FieldDescription, func(s State, _ Options) string {
		d := strings.TrimSpace(s.Description)
		switch {
		case d == "":
			return MsgDescriptionRequired
		case utf8.RuneCountInString(d) < MinDescriptionLength:
			return MsgDescriptionTooShort
		}
		return ""
	}},
	{FieldType, func(s State, _ Options) string {
		if !s.Type.Valid() {
			return MsgInvalidType
		}
		return ""
	}},
	{FieldCategoryID, func(s State, _ Options) string {
		if strings.TrimSpace(s.CategoryID) == "" {
			return MsgCategoryRequired
		}
		return ""
	}},
	{FieldSubcategoryID, func(s State, _ Options) string {
		if strings.TrimSpace(s.SubcategoryID) == "" {
			return MsgSubcategoryRequired
		}
		return ""
	}},
	{FieldCondition, func(s State, _ Options) string {
		if !s.Condition.Valid() {
			return MsgConditionRequired
		}
		return ""
	}},
	{FieldPrice, func(s State, _ Options) string {
		if s.Type == models.ProductTypeSell && !nonNegative(s.Price) {
			return MsgPriceRequired
		}
		return ""
	}},

	{FieldRentPrice, func(s State, _ Options) string {
		if s.Type == models.ProductTypeRent && !nonNegative(s.Rent.RentPrice) {
			return MsgRentPriceRequired
		}
		return ""
	}},
	{FieldRentDuration, func(s State, _ Options) string {
		if s.Type == models.ProductTypeRent && !models.ValidRentDuration(s.Rent.Duration) {
			return MsgDurationInvalid
		}
		return ""
	}},
	{FieldSecurityAmount, func(s State, _ Options) string {
		if s.Type == models.ProductTypeRent && s.Rent.SecurityAmount != nil && *s.Rent.SecurityAmount < 0 {
			return MsgSecurityNegative
		}
		return ""
	}},

	{FieldStartPrice, func(s State, _ Options) string {
		if s.Type == models.ProductTypeAuction && !nonNegative(s.Auction.StartPrice) {
			return MsgStartPriceRequired
		}
		return ""
	}},
	{FieldReservePrice, func(s State, _ Options) string {
		if s.Type != models.ProductTypeAuction {
			return ""
		}
		a := s.Auction
		if a.ReservePrice == nil || (a.StartPrice != nil && *a.ReservePrice <= *a.StartPrice) {
			return MsgReservePriceInvalid
		}
		return ""
	}},
	{FieldBidIncrement, func(s State, _ Options) string {
		if s.Type == models.ProductTypeAuction && (s.Auction.BidIncrement == nil || *s.Auction.BidIncrement < 1) {
			return MsgBidIncrementInvalid
		}
		return ""
	}},
	{FieldStartTime, func(s State, _ Options) string {
		if s.Type == models.ProductTypeAuction && (s.Auction.StartTime == nil || s.Auction.StartTime.IsZero()) {
			return MsgStartTimeRequired
		}
		return ""
	}},
	{FieldEndTime, func(s State, _ Options) string {
		if s.Type != models.ProductTypeAuction {
			return ""
		}
		a := s.Auction
		if a.EndTime == nil || a.EndTime.IsZero() {
			return MsgEndTimeInvalid
		}
		if a.StartTime != nil && !a.EndTime.After(*a.StartTime) {
			return MsgEndTimeInvalid
		}
		return ""
	}},

	{FieldDeliveryMode, func(s State, _ Options) string {
		if !s.DeliveryMode.Valid() {
			return MsgDeliveryModeRequired
		}
		return ""
	}},
	{FieldPickupAddress, func(s State, opts Options) string {
		if opts.variant() == VariantPickupText &&
			s.DeliveryMode == models.DeliveryBuyerPickup &&
			strings.TrimSpace(s.PickupAddress) == "" {
			return MsgPickupRequired
		}
		return ""
	}},
	{FieldAddressID, func(s State, opts Options) string {
		if opts.variant() == VariantAddressBook && strings.TrimSpace(s.AddressID) == "" {
			return MsgAddressRequired
		}
		return ""
	}},
	{FieldLocation, func(s State, _ Options) string {
		if len(s.Location.Coordinates) != 2 {
			return MsgCoordinatesRequired
		}
		if !s.Location.InRange() {
			return MsgCoordinatesRange
		}
		return ""
	}},
	{FieldImages, func(s State, opts Options) string {
		switch n := len(s.Images); {
		case n == 0:
			return MsgImagesRequired
		case n > opts.maxImages():
			return fmt.Sprintf("A maximum of %d images is allowed", opts.maxImages())
		}
		return ""
	}},
}

// Validate runs every rule against s and returns the full error map.
func Validate(s State, opts Options) Errors {
	errs := Errors{}
	for _, r := range rules {
		if msg := r.check(s, opts); msg != "" {
			errs[string(r.path)] = msg
		}
	}
	for path, msg := range validateAttributes(s, opts) {
		errs[path] = msg
	}
	return errs
}

// ValidateField returns only the errors owned by f.
func ValidateField(s State, f Field, opts Options) Errors {
	errs := Errors{}
	for path, msg := range Validate(s, opts) {
		if owns(f, path) {
			errs[path] = msg
		}
	}
	return errs
}

// owns reports whether the error at path belongs to input f. Selecting an
// address moves the location, so addressId also owns location.
func owns(f Field, path string) bool {
	if path == string(f) || strings.HasPrefix(path, string(f)+".") {
		return true
	}
	return f == FieldAddressID && path == string(FieldLocation)
}

// AttributePath is the error path of one attribute key.
func AttributePath(keyID string) string {
	return string(FieldAttributes) + "." + keyID
}

func validateAttributes(s State, opts Options) Errors {
	errs := Errors{}
	if len(opts.AttributeKeys) == 0 {
		return errs
	}

	selected := make(map[string]string, len(s.Attributes))
	for _, a := range s.Attributes {
		selected[a.Key] = a.Value
	}

	known := make(map[string]models.AttributeKey, len(opts.AttributeKeys))
	for _, k := range opts.AttributeKeys {
		known[k.ID] = k
		if k.Status() != models.StatusActive {
			continue
		}
		v, ok := selected[k.ID]
		if k.IsRequired && (!ok || strings.TrimSpace(v) == "") {
			errs[AttributePath(k.ID)] = fmt.Sprintf("%s is required", k.Name)
			continue
		}
		if ok && v != "" && len(k.Values) > 0 && !k.HasValue(v) {
			errs[AttributePath(k.ID)] = fmt.Sprintf("Invalid value for %s", k.Name)
		}
	}

	for _, a := range s.Attributes {
		if _, ok := known[a.Key]; !ok {
			errs[AttributePath(a.Key)] = MsgUnknownAttribute
		}
	}
	return errs
}

func nonNegative(v *float64) bool {
	return v != nil && *v >= 0
}

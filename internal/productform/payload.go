package productform

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/GTDGit/market_admin/internal/models"
)

// TimeLayout is the instant format the marketplace expects for auction times.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Pricing is the type-specific part of a listing. Exactly one implementation
// exists per product type, so a payload can never carry two pricing blocks.
type Pricing interface {
	ProductType() models.ProductType
}

type SellPricing struct {
	Price float64
}

type RentPricing struct {
	Details models.RentDetails
}

type AuctionPricing struct {
	Details models.AuctionDetails
}

func (SellPricing) ProductType() models.ProductType    { return models.ProductTypeSell }
func (RentPricing) ProductType() models.ProductType    { return models.ProductTypeRent }
func (AuctionPricing) ProductType() models.ProductType { return models.ProductTypeAuction }

// Payload is a validated listing ready to be sent upstream.
type Payload struct {
	Name          string
	Description   string
	CategoryID    string
	SubcategoryID string
	Condition     models.Condition
	DeliveryMode  models.DeliveryMode
	PickupAddress string
	AddressID     string
	Pricing       Pricing
	Location      models.GeoPoint
	Attributes    []models.Attribute

	// ExistingImages are hosted URLs kept on update.
	ExistingImages []string
	NewImages      []Upload
}

// Type returns the product type carried by the pricing variant.
func (p *Payload) Type() models.ProductType { return p.Pricing.ProductType() }

// BuildPayload assembles the upstream payload from a state that passed
// Validate. The result for an invalid state is unspecified.
func BuildPayload(s State, opts Options) *Payload {
	p := &Payload{
		Name:          strings.TrimSpace(s.Name),
		Description:   strings.TrimSpace(s.Description),
		CategoryID:    s.CategoryID,
		SubcategoryID: s.SubcategoryID,
		Condition:     s.Condition,
		DeliveryMode:  s.DeliveryMode,
		Location:      models.GeoPoint{Type: models.GeoPointType, Coordinates: append([]float64(nil), s.Location.Coordinates...)},
	}

	switch opts.variant() {
	case VariantPickupText:
		if s.DeliveryMode == models.DeliveryBuyerPickup {
			p.PickupAddress = strings.TrimSpace(s.PickupAddress)
		}
	default:
		p.AddressID = s.AddressID
	}

	switch s.Type {
	case models.ProductTypeRent:
		rd := models.RentDetails{RentPrice: deref(s.Rent.RentPrice), Duration: s.Rent.Duration}
		switch {
		case s.Rent.SecurityAmount != nil:
			rd.SecurityAmount = floatPtr(*s.Rent.SecurityAmount)
		case opts.variant() == VariantAddressBook:
			rd.SecurityAmount = floatPtr(2 * rd.RentPrice)
		}
		p.Pricing = RentPricing{Details: rd}
	case models.ProductTypeAuction:
		a := s.Auction
		ad := models.AuctionDetails{
			StartPrice:   deref(a.StartPrice),
			ReservePrice: deref(a.ReservePrice),
			BidIncrement: deref(a.BidIncrement),
		}
		if a.StartTime != nil {
			ad.StartTime = a.StartTime.UTC()
		}
		if a.EndTime != nil {
			ad.EndTime = a.EndTime.UTC()
		}
		p.Pricing = AuctionPricing{Details: ad}
	default:
		p.Pricing = SellPricing{Price: deref(s.Price)}
	}

	p.Attributes = make([]models.Attribute, 0, len(s.Attributes))
	for _, a := range dedupeAttributes(s.Attributes) {
		if a.Value != "" {
			p.Attributes = append(p.Attributes, a)
		}
	}

	for _, img := range s.Images {
		switch {
		case img.Upload != nil:
			p.NewImages = append(p.NewImages, *img.Upload)
		case img.URL != "":
			p.ExistingImages = append(p.ExistingImages, img.URL)
		}
	}
	return p
}

type wireAuction struct {
	StartPrice   float64 `json:"startPrice"`
	ReservePrice float64 `json:"reservePrice"`
	BidIncrement float64 `json:"bidIncrement"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
}

type wirePayload struct {
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Type           models.ProductType  `json:"type"`
	CategoryID     string              `json:"categoryId"`
	SubcategoryID  string              `json:"subcategoryId"`
	Condition      models.Condition    `json:"condition"`
	Price          *float64            `json:"price"`
	RentDetails    *models.RentDetails `json:"rentDetails"`
	AuctionDetails *wireAuction        `json:"auctionDetails"`
	DeliveryMode   models.DeliveryMode `json:"deliveryMode"`
	PickupAddress  string              `json:"pickupAddress,omitempty"`
	AddressID      string              `json:"addressId,omitempty"`
	Location       models.GeoPoint     `json:"location"`
	Attributes     []models.Attribute  `json:"attributes"`
	ExistingImages []string            `json:"existingImages,omitempty"`
}

func (p *Payload) wire() wirePayload {
	w := wirePayload{
		Name:           p.Name,
		Description:    p.Description,
		Type:           p.Type(),
		CategoryID:     p.CategoryID,
		SubcategoryID:  p.SubcategoryID,
		Condition:      p.Condition,
		DeliveryMode:   p.DeliveryMode,
		PickupAddress:  p.PickupAddress,
		AddressID:      p.AddressID,
		Location:       p.Location,
		Attributes:     p.Attributes,
		ExistingImages: p.ExistingImages,
	}
	if w.Attributes == nil {
		w.Attributes = []models.Attribute{}
	}

	switch pr := p.Pricing.(type) {
	case SellPricing:
		w.Price = floatPtr(pr.Price)
	case RentPricing:
		rd := pr.Details
		w.RentDetails = &rd
	case AuctionPricing:
		w.AuctionDetails = &wireAuction{
			StartPrice:   pr.Details.StartPrice,
			ReservePrice: pr.Details.ReservePrice,
			BidIncrement: pr.Details.BidIncrement,
			StartTime:    FormatTime(pr.Details.StartTime),
			EndTime:      FormatTime(pr.Details.EndTime),
		}
	}
	return w
}

// MarshalJSON renders the marketplace view: the two pricing blocks that do
// not apply to the type are null.
func (p *Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.wire())
}

// FormField is one text part of the multipart body.
type FormField struct {
	Name  string
	Value string
}

// Fields flattens the payload into multipart text fields. Numbers are
// stringified and nested objects are JSON encoded.
func (p *Payload) Fields() ([]FormField, error) {
	w := p.wire()

	fields := []FormField{
		{"name", w.Name},
		{"description", w.Description},
		{"type", string(w.Type)},
		{"categoryId", w.CategoryID},
		{"subcategoryId", w.SubcategoryID},
		{"condition", string(w.Condition)},
		{"deliveryMode", string(w.DeliveryMode)},
	}

	price := "null"
	if w.Price != nil {
		price = strconv.FormatFloat(*w.Price, 'f', -1, 64)
	}
	fields = append(fields, FormField{"price", price})

	for _, obj := range []struct {
		name  string
		value any
	}{
		{"rentDetails", w.RentDetails},
		{"auctionDetails", w.AuctionDetails},
		{"location", w.Location},
		{"attributes", w.Attributes},
	} {
		b, err := json.Marshal(obj.value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, FormField{obj.name, string(b)})
	}

	if w.PickupAddress != "" {
		fields = append(fields, FormField{"pickupAddress", w.PickupAddress})
	}
	if w.AddressID != "" {
		fields = append(fields, FormField{"addressId", w.AddressID})
	}
	if len(w.ExistingImages) > 0 {
		b, err := json.Marshal(w.ExistingImages)
		if err != nil {
			return nil, err
		}
		fields = append(fields, FormField{"existingImages", string(b)})
	}
	return fields, nil
}

// FormatTime renders t in TimeLayout, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

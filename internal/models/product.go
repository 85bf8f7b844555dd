package models

import "time"

// ProductType enumerates the supported listing types.
type ProductType string

const (
	ProductTypeSell    ProductType = "SELL"
	ProductTypeRent    ProductType = "RENT"
	ProductTypeAuction ProductType = "AUCTION"
)

// ProductTypes lists every listing type in tab order.
var ProductTypes = []ProductType{ProductTypeSell, ProductTypeRent, ProductTypeAuction}

// Valid reports whether t is a known listing type.
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeSell, ProductTypeRent, ProductTypeAuction:
		return true
	}
	return false
}

// Condition enumerates the item condition values accepted by the marketplace.
// The mixed casing matches the upstream enum.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "REFURBISHED"
)

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}

// DeliveryMode enumerates how a listing reaches the buyer.
type DeliveryMode string

const (
	DeliverySeller      DeliveryMode = "seller_delivery"
	DeliveryBuyerPickup DeliveryMode = "buyer_pickup"
	DeliveryAppShipping DeliveryMode = "app_shipping"
)

// Valid reports whether m is a known delivery mode.
func (m DeliveryMode) Valid() bool {
	switch m {
	case DeliverySeller, DeliveryBuyerPickup, DeliveryAppShipping:
		return true
	}
	return false
}

// RentDurations are the allowed rental periods in months.
var RentDurations = []int{1, 3, 6, 12}

// ValidRentDuration reports whether months is one of RentDurations.
func ValidRentDuration(months int) bool {
	for _, d := range RentDurations {
		if d == months {
			return true
		}
	}
	return false
}

// RentDetails carries RENT-only pricing.
type RentDetails struct {
	RentPrice      float64  `json:"rentPrice"`
	Duration       int      `json:"duration"`
	SecurityAmount *float64 `json:"securityAmount,omitempty"`
}

// AuctionDetails carries AUCTION-only pricing.
type AuctionDetails struct {
	StartPrice   float64   `json:"startPrice"`
	ReservePrice float64   `json:"reservePrice"`
	BidIncrement float64   `json:"bidIncrement"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
}

// Attribute is one selected attribute value for a listing.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Product is a listing as returned by the marketplace API.
type Product struct {
	ID             string          `json:"_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Type           ProductType     `json:"type"`
	CategoryID     string          `json:"categoryId"`
	SubcategoryID  string          `json:"subcategoryId"`
	Condition      Condition       `json:"condition"`
	Price          *float64        `json:"price,omitempty"`
	RentDetails    *RentDetails    `json:"rentDetails,omitempty"`
	AuctionDetails *AuctionDetails `json:"auctionDetails,omitempty"`
	DeliveryMode   DeliveryMode    `json:"deliveryMode"`
	PickupAddress  string          `json:"pickupAddress,omitempty"`
	AddressID      string          `json:"addressId,omitempty"`
	Location       *GeoPoint       `json:"location,omitempty"`
	Attributes     []Attribute     `json:"attributes,omitempty"`
	Images         []string        `json:"images,omitempty"`
	Distance       *float64        `json:"distance,omitempty"` // meters, only on location queries
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
}

// ProductPage is one page of the product list.
type ProductPage struct {
	List  []Product `json:"list"`
	Total int       `json:"total"`
}

package productform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GTDGit/market_admin/internal/models"
)

// localTimeLayout is the value format of a browser datetime-local input.
const localTimeLayout = "2006-01-02T15:04"

// DecodeChange turns a JSON field update into a Change. Numeric inputs may
// arrive as numbers or as the raw text of the input; an empty string clears
// the value.
func DecodeChange(field string, raw json.RawMessage) (Change, error) {
	f := Field(field)
	if !f.Valid() {
		return Change{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	raw = bytes.TrimSpace(raw)
	isNull := len(raw) == 0 || string(raw) == "null"
	bad := func(err error) (Change, error) {
		return Change{}, fmt.Errorf("%w %s: %v", ErrInvalidValue, field, err)
	}

	switch f {
	case FieldName, FieldDescription, FieldCategoryID, FieldSubcategoryID,
		FieldPickupAddress, FieldAddressID, FieldType, FieldCondition, FieldDeliveryMode:
		var s string
		if !isNull {
			if err := json.Unmarshal(raw, &s); err != nil {
				return bad(err)
			}
		}
		return Change{Field: f, Value: s}, nil

	case FieldPrice, FieldRentPrice, FieldSecurityAmount,
		FieldStartPrice, FieldReservePrice, FieldBidIncrement:
		v, err := decodeNumber(raw)
		if err != nil {
			return bad(err)
		}
		return Change{Field: f, Value: v}, nil

	case FieldRentDuration:
		v, err := decodeNumber(raw)
		if err != nil {
			return bad(err)
		}
		months := 0
		if v != nil {
			months = int(*v)
			if float64(months) != *v {
				return bad(fmt.Errorf("duration must be a whole number of months"))
			}
		}
		return Change{Field: f, Value: months}, nil

	case FieldStartTime, FieldEndTime:
		var s string
		if !isNull {
			if err := json.Unmarshal(raw, &s); err != nil {
				return bad(err)
			}
		}
		t, err := ParseTime(s)
		if err != nil {
			return bad(err)
		}
		return Change{Field: f, Value: t}, nil

	case FieldLocation:
		if isNull {
			return Change{Field: f, Value: models.GeoPoint{Type: models.GeoPointType}}, nil
		}
		p, err := decodePoint(raw)
		if err != nil {
			return bad(err)
		}
		return Change{Field: f, Value: p}, nil

	case FieldAttributes:
		if isNull {
			return Change{Field: f, Value: []models.Attribute{}}, nil
		}
		if raw[0] == '{' {
			var a models.Attribute
			if err := json.Unmarshal(raw, &a); err != nil {
				return bad(err)
			}
			return Change{Field: f, Value: a}, nil
		}
		var list []models.Attribute
		if err := json.Unmarshal(raw, &list); err != nil {
			return bad(err)
		}
		return Change{Field: f, Value: list}, nil

	case FieldImages:
		var imgs []Image
		if !isNull {
			if err := json.Unmarshal(raw, &imgs); err != nil {
				return bad(err)
			}
		}
		for _, img := range imgs {
			if img.Upload != nil {
				return bad(fmt.Errorf("new images must be sent as multipart files"))
			}
		}
		return Change{Field: f, Value: append([]Image{}, imgs...)}, nil
	}
	return Change{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// ParseTime accepts RFC 3339 instants and datetime-local values, which are
// read as UTC. An empty string yields nil.
func ParseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, localTimeLayout, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised time %q", s)
}

func decodeNumber(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", s)
		}
		return &v, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// decodePoint accepts a GeoJSON point or a bare [lng, lat] pair.
func decodePoint(raw json.RawMessage) (models.GeoPoint, error) {
	if len(raw) > 0 && raw[0] == '[' {
		var coords []float64
		if err := json.Unmarshal(raw, &coords); err != nil {
			return models.GeoPoint{}, err
		}
		return models.GeoPoint{Type: models.GeoPointType, Coordinates: coords}, nil
	}
	var p models.GeoPoint
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.GeoPoint{}, err
	}
	return p, nil
}

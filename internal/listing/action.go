package listing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/GTDGit/market_admin/internal/models"
)

var ErrUnknownAction = errors.New("unknown list action")

// Action is one user interaction with the list screen.
type Action struct {
	Type  string          `json:"action"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Apply runs a decoded action against q.
func Apply(q Query, a Action) (Query, error) {
	switch a.Type {
	case "tab":
		var t models.ProductType
		if err := a.decode(&t); err != nil {
			return q, err
		}
		return q.WithTab(t)

	case "page":
		var p int
		if err := a.decode(&p); err != nil {
			return q, err
		}
		return q.WithPage(p), nil

	case "category":
		var id string
		if err := a.decode(&id); err != nil {
			return q, err
		}
		return q.WithCategory(id), nil

	case "subcategory":
		var id string
		if err := a.decode(&id); err != nil {
			return q, err
		}
		return q.WithSubcategory(id), nil

	case "attribute":
		var attr models.Attribute
		if err := a.decode(&attr); err != nil {
			return q, err
		}
		return q.WithAttribute(attr.Key, attr.Value), nil

	case "location":
		var loc struct {
			Enabled  bool             `json:"enabled"`
			Location *models.GeoPoint `json:"location"`
		}
		if err := a.decode(&loc); err != nil {
			return q, err
		}
		if loc.Location != nil && !loc.Location.InRange() {
			return q, fmt.Errorf("location out of range")
		}
		return q.WithLocation(loc.Enabled, loc.Location), nil

	case "location_failed":
		return q.WithoutLocation(), nil

	case "sort":
		var o SortOption
		if err := a.decode(&o); err != nil {
			return q, err
		}
		return q.WithSort(o)

	case "clear":
		return q.Cleared(), nil
	}
	return q, fmt.Errorf("%w: %s", ErrUnknownAction, a.Type)
}

func (a Action) decode(dst any) error {
	if len(a.Value) == 0 {
		return fmt.Errorf("action %s needs a value", a.Type)
	}
	if err := json.Unmarshal(a.Value, dst); err != nil {
		return fmt.Errorf("invalid value for action %s: %w", a.Type, err)
	}
	return nil
}

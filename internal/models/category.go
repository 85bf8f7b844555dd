package models

// Category levels.
const (
	LevelCategory    = 0
	LevelSubcategory = 1
)

// Status is the lifecycle state of a taxonomy entity. The marketplace
// stores it as two boolean flags; Status collapses them so callers never
// see the disabled+deleted combination.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDisabled Status = "DISABLED"
	StatusDeleted  Status = "DELETED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDisabled, StatusDeleted:
		return true
	}
	return false
}

// Destructive reports whether moving to s needs an explicit confirmation.
func (s Status) Destructive() bool {
	return s == StatusDisabled || s == StatusDeleted
}

// StatusFromFlags maps the wire flags onto a Status. Deleted wins.
func StatusFromFlags(disabled, deleted bool) Status {
	switch {
	case deleted:
		return StatusDeleted
	case disabled:
		return StatusDisabled
	default:
		return StatusActive
	}
}

// Category is a level-0 category or a level-1 subcategory.
type Category struct {
	ID         string  `json:"_id"`
	Name       string  `json:"name"`
	Order      int     `json:"order"`
	IsActive   bool    `json:"isActive"`
	IsDisabled bool    `json:"isDisabled"`
	IsDeleted  bool    `json:"isDeleted"`
	Level      int     `json:"level"`
	ParentID   *string `json:"parentId,omitempty"`
	Icon       string  `json:"icon,omitempty"`
	Type       string  `json:"type,omitempty"`
}

// Status returns the collapsed lifecycle state.
func (c Category) Status() Status {
	return StatusFromFlags(c.IsDisabled, c.IsDeleted)
}

// AttributeKey is a facet scoped to one subcategory.
type AttributeKey struct {
	ID         string           `json:"_id"`
	Name       string           `json:"name"`
	Order      int              `json:"order"`
	IsDisable  bool             `json:"isDisable"`
	IsDeleted  bool             `json:"isDeleted,omitempty"`
	IsRequired bool             `json:"isRequired,omitempty"`
	CategoryID string           `json:"categoryId"`
	Values     []AttributeValue `json:"values,omitempty"`
}

// Status returns the collapsed lifecycle state.
func (k AttributeKey) Status() Status {
	return StatusFromFlags(k.IsDisable, k.IsDeleted)
}

// HasValue reports whether id is one of the key's values.
func (k AttributeKey) HasValue(id string) bool {
	for _, v := range k.Values {
		if v.ID == id {
			return true
		}
	}
	return false
}

// AttributeValue is one selectable value of an AttributeKey.
type AttributeValue struct {
	ID    string `json:"_id"`
	Value string `json:"value"`
	Key   string `json:"key"`
}

package item

import "time"

// UnsavedID is the ID of an item that has not been inserted yet.
const UnsavedID int64 = -1

// Item is a stored thing with a description, an amount, an active flag and
// an optional picture.
type Item struct {
	// ID is assigned by the database. UnsavedID until the item is saved.
	ID int64 `json:"id"`

	Description string  `json:"descr"`
	Amount      float64 `json:"amount"`
	Active      bool    `json:"active"`

	// Picture holds raw image bytes. Nil and empty are both stored as an empty blob.
	Picture []byte `json:"picture,omitempty"`
}

// New returns an unsaved item.
func New(description string, amount float64, active bool, picture []byte) *Item {
	return &Item{
		ID:          UnsavedID,
		Description: description,
		Amount:      amount,
		Active:      active,
		Picture:     picture,
	}
}

// IsPersisted reports whether the item has a database id.
func (i *Item) IsPersisted() bool {
	return i.ID != UnsavedID
}

// Action names a change to an item.
type Action string

// Change actions carried by Event.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event describes a successful change to one item.
type Event struct {
	Action    Action
	ItemID    int64
	Timestamp time.Time
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/geo"
)

// Address is a geocoded point owned by a user. Temporary addresses are
// auto-created from location history (for example as a default request
// destination) and are excluded from uniqueness and matching rules that
// apply to permanent ones.
//
// Coordinates are immutable after creation. Only the descriptive text
// may be corrected, and only when the new text re-geocodes within
// ~111m of the stored coordinates.
type Address struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Location  geo.Point          `bson:"location" json:"location"`
	Text      string             `bson:"address" json:"address"`
	Temporary bool               `bson:"temporary" json:"temporary"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// AddressPrecision is the decimal rounding used for address
// uniqueness, roughly 111 metres per grid cell.
const AddressPrecision = 3

// AddressEpsilonDegrees is the re-geocode tolerance for text edits.
const AddressEpsilonDegrees = 0.001

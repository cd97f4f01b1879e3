package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Voucher is a one-shot point grant used to seed accounts during
// onboarding campaigns.
type Voucher struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Code       string              `bson:"code" json:"code"`
	Points     int                 `bson:"points" json:"points"`
	RedeemedBy *primitive.ObjectID `bson:"redeemedBy,omitempty" json:"redeemedBy,omitempty"`
	ExpiresAt  time.Time           `bson:"expiresAt" json:"expiresAt"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}

// Redeemable reports whether the voucher can still be used.
func (v *Voucher) Redeemable(now time.Time) bool {
	return v.RedeemedBy == nil && (v.ExpiresAt.IsZero() || now.Before(v.ExpiresAt))
}

// APIKey pairs a provisioned key with a device, one key per device.
// Keys are only persisted after the push delivering them to the device
// succeeded, so a stored key is known to have reached its holder.
type APIKey struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key       string             `bson:"apiKey" json:"apiKey"`
	DeviceID  string             `bson:"deviceId" json:"deviceId"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

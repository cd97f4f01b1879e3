package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/geo"
)

// TrackingPrecision is the decimal rounding applied to raw pings,
// roughly 11 metres per grid cell. Pings in the same cell and
// time bucket merge into one stationary location.
const TrackingPrecision = 4

// Location is a reported location ping, bucketed by day-of-week and
// hour so recurring schedules can be told apart. A ping that keeps
// being reported from the same cell grows its TimesReported counter
// instead of inserting new documents; once stationary it anchors the
// owner's travel region and may eventually be promoted to a permanent
// address.
type Location struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy     primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Location      geo.Point          `bson:"location" json:"location"`
	DayOfWeek     int                `bson:"dayOfWeek" json:"dayOfWeek"`
	Hour          int                `bson:"hour" json:"hour"`
	TimesReported int                `bson:"timesReported" json:"timesReported"`
	Current       bool               `bson:"current" json:"current"`
	Region        *geo.Geometry      `bson:"region,omitempty" json:"region,omitempty"`
	ReportedAt    time.Time          `bson:"reportedAt" json:"reportedAt"`
}

// Stationary reports whether this location has absorbed at least one
// repeat report.
func (l *Location) Stationary() bool {
	return l.TimesReported > 1
}

// SupplementTime fills the missing bucket fields from the report time,
// each independently so a ping may carry one and omit the other. ISO
// weekday numbering, Monday = 1. DayOfWeek below 1 or Hour below 0
// means the client supplied no value of its own.
func (l *Location) SupplementTime(at time.Time) {
	if l.DayOfWeek < 1 {
		day := int(at.UTC().Weekday())
		if day == 0 {
			day = 7
		}
		l.DayOfWeek = day
	}
	if l.Hour < 0 {
		l.Hour = at.UTC().Hour()
	}
}

// SameBucket reports whether other occupies the same time bucket and
// coordinate cell as this location.
func (l *Location) SameBucket(other *Location) bool {
	return l.DayOfWeek == other.DayOfWeek &&
		l.Hour == other.Hour &&
		geo.SamePlace(l.Location.Coordinates, other.Location.Coordinates, TrackingPrecision)
}

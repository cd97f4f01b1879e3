package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is an account on the platform. Points act as the delivery
// currency: pendingPoints holds the escrowed portion while a request
// is in flight.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy          primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy"`
	Username           string             `bson:"username" json:"username"`
	PasswordHash       string             `bson:"password" json:"-"`
	Active             bool               `bson:"active" json:"active"`
	Points             int                `bson:"points" json:"points"`
	PendingPoints      int                `bson:"pendingPoints" json:"pendingPoints"`
	Rating             float64            `bson:"rating" json:"rating"`
	NumberOfRatings    int                `bson:"numberOfRatings" json:"numberOfRatings"`
	RequestsReceived   int                `bson:"requestsRecieved" json:"requestsRecieved"`
	RequestsDelivered  int                `bson:"requestsDelivered" json:"requestsDelivered"`
	Phone              string             `bson:"phone,omitempty" json:"phone,omitempty"`
	DeviceID           string             `bson:"deviceId" json:"-"`
}

// StashPoints moves n points into escrow. Fails if the available
// balance is short.
func (u *User) StashPoints(n int) error {
	if n < 0 || u.Points < n {
		return ErrInsufficientPoints
	}
	u.Points -= n
	u.PendingPoints += n
	return nil
}

// SpendPoints releases n points out of escrow.
func (u *User) SpendPoints(n int) error {
	if n < 0 || u.PendingPoints < n {
		return ErrInsufficientPoints
	}
	u.PendingPoints -= n
	return nil
}

// AwardPoints credits n points to the available balance.
func (u *User) AwardPoints(n int) {
	u.Points += n
}

// AddRating folds a new rating into the running average.
func (u *User) AddRating(rating int) {
	u.Rating += (float64(rating) - u.Rating) / float64(u.NumberOfRatings+1)
	u.NumberOfRatings++
}

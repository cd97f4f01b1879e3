package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is the immutable public record of a rating left on a
// completed request, one per direction (requester rates the deliverer
// and vice versa). The rating is write-once; a comment may be added
// after the fact exactly once, which patches the existing record
// rather than creating a second one.
type Feedback struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID       primitive.ObjectID `bson:"requestId" json:"requestId"`
	RequestInviteID primitive.ObjectID `bson:"requestInviteId" json:"requestInviteId"`
	Rating          int                `bson:"rating" json:"rating"`
	Comment         string             `bson:"comment" json:"comment"`
	For             primitive.ObjectID `bson:"for" json:"for"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// Comment is a message left on a request, invite or public listing,
// notifying the counterparty.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Target    string             `bson:"target" json:"target"` // "request", "invite" or "public"
	TargetID  primitive.ObjectID `bson:"targetId" json:"targetId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Comment targets.
const (
	CommentOnRequest = "request"
	CommentOnInvite  = "invite"
	CommentOnPublic  = "public"
)

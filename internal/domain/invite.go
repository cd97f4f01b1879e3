package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/geo"
)

// Invite is a time-boxed private offer of a request to one candidate.
// From holds the request owner, CreatedBy the invitee.
//
// Acceptance is monotonic: an accepted invite can never revert to
// pending, and refusing one means deleting it. Attached invites can no
// longer be deleted, and acceptance freezes the expiry check.
type Invite struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID     primitive.ObjectID `bson:"requestId" json:"requestId"`
	From          primitive.ObjectID `bson:"from" json:"from"`
	CreatedBy     primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Accepted      bool               `bson:"accepted" json:"accepted"`
	Attached      bool               `bson:"attached" json:"attached"`
	Complete      bool               `bson:"complete" json:"complete"`
	Cancel        bool               `bson:"cancel" json:"cancel"`
	RequestExpiry time.Time          `bson:"requestExpiry" json:"requestExpiry"`
	Rating        int                `bson:"rating,omitempty" json:"rating,omitempty"`
	Comment       string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsExpired reports whether the invite should be pruned. Accepted and
// attached invites never expire.
func (i *Invite) IsExpired(now time.Time) bool {
	return !i.Accepted && !i.Attached && now.After(i.RequestExpiry)
}

// Accept applies the acceptance transition and notifies the request
// owner. Expired invites cannot be accepted; the caller deletes them.
func (i *Invite) Accept(now time.Time) ([]Event, error) {
	if i.Accepted {
		return nil, ErrImmutableAccepted
	}
	if i.IsExpired(now) {
		return nil, ErrInviteExpired
	}
	i.Accepted = true
	return []Event{NewEvent(EventRequestInviteAccepted, i.From, i.ID)}, nil
}

// PublicInvite is an unassigned, open-to-claim listing of a request.
// It exists only while the request has no live private invites and no
// candidates left, and is removed on attachment or cancellation.
//
// AcceptedBy is transient: a claim sets it, the claim conversion runs,
// and it is reset to nil so the listing stays claimable until the
// request owner attaches someone.
type PublicInvite struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RequestID  primitive.ObjectID  `bson:"requestId" json:"requestId"`
	From       primitive.ObjectID  `bson:"from" json:"from"`
	AcceptedBy *primitive.ObjectID `bson:"acceptedBy,omitempty" json:"acceptedBy,omitempty"`
	Location   geo.Point           `bson:"location" json:"location"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/geo"
)

// Item is something to be picked up and delivered.
type Item struct {
	Name        string  `bson:"name" json:"name"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Price       float64 `bson:"price" json:"price"`
}

// Place is a pickup location on a request.
type Place struct {
	Name     string    `bson:"name" json:"name"`
	Address  string    `bson:"address" json:"address"`
	Location geo.Point `bson:"location" json:"location"`
	Phone    string    `bson:"phone,omitempty" json:"phone,omitempty"`
	PlaceID  string    `bson:"placeId,omitempty" json:"placeId,omitempty"`
}

// Request is a delivery job posted by a user.
//
// Lifecycle: open (candidates or live invites outstanding) degrades to
// publicly listed (public invite, no candidates or invites left) until
// the owner attaches exactly one accepted invite; attachment clears
// candidates, retracts every competing invite and removes the public
// invite. From attached, the request terminates in either completion
// or mutual cancellation.
type Request struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CreatedBy         primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	Items             []Item               `bson:"items" json:"items"`
	Places            []Place              `bson:"places" json:"places"`
	Destination       primitive.ObjectID   `bson:"destination,omitempty" json:"destination"`
	RequestedTime     time.Time            `bson:"requestedTime" json:"requestedTime"`
	Points            int                  `bson:"points" json:"points"`
	Candidates        []primitive.ObjectID `bson:"candidates" json:"candidates"`
	InviteIDs         []primitive.ObjectID `bson:"inviteIds" json:"inviteIds"`
	AttachedInviteID  *primitive.ObjectID  `bson:"attachedInviteId,omitempty" json:"attachedInviteId,omitempty"`
	PublicInviteID    *primitive.ObjectID  `bson:"publicRequestInviteId,omitempty" json:"publicRequestInviteId,omitempty"`
	Complete          bool                 `bson:"complete" json:"complete"`
	Cancel            bool                 `bson:"cancel" json:"cancel"`
	MutuallyCancelled bool                 `bson:"isMutuallyCancelled" json:"isMutuallyCancelled"`
	Rating            int                  `bson:"rating,omitempty" json:"rating,omitempty"`
	Comment           string               `bson:"comment,omitempty" json:"comment,omitempty"`
	StaleWarned       bool                 `bson:"staleWarned" json:"staleWarned"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
}

// Attached reports whether the request is locked to an invite.
func (r *Request) Attached() bool {
	return r.AttachedInviteID != nil
}

// IsComplete reports whether the request reached a terminal state,
// successful or not.
func (r *Request) IsComplete() bool {
	return r.Complete || r.MutuallyCancelled
}

// HasCandidate reports whether userID is queued as a candidate.
func (r *Request) HasCandidate(userID primitive.ObjectID) bool {
	for _, c := range r.Candidates {
		if c == userID {
			return true
		}
	}
	return false
}

// MarkAttached validates and applies the attach transition: the chosen
// invite must belong to this request and be accepted, and the request
// must still be open. On success the request is locked to the invite,
// the candidate queue and competing invite list are cleared, and the
// public listing is withdrawn. The caller persists the change and
// deletes the retracted invites.
func (r *Request) MarkAttached(inv *Invite) ([]Event, error) {
	if r.MutuallyCancelled {
		return nil, ErrMutuallyCancelled
	}
	if r.Complete {
		return nil, ErrAlreadyComplete
	}
	if r.Attached() {
		return nil, ErrAlreadyAttached
	}
	if inv == nil || inv.RequestID != r.ID || !inv.Accepted {
		return nil, ErrAttachInvite
	}

	id := inv.ID
	r.AttachedInviteID = &id
	r.Candidates = nil
	r.InviteIDs = []primitive.ObjectID{inv.ID}
	r.PublicInviteID = nil
	inv.Attached = true

	return []Event{NewEvent(EventRequestInviteAttached, inv.CreatedBy, inv.ID)}, nil
}

// MarkComplete validates and applies the completion transition. The
// caller performs the escrow transfer and persists both documents.
func (r *Request) MarkComplete(inv *Invite) ([]Event, error) {
	if r.MutuallyCancelled {
		return nil, ErrMutuallyCancelled
	}
	if r.Complete {
		return nil, ErrAlreadyComplete
	}
	if !r.Attached() || inv == nil || inv.ID != *r.AttachedInviteID {
		return nil, ErrCompleteUnattached
	}

	r.Complete = true
	inv.Complete = true

	return []Event{NewEvent(EventRequestInviteCompleted, inv.CreatedBy, inv.ID)}, nil
}

// CancelSide identifies which party is asking to cancel.
type CancelSide int

const (
	CancelByRequester CancelSide = iota
	CancelByDeliverer
)

// RecordCancellation applies one side of the mutual-cancellation
// handshake. inv is the attached invite, nil when unattached. The
// returned bool is true when both sides have now agreed (or the
// request was never attached), meaning the request transitioned to
// its mutually-cancelled terminal state; the caller then refunds the
// escrow and purges child invites.
func (r *Request) RecordCancellation(inv *Invite, side CancelSide) (bool, []Event, error) {
	if r.MutuallyCancelled {
		return false, nil, ErrMutuallyCancelled
	}
	if r.Complete {
		return false, nil, ErrAlreadyComplete
	}
	if r.Attached() && (inv == nil || inv.ID != *r.AttachedInviteID) {
		return false, nil, ErrAttachInvite
	}

	switch side {
	case CancelByRequester:
		r.Cancel = true
	case CancelByDeliverer:
		if inv == nil {
			return false, nil, ErrCompleteUnattached
		}
		inv.Cancel = true
	}

	// unattached requests only need the requester's word
	if !r.Attached() {
		if r.Cancel {
			r.MutuallyCancelled = true
			return true, []Event{
				NewEvent(EventRequestMutuallyCancelled, r.CreatedBy, r.ID),
			}, nil
		}
		return false, nil, nil
	}

	if r.Cancel && inv.Cancel {
		r.MutuallyCancelled = true
		return true, []Event{
			NewEvent(EventRequestMutuallyCancelled, r.CreatedBy, r.ID),
			NewEvent(EventInviteMutuallyCancelled, inv.CreatedBy, inv.ID),
		}, nil
	}

	// one-sided so far: prompt the other party
	if side == CancelByRequester {
		return false, []Event{
			NewEvent(EventPromptInviteCancellation, inv.CreatedBy, inv.ID),
		}, nil
	}
	return false, []Event{
		NewEvent(EventPromptRequestCancellation, r.CreatedBy, r.ID),
	}, nil
}

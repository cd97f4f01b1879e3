package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Event kinds match the push payload "type" field the mobile clients
// dispatch on.
const (
	EventAPIKey                    = "apiKey"
	EventRequestInvite             = "requestInvite"
	EventRequestInviteAccepted     = "requestInviteAccepted"
	EventRequestInviteAttached     = "requestInviteAttached"
	EventRequestInviteCompleted    = "requestInviteCompleted"
	EventAddressCreated            = "addressCreated"
	EventFeedbackSubmitted         = "feedbackSubmitted"
	EventNewRequestComment         = "newRequestComment"
	EventNewPublicComment          = "newPublicComment"
	EventNewInviteComment          = "newInviteComment"
	EventRequestMutuallyCancelled  = "requestMutuallyCancelled"
	EventInviteMutuallyCancelled   = "inviteMutuallyCancelled"
	EventPromptInviteCancellation  = "promptInviteCancellation"
	EventPromptRequestCancellation = "promptRequestCancellation"
)

// Event is a domain event emitted by a state-machine transition. The
// calling layer translates events into notifier payloads; transitions
// themselves never talk to the notifier, which keeps them pure and
// testable.
type Event struct {
	Kind string
	// To is the user the notification is addressed to.
	To primitive.ObjectID
	// Ref is the document the event is about (invite, address,
	// feedback, ...), keyed in the payload under the event kind.
	Ref primitive.ObjectID
}

func NewEvent(kind string, to, ref primitive.ObjectID) Event {
	return Event{Kind: kind, To: to, Ref: ref}
}

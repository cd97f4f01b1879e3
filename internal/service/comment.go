package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/notifier"
	"frrand-backend/internal/repository"
)

type commentService struct {
	comments repository.CommentRepository
	requests repository.RequestRepository
	invites  repository.InviteRepository
	publics  repository.PublicInviteRepository
	sender   *notifier.EventSender
	log      *slog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	requests repository.RequestRepository,
	invites repository.InviteRepository,
	publics repository.PublicInviteRepository,
	sender *notifier.EventSender,
) CommentService {
	return &commentService{
		comments: comments,
		requests: requests,
		invites:  invites,
		publics:  publics,
		sender:   sender,
		log:      logger.WithService("comment"),
	}
}

// AddComment records a comment on a request, invite or public listing
// and notifies the counterparty.
func (s *commentService) AddComment(ctx context.Context, userID primitive.ObjectID, target string, targetID primitive.ObjectID, text string) (*domain.Comment, error) {
	kind, recipient, err := s.resolveRecipient(ctx, userID, target, targetID)
	if err != nil {
		return nil, err
	}

	c := &domain.Comment{
		CreatedBy: userID,
		Target:    target,
		TargetID:  targetID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}

	if recipient != userID {
		s.sender.Dispatch(ctx, []domain.Event{
			domain.NewEvent(kind, recipient, targetID),
		})
	}
	return c, nil
}

func (s *commentService) ListComments(ctx context.Context, target string, targetID primitive.ObjectID) ([]domain.Comment, error) {
	return s.comments.ListByTarget(ctx, target, targetID)
}

// resolveRecipient finds who should hear about the comment: the other
// party of the conversation the comment lands on.
func (s *commentService) resolveRecipient(ctx context.Context, author primitive.ObjectID, target string, targetID primitive.ObjectID) (string, primitive.ObjectID, error) {
	switch target {
	case domain.CommentOnRequest:
		req, err := s.requests.GetByID(ctx, targetID)
		if err != nil {
			return "", primitive.NilObjectID, err
		}
		if req.CreatedBy != author {
			return domain.EventNewRequestComment, req.CreatedBy, nil
		}
		if req.AttachedInviteID != nil {
			inv, err := s.invites.GetByID(ctx, *req.AttachedInviteID)
			if err != nil {
				return "", primitive.NilObjectID, err
			}
			return domain.EventNewRequestComment, inv.CreatedBy, nil
		}
		return domain.EventNewRequestComment, req.CreatedBy, nil
	case domain.CommentOnInvite:
		inv, err := s.invites.GetByID(ctx, targetID)
		if err != nil {
			return "", primitive.NilObjectID, err
		}
		if inv.CreatedBy == author {
			return domain.EventNewInviteComment, inv.From, nil
		}
		return domain.EventNewInviteComment, inv.CreatedBy, nil
	case domain.CommentOnPublic:
		pub, err := s.publics.GetByID(ctx, targetID)
		if err != nil {
			return "", primitive.NilObjectID, err
		}
		return domain.EventNewPublicComment, pub.From, nil
	default:
		return "", primitive.NilObjectID, fmt.Errorf("unknown comment target %q", target)
	}
}

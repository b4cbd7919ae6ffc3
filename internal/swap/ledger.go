package swap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// InteractionService is the ledger of placed requests against a SwapRequest.
// It enforces who may act and delegates the race-sensitive writes to the
// store, which re-checks state under the request row lock.
type InteractionService struct {
	interactions InteractionStore
	requests     RequestStore
	notifier     Notifier
}

func NewInteractionService(interactions InteractionStore, requests RequestStore, notifier Notifier) *InteractionService {
	return &InteractionService{interactions: interactions, requests: requests, notifier: notifier}
}

// Place creates a Pending interaction for requesterID against the request and
// notifies the owner. Owners cannot place against their own request, the
// request must still be Open, and the pair must not already have a Pending or
// Approved interaction. A previously Rejected requester may place again.
func (s *InteractionService) Place(ctx context.Context, requestID, requesterID string) (*Interaction, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.OwnerID == requesterID {
		return nil, fmt.Errorf("%w: cannot place a request against your own offer", ErrForbidden)
	}
	if req.Status != StatusOpen {
		return nil, fmt.Errorf("%w: request is %s, not open", ErrInvalidState, req.Status)
	}
	active, err := s.interactions.HasActive(ctx, requestID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("checking existing interactions: %w", err)
	}
	if active {
		return nil, fmt.Errorf("%w: you already have an active request on this offer", ErrConflict)
	}

	in := &Interaction{
		ID:            uuid.New().String(),
		SwapRequestID: requestID,
		RequesterID:   requesterID,
		Status:        InteractionPending,
		CreatedAt:     time.Now(),
	}
	// The store re-checks openness and pair uniqueness atomically; an
	// in-flight approval or duplicate placement loses here.
	if err := s.interactions.Create(ctx, in); err != nil {
		return nil, err
	}

	s.notifier.Notify(UserParty(req.OwnerID), "swap_placed",
		fmt.Sprintf("Someone placed a request on your offer %q.", req.ServiceTitle))
	log.Printf("interaction %s placed on swap %s by %s", in.ID, requestID, requesterID)
	return in, nil
}

// Approve accepts one Pending interaction. The store atomically rejects every
// sibling Pending interaction and moves the request to InProgress, so at most
// one partner is ever Approved. Each rejected sibling is notified.
func (s *InteractionService) Approve(ctx context.Context, interactionID, actorID string) (*Interaction, error) {
	in, err := s.interactions.GetByID(ctx, interactionID)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, in.SwapRequestID)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != actorID {
		return nil, fmt.Errorf("%w: only the owner may approve a request", ErrForbidden)
	}
	if in.Status != InteractionPending {
		return nil, fmt.Errorf("%w: interaction is %s, not pending", ErrInvalidState, in.Status)
	}
	if _, err := s.interactions.GetApproved(ctx, in.SwapRequestID); err == nil {
		return nil, fmt.Errorf("%w: another partner is already approved", ErrInvalidState)
	}

	outcome, err := s.interactions.Approve(ctx, interactionID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(UserParty(outcome.Interaction.RequesterID), "swap_approved",
		fmt.Sprintf("Your request on %q was approved.", req.ServiceTitle))
	for _, rejected := range outcome.RejectedRequesters {
		s.notifier.Notify(UserParty(rejected), "swap_rejected",
			fmt.Sprintf("Your request on %q was not selected.", req.ServiceTitle))
	}
	log.Printf("interaction %s approved on swap %s, %d sibling(s) rejected",
		interactionID, in.SwapRequestID, len(outcome.RejectedRequesters))
	return outcome.Interaction, nil
}

// Reject declines a Pending interaction and notifies its requester.
func (s *InteractionService) Reject(ctx context.Context, interactionID, actorID string) (*Interaction, error) {
	in, err := s.interactions.GetByID(ctx, interactionID)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, in.SwapRequestID)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != actorID {
		return nil, fmt.Errorf("%w: only the owner may reject a request", ErrForbidden)
	}
	if in.Status != InteractionPending {
		return nil, fmt.Errorf("%w: interaction is %s, not pending", ErrInvalidState, in.Status)
	}

	rejected, err := s.interactions.Reject(ctx, interactionID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(UserParty(rejected.RequesterID), "swap_rejected",
		fmt.Sprintf("Your request on %q was rejected.", req.ServiceTitle))
	log.Printf("interaction %s rejected on swap %s", interactionID, in.SwapRequestID)
	return rejected, nil
}

func (s *InteractionService) ListForRequest(ctx context.Context, requestID string) ([]Interaction, error) {
	return s.interactions.ListByRequest(ctx, requestID)
}

func (s *InteractionService) Approved(ctx context.Context, requestID string) (*Interaction, error) {
	return s.interactions.GetApproved(ctx, requestID)
}

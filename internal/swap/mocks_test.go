package swap_test

import (
	"context"
	"sync"

	"github.com/sudo-init-do/skillswap/internal/swap"
)

type mockRequestStore struct {
	createFn           func(ctx context.Context, req *swap.SwapRequest) error
	getByIDFn          func(ctx context.Context, id string) (*swap.SwapRequest, error)
	updateOpenFieldsFn func(ctx context.Context, req *swap.SwapRequest) error
	deleteOpenFn       func(ctx context.Context, id string) error
	cancelFn           func(ctx context.Context, id string) (*swap.Interaction, error)
	completeFn         func(ctx context.Context, id string) error
	listOpenFn         func(ctx context.Context, limit, offset int) ([]swap.SwapRequest, error)
	listByOwnerFn      func(ctx context.Context, ownerID string) ([]swap.SwapRequest, error)
	listOpenForUserFn  func(ctx context.Context, userID string) ([]swap.SwapRequest, error)
}

func (m *mockRequestStore) Create(ctx context.Context, req *swap.SwapRequest) error {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil
}

func (m *mockRequestStore) GetByID(ctx context.Context, id string) (*swap.SwapRequest, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, swap.ErrNotFound
}

func (m *mockRequestStore) UpdateOpenFields(ctx context.Context, req *swap.SwapRequest) error {
	if m.updateOpenFieldsFn != nil {
		return m.updateOpenFieldsFn(ctx, req)
	}
	return nil
}

func (m *mockRequestStore) DeleteOpen(ctx context.Context, id string) error {
	if m.deleteOpenFn != nil {
		return m.deleteOpenFn(ctx, id)
	}
	return nil
}

func (m *mockRequestStore) Cancel(ctx context.Context, id string) (*swap.Interaction, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRequestStore) Complete(ctx context.Context, id string) error {
	if m.completeFn != nil {
		return m.completeFn(ctx, id)
	}
	return nil
}

func (m *mockRequestStore) ListOpen(ctx context.Context, limit, offset int) ([]swap.SwapRequest, error) {
	if m.listOpenFn != nil {
		return m.listOpenFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockRequestStore) ListByOwner(ctx context.Context, ownerID string) ([]swap.SwapRequest, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockRequestStore) ListOpenForUser(ctx context.Context, userID string) ([]swap.SwapRequest, error) {
	if m.listOpenForUserFn != nil {
		return m.listOpenForUserFn(ctx, userID)
	}
	return nil, nil
}

type mockInteractionStore struct {
	createFn        func(ctx context.Context, in *swap.Interaction) error
	getByIDFn       func(ctx context.Context, id string) (*swap.Interaction, error)
	listByRequestFn func(ctx context.Context, requestID string) ([]swap.Interaction, error)
	getApprovedFn   func(ctx context.Context, requestID string) (*swap.Interaction, error)
	hasActiveFn     func(ctx context.Context, requestID, requesterID string) (bool, error)
	approveFn       func(ctx context.Context, id string) (*swap.ApprovalOutcome, error)
	rejectFn        func(ctx context.Context, id string) (*swap.Interaction, error)
}

func (m *mockInteractionStore) Create(ctx context.Context, in *swap.Interaction) error {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil
}

func (m *mockInteractionStore) GetByID(ctx context.Context, id string) (*swap.Interaction, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, swap.ErrNotFound
}

func (m *mockInteractionStore) ListByRequest(ctx context.Context, requestID string) ([]swap.Interaction, error) {
	if m.listByRequestFn != nil {
		return m.listByRequestFn(ctx, requestID)
	}
	return nil, nil
}

func (m *mockInteractionStore) GetApproved(ctx context.Context, requestID string) (*swap.Interaction, error) {
	if m.getApprovedFn != nil {
		return m.getApprovedFn(ctx, requestID)
	}
	return nil, swap.ErrNotFound
}

func (m *mockInteractionStore) HasActive(ctx context.Context, requestID, requesterID string) (bool, error) {
	if m.hasActiveFn != nil {
		return m.hasActiveFn(ctx, requestID, requesterID)
	}
	return false, nil
}

func (m *mockInteractionStore) Approve(ctx context.Context, id string) (*swap.ApprovalOutcome, error) {
	if m.approveFn != nil {
		return m.approveFn(ctx, id)
	}
	return nil, nil
}

func (m *mockInteractionStore) Reject(ctx context.Context, id string) (*swap.Interaction, error) {
	if m.rejectFn != nil {
		return m.rejectFn(ctx, id)
	}
	return nil, nil
}

type mockProgressStore struct {
	appendFn           func(ctx context.Context, up *swap.ProgressUpdate) error
	listByRequestFn    func(ctx context.Context, requestID string) ([]swap.ProgressUpdate, error)
	latestPercentageFn func(ctx context.Context, requestID, participantID string) (int, error)
}

func (m *mockProgressStore) Append(ctx context.Context, up *swap.ProgressUpdate) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, up)
	}
	return nil
}

func (m *mockProgressStore) ListByRequest(ctx context.Context, requestID string) ([]swap.ProgressUpdate, error) {
	if m.listByRequestFn != nil {
		return m.listByRequestFn(ctx, requestID)
	}
	return nil, nil
}

func (m *mockProgressStore) LatestPercentage(ctx context.Context, requestID, participantID string) (int, error) {
	if m.latestPercentageFn != nil {
		return m.latestPercentageFn(ctx, requestID, participantID)
	}
	return 0, nil
}

// recordedEvent is one Notify call as seen by the notifier recorder.
type recordedEvent struct {
	Recipient swap.Party
	Event     string
	Message   string
}

type notifierRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *notifierRecorder) Notify(recipient swap.Party, event, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Recipient: recipient, Event: event, Message: message})
}

func (r *notifierRecorder) sent() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

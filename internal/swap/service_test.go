package swap_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/skillswap/internal/swap"
)

func newRequestService(requests *mockRequestStore, interactions *mockInteractionStore, progress *mockProgressStore, notifier *notifierRecorder) *swap.RequestService {
	if requests == nil {
		requests = &mockRequestStore{}
	}
	if interactions == nil {
		interactions = &mockInteractionStore{}
	}
	if progress == nil {
		progress = &mockProgressStore{}
	}
	if notifier == nil {
		notifier = &notifierRecorder{}
	}
	return swap.NewRequestService(requests, interactions, progress, notifier)
}

func openRequest(id, ownerID string) *swap.SwapRequest {
	return &swap.SwapRequest{
		ID:                id,
		OwnerID:           ownerID,
		ServiceTitle:      "Guitar lessons",
		ServiceCategories: []string{"music"},
		ServiceRequired:   "Spanish tutoring",
		Status:            swap.StatusOpen,
		CreatedAt:         time.Now(),
	}
}

func TestCreateRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("fills defaults and normalizes categories", func(t *testing.T) {
		var captured *swap.SwapRequest
		requests := &mockRequestStore{
			createFn: func(_ context.Context, req *swap.SwapRequest) error {
				captured = req
				return nil
			},
		}
		svc := newRequestService(requests, nil, nil, nil)

		req, err := svc.Create(ctx, "owner-1", swap.CreateRequestInput{
			ServiceTitle:      "  Guitar lessons  ",
			ServiceCategories: []string{"Music", " music ", "", "Teaching"},
			ServiceRequired:   "Spanish tutoring",
		})
		require.NoError(t, err)
		require.NotNil(t, captured)

		assert.NotEmpty(t, req.ID)
		assert.Equal(t, "owner-1", req.OwnerID)
		assert.Equal(t, "Guitar lessons", req.ServiceTitle)
		assert.Equal(t, []string{"music", "teaching"}, req.ServiceCategories)
		assert.Equal(t, swap.StatusOpen, req.Status)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		svc := newRequestService(nil, nil, nil, nil)
		_, err := svc.Create(ctx, "owner-1", swap.CreateRequestInput{
			ServiceRequired: "Spanish tutoring",
		})
		assert.ErrorIs(t, err, swap.ErrValidation)
	})

	t.Run("rejects missing required service", func(t *testing.T) {
		svc := newRequestService(nil, nil, nil, nil)
		_, err := svc.Create(ctx, "owner-1", swap.CreateRequestInput{
			ServiceTitle: "Guitar lessons",
		})
		assert.ErrorIs(t, err, swap.ErrValidation)
	})

	t.Run("rejects negative experience", func(t *testing.T) {
		svc := newRequestService(nil, nil, nil, nil)
		years := -1
		_, err := svc.Create(ctx, "owner-1", swap.CreateRequestInput{
			ServiceTitle:      "Guitar lessons",
			ServiceRequired:   "Spanish tutoring",
			YearsOfExperience: &years,
		})
		assert.ErrorIs(t, err, swap.ErrValidation)
	})
}

func TestEditRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("owner edits open request", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return openRequest(id, "owner-1"), nil
			},
		}
		svc := newRequestService(requests, nil, nil, nil)

		title := "Bass lessons"
		req, err := svc.Edit(ctx, "req-1", "owner-1", swap.EditRequestInput{ServiceTitle: &title})
		require.NoError(t, err)
		assert.Equal(t, "Bass lessons", req.ServiceTitle)
		assert.Equal(t, "Spanish tutoring", req.ServiceRequired)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return openRequest(id, "owner-1"), nil
			},
		}
		svc := newRequestService(requests, nil, nil, nil)

		title := "Bass lessons"
		_, err := svc.Edit(ctx, "req-1", "someone-else", swap.EditRequestInput{ServiceTitle: &title})
		assert.ErrorIs(t, err, swap.ErrForbidden)
	})

	t.Run("in-progress request cannot be edited", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				req := openRequest(id, "owner-1")
				req.Status = swap.StatusInProgress
				return req, nil
			},
		}
		svc := newRequestService(requests, nil, nil, nil)

		title := "Bass lessons"
		_, err := svc.Edit(ctx, "req-1", "owner-1", swap.EditRequestInput{ServiceTitle: &title})
		assert.ErrorIs(t, err, swap.ErrInvalidState)
	})

	t.Run("blank title edit is rejected", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return openRequest(id, "owner-1"), nil
			},
		}
		svc := newRequestService(requests, nil, nil, nil)

		blank := "   "
		_, err := svc.Edit(ctx, "req-1", "owner-1", swap.EditRequestInput{ServiceTitle: &blank})
		assert.ErrorIs(t, err, swap.ErrValidation)
	})
}

func TestCancelRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("owner cancels, forced-out partner is notified", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				req := openRequest(id, "owner-1")
				req.Status = swap.StatusInProgress
				return req, nil
			},
			cancelFn: func(_ context.Context, id string) (*swap.Interaction, error) {
				return &swap.Interaction{
					ID:            "int-1",
					SwapRequestID: id,
					RequesterID:   "partner-1",
					Status:        swap.InteractionRejected,
				}, nil
			},
		}
		notifier := &notifierRecorder{}
		svc := newRequestService(requests, nil, nil, notifier)

		req, err := svc.Cancel(ctx, "req-1", "owner-1")
		require.NoError(t, err)
		assert.Equal(t, swap.StatusCancelled, req.Status)

		events := notifier.sent()
		require.Len(t, events, 1)
		assert.Equal(t, "swap_cancelled", events[0].Event)
		assert.Equal(t, swap.UserParty("partner-1"), events[0].Recipient)
	})

	t.Run("cancelling an open request notifies nobody", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return openRequest(id, "owner-1"), nil
			},
		}
		notifier := &notifierRecorder{}
		svc := newRequestService(requests, nil, nil, notifier)

		_, err := svc.Cancel(ctx, "req-1", "owner-1")
		require.NoError(t, err)
		assert.Empty(t, notifier.sent())
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return openRequest(id, "owner-1"), nil
			},
		}
		svc := newRequestService(requests, nil, nil, nil)

		_, err := svc.Cancel(ctx, "req-1", "intruder")
		assert.ErrorIs(t, err, swap.ErrForbidden)
	})

	t.Run("terminal request surfaces invalid state", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				req := openRequest(id, "owner-1")
				req.Status = swap.StatusCompleted
				return req, nil
			},
			cancelFn: func(_ context.Context, _ string) (*swap.Interaction, error) {
				return nil, swap.ErrInvalidState
			},
		}
		svc := newRequestService(requests, nil, nil, nil)

		_, err := svc.Cancel(ctx, "req-1", "owner-1")
		assert.ErrorIs(t, err, swap.ErrInvalidState)
	})
}

func TestDeleteRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes open request", func(t *testing.T) {
		deleted := ""
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return openRequest(id, "owner-1"), nil
			},
			deleteOpenFn: func(_ context.Context, id string) error {
				deleted = id
				return nil
			},
		}
		svc := newRequestService(requests, nil, nil, nil)

		require.NoError(t, svc.Delete(ctx, "req-1", "owner-1"))
		assert.Equal(t, "req-1", deleted)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return openRequest(id, "owner-1"), nil
			},
		}
		svc := newRequestService(requests, nil, nil, nil)
		assert.ErrorIs(t, svc.Delete(ctx, "req-1", "intruder"), swap.ErrForbidden)
	})

	t.Run("store conflict propagates", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return openRequest(id, "owner-1"), nil
			},
			deleteOpenFn: func(_ context.Context, _ string) error {
				return swap.ErrConflict
			},
		}
		svc := newRequestService(requests, nil, nil, nil)
		assert.ErrorIs(t, svc.Delete(ctx, "req-1", "owner-1"), swap.ErrConflict)
	})
}

func TestCompleteRequest(t *testing.T) {
	ctx := context.Background()

	inProgress := func(id string) *swap.SwapRequest {
		req := openRequest(id, "owner-1")
		req.Status = swap.StatusInProgress
		return req
	}
	approved := &swap.Interaction{
		ID:            "int-1",
		SwapRequestID: "req-1",
		RequesterID:   "partner-1",
		Status:        swap.InteractionApproved,
	}

	t.Run("both sides at 100 completes and notifies both", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return inProgress(id), nil
			},
		}
		interactions := &mockInteractionStore{
			getApprovedFn: func(_ context.Context, _ string) (*swap.Interaction, error) {
				return approved, nil
			},
		}
		progress := &mockProgressStore{
			latestPercentageFn: func(_ context.Context, _, _ string) (int, error) {
				return 100, nil
			},
		}
		notifier := &notifierRecorder{}
		svc := newRequestService(requests, interactions, progress, notifier)

		req, err := svc.Complete(ctx, "req-1", "partner-1")
		require.NoError(t, err)
		assert.Equal(t, swap.StatusCompleted, req.Status)

		events := notifier.sent()
		require.Len(t, events, 2)
		assert.Equal(t, "swap_completed", events[0].Event)
		assert.Equal(t, swap.UserParty("owner-1"), events[0].Recipient)
		assert.Equal(t, swap.UserParty("partner-1"), events[1].Recipient)
	})

	t.Run("partner below 100 fails precondition", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return inProgress(id), nil
			},
		}
		interactions := &mockInteractionStore{
			getApprovedFn: func(_ context.Context, _ string) (*swap.Interaction, error) {
				return approved, nil
			},
		}
		progress := &mockProgressStore{
			latestPercentageFn: func(_ context.Context, _, participantID string) (int, error) {
				if participantID == "partner-1" {
					return 80, nil
				}
				return 100, nil
			},
		}
		svc := newRequestService(requests, interactions, progress, nil)

		_, err := svc.Complete(ctx, "req-1", "owner-1")
		assert.ErrorIs(t, err, swap.ErrPreconditionFailed)
	})

	t.Run("not in progress fails precondition", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return openRequest(id, "owner-1"), nil
			},
		}
		svc := newRequestService(requests, nil, nil, nil)

		_, err := svc.Complete(ctx, "req-1", "owner-1")
		assert.ErrorIs(t, err, swap.ErrPreconditionFailed)
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		requests := &mockRequestStore{
			getByIDFn: func(_ context.Context, id string) (*swap.SwapRequest, error) {
				return inProgress(id), nil
			},
		}
		interactions := &mockInteractionStore{
			getApprovedFn: func(_ context.Context, _ string) (*swap.Interaction, error) {
				return approved, nil
			},
		}
		svc := newRequestService(requests, interactions, nil, nil)

		_, err := svc.Complete(ctx, "req-1", "bystander")
		assert.ErrorIs(t, err, swap.ErrForbidden)
	})
}

func TestListOpenClampsLimit(t *testing.T) {
	ctx := context.Background()

	var gotLimit, gotOffset int
	requests := &mockRequestStore{
		listOpenFn: func(_ context.Context, limit, offset int) ([]swap.SwapRequest, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	svc := newRequestService(requests, nil, nil, nil)

	_, err := svc.ListOpen(ctx, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 20, gotLimit)
	assert.Equal(t, 0, gotOffset)

	_, err = svc.ListOpen(ctx, 500, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, gotLimit)
	assert.Equal(t, 10, gotOffset)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, swap.CanTransition(swap.StatusOpen, swap.StatusInProgress))
	assert.True(t, swap.CanTransition(swap.StatusOpen, swap.StatusCancelled))
	assert.True(t, swap.CanTransition(swap.StatusInProgress, swap.StatusCompleted))
	assert.True(t, swap.CanTransition(swap.StatusInProgress, swap.StatusCancelled))

	assert.False(t, swap.CanTransition(swap.StatusOpen, swap.StatusCompleted))
	assert.False(t, swap.CanTransition(swap.StatusCompleted, swap.StatusInProgress))
	assert.False(t, swap.CanTransition(swap.StatusCancelled, swap.StatusOpen))
}

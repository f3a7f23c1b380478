package clinic

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type DeleteUserMessage struct {
	UserID string `json:"user_id"`
	// ActorID identifies the authenticated account performing the delete
	ActorID string `json:"-"`
}

func (e DeleteUserMessage) Type() string { return "user.delete" }

func (e DeleteUserMessage) Validate() error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.UserID, validation.Required, is.UUIDv4),
		)
	}, "Invalid delete payload")
}

// DeleteUserHandler removes accounts. An administrator can never remove
// their own account; the guard runs before the row lookup so the caller
// learns about the policy violation even when the id is stale.
type DeleteUserHandler struct {
	repo RepositoryManager
}

func NewDeleteUserHandler(repo RepositoryManager) *DeleteUserHandler {
	return &DeleteUserHandler{repo: repo}
}

func (h *DeleteUserHandler) Execute(ctx context.Context, event DeleteUserMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	if event.ActorID != "" && event.ActorID == event.UserID {
		return ErrSelfDeletion.Clone().WithMetadata(map[string]any{
			"user_id": event.UserID,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByID(ctx, event.UserID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrIdentityNotFound.Clone().WithMetadata(map[string]any{
					"user_id": event.UserID,
				})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
		}

		return h.repo.Users().DeleteByIDTx(ctx, tx, user.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user delete transaction failed")
	}

	return nil
}

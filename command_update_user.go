package clinic

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type UpdateUserMessage struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone_number"`
	Role     string `json:"role"`
	// Password is optional: when empty the stored hash is untouched
	Password string `json:"password"`

	OnResponse func(*User) `json:"-"`
}

func (e UpdateUserMessage) Type() string { return "user.update" }

func (e UpdateUserMessage) Validate() error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.UserID, validation.Required, is.UUIDv4),
			validation.Field(&e.Username, validation.Length(3, 100)),
			validation.Field(&e.Email, is.Email),
			validation.Field(&e.Password, validation.Length(6, 72)),
			validation.Field(&e.Role, validation.In(RoleAdmin, RoleDoctor, RolePatient)),
			validation.Field(&e.Phone, validation.By(validatePhoneNumber)),
		)
	}, "Invalid update payload")
}

// UpdateUserHandler mutates an existing account. The password hash is
// only recomputed when the message carries a new password.
type UpdateUserHandler struct {
	repo RepositoryManager
}

func NewUpdateUserHandler(repo RepositoryManager) *UpdateUserHandler {
	return &UpdateUserHandler{repo: repo}
}

func (h *UpdateUserHandler) Execute(ctx context.Context, event UpdateUserMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	var updated *User
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

		if event.Username != "" {
			user.Username = event.Username
		}

		if event.Email != "" {
			user.Email = strings.ToLower(event.Email)
		}

		if event.Phone != "" {
			user.Phone = event.Phone
		}

		if event.Role != "" {
			user.Role = event.Role
		}

		if event.Password != "" {
			hash, err := HashPassword(event.Password)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
			}
			user.PasswordHash = hash
		}

		if err := h.repo.Users().EnsureUniqueTx(ctx, tx, user); err != nil {
			return err
		}

		if updated, err = h.repo.Users().UpdateTx(ctx, tx, user, repository.UpdateByID(event.UserID)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user update transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(updated)
	}

	return nil
}

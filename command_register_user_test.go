package clinic_test

import (
	"context"
	"testing"

	clinic "github.com/goliatone/go-clinic"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserMessageValidate(t *testing.T) {
	valid := clinic.RegisterUserMessage{
		Username: "jane.doe",
		Email:    "jane@clinic.local",
		Password: "secret1",
		Role:     clinic.RolePatient,
	}

	t.Run("accepts a minimal valid payload", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("rejects a bad email", func(t *testing.T) {
		msg := valid
		msg.Email = "not-an-email"
		assert.Error(t, msg.Validate())
	})

	t.Run("rejects a short password", func(t *testing.T) {
		msg := valid
		msg.Password = "nope"
		assert.Error(t, msg.Validate())
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		msg := valid
		msg.Role = "superuser"
		assert.Error(t, msg.Validate())
	})

	t.Run("rejects an invalid phone number", func(t *testing.T) {
		msg := valid
		msg.Phone = "123"
		assert.Error(t, msg.Validate())
	})

	t.Run("accepts an empty phone number", func(t *testing.T) {
		msg := valid
		msg.Phone = ""
		assert.NoError(t, msg.Validate())
	})

	t.Run("maps failures to per field entries", func(t *testing.T) {
		msg := valid
		msg.Email = "not-an-email"
		msg.Password = "nope"

		err := msg.Validate()
		require.Error(t, err)

		var richErr *errors.Error
		require.True(t, errors.As(err, &richErr))

		fields := richErr.ValidationMap()
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
	})
}

func TestRegisterUserHandlerExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an account with a hashed password", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}

		repo.On("Users").Return(users)
		repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		users.On("EnsureUniqueTx", mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()
		users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, nil).Once()

		handler := clinic.NewRegisterUserHandler(repo)

		var got *clinic.User
		err := handler.Execute(ctx, clinic.RegisterUserMessage{
			Username: "jane.doe",
			Email:    "jane@clinic.local",
			Password: "secret1",
			Role:     clinic.RolePatient,
			OnResponse: func(u *clinic.User) {
				got = u
			},
		})

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "jane.doe", got.Username)
		assert.Equal(t, "jane@clinic.local", got.Email)
		assert.Equal(t, clinic.RolePatient, got.Role)

		// the plaintext never reaches the store
		assert.NotEqual(t, "secret1", got.PasswordHash)
		assert.NoError(t, clinic.ComparePasswordAndHash("secret1", got.PasswordHash))

		repo.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("derives the username from the email when missing", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}

		repo.On("Users").Return(users)
		repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		users.On("EnsureUniqueTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Once()

		handler := clinic.NewRegisterUserHandler(repo)

		var got *clinic.User
		err := handler.Execute(ctx, clinic.RegisterUserMessage{
			Email:    "walter@clinic.local",
			Password: "secret1",
			OnResponse: func(u *clinic.User) {
				got = u
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "walter", got.Username)
	})

	t.Run("validation failures never touch the store", func(t *testing.T) {
		repo := &MockRepositoryManager{}

		handler := clinic.NewRegisterUserHandler(repo)

		err := handler.Execute(ctx, clinic.RegisterUserMessage{
			Email:    "jane@clinic.local",
			Password: "nope",
		})

		require.Error(t, err)
		assert.Equal(t, 400, clinic.HTTPStatus(err))
		repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate email conflict names the field", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		users := &MockUsers{}

		conflict := errors.New("email is already taken", errors.CategoryConflict).
			WithTextCode("DUPLICATE_FIELD").
			WithMetadata(map[string]any{"field": "email"})

		repo.On("Users").Return(users)
		repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		users.On("EnsureUniqueTx", mock.Anything, mock.Anything, mock.Anything).
			Return(conflict).Once()

		handler := clinic.NewRegisterUserHandler(repo)

		err := handler.Execute(ctx, clinic.RegisterUserMessage{
			Username: "jane.doe",
			Email:    "jane@clinic.local",
			Password: "secret1",
		})

		require.Error(t, err)

		var richErr *errors.Error
		require.True(t, errors.As(err, &richErr))
		assert.Equal(t, "DUPLICATE_FIELD", richErr.TextCode)
		assert.Equal(t, "email", richErr.Metadata["field"])
		assert.Equal(t, 400, clinic.HTTPStatus(err))

		users.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled context aborts before work", func(t *testing.T) {
		repo := &MockRepositoryManager{}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		handler := clinic.NewRegisterUserHandler(repo)
		err := handler.Execute(cancelled, clinic.RegisterUserMessage{
			Email:    "jane@clinic.local",
			Password: "secret1",
		})

		require.Error(t, err)
		repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

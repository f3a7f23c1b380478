package clinic_test

import (
	"context"
	"testing"
	"time"

	clinic "github.com/goliatone/go-clinic"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, repo clinic.RepositoryManager, auther clinic.Authenticator) *clinic.APIController {
	t.Helper()
	return clinic.NewAPIController(
		clinic.WithControllerLogger(testLogger{}),
		clinic.WithControllerRepo(repo),
		clinic.WithControllerAuther(auther),
		clinic.WithControllerGate(newTestGate(t, auther)),
	)
}

func TestRegistrationCreate(t *testing.T) {
	t.Run("public sign up always creates a patient and signs it in", func(t *testing.T) {
		users := new(MockUsers)
		repo := new(MockRepositoryManager)
		auther := new(MockAuthenticator)
		ctx := new(MockContext)

		repo.On("Users").Return(users)
		repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		users.On("EnsureUniqueTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		var stored *clinic.User
		users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				stored = args.Get(2).(*clinic.User)
			}).
			Return(nil, nil).Once()

		auther.On("IssueToken", mock.MatchedBy(func(identity clinic.Identity) bool {
			return identity.Role() == clinic.RolePatient
		})).Return("fresh-token", nil).Once()

		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.Anything).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*clinic.RegistrationCreatePayload)
				payload.Username = "walter"
				payload.Email = "walter@example.com"
				payload.Password = "secret1"
			}).
			Return(nil)
		ctx.On("JSON", 201, mock.MatchedBy(func(body map[string]any) bool {
			data, ok := body["data"].(map[string]any)
			return ok && body["success"] == true && data["token"] == "fresh-token"
		})).Return(nil).Once()

		err := newTestController(t, repo, auther).RegistrationCreate(ctx)

		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, clinic.RolePatient, stored.Role)
		assert.NoError(t, clinic.ComparePasswordAndHash("secret1", stored.PasswordHash))
		assert.NotEqual(t, "secret1", stored.PasswordHash)
		users.AssertExpectations(t)
		auther.AssertExpectations(t)
		ctx.AssertExpectations(t)
	})

	t.Run("duplicate email surfaces a 400 conflict without a token", func(t *testing.T) {
		users := new(MockUsers)
		repo := new(MockRepositoryManager)
		auther := new(MockAuthenticator)
		ctx := new(MockContext)

		repo.On("Users").Return(users)
		repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		users.On("EnsureUniqueTx", mock.Anything, mock.Anything, mock.Anything).
			Return(goerrors.New("email is already taken", goerrors.CategoryConflict).
				WithTextCode(clinic.TextCodeDuplicateField).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"field": "email"})).Once()

		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.Anything).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*clinic.RegistrationCreatePayload)
				payload.Email = "taken@example.com"
				payload.Password = "secret1"
			}).
			Return(nil)
		ctx.On("JSON", 400, mock.MatchedBy(func(body map[string]any) bool {
			return body["text_code"] == clinic.TextCodeDuplicateField
		})).Return(nil).Once()

		err := newTestController(t, repo, auther).RegistrationCreate(ctx)

		require.NoError(t, err)
		users.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
		auther.AssertNotCalled(t, "IssueToken", mock.Anything)
		ctx.AssertExpectations(t)
	})
}

func TestAppointmentList(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()

	t.Run("patients only see their own visits", func(t *testing.T) {
		appts := new(MockAppointments)
		repo := new(MockRepositoryManager)
		ctx := new(MockContext)

		identity := staticIdentity{id: patientID.String(), role: clinic.RolePatient}
		records := []*clinic.Appointment{{ID: uuid.New(), PatientID: patientID}}

		repo.On("Appointments").Return(appts)
		appts.On("ListForPatient", mock.Anything, patientID).Return(records, nil).Once()

		ctx.On("Locals", clinic.IdentityLocalsKey).Return(identity)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", 200, mock.Anything).Return(nil).Once()

		err := newTestController(t, repo, new(MockAuthenticator)).AppointmentList(ctx)

		require.NoError(t, err)
		appts.AssertExpectations(t)
		appts.AssertNotCalled(t, "ListAll", mock.Anything)
	})

	t.Run("doctors see their schedule", func(t *testing.T) {
		appts := new(MockAppointments)
		repo := new(MockRepositoryManager)
		ctx := new(MockContext)

		identity := staticIdentity{id: doctorID.String(), role: clinic.RoleDoctor}

		repo.On("Appointments").Return(appts)
		appts.On("ListForDoctor", mock.Anything, doctorID).
			Return([]*clinic.Appointment{}, nil).Once()

		ctx.On("Locals", clinic.IdentityLocalsKey).Return(identity)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", 200, mock.Anything).Return(nil).Once()

		err := newTestController(t, repo, new(MockAuthenticator)).AppointmentList(ctx)

		require.NoError(t, err)
		appts.AssertExpectations(t)
	})

	t.Run("admins see everything", func(t *testing.T) {
		appts := new(MockAppointments)
		repo := new(MockRepositoryManager)
		ctx := new(MockContext)

		identity := staticIdentity{id: uuid.NewString(), role: clinic.RoleAdmin}

		repo.On("Appointments").Return(appts)
		appts.On("ListAll", mock.Anything).
			Return([]*clinic.Appointment{}, nil).Once()

		ctx.On("Locals", clinic.IdentityLocalsKey).Return(identity)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", 200, mock.Anything).Return(nil).Once()

		err := newTestController(t, repo, new(MockAuthenticator)).AppointmentList(ctx)

		require.NoError(t, err)
		appts.AssertExpectations(t)
	})
}

func TestAppointmentShow(t *testing.T) {
	patientID := uuid.New()
	record := &clinic.Appointment{
		ID:          uuid.New(),
		PatientID:   patientID,
		DoctorID:    uuid.New(),
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Status:      clinic.AppointmentScheduled,
	}

	showCtx := func(identity clinic.Identity) *MockContext {
		ctx := new(MockContext)
		ctx.On("Locals", clinic.IdentityLocalsKey).Return(identity)
		ctx.On("Context").Return(context.Background())
		ctx.On("Param", "id").Return(record.ID.String())
		return ctx
	}

	t.Run("patients can open their own visit", func(t *testing.T) {
		appts := new(MockAppointments)
		repo := new(MockRepositoryManager)

		repo.On("Appointments").Return(appts)
		appts.On("GetByID", mock.Anything, record.ID.String(), mock.Anything).
			Return(record, nil).Once()

		ctx := showCtx(staticIdentity{id: patientID.String(), role: clinic.RolePatient})
		ctx.On("JSON", 200, mock.Anything).Return(nil).Once()

		err := newTestController(t, repo, new(MockAuthenticator)).AppointmentShow(ctx)

		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})

	t.Run("patients cannot open another patient's visit", func(t *testing.T) {
		appts := new(MockAppointments)
		repo := new(MockRepositoryManager)

		repo.On("Appointments").Return(appts)
		appts.On("GetByID", mock.Anything, record.ID.String(), mock.Anything).
			Return(record, nil).Once()

		ctx := showCtx(staticIdentity{id: uuid.NewString(), role: clinic.RolePatient})
		ctx.On("JSON", 403, mock.MatchedBy(func(body map[string]any) bool {
			return body["text_code"] == clinic.TextCodeRoleDenied
		})).Return(nil).Once()

		err := newTestController(t, repo, new(MockAuthenticator)).AppointmentShow(ctx)

		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})

	t.Run("clinical staff can open any visit", func(t *testing.T) {
		appts := new(MockAppointments)
		repo := new(MockRepositoryManager)

		repo.On("Appointments").Return(appts)
		appts.On("GetByID", mock.Anything, record.ID.String(), mock.Anything).
			Return(record, nil).Once()

		ctx := showCtx(staticIdentity{id: uuid.NewString(), role: clinic.RoleDoctor})
		ctx.On("JSON", 200, mock.Anything).Return(nil).Once()

		err := newTestController(t, repo, new(MockAuthenticator)).AppointmentShow(ctx)

		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})

	t.Run("unknown visit reports a 404", func(t *testing.T) {
		appts := new(MockAppointments)
		repo := new(MockRepositoryManager)

		repo.On("Appointments").Return(appts)
		appts.On("GetByID", mock.Anything, record.ID.String(), mock.Anything).
			Return(nil, repository.NewRecordNotFound()).Once()

		ctx := showCtx(staticIdentity{id: uuid.NewString(), role: clinic.RoleAdmin})
		ctx.On("JSON", 404, mock.Anything).Return(nil).Once()

		err := newTestController(t, repo, new(MockAuthenticator)).AppointmentShow(ctx)

		require.NoError(t, err)
		ctx.AssertExpectations(t)
	})
}

package clinic_test

import (
	"context"
	"database/sql"

	clinic "github.com/goliatone/go-clinic"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockIdentity implements clinic.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// staticIdentity is a plain value identity for tests that do not need
// call assertions
type staticIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func (s staticIdentity) ID() string       { return s.id }
func (s staticIdentity) Username() string { return s.username }
func (s staticIdentity) Email() string    { return s.email }
func (s staticIdentity) Role() string     { return s.role }

// MockUserStore implements clinic.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*clinic.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*clinic.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.User), args.Error(1)
}

// MockIdentityProvider implements clinic.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (clinic.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(clinic.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (clinic.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(clinic.Identity), args.Error(1)
}

// MockUsers shadows the repository methods the handlers exercise; the
// embedded interface covers the rest.
type MockUsers struct {
	clinic.Users
	mock.Mock
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*clinic.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.User), args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*clinic.User, error) {
	args := m.Called(ctx, id, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.User), args.Error(1)
}

// CreateTx echoes the stored record back when the expectation returns a
// nil user, mirroring what the real repository does
func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *clinic.User, criteria ...repository.InsertCriteria) (*clinic.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	if args.Get(0) == nil {
		return record, nil
	}
	return args.Get(0).(*clinic.User), nil
}

// UpdateTx echoes like CreateTx
func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *clinic.User, criteria ...repository.UpdateCriteria) (*clinic.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	if args.Get(0) == nil {
		return record, nil
	}
	return args.Get(0).(*clinic.User), nil
}

func (m *MockUsers) List(ctx context.Context) ([]*clinic.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinic.User), args.Error(1)
}

func (m *MockUsers) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) EnsureUniqueTx(ctx context.Context, tx bun.IDB, record *clinic.User) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

// MockAppointments shadows the visit repository methods the handlers
// exercise; the embedded interface covers the rest.
type MockAppointments struct {
	clinic.Appointments
	mock.Mock
}

func (m *MockAppointments) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*clinic.Appointment, error) {
	args := m.Called(ctx, id, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Appointment), args.Error(1)
}

// Create echoes the record back when the expectation returns nil
func (m *MockAppointments) Create(ctx context.Context, record *clinic.Appointment, criteria ...repository.InsertCriteria) (*clinic.Appointment, error) {
	args := m.Called(ctx, record)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	if args.Get(0) == nil {
		return record, nil
	}
	return args.Get(0).(*clinic.Appointment), nil
}

func (m *MockAppointments) ListAll(ctx context.Context) ([]*clinic.Appointment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinic.Appointment), args.Error(1)
}

func (m *MockAppointments) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*clinic.Appointment, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinic.Appointment), args.Error(1)
}

func (m *MockAppointments) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*clinic.Appointment, error) {
	args := m.Called(ctx, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinic.Appointment), args.Error(1)
}

func (m *MockAppointments) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRepositoryManager implements clinic.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	return nil
}

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) Users() clinic.Users {
	args := m.Called()
	return args.Get(0).(clinic.Users)
}

func (m *MockRepositoryManager) Appointments() clinic.Appointments {
	args := m.Called()
	return args.Get(0).(clinic.Appointments)
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return f(ctx, bun.Tx{})
}

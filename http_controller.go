package clinic

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// APIController serves the JSON surface: account lifecycle under /auth
// and /users, scheduling under /appointments.
type APIController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auther       Authenticator
	Gate         *RouteAuthenticator
	ErrorHandler router.ErrorHandler
}

type APIControllerOption func(*APIController) *APIController

func WithControllerLogger(logger Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Debug = debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Auther = auther
		return c
	}
}

func WithControllerGate(gate *RouteAuthenticator) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Gate = gate
		return c
	}
}

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in api controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in api controller...")
	}

	if c.Gate == nil {
		panic("Missing RouteAuthenticator in api controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.Gate.ErrorHandler
	}

	return c
}

// RegisterAPIRoutes mounts the pipeline: token validation, live
// identity resolution, then per-route role sets.
func RegisterAPIRoutes[T any](app router.Router[T], controller *APIController) {
	protected := controller.Gate.ProtectedRoute()
	identified := controller.Gate.RequireIdentity()
	admins := controller.Gate.RequireRoles(AdminOnly)
	staff := controller.Gate.RequireRoles(ClinicalStaff)
	anyone := controller.Gate.RequireRoles(AnyAccount)

	app.Post("/auth/register", controller.RegistrationCreate).
		SetName("auth.register")
	app.Post("/auth/login", controller.LoginPost).
		SetName("auth.login")
	app.Get("/auth/me", controller.Me, protected, identified, anyone).
		SetName("auth.me")

	app.Get("/users", controller.UserList, protected, identified, admins)
	app.Post("/users", controller.UserCreate, protected, identified, admins)
	app.Get("/users/:id", controller.UserShow, protected, identified, admins)
	app.Put("/users/:id", controller.UserUpdate, protected, identified, admins)
	app.Delete("/users/:id", controller.UserDelete, protected, identified, admins)

	app.Get("/appointments", controller.AppointmentList, protected, identified, anyone)
	app.Post("/appointments", controller.AppointmentCreate, protected, identified, anyone)
	app.Get("/appointments/:id", controller.AppointmentShow, protected, identified, anyone)
	app.Put("/appointments/:id", controller.AppointmentUpdate, protected, identified, staff)
	app.Delete("/appointments/:id", controller.AppointmentDelete, protected, identified, admins)
}

func (a *APIController) respond(ctx router.Context, status int, data any) error {
	return ctx.JSON(status, map[string]any{
		"success": true,
		"data":    data,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, is.Email),
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid login payload")
}

func (a *APIController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to parse login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("login attempt: %s", print.MaybePrettyJSON(map[string]string{"email": payload.Email}))
	}

	token, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByEmail(ctx.Context(), payload.Email)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.respond(ctx, router.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}

// RegistrationCreatePayload is the public sign-up payload. The role is
// not bindable here; public registrations always become patients.
type RegistrationCreatePayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Phone    string `form:"phone_number" json:"phone_number"`
	Password string `form:"password" json:"password"`
}

func (a *APIController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to parse registration payload").
			WithCode(goerrors.CodeBadRequest))
	}

	var user *User
	req := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Role:     RolePatient,
		OnResponse: func(u *User) {
			user = u
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user execute: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	// auto sign in: a fresh account should not need a second round trip
	token, err := a.Auther.IssueToken(identityFromUser(user))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.respond(ctx, router.StatusCreated, map[string]any{
		"user":  user,
		"token": token,
	})
}

func (a *APIController) Me(ctx router.Context) error {
	identity, ok := GetRouterIdentity(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	return a.respond(ctx, router.StatusOK, map[string]any{
		"id":       identity.ID(),
		"username": identity.Username(),
		"email":    identity.Email(),
		"role":     identity.Role(),
	})
}

func (a *APIController) UserList(ctx router.Context) error {
	users, err := a.Repo.Users().List(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}
	return a.respond(ctx, router.StatusOK, users)
}

func (a *APIController) UserShow(ctx router.Context) error {
	user, err := a.Repo.Users().GetByID(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, a.notFoundToIdentity(err, ctx.Param("id")))
	}
	return a.respond(ctx, router.StatusOK, user)
}

// UserCreatePayload is the admin-facing account payload; unlike public
// registration it can assign any known role.
type UserCreatePayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Phone    string `form:"phone_number" json:"phone_number"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

func (a *APIController) UserCreate(ctx router.Context) error {
	payload := new(UserCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to parse user payload").
			WithCode(goerrors.CodeBadRequest))
	}

	var user *User
	req := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Role:     payload.Role,
		OnResponse: func(u *User) {
			user = u
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.respond(ctx, router.StatusCreated, user)
}

// UserUpdatePayload carries optional mutations; an empty password
// leaves the stored hash alone.
type UserUpdatePayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Phone    string `form:"phone_number" json:"phone_number"`
	Password string `form:"password" json:"password"`
	Role     string `form:"role" json:"role"`
}

func (a *APIController) UserUpdate(ctx router.Context) error {
	payload := new(UserUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to parse user payload").
			WithCode(goerrors.CodeBadRequest))
	}

	var user *User
	req := UpdateUserMessage{
		UserID:   ctx.Param("id"),
		Username: payload.Username,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Role:     payload.Role,
		OnResponse: func(u *User) {
			user = u
		},
	}

	updateUser := NewUpdateUserHandler(a.Repo)
	if err := updateUser.Execute(ctx.Context(), req); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.respond(ctx, router.StatusOK, user)
}

func (a *APIController) UserDelete(ctx router.Context) error {
	identity, ok := GetRouterIdentity(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	req := DeleteUserMessage{
		UserID:  ctx.Param("id"),
		ActorID: identity.ID(),
	}

	deleteUser := NewDeleteUserHandler(a.Repo)
	if err := deleteUser.Execute(ctx.Context(), req); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.respond(ctx, router.StatusOK, map[string]any{
		"deleted": req.UserID,
	})
}

func (a *APIController) AppointmentList(ctx router.Context) error {
	identity, ok := GetRouterIdentity(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	records, err := a.listAppointmentsFor(ctx, identity)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.respond(ctx, router.StatusOK, records)
}

func (a *APIController) listAppointmentsFor(ctx router.Context, identity Identity) ([]*Appointment, error) {
	actorID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "malformed identity id")
	}

	switch identity.Role() {
	case RolePatient:
		return a.Repo.Appointments().ListForPatient(ctx.Context(), actorID)
	case RoleDoctor:
		return a.Repo.Appointments().ListForDoctor(ctx.Context(), actorID)
	default:
		return a.Repo.Appointments().ListAll(ctx.Context())
	}
}

// AppointmentCreatePayload books a visit. Patients can only book for
// themselves; staff must name the patient.
type AppointmentCreatePayload struct {
	PatientID   string    `form:"patient_id" json:"patient_id"`
	DoctorID    string    `form:"doctor_id" json:"doctor_id"`
	ScheduledAt time.Time `form:"scheduled_at" json:"scheduled_at"`
	Reason      string    `form:"reason" json:"reason"`
}

// Validate will run validation rules
func (r AppointmentCreatePayload) Validate() error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.PatientID, validation.Required, is.UUIDv4),
			validation.Field(&r.DoctorID, validation.Required, is.UUIDv4),
			validation.Field(&r.ScheduledAt, validation.Required),
			validation.Field(&r.Reason, validation.Length(0, 500)),
		)
	}, "Invalid appointment payload")
}

func (a *APIController) AppointmentCreate(ctx router.Context) error {
	identity, ok := GetRouterIdentity(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	payload := new(AppointmentCreatePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to parse appointment payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if identity.Role() == RolePatient {
		payload.PatientID = identity.ID()
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	record := &Appointment{
		PatientID:   uuid.MustParse(payload.PatientID),
		DoctorID:    uuid.MustParse(payload.DoctorID),
		ScheduledAt: payload.ScheduledAt,
		Reason:      payload.Reason,
	}

	created, err := a.Repo.Appointments().Create(ctx.Context(), record)
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create appointment"))
	}

	return a.respond(ctx, router.StatusCreated, created)
}

func (a *APIController) AppointmentShow(ctx router.Context) error {
	identity, ok := GetRouterIdentity(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	record, err := a.Repo.Appointments().GetByID(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, a.notFoundToAppointment(err, ctx.Param("id")))
	}

	if err := authorizeAppointmentAccess(identity, record); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.respond(ctx, router.StatusOK, record)
}

// AppointmentUpdatePayload reschedules or resolves a visit.
type AppointmentUpdatePayload struct {
	DoctorID    string     `form:"doctor_id" json:"doctor_id"`
	ScheduledAt *time.Time `form:"scheduled_at" json:"scheduled_at"`
	Status      string     `form:"status" json:"status"`
	Reason      string     `form:"reason" json:"reason"`
}

// Validate will run validation rules
func (r AppointmentUpdatePayload) Validate() error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.DoctorID, is.UUIDv4),
			validation.Field(&r.Status, validation.In(
				AppointmentScheduled,
				AppointmentCompleted,
				AppointmentCancelled,
			)),
			validation.Field(&r.Reason, validation.Length(0, 500)),
		)
	}, "Invalid appointment payload")
}

func (a *APIController) AppointmentUpdate(ctx router.Context) error {
	payload := new(AppointmentUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to parse appointment payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	record, err := a.Repo.Appointments().GetByID(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, a.notFoundToAppointment(err, ctx.Param("id")))
	}

	if payload.DoctorID != "" {
		record.DoctorID = uuid.MustParse(payload.DoctorID)
	}

	if payload.ScheduledAt != nil {
		record.ScheduledAt = *payload.ScheduledAt
	}

	if payload.Status != "" {
		record.Status = payload.Status
	}

	if payload.Reason != "" {
		record.Reason = payload.Reason
	}

	updated, err := a.Repo.Appointments().Update(ctx.Context(), record, repository.UpdateByID(record.ID.String()))
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update appointment"))
	}

	return a.respond(ctx, router.StatusOK, updated)
}

func (a *APIController) AppointmentDelete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.New("appointment id must be a valid uuid", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest))
	}

	if err := a.Repo.Appointments().DeleteByID(ctx.Context(), id); err != nil {
		return a.ErrorHandler(ctx, a.notFoundToAppointment(err, id.String()))
	}

	return a.respond(ctx, router.StatusOK, map[string]any{
		"deleted": id.String(),
	})
}

// authorizeAppointmentAccess lets staff see any record and patients see
// only visits where they are the patient.
func authorizeAppointmentAccess(identity Identity, record *Appointment) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	switch identity.Role() {
	case RoleAdmin:
		return nil
	case RoleDoctor:
		return nil
	case RolePatient:
		if record.PatientID.String() == identity.ID() {
			return nil
		}
	}

	return goerrors.New(
		fmt.Sprintf("access denied: appointment %s does not belong to the requester", record.ID),
		goerrors.CategoryAuthz,
	).
		WithTextCode(TextCodeRoleDenied).
		WithCode(goerrors.CodeForbidden)
}

func (a *APIController) notFoundToIdentity(err error, id string) error {
	if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
		return ErrIdentityNotFound.Clone().WithMetadata(map[string]any{"user_id": id})
	}
	return err
}

func (a *APIController) notFoundToAppointment(err error, id string) error {
	if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
		return goerrors.New("appointment not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(map[string]any{"appointment_id": id})
	}
	return err
}

package clinic

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Appointments is the visit repository
type Appointments interface {
	repository.Repository[*Appointment]

	Create(ctx context.Context, record *Appointment, criteria ...repository.InsertCriteria) (*Appointment, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Appointment, criteria ...repository.InsertCriteria) (*Appointment, error)

	ListAll(ctx context.Context) ([]*Appointment, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type appointments struct {
	repository.Repository[*Appointment]
	db *bun.DB
}

var (
	_ Appointments                         = (*appointments)(nil)
	_ repository.Repository[*Appointment] = (*appointments)(nil)
)

func NewAppointmentsRepository(db *bun.DB) Appointments {
	repo := repository.NewRepository[*Appointment](db, repository.ModelHandlers[*Appointment]{
		NewRecord: func() *Appointment { return &Appointment{} },
		GetID: func(record *Appointment) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Appointment, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
	})

	return &appointments{
		Repository: repo,
		db:         db,
	}
}

func (a *appointments) Create(ctx context.Context, record *Appointment, criteria ...repository.InsertCriteria) (*Appointment, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *appointments) CreateTx(ctx context.Context, tx bun.IDB, record *Appointment, criteria ...repository.InsertCriteria) (*Appointment, error) {
	prepareAppointmentDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *appointments) ListAll(ctx context.Context) ([]*Appointment, error) {
	return a.list(ctx, "", uuid.Nil)
}

func (a *appointments) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return a.list(ctx, "patient_id", patientID)
}

func (a *appointments) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return a.list(ctx, "doctor_id", doctorID)
}

func (a *appointments) list(ctx context.Context, column string, id uuid.UUID) ([]*Appointment, error) {
	records := []*Appointment{}
	q := a.db.NewSelect().
		Model(&records).
		Order("scheduled_at ASC")

	if column != "" {
		q.Where("?TableAlias."+column+" = ?", id)
	}

	err := q.Scan(ctx)
	return records, err
}

func (a *appointments) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Appointment)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func prepareAppointmentDefaults(record *Appointment) {
	if record == nil {
		return
	}

	if record.Status == "" {
		record.Status = AppointmentScheduled
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

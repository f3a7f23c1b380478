package clinic

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the account's role
type UserRole = string

const (
	// RoleAdmin manages accounts and the clinic schedule
	RoleAdmin UserRole = "admin"
	// RoleDoctor is clinical staff (i.e. view, manage appointments)
	RoleDoctor UserRole = "doctor"
	// RolePatient is the default role assigned on registration
	RolePatient UserRole = "patient"
)

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AppointmentStatus tracks where an appointment is in its lifecycle
type AppointmentStatus = string

const (
	// AppointmentScheduled is the initial status
	AppointmentScheduled AppointmentStatus = "scheduled"
	// AppointmentCompleted marks a visit that took place
	AppointmentCompleted AppointmentStatus = "completed"
	// AppointmentCancelled marks a visit that will not take place
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment is the visit model
type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:apt"`
	ID            uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PatientID     uuid.UUID         `bun:"patient_id,notnull,type:uuid" json:"patient_id,omitempty"`
	Patient       *User             `bun:"rel:belongs-to,join:patient_id=id" json:"patient,omitempty"`
	DoctorID      uuid.UUID         `bun:"doctor_id,notnull,type:uuid" json:"doctor_id,omitempty"`
	Doctor        *User             `bun:"rel:belongs-to,join:doctor_id=id" json:"doctor,omitempty"`
	ScheduledAt   time.Time         `bun:"scheduled_at,notnull" json:"scheduled_at"`
	Status        AppointmentStatus `bun:"status,notnull,default:'scheduled'" json:"status,omitempty"`
	Reason        string            `bun:"reason" json:"reason,omitempty"`
	CreatedAt     *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time        `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Patient (ticket holder)
// ============================================================

// Patient statuses
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusSkipped    = "skipped"
)

// Visit types
const (
	VisitWalkIn      = "walk-in"
	VisitAppointment = "appointment"
)

// Patient represents a ticket holder in a department queue
type Patient struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	Token            string         `gorm:"size:20;uniqueIndex;not null" json:"token"`
	Name             string         `gorm:"size:100;not null" json:"name"`
	Phone            string         `gorm:"size:20;not null" json:"phone"`
	Email            string         `gorm:"size:100" json:"email,omitempty"`
	Age              int            `gorm:"not null" json:"age"`
	Gender           string         `gorm:"size:10;not null" json:"gender"`
	Urgency          string         `gorm:"size:10;default:'low';index" json:"urgency"`
	Department       string         `gorm:"size:50;not null;index:idx_dept_status" json:"department"`
	Symptoms         string         `gorm:"size:255" json:"symptoms,omitempty"`
	VisitType        string         `gorm:"size:15;default:'walk-in'" json:"visit_type"`
	Status           string         `gorm:"size:15;default:'waiting';index:idx_dept_status" json:"status"`
	ArrivalTime      time.Time      `gorm:"not null;index" json:"arrival_time"`
	CalledAt         *time.Time     `json:"called_at,omitempty"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	Position         int            `gorm:"default:0" json:"position"`
	EstimatedWaitMin int            `gorm:"default:0" json:"estimated_wait_min"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Patient) TableName() string {
	return "patients"
}

// IsTerminal reports whether the patient is in a terminal status
func (p *Patient) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusSkipped
}

// ============================================================
// DepartmentQueue (per-department, per-period record)
// ============================================================

// Queue operational states
const (
	QueueActive = "active"
	QueuePaused = "paused"
	QueueClosed = "closed"
)

// DepartmentQueue represents the per-day queue record for one department
type DepartmentQueue struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Department       string    `gorm:"size:50;not null;uniqueIndex:idx_dept_date" json:"department"`
	QueueDate        time.Time `gorm:"type:date;not null;uniqueIndex:idx_dept_date" json:"queue_date"`
	CurrentToken     *string   `gorm:"size:20" json:"current_token"`
	CurrentPatientID *string   `gorm:"size:36" json:"current_patient_id"`
	TotalServed      int       `gorm:"default:0" json:"total_served"`
	State            string    `gorm:"size:10;default:'active'" json:"state"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DepartmentQueue) TableName() string {
	return "department_queues"
}

// ============================================================
// Auth & Staff Tables
// ============================================================

// Staff roles
const (
	RoleAdmin  = "ADMIN"
	RoleStaff  = "STAFF"
	RoleDoctor = "DOCTOR"
)

// User represents staff accounts (registration desk, doctors, admins)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'STAFF'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Migration
// ============================================================

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Patient{},
		&DepartmentQueue{},
	)
}

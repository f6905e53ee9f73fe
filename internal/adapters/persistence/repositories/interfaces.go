package repositories

import (
	"context"
	"time"

	"citycare-queue/internal/adapters/persistence/models"
)

// PatientFilter narrows patient listings
type PatientFilter struct {
	Department string
	Status     string
	Urgency    string
	From       time.Time
	To         time.Time
}

// PatientRepository defines patient persistence. The dispatch engine treats it
// as a collaborator: in-memory state is authoritative at runtime, writes happen
// after each state transition commits.
type PatientRepository interface {
	Create(patient *models.Patient) error
	Save(patient *models.Patient) error
	SavePositions(ordered []*models.Patient) error
	GetByID(id string) (*models.Patient, error)
	GetByToken(token string) (*models.Patient, error)
	ListActive(from, to time.Time) ([]*models.Patient, error)
	CountAdmitted(department string, from, to time.Time) (int64, error)
	List(filter PatientFilter, offset, limit int) ([]models.Patient, int64, error)
}

// QueueRepository defines department queue persistence
type QueueRepository interface {
	Upsert(queue *models.DepartmentQueue) error
	GetByDepartmentAndDate(department string, date time.Time) (*models.DepartmentQueue, error)
	ListByDate(date time.Time) ([]models.DepartmentQueue, error)
}

// UserRepository defines staff user persistence
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// RefreshTokenRepository defines refresh token persistence
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

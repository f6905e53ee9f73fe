package repositories

import (
	"time"

	"citycare-queue/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// queueRepository implements QueueRepository over GORM
type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

// Upsert creates or updates the per-day queue record for a department
func (r *queueRepository) Upsert(queue *models.DepartmentQueue) error {
	var existing models.DepartmentQueue
	err := r.db.
		Where("department = ? AND queue_date = ?", queue.Department, queue.QueueDate).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(queue).Error
	}
	if err != nil {
		return err
	}

	queue.ID = existing.ID
	return r.db.Model(&existing).Updates(map[string]interface{}{
		"current_token":      queue.CurrentToken,
		"current_patient_id": queue.CurrentPatientID,
		"total_served":       queue.TotalServed,
		"state":              queue.State,
	}).Error
}

// GetByDepartmentAndDate returns the queue record for one department and day
func (r *queueRepository) GetByDepartmentAndDate(department string, date time.Time) (*models.DepartmentQueue, error) {
	var queue models.DepartmentQueue
	err := r.db.
		Where("department = ? AND queue_date = ?", department, date).
		First(&queue).Error
	if err != nil {
		return nil, err
	}
	return &queue, nil
}

// ListByDate returns all department queue records for one day
func (r *queueRepository) ListByDate(date time.Time) ([]models.DepartmentQueue, error) {
	var queues []models.DepartmentQueue
	err := r.db.
		Where("queue_date = ?", date).
		Order("department ASC").
		Find(&queues).Error
	return queues, err
}

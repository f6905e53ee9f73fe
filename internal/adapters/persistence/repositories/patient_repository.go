package repositories

import (
	"time"

	"citycare-queue/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// patientRepository implements PatientRepository over GORM
type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

// Create inserts a new patient record
func (r *patientRepository) Create(patient *models.Patient) error {
	return r.db.Create(patient).Error
}

// Save writes the full patient record back
func (r *patientRepository) Save(patient *models.Patient) error {
	return r.db.Save(patient).Error
}

// SavePositions persists recomputed position and wait estimate for the ordered
// waiting set. Only those two columns change, one update per patient.
func (r *patientRepository) SavePositions(ordered []*models.Patient) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range ordered {
			err := tx.Model(&models.Patient{}).
				Where("id = ?", p.ID).
				Updates(map[string]interface{}{
					"position":           p.Position,
					"estimated_wait_min": p.EstimatedWaitMin,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID returns a patient by ID
func (r *patientRepository) GetByID(id string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.Where("id = ?", id).First(&patient).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// GetByToken returns a patient by ticket code
func (r *patientRepository) GetByToken(token string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.Where("token = ?", token).First(&patient).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// ListActive returns waiting and in-progress patients admitted in [from, to],
// used to rebuild in-memory queue state at startup
func (r *patientRepository) ListActive(from, to time.Time) ([]*models.Patient, error) {
	var patients []*models.Patient
	err := r.db.
		Where("status IN ? AND arrival_time >= ? AND arrival_time <= ?",
			[]string{models.StatusWaiting, models.StatusInProgress}, from, to).
		Order("arrival_time ASC").
		Find(&patients).Error
	return patients, err
}

// CountAdmitted returns how many patients were admitted to a department within
// [from, to], regardless of status. Used as the token sequence baseline.
func (r *patientRepository) CountAdmitted(department string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Patient{}).
		Where("department = ? AND arrival_time >= ? AND arrival_time <= ?", department, from, to).
		Count(&count).Error
	return count, err
}

// List returns patients matching the filter with pagination
func (r *patientRepository) List(filter PatientFilter, offset, limit int) ([]models.Patient, int64, error) {
	query := r.db.Model(&models.Patient{})

	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Urgency != "" {
		query = query.Where("urgency = ?", filter.Urgency)
	}
	if !filter.From.IsZero() {
		query = query.Where("arrival_time >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("arrival_time <= ?", filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var patients []models.Patient
	err := query.
		Order("position ASC, arrival_time ASC").
		Offset(offset).
		Limit(limit).
		Find(&patients).Error
	return patients, total, err
}

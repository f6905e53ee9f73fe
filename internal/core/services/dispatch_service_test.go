package services

import (
	"sync"
	"testing"
	"time"

	"citycare-queue/internal/adapters/persistence/models"
	"citycare-queue/internal/adapters/persistence/repositories"
	"citycare-queue/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ============================================================
// In-memory repository fakes
// ============================================================

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[string]*models.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[string]*models.Patient)}
}

func (r *fakePatientRepo) Create(p *models.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.patients[p.ID] = &cp
	return nil
}

func (r *fakePatientRepo) Save(p *models.Patient) error {
	return r.Create(p)
}

func (r *fakePatientRepo) SavePositions(ordered []*models.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range ordered {
		if stored, ok := r.patients[p.ID]; ok {
			stored.Position = p.Position
			stored.EstimatedWaitMin = p.EstimatedWaitMin
		}
	}
	return nil
}

func (r *fakePatientRepo) GetByID(id string) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.patients[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePatientRepo) GetByToken(token string) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.Token == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePatientRepo) ListActive(from, to time.Time) ([]*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Patient
	for _, p := range r.patients {
		if p.Status != models.StatusWaiting && p.Status != models.StatusInProgress {
			continue
		}
		if p.ArrivalTime.Before(from) || p.ArrivalTime.After(to) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	return result, nil
}

func (r *fakePatientRepo) CountAdmitted(department string, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, p := range r.patients {
		if p.Department == department && !p.ArrivalTime.Before(from) && !p.ArrivalTime.After(to) {
			count++
		}
	}
	return count, nil
}

func (r *fakePatientRepo) List(filter repositories.PatientFilter, offset, limit int) ([]models.Patient, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Patient
	for _, p := range r.patients {
		if filter.Department != "" && p.Department != filter.Department {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Urgency != "" && p.Urgency != filter.Urgency {
			continue
		}
		result = append(result, *p)
	}
	return result, int64(len(result)), nil
}

type fakeQueueRepo struct {
	mu     sync.Mutex
	queues map[string]*models.DepartmentQueue
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{queues: make(map[string]*models.DepartmentQueue)}
}

func (r *fakeQueueRepo) key(department string, date time.Time) string {
	return department + "|" + date.Format("2006-01-02")
}

func (r *fakeQueueRepo) Upsert(q *models.DepartmentQueue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *q
	r.queues[r.key(q.Department, q.QueueDate)] = &cp
	return nil
}

func (r *fakeQueueRepo) GetByDepartmentAndDate(department string, date time.Time) (*models.DepartmentQueue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queues[r.key(department, date)]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQueueRepo) ListByDate(date time.Time) ([]models.DepartmentQueue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.DepartmentQueue
	for _, q := range r.queues {
		if q.QueueDate.Format("2006-01-02") == date.Format("2006-01-02") {
			result = append(result, *q)
		}
	}
	return result, nil
}

// ============================================================
// Helpers
// ============================================================

func newTestDispatch(t *testing.T) (*DispatchService, *fakePatientRepo, *fakeQueueRepo) {
	t.Helper()
	patientRepo := newFakePatientRepo()
	queueRepo := newFakeQueueRepo()
	svc := NewDispatchService(patientRepo, queueRepo, NewNotifyService(), 15)
	return svc, patientRepo, queueRepo
}

func registerInput(department, urgency string) *RegisterInput {
	return &RegisterInput{
		Name:       "Somchai T.",
		Phone:      "0812345678",
		Age:        42,
		Gender:     "male",
		Urgency:    urgency,
		Department: department,
	}
}

// ============================================================
// Admit
// ============================================================

func TestAdmitValidation(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "" }},
		{"missing phone", func(in *RegisterInput) { in.Phone = "" }},
		{"missing age", func(in *RegisterInput) { in.Age = 0 }},
		{"missing gender", func(in *RegisterInput) { in.Gender = "" }},
		{"missing department", func(in *RegisterInput) { in.Department = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := registerInput("general", "low")
			tt.mutate(input)

			_, err := svc.Admit(input)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestAdmitInvalidUrgency(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.Admit(registerInput("general", "critical"))
	assert.ErrorIs(t, err, domain.ErrInvalidUrgency)
}

func TestAdmitAssignsTokenAndPosition(t *testing.T) {
	svc, patientRepo, _ := newTestDispatch(t)

	first, err := svc.Admit(registerInput("cardiology", "low"))
	require.NoError(t, err)
	second, err := svc.Admit(registerInput("cardiology", "low"))
	require.NoError(t, err)

	assert.NotEmpty(t, first.Token)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, models.StatusWaiting, first.Status)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, 15, first.EstimatedWaitMin)
	assert.Equal(t, 30, second.EstimatedWaitMin)

	stored, err := patientRepo.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Token, stored.Token)
}

func TestAdmitDefaultsToLowUrgency(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	p, err := svc.Admit(registerInput("general", ""))
	require.NoError(t, err)
	assert.Equal(t, "low", p.Urgency)
}

func TestAdmitDepartmentsAreIndependent(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	a, err := svc.Admit(registerInput("cardiology", "low"))
	require.NoError(t, err)
	b, err := svc.Admit(registerInput("radiology", "low"))
	require.NoError(t, err)

	assert.Equal(t, 1, a.Position)
	assert.Equal(t, 1, b.Position)
}

// ============================================================
// CallNext / Complete / Skip
// ============================================================

func TestCallNextEmptyQueue(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.CallNext("general")
	assert.ErrorIs(t, err, domain.ErrEmptyQueue)
}

func TestCallNextPrefersHigherUrgency(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.Admit(registerInput("er", "low"))
	require.NoError(t, err)
	emergency, err := svc.Admit(registerInput("er", "emergency"))
	require.NoError(t, err)

	called, err := svc.CallNext("er")
	require.NoError(t, err)
	assert.Equal(t, emergency.ID, called.ID)
	assert.Equal(t, models.StatusInProgress, called.Status)
	require.NotNil(t, called.CalledAt)
}

func TestCallNextSingleDispatchInvariant(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)
	_, err = svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	_, err = svc.CallNext("general")
	require.NoError(t, err)

	_, err = svc.CallNext("general")
	assert.ErrorIs(t, err, domain.ErrAlreadyDispatched)
}

func TestCallNextPausedQueue(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	require.NoError(t, svc.SetQueueState("general", models.QueuePaused))

	_, err = svc.CallNext("general")
	assert.ErrorIs(t, err, domain.ErrQueueNotActive)

	require.NoError(t, svc.SetQueueState("general", models.QueueActive))
	_, err = svc.CallNext("general")
	assert.NoError(t, err)
}

func TestCompleteFlow(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	admitted, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	called, err := svc.CallNext("general")
	require.NoError(t, err)
	require.Equal(t, admitted.ID, called.ID)

	done, err := svc.Complete(called.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	// Completing twice is a conflict
	_, err = svc.Complete(called.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	status := svc.GetLiveStatus()
	require.Len(t, status, 1)
	assert.Equal(t, 1, status[0].TotalServed)
	assert.Equal(t, 0, status[0].TotalWaiting)
	assert.Nil(t, status[0].CurrentToken)
}

func TestCompleteWithoutDispatch(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	admitted, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	_, err = svc.Complete(admitted.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCompleteUnknownPatient(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.Complete("no-such-id")
	assert.ErrorIs(t, err, domain.ErrPatientNotFound)
}

func TestSkipWaitingPatient(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	first, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)
	second, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	skipped, err := svc.Skip(first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, skipped.Status)

	// Positions close up behind the skip
	snap, err := svc.GetQueueSnapshot("general")
	require.NoError(t, err)
	require.Len(t, snap.Patients, 1)
	assert.Equal(t, second.ID, snap.Patients[0].ID)
	assert.Equal(t, 1, snap.Patients[0].Position)

	// Skipping again is a conflict
	_, err = svc.Skip(first.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSkipDispatchedPatient(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	called, err := svc.CallNext("general")
	require.NoError(t, err)

	_, err = svc.Skip(called.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ============================================================
// Retriage & queue state
// ============================================================

func TestRetriageReordersQueue(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)
	second, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	_, err = svc.Retriage(second.ID, "emergency")
	require.NoError(t, err)

	called, err := svc.CallNext("general")
	require.NoError(t, err)
	assert.Equal(t, second.ID, called.ID)
}

func TestRetriageInvalidUrgency(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	admitted, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	_, err = svc.Retriage(admitted.ID, "urgent")
	assert.ErrorIs(t, err, domain.ErrInvalidUrgency)
}

func TestSetQueueStateValidation(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	assert.ErrorIs(t, svc.SetQueueState("general", "open"), domain.ErrInvalidQueueState)
	assert.NoError(t, svc.SetQueueState("general", models.QueueClosed))

	snap, err := svc.GetQueueSnapshot("general")
	require.NoError(t, err)
	assert.Equal(t, models.QueueClosed, snap.State)
}

// ============================================================
// Views
// ============================================================

func TestTrackByToken(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	admitted, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	tracked, err := svc.TrackByToken(admitted.Token)
	require.NoError(t, err)
	assert.Equal(t, admitted.ID, tracked.Patient.ID)
	assert.Equal(t, 1, tracked.Position)
	assert.Equal(t, 15, tracked.EstimatedWaitMin)

	_, err = svc.TrackByToken("GEN-0000-999")
	assert.ErrorIs(t, err, domain.ErrPatientNotFound)
}

func TestLiveStatusEmergencyCount(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.Admit(registerInput("er", "emergency"))
	require.NoError(t, err)
	_, err = svc.Admit(registerInput("er", "emergency"))
	require.NoError(t, err)
	_, err = svc.Admit(registerInput("er", "low"))
	require.NoError(t, err)

	status := svc.GetLiveStatus()
	require.Len(t, status, 1)
	assert.Equal(t, 3, status[0].TotalWaiting)
	assert.Equal(t, 2, status[0].EmergencyCount)
}

func TestGetQueueSnapshotUnknownDepartment(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	snap, err := svc.GetQueueSnapshot("nowhere")
	require.NoError(t, err)
	assert.Equal(t, models.QueueActive, snap.State)
	assert.Empty(t, snap.Patients)
}

// ============================================================
// Concurrency & rollover
// ============================================================

func TestConcurrentCallNext(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	_, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CallNext("general")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyDispatched)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestPeriodRolloverResetsCounters(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	day1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return day1 }

	first, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	_, err = svc.CallNext("general")
	require.NoError(t, err)
	_, err = svc.Complete(first.ID)
	require.NoError(t, err)

	status := svc.GetLiveStatus()
	require.Len(t, status, 1)
	require.Equal(t, 1, status[0].TotalServed)

	// Next morning: counters reset, waiting patients would carry over
	day2 := day1.Add(24 * time.Hour)
	svc.now = func() time.Time { return day2 }

	next, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)
	assert.Regexp(t, `-001$`, next.Token)

	status = svc.GetLiveStatus()
	require.Len(t, status, 1)
	assert.Equal(t, 0, status[0].TotalServed)
	assert.Equal(t, 1, status[0].TotalWaiting)
}

func TestRolloverCarriesWaitingPatients(t *testing.T) {
	svc, _, _ := newTestDispatch(t)

	day1 := time.Date(2026, 3, 2, 23, 50, 0, 0, time.Local)
	svc.now = func() time.Time { return day1 }

	leftover, err := svc.Admit(registerInput("general", "low"))
	require.NoError(t, err)

	day2 := day1.Add(30 * time.Minute)
	svc.now = func() time.Time { return day2 }
	svc.Rollover()

	called, err := svc.CallNext("general")
	require.NoError(t, err)
	assert.Equal(t, leftover.ID, called.ID)
}

// ============================================================
// Restore
// ============================================================

func TestRestoreRebuildsState(t *testing.T) {
	patientRepo := newFakePatientRepo()
	queueRepo := newFakeQueueRepo()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	waiting := &models.Patient{
		ID:          "p1",
		Token:       "GEN-1111-002",
		Name:        "Waiting W.",
		Urgency:     "low",
		Department:  "general",
		Status:      models.StatusWaiting,
		ArrivalTime: now.Add(-10 * time.Minute),
	}
	calledAt := now.Add(-5 * time.Minute)
	inProgress := &models.Patient{
		ID:          "p2",
		Token:       "GEN-1111-001",
		Name:        "Current C.",
		Urgency:     "low",
		Department:  "general",
		Status:      models.StatusInProgress,
		ArrivalTime: now.Add(-20 * time.Minute),
		CalledAt:    &calledAt,
	}
	require.NoError(t, patientRepo.Create(waiting))
	require.NoError(t, patientRepo.Create(inProgress))
	require.NoError(t, queueRepo.Upsert(&models.DepartmentQueue{
		Department:  "general",
		QueueDate:   today,
		TotalServed: 3,
		State:       models.QueueActive,
	}))

	svc := NewDispatchService(patientRepo, queueRepo, NewNotifyService(), 15)
	require.NoError(t, svc.Restore())

	status := svc.GetLiveStatus()
	require.Len(t, status, 1)
	assert.Equal(t, 3, status[0].TotalServed)
	assert.Equal(t, 1, status[0].TotalWaiting)
	require.NotNil(t, status[0].CurrentToken)
	assert.Equal(t, "GEN-1111-001", *status[0].CurrentToken)

	// A second CallNext must hit the single-dispatch invariant
	_, err := svc.CallNext("general")
	assert.ErrorIs(t, err, domain.ErrAlreadyDispatched)

	tracked, err := svc.TrackByToken("GEN-1111-002")
	require.NoError(t, err)
	assert.Equal(t, "p1", tracked.Patient.ID)
}

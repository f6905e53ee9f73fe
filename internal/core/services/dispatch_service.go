package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"citycare-queue/internal/adapters/persistence/models"
	"citycare-queue/internal/adapters/persistence/repositories"
	"citycare-queue/internal/core/domain"
	"citycare-queue/internal/core/queue"
	"citycare-queue/internal/pkg/token"

	"github.com/google/uuid"
)

// departmentState is the authoritative in-memory queue state for one
// department. Every mutating operation and its recompute run under mu, so two
// racing staff actions on the same department serialize; different departments
// never contend.
type departmentState struct {
	mu          sync.Mutex
	department  string
	periodDate  time.Time
	waiting     []*models.Patient
	dispatched  *models.Patient
	totalServed int
	seq         int
	opState     string
}

// DispatchService owns per-department queue state and implements the dispatch
// operations. MySQL (via the repositories) is a write-behind collaborator:
// state transitions commit in memory first, then persist; a failed write is
// logged and never rolls the transition back.
type DispatchService struct {
	mu          sync.RWMutex
	departments map[string]*departmentState
	patients    map[string]*models.Patient // id → patient, current period
	tokens      map[string]string          // ticket code → id

	patientRepo repositories.PatientRepository
	queueRepo   repositories.QueueRepository
	notify      *NotifyService

	avgServiceMin int
	now           func() time.Time
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(
	patientRepo repositories.PatientRepository,
	queueRepo repositories.QueueRepository,
	notify *NotifyService,
	avgServiceMin int,
) *DispatchService {
	if avgServiceMin <= 0 {
		avgServiceMin = queue.DefaultAvgServiceMinutes
	}
	return &DispatchService{
		departments:   make(map[string]*departmentState),
		patients:      make(map[string]*models.Patient),
		tokens:        make(map[string]string),
		patientRepo:   patientRepo,
		queueRepo:     queueRepo,
		notify:        notify,
		avgServiceMin: avgServiceMin,
		now:           time.Now,
	}
}

// ============================================================
// Inputs & views
// ============================================================

// RegisterInput represents a walk-in admission request
type RegisterInput struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Urgency    string `json:"urgency"`
	Department string `json:"department"`
	Symptoms   string `json:"symptoms"`
	VisitType  string `json:"visit_type"`
}

// QueueSnapshot is the per-department queue view
type QueueSnapshot struct {
	Department     string            `json:"department"`
	QueueDate      string            `json:"queue_date"`
	State          string            `json:"state"`
	CurrentToken   *string           `json:"current_token"`
	CurrentPatient *models.Patient   `json:"current_patient,omitempty"`
	TotalWaiting   int               `json:"total_waiting"`
	TotalServed    int               `json:"total_served"`
	Patients       []*models.Patient `json:"patients"`
}

// LiveStatus is one row of the all-departments display board
type LiveStatus struct {
	Department     string  `json:"department"`
	CurrentToken   *string `json:"current_token"`
	TotalWaiting   int     `json:"total_waiting"`
	TotalServed    int     `json:"total_served"`
	EmergencyCount int     `json:"emergency_count"`
	State          string  `json:"state"`
}

// TrackResponse is the public per-ticket status view. Position and the wait
// estimate are only meaningful while the patient is waiting.
type TrackResponse struct {
	Patient          *models.Patient `json:"patient"`
	Position         int             `json:"position"`
	EstimatedWaitMin int             `json:"estimated_wait_min"`
}

// ============================================================
// State registry
// ============================================================

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// state returns the department state, creating it lazily on first admission
func (s *DispatchService) state(department string) *departmentState {
	s.mu.RLock()
	st, ok := s.departments[department]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.departments[department]; ok {
		return st
	}
	st = &departmentState{
		department: department,
		periodDate: startOfDay(s.now()),
		opState:    models.QueueActive,
	}
	s.departments[department] = st
	return st
}

// lookup returns the tracked patient and its department state. Callers must
// not hold any department lock.
func (s *DispatchService) lookup(patientID string) (*models.Patient, *departmentState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[patientID]
	if !ok {
		return nil, nil, false
	}
	st, ok := s.departments[p.Department]
	if !ok {
		return nil, nil, false
	}
	return p, st, true
}

// rolloverLocked resets the per-period counters when the operating period has
// changed. Waiting patients carry over; only the token sequence, served count
// and operational state start fresh. Caller holds st.mu.
func (s *DispatchService) rolloverLocked(st *departmentState, now time.Time) {
	today := startOfDay(now)
	if st.periodDate.Equal(today) {
		return
	}
	log.Printf("🔄 Queue period rollover [%s]: served %d on %s, %d carried over",
		st.department, st.totalServed, st.periodDate.Format("2006-01-02"), len(st.waiting))
	st.periodDate = today
	st.seq = 0
	st.totalServed = 0
	st.opState = models.QueueActive
}

// ============================================================
// Dispatch operations
// ============================================================

// Admit validates and registers a walk-in patient, assigns a ticket code and
// recomputes the department's waiting order.
func (s *DispatchService) Admit(input *RegisterInput) (*models.Patient, error) {
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	urgency := input.Urgency
	if urgency == "" {
		urgency = queue.UrgencyLow
	}
	visitType := input.VisitType
	if visitType == "" {
		visitType = models.VisitWalkIn
	}

	st := s.state(input.Department)
	st.mu.Lock()

	now := s.now()
	s.rolloverLocked(st, now)

	st.seq++
	patient := &models.Patient{
		ID:          uuid.New().String(),
		Token:       token.Generate(input.Department, st.seq, now),
		Name:        input.Name,
		Phone:       input.Phone,
		Email:       input.Email,
		Age:         input.Age,
		Gender:      input.Gender,
		Urgency:     urgency,
		Department:  input.Department,
		Symptoms:    input.Symptoms,
		VisitType:   visitType,
		Status:      models.StatusWaiting,
		ArrivalTime: now,
	}

	st.waiting = append(st.waiting, patient)
	ordered := queue.Recompute(st.waiting, now, s.avgServiceMin)

	if err := s.patientRepo.Create(patient); err != nil {
		log.Printf("⚠️ Persist admit %s failed: %v", patient.Token, err)
	}
	s.persistLocked(st, ordered)

	result := clonePatient(patient)
	st.mu.Unlock()

	s.mu.Lock()
	s.patients[patient.ID] = patient
	s.tokens[patient.Token] = patient.ID
	s.mu.Unlock()

	log.Printf("✅ Patient admitted: %s (%s, %s)", result.Token, result.Department, result.Urgency)

	s.notify.NotifyPatientRegistered(result.Department, map[string]interface{}{
		"token":      result.Token,
		"department": result.Department,
		"position":   result.Position,
	})
	s.notify.NotifyQueueUpdated(result.Department)

	return result, nil
}

// CallNext dispatches the highest-ranked waiting patient of a department.
// At most one patient per department may be in progress; a second CallNext
// before Complete/Skip of the current one fails with a conflict.
func (s *DispatchService) CallNext(department string) (*models.Patient, error) {
	st := s.state(department)
	st.mu.Lock()

	now := s.now()
	s.rolloverLocked(st, now)

	if st.opState != models.QueueActive {
		st.mu.Unlock()
		return nil, domain.ErrQueueNotActive
	}
	if st.dispatched != nil {
		st.mu.Unlock()
		return nil, domain.ErrAlreadyDispatched
	}
	if len(st.waiting) == 0 {
		st.mu.Unlock()
		return nil, domain.ErrEmptyQueue
	}

	next := queue.Next(st.waiting, now)
	st.waiting = removePatient(st.waiting, next.ID)

	next.Status = models.StatusInProgress
	calledAt := now
	next.CalledAt = &calledAt
	st.dispatched = next

	ordered := queue.Recompute(st.waiting, now, s.avgServiceMin)

	if err := s.patientRepo.Save(next); err != nil {
		log.Printf("⚠️ Persist call-next %s failed: %v", next.Token, err)
	}
	s.persistLocked(st, ordered)

	result := clonePatient(next)
	st.mu.Unlock()

	log.Printf("✅ Token %s called (%s)", result.Token, department)

	s.notify.NotifyTokenCalled(department, map[string]interface{}{
		"token":      result.Token,
		"department": department,
		"name":       result.Name,
	})
	s.notify.NotifyQueueUpdated(department)

	return result, nil
}

// Complete finishes the currently dispatched patient and bumps the served
// counter. Only valid while the patient is in progress.
func (s *DispatchService) Complete(patientID string) (*models.Patient, error) {
	patient, st, ok := s.lookup(patientID)
	if !ok {
		return nil, domain.ErrPatientNotFound
	}

	st.mu.Lock()

	now := s.now()
	s.rolloverLocked(st, now)

	if patient.Status != models.StatusInProgress || st.dispatched == nil || st.dispatched.ID != patient.ID {
		st.mu.Unlock()
		return nil, domain.ErrConflict
	}

	patient.Status = models.StatusCompleted
	completedAt := now
	patient.CompletedAt = &completedAt
	st.dispatched = nil
	st.totalServed++
	served := st.totalServed

	ordered := queue.Recompute(st.waiting, now, s.avgServiceMin)

	if err := s.patientRepo.Save(patient); err != nil {
		log.Printf("⚠️ Persist complete %s failed: %v", patient.Token, err)
	}
	s.persistLocked(st, ordered)

	result := clonePatient(patient)
	st.mu.Unlock()

	log.Printf("✅ Token %s completed (%s, served today: %d)", result.Token, result.Department, served)

	s.notify.NotifyQueueUpdated(result.Department)
	return result, nil
}

// Skip marks a waiting patient as skipped (no-show) without requiring a prior
// dispatch, and removes it from the ordering.
func (s *DispatchService) Skip(patientID string) (*models.Patient, error) {
	patient, st, ok := s.lookup(patientID)
	if !ok {
		return nil, domain.ErrPatientNotFound
	}

	st.mu.Lock()

	now := s.now()
	s.rolloverLocked(st, now)

	if patient.Status != models.StatusWaiting {
		st.mu.Unlock()
		return nil, domain.ErrConflict
	}

	st.waiting = removePatient(st.waiting, patient.ID)
	patient.Status = models.StatusSkipped

	ordered := queue.Recompute(st.waiting, now, s.avgServiceMin)

	if err := s.patientRepo.Save(patient); err != nil {
		log.Printf("⚠️ Persist skip %s failed: %v", patient.Token, err)
	}
	s.persistLocked(st, ordered)

	result := clonePatient(patient)
	st.mu.Unlock()

	log.Printf("✅ Token %s skipped (%s)", result.Token, result.Department)

	s.notify.NotifyQueueUpdated(result.Department)
	return result, nil
}

// Retriage changes the urgency class of a waiting patient and reorders the
// department queue accordingly.
func (s *DispatchService) Retriage(patientID, urgency string) (*models.Patient, error) {
	if !queue.ValidUrgency(urgency) {
		return nil, domain.ErrInvalidUrgency
	}

	patient, st, ok := s.lookup(patientID)
	if !ok {
		return nil, domain.ErrPatientNotFound
	}

	st.mu.Lock()

	now := s.now()
	s.rolloverLocked(st, now)

	if patient.Status != models.StatusWaiting {
		st.mu.Unlock()
		return nil, domain.ErrConflict
	}

	patient.Urgency = urgency
	ordered := queue.Recompute(st.waiting, now, s.avgServiceMin)

	if err := s.patientRepo.Save(patient); err != nil {
		log.Printf("⚠️ Persist retriage %s failed: %v", patient.Token, err)
	}
	s.persistLocked(st, ordered)

	result := clonePatient(patient)
	st.mu.Unlock()

	log.Printf("✅ Token %s re-triaged to %s (%s)", result.Token, urgency, result.Department)

	s.notify.NotifyQueueUpdated(result.Department)
	return result, nil
}

// SetQueueState pauses, resumes or closes a department queue. Paused and
// closed queues reject CallNext; admissions stay open.
func (s *DispatchService) SetQueueState(department, state string) error {
	switch state {
	case models.QueueActive, models.QueuePaused, models.QueueClosed:
	default:
		return domain.ErrInvalidQueueState
	}

	st := s.state(department)
	st.mu.Lock()
	s.rolloverLocked(st, s.now())
	st.opState = state
	s.persistLocked(st, nil)
	st.mu.Unlock()

	log.Printf("✅ Queue %s set to %s", department, state)

	s.notify.NotifyQueueUpdated(department)
	return nil
}

// ============================================================
// Read views
// ============================================================

// GetQueueSnapshot returns the ordered waiting list and counters for one
// department.
func (s *DispatchService) GetQueueSnapshot(department string) (*QueueSnapshot, error) {
	s.mu.RLock()
	st, ok := s.departments[department]
	s.mu.RUnlock()
	if !ok {
		// No admissions yet today: an empty queue, not an error.
		return &QueueSnapshot{
			Department: department,
			QueueDate:  startOfDay(s.now()).Format("2006-01-02"),
			State:      models.QueueActive,
			Patients:   []*models.Patient{},
		}, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	snap := &QueueSnapshot{
		Department:   st.department,
		QueueDate:    st.periodDate.Format("2006-01-02"),
		State:        st.opState,
		TotalWaiting: len(st.waiting),
		TotalServed:  st.totalServed,
		Patients:     make([]*models.Patient, 0, len(st.waiting)),
	}
	for _, p := range queue.Recompute(st.waiting, s.now(), s.avgServiceMin) {
		snap.Patients = append(snap.Patients, clonePatient(p))
	}
	if st.dispatched != nil {
		snap.CurrentPatient = clonePatient(st.dispatched)
		tok := st.dispatched.Token
		snap.CurrentToken = &tok
	}
	return snap, nil
}

// GetLiveStatus returns the all-departments board: current token, waiting and
// served totals, and the number of waiting emergencies per department.
func (s *DispatchService) GetLiveStatus() []LiveStatus {
	s.mu.RLock()
	states := make([]*departmentState, 0, len(s.departments))
	for _, st := range s.departments {
		states = append(states, st)
	}
	s.mu.RUnlock()

	result := make([]LiveStatus, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		row := LiveStatus{
			Department:   st.department,
			TotalWaiting: len(st.waiting),
			TotalServed:  st.totalServed,
			State:        st.opState,
		}
		for _, p := range st.waiting {
			if p.Urgency == queue.UrgencyEmergency {
				row.EmergencyCount++
			}
		}
		if st.dispatched != nil {
			tok := st.dispatched.Token
			row.CurrentToken = &tok
		}
		st.mu.Unlock()
		result = append(result, row)
	}

	sortLiveStatus(result)
	return result
}

// TrackByToken resolves a ticket code to its status view. Falls back to the
// store for tickets from a previous operating period.
func (s *DispatchService) TrackByToken(ticket string) (*TrackResponse, error) {
	s.mu.RLock()
	id, ok := s.tokens[ticket]
	s.mu.RUnlock()

	if ok {
		patient, st, found := s.lookup(id)
		if found {
			st.mu.Lock()
			result := clonePatient(patient)
			st.mu.Unlock()
			return trackResponse(result), nil
		}
	}

	stored, err := s.patientRepo.GetByToken(ticket)
	if err != nil {
		return nil, domain.ErrPatientNotFound
	}
	return trackResponse(stored), nil
}

// GetPatientByID returns one patient, preferring live state over the store
func (s *DispatchService) GetPatientByID(patientID string) (*models.Patient, error) {
	patient, st, ok := s.lookup(patientID)
	if ok {
		st.mu.Lock()
		result := clonePatient(patient)
		st.mu.Unlock()
		return result, nil
	}

	stored, err := s.patientRepo.GetByID(patientID)
	if err != nil {
		return nil, domain.ErrPatientNotFound
	}
	return stored, nil
}

// ListPatients returns the staff-facing filtered listing straight from the
// store (the self-healing full-state pull for observers).
func (s *DispatchService) ListPatients(filter repositories.PatientFilter, offset, limit int) ([]models.Patient, int64, error) {
	if filter.From.IsZero() && filter.To.IsZero() {
		now := s.now()
		filter.From = startOfDay(now)
		filter.To = endOfDay(now)
	}
	return s.patientRepo.List(filter, offset, limit)
}

// ============================================================
// Period rollover & restore
// ============================================================

// Rollover runs the explicit operating-period check on every department.
// Wired to the midnight cron job; the same check also guards every mutating
// operation, so the job is a backstop rather than the only trigger.
func (s *DispatchService) Rollover() {
	s.mu.RLock()
	states := make([]*departmentState, 0, len(s.departments))
	for _, st := range s.departments {
		states = append(states, st)
	}
	s.mu.RUnlock()

	now := s.now()
	for _, st := range states {
		st.mu.Lock()
		s.rolloverLocked(st, now)
		s.persistLocked(st, nil)
		st.mu.Unlock()
		s.notify.NotifyQueueUpdated(st.department)
	}
	log.Printf("🔄 Period rollover check completed for %d departments", len(states))
}

// Restore rebuilds in-memory state from the store for the current operating
// period. Called once at startup, before the HTTP server accepts traffic.
func (s *DispatchService) Restore() error {
	now := s.now()
	from, to := startOfDay(now), endOfDay(now)

	queues, err := s.queueRepo.ListByDate(from)
	if err != nil {
		return fmt.Errorf("restore queue records: %w", err)
	}
	for _, q := range queues {
		st := s.state(q.Department)
		st.mu.Lock()
		st.totalServed = q.TotalServed
		st.opState = q.State
		st.mu.Unlock()
	}

	patients, err := s.patientRepo.ListActive(from, to)
	if err != nil {
		return fmt.Errorf("restore patients: %w", err)
	}

	for _, p := range patients {
		st := s.state(p.Department)
		st.mu.Lock()
		switch p.Status {
		case models.StatusWaiting:
			st.waiting = append(st.waiting, p)
		case models.StatusInProgress:
			st.dispatched = p
		}
		st.mu.Unlock()

		s.mu.Lock()
		s.patients[p.ID] = p
		s.tokens[p.Token] = p.ID
		s.mu.Unlock()
	}

	s.mu.RLock()
	states := make([]*departmentState, 0, len(s.departments))
	for _, st := range s.departments {
		states = append(states, st)
	}
	s.mu.RUnlock()

	for _, st := range states {
		st.mu.Lock()
		count, err := s.patientRepo.CountAdmitted(st.department, from, to)
		if err == nil {
			st.seq = int(count)
		}
		queue.Recompute(st.waiting, now, s.avgServiceMin)
		st.mu.Unlock()
	}

	log.Printf("✅ Restored %d active patients across %d departments", len(patients), len(states))
	return nil
}

// ============================================================
// Helpers
// ============================================================

// persistLocked writes the recomputed positions and the department queue row.
// Caller holds st.mu. Failures are logged; in-memory state stays authoritative.
func (s *DispatchService) persistLocked(st *departmentState, ordered []*models.Patient) {
	if ordered != nil {
		if err := s.patientRepo.SavePositions(ordered); err != nil {
			log.Printf("⚠️ Persist positions failed [%s]: %v", st.department, err)
		}
	}

	row := &models.DepartmentQueue{
		Department:  st.department,
		QueueDate:   st.periodDate,
		TotalServed: st.totalServed,
		State:       st.opState,
	}
	if st.dispatched != nil {
		tok := st.dispatched.Token
		id := st.dispatched.ID
		row.CurrentToken = &tok
		row.CurrentPatientID = &id
	}
	if err := s.queueRepo.Upsert(row); err != nil {
		log.Printf("⚠️ Persist queue row failed [%s]: %v", st.department, err)
	}
}

func validateRegisterInput(input *RegisterInput) error {
	switch {
	case input.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	case input.Phone == "":
		return fmt.Errorf("%w: phone is required", domain.ErrValidation)
	case input.Age <= 0:
		return fmt.Errorf("%w: age is required", domain.ErrValidation)
	case input.Gender == "":
		return fmt.Errorf("%w: gender is required", domain.ErrValidation)
	case input.Department == "":
		return fmt.Errorf("%w: department is required", domain.ErrValidation)
	}
	if input.Urgency != "" && !queue.ValidUrgency(input.Urgency) {
		return domain.ErrInvalidUrgency
	}
	return nil
}

func removePatient(waiting []*models.Patient, id string) []*models.Patient {
	for i, p := range waiting {
		if p.ID == id {
			return append(waiting[:i], waiting[i+1:]...)
		}
	}
	return waiting
}

func clonePatient(p *models.Patient) *models.Patient {
	cp := *p
	return &cp
}

func trackResponse(p *models.Patient) *TrackResponse {
	resp := &TrackResponse{Patient: p}
	if p.Status == models.StatusWaiting {
		resp.Position = p.Position
		resp.EstimatedWaitMin = p.EstimatedWaitMin
	}
	return resp
}

func sortLiveStatus(rows []LiveStatus) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].Department < rows[j-1].Department; j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

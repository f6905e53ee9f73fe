package services

import (
	"time"

	"citycare-queue/internal/adapters/persistence/models"
	"citycare-queue/internal/adapters/persistence/repositories"
)

// StatsService builds the staff dashboard views from the store and the live
// dispatch state.
type StatsService struct {
	dispatch    *DispatchService
	notify      *NotifyService
	patientRepo repositories.PatientRepository
	queueRepo   repositories.QueueRepository
}

// NewStatsService creates a new stats service
func NewStatsService(
	dispatch *DispatchService,
	notify *NotifyService,
	patientRepo repositories.PatientRepository,
	queueRepo repositories.QueueRepository,
) *StatsService {
	return &StatsService{
		dispatch:    dispatch,
		notify:      notify,
		patientRepo: patientRepo,
		queueRepo:   queueRepo,
	}
}

// DepartmentSummary aggregates one department's day
type DepartmentSummary struct {
	Department   string `json:"department"`
	TotalServed  int    `json:"total_served"`
	State        string `json:"state"`
	CurrentToken string `json:"current_token,omitempty"`
}

// DashboardData is the admin overview
type DashboardData struct {
	Date            string              `json:"date"`
	Live            []LiveStatus        `json:"live"`
	TotalWaiting    int64               `json:"total_waiting"`
	TotalInProgress int64               `json:"total_in_progress"`
	TotalCompleted  int64               `json:"total_completed"`
	TotalSkipped    int64               `json:"total_skipped"`
	ConnectedBoards int                 `json:"connected_boards"`
	Departments     []DepartmentSummary `json:"departments"`
}

// GetDashboard returns the admin overview for today
func (s *StatsService) GetDashboard() (*DashboardData, error) {
	now := time.Now()
	from := startOfDay(now)
	to := endOfDay(now)

	data := &DashboardData{
		Date:            from.Format("2006-01-02"),
		Live:            s.dispatch.GetLiveStatus(),
		ConnectedBoards: s.notify.Hub.ClientCount(),
	}

	for _, status := range []struct {
		name  string
		field *int64
	}{
		{models.StatusWaiting, &data.TotalWaiting},
		{models.StatusInProgress, &data.TotalInProgress},
		{models.StatusCompleted, &data.TotalCompleted},
		{models.StatusSkipped, &data.TotalSkipped},
	} {
		_, total, err := s.patientRepo.List(repositories.PatientFilter{
			Status: status.name,
			From:   from,
			To:     to,
		}, 0, 1)
		if err != nil {
			return nil, err
		}
		*status.field = total
	}

	queues, err := s.queueRepo.ListByDate(from)
	if err != nil {
		return nil, err
	}
	for _, q := range queues {
		summary := DepartmentSummary{
			Department:  q.Department,
			TotalServed: q.TotalServed,
			State:       q.State,
		}
		if q.CurrentToken != nil {
			summary.CurrentToken = *q.CurrentToken
		}
		data.Departments = append(data.Departments, summary)
	}

	return data, nil
}

// GetHistory returns the per-department records of a past operating day
func (s *StatsService) GetHistory(date time.Time) ([]models.DepartmentQueue, error) {
	return s.queueRepo.ListByDate(startOfDay(date))
}

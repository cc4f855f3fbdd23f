package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
)

// StateLister provides the day's live tracking rows. Implemented by the
// tracking repository.
type StateLister interface {
	ListStates(ctx context.Context, examDate string) ([]models.TrackingState, error)
}

type service struct {
	repo   Repository
	states StateLister
}

// NewService builds the patient read service.
func NewService(repo Repository, states StateLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("patients repository required")
	}
	if states == nil {
		return nil, fmt.Errorf("state lister required")
	}
	return &service{repo: repo, states: states}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient id required")
	}
	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load patient")
	}
	return patient, nil
}

func (s *service) GetByChartNo(ctx context.Context, chartNo string) (*models.Patient, error) {
	if chartNo == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chart number required")
	}
	patient, err := s.repo.FindByChartNo(ctx, chartNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load patient")
	}
	return patient, nil
}

// Roster lists every booked patient for the day with their live tracking
// view merged in.
func (s *service) Roster(ctx context.Context, examDate string) ([]RosterEntry, error) {
	if examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exam date required")
	}

	booked, err := s.repo.ListByExamDate(ctx, examDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list patients")
	}

	states, err := s.states.ListStates(ctx, examDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tracking states")
	}

	byPatient := make(map[uuid.UUID]*models.TrackingState, len(states))
	for i := range states {
		byPatient[states[i].PatientID] = &states[i]
	}

	entries := make([]RosterEntry, 0, len(booked))
	for _, patient := range booked {
		entry := RosterEntry{Patient: patient}
		if state, ok := byPatient[patient.ID]; ok {
			entry.Arrived = true
			status := state.Status
			entry.Status = &status
			entry.StationCode = state.StationCode
			entry.NextStation = state.NextStationCode
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

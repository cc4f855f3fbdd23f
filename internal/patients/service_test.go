package patients

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	dbtypes "github.com/oakhill-health/checkup-backend/pkg/db/types"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
)

type stubPatientsRepo struct {
	patients map[uuid.UUID]*models.Patient
}

func newStubPatientsRepo() *stubPatientsRepo {
	return &stubPatientsRepo{patients: make(map[uuid.UUID]*models.Patient)}
}

func (s *stubPatientsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPatientsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	if patient, ok := s.patients[id]; ok {
		return patient, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPatientsRepo) FindByChartNo(ctx context.Context, chartNo string) (*models.Patient, error) {
	for _, patient := range s.patients {
		if patient.ChartNo == chartNo {
			return patient, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPatientsRepo) ListByExamDate(ctx context.Context, examDate string) ([]models.Patient, error) {
	var out []models.Patient
	for _, patient := range s.patients {
		if patient.ExamDate == examDate && patient.Active {
			out = append(out, *patient)
		}
	}
	return out, nil
}

func (s *stubPatientsRepo) Create(ctx context.Context, patient *models.Patient) (*models.Patient, error) {
	s.patients[patient.ID] = patient
	return patient, nil
}

func (s *stubPatientsRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	if patient, ok := s.patients[id]; ok {
		patient.Completed = true
	}
	return nil
}

type stubStateLister struct {
	states []models.TrackingState
}

func (s *stubStateLister) ListStates(ctx context.Context, examDate string) ([]models.TrackingState, error) {
	return s.states, nil
}

func TestRosterMergesTrackingState(t *testing.T) {
	repo := newStubPatientsRepo()
	arrived := &models.Patient{
		ID:          uuid.New(),
		ChartNo:     "C-001",
		FullName:    "Kim",
		ExamDate:    "2026-08-24",
		ExamPackage: dbtypes.CodeList{"REG", "BLOOD"},
		Active:      true,
	}
	pending := &models.Patient{
		ID:       uuid.New(),
		ChartNo:  "C-002",
		FullName: "Lee",
		ExamDate: "2026-08-24",
		Active:   true,
	}
	repo.patients[arrived.ID] = arrived
	repo.patients[pending.ID] = pending

	station := "BLOOD"
	lister := &stubStateLister{states: []models.TrackingState{{
		PatientID:   arrived.ID,
		ExamDate:    "2026-08-24",
		StationCode: &station,
		Status:      enums.TrackingStatusInExam,
	}}}

	svc, err := NewService(repo, lister)
	require.NoError(t, err)

	roster, err := svc.Roster(context.Background(), "2026-08-24")
	require.NoError(t, err)
	require.Len(t, roster, 2)

	byChart := make(map[string]RosterEntry, len(roster))
	for _, entry := range roster {
		byChart[entry.Patient.ChartNo] = entry
	}

	require.True(t, byChart["C-001"].Arrived)
	require.Equal(t, enums.TrackingStatusInExam, *byChart["C-001"].Status)
	require.Equal(t, "BLOOD", *byChart["C-001"].StationCode)

	require.False(t, byChart["C-002"].Arrived)
	require.Nil(t, byChart["C-002"].Status)
}

func TestGetValidation(t *testing.T) {
	svc, err := NewService(newStubPatientsRepo(), &stubStateLister{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.Nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Get(context.Background(), uuid.New())
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

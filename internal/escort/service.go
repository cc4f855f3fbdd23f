package escort

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/internal/patients"
	"github.com/oakhill-health/checkup-backend/pkg/db"
	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	"github.com/oakhill-health/checkup-backend/pkg/enums"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
	"github.com/oakhill-health/checkup-backend/pkg/events"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	patients patients.Repository
	tx       txRunner
	events   events.Publisher
}

// NewService builds the escort coordination service.
func NewService(repo Repository, patientsRepo patients.Repository, tx txRunner, publisher events.Publisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("escort repository required")
	}
	if patientsRepo == nil {
		return nil, fmt.Errorf("patients repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	return &service{repo: repo, patients: patientsRepo, tx: tx, events: publisher}, nil
}

// Assign makes staff the patient's single active escort. The staff member's
// previous patient and the patient's previous escort are both released in the
// same transaction; re-assigning the same pair is a no-op.
func (s *service) Assign(ctx context.Context, input AssignInput) (*models.EscortAssignment, error) {
	if input.PatientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient id required")
	}
	if input.StaffID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if input.AssignedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	if input.ExamDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exam date required")
	}

	if _, err := s.patients.FindByID(ctx, input.PatientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load patient")
	}

	var assignment *models.EscortAssignment
	var replaced *string
	var created bool

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindActiveByPatient(ctx, input.PatientID, input.ExamDate)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active escort")
		}
		if current != nil {
			if current.StaffID == input.StaffID {
				assignment = current
				return nil
			}
			staffID := current.StaffID
			replaced = &staffID
		}

		if err := repo.DeactivateByPatient(ctx, input.PatientID, input.ExamDate); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release patient escort")
		}
		if err := repo.DeactivateByStaff(ctx, input.StaffID, input.ExamDate); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release staff assignment")
		}

		assignment = &models.EscortAssignment{
			ID:         uuid.New(),
			PatientID:  input.PatientID,
			ExamDate:   input.ExamDate,
			StaffID:    input.StaffID,
			AssignedBy: input.AssignedBy,
			AssignedAt: time.Now().UTC(),
			Active:     true,
		}
		if err := repo.Create(ctx, assignment); err != nil {
			if db.IsUniqueViolation(err, "uq_escort_active") {
				return pkgerrors.New(pkgerrors.CodeConcurrency, "escort assigned concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create escort assignment")
		}
		created = true
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if db.IsBusy(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "storage contention")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "escort transaction failed")
	}

	if created {
		_ = s.events.Emit(ctx, events.Event{
			Type:  enums.EventEscortAssigned,
			Actor: &events.ActorRef{ActorID: input.AssignedBy},
			Data: AssignedEvent{
				PatientID: input.PatientID,
				ExamDate:  input.ExamDate,
				StaffID:   input.StaffID,
				Replaced:  replaced,
			},
		})
	}

	return assignment, nil
}

func (s *service) ActiveForPatient(ctx context.Context, patientID uuid.UUID, examDate string) (*models.EscortAssignment, error) {
	if patientID == uuid.Nil || examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient id and exam date required")
	}
	assignment, err := s.repo.FindActiveByPatient(ctx, patientID, examDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active escort")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load escort")
	}
	return assignment, nil
}

func (s *service) ActiveForStaff(ctx context.Context, staffID, examDate string) (*models.EscortAssignment, error) {
	if staffID == "" || examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff id and exam date required")
	}
	assignment, err := s.repo.FindActiveByStaff(ctx, staffID, examDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active assignment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load escort")
	}
	return assignment, nil
}

func (s *service) ListByDate(ctx context.Context, examDate string) ([]models.EscortAssignment, error) {
	if examDate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exam date required")
	}
	return s.repo.ListByDate(ctx, examDate)
}

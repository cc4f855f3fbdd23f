package stations

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
)

type service struct {
	repo Repository
}

// NewService builds the station catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stations repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Station, error) {
	return s.repo.ListActive(ctx)
}

func (s *service) Get(ctx context.Context, code string) (*models.Station, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "station code required")
	}
	station, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "station not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load station")
	}
	return station, nil
}

// DependencyGraph returns the advisory prerequisite map keyed by station code.
func (s *service) DependencyGraph(ctx context.Context) (map[string][]string, error) {
	stations, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stations")
	}
	graph := make(map[string][]string, len(stations))
	for _, station := range stations {
		graph[station.Code] = append([]string{}, station.DependsOn...)
	}
	return graph, nil
}

package stations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oakhill-health/checkup-backend/pkg/db/models"
	dbtypes "github.com/oakhill-health/checkup-backend/pkg/db/types"
	pkgerrors "github.com/oakhill-health/checkup-backend/pkg/errors"
)

type stubStationsRepo struct {
	stations []models.Station
}

func (s *stubStationsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubStationsRepo) ListActive(ctx context.Context) ([]models.Station, error) {
	return s.stations, nil
}

func (s *stubStationsRepo) FindByCode(ctx context.Context, code string) (*models.Station, error) {
	for i := range s.stations {
		if s.stations[i].Code == code {
			return &s.stations[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStationsRepo) Create(ctx context.Context, station *models.Station) (*models.Station, error) {
	s.stations = append(s.stations, *station)
	return station, nil
}

func (s *stubStationsRepo) Update(ctx context.Context, code string, updates map[string]any) error {
	return nil
}

func TestGetValidatesCode(t *testing.T) {
	svc, err := NewService(&stubStationsRepo{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestGetMapsMissingToNotFound(t *testing.T) {
	svc, err := NewService(&stubStationsRepo{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "CT")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDependencyGraph(t *testing.T) {
	repo := &stubStationsRepo{stations: []models.Station{
		{Code: "BLOOD"},
		{Code: "CT", DependsOn: dbtypes.CodeList{"BLOOD", "US"}},
		{Code: "ENDO", DependsOn: dbtypes.CodeList{"BLOOD"}},
	}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	graph, err := svc.DependencyGraph(context.Background())
	require.NoError(t, err)
	require.Empty(t, graph["BLOOD"])
	require.Equal(t, []string{"BLOOD", "US"}, graph["CT"])
	require.Equal(t, []string{"BLOOD"}, graph["ENDO"])
}

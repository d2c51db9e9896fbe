package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/annwhocodes/ResQMap/internal/models"
	"github.com/annwhocodes/ResQMap/internal/repository"
)

// ReportSource exposes recent community reports as hazards.
type ReportSource struct {
	repo   repository.ReportRepository
	window time.Duration
	clock  clockwork.Clock
}

func NewReportSource(repo repository.ReportRepository, window time.Duration, clock clockwork.Clock) *ReportSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ReportSource{
		repo:   repo,
		window: window,
		clock:  clock,
	}
}

func (s *ReportSource) Name() string { return SourceReports }

func (s *ReportSource) Fetch(ctx context.Context) ([]models.Hazard, error) {
	since := s.clock.Now().Add(-s.window)
	reports, err := s.repo.ListReports(ctx, repository.Filter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}

	hazards := make([]models.Hazard, 0, len(reports))
	for i := range reports {
		hazards = append(hazards, reports[i].Hazard())
	}
	return hazards, nil
}

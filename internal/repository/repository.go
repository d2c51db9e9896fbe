package repository

import (
	"context"
	"errors"
	"time"

	"github.com/annwhocodes/ResQMap/internal/models"
)

var ErrNotFound = errors.New("not found")

type Filter struct {
	Limit int
	Since *time.Time
	Type  *models.HazardType
}

// ReportRepository stores community submitted hazard reports.
type ReportRepository interface {
	AddReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	ListReports(ctx context.Context, opts Filter) ([]models.Report, error)
}

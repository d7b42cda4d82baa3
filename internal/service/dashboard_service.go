package service

import (
	"context"
	"time"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/policy"
	"go-pos-ws/internal/repository"
)

const maxMovementDays = 90

type DashboardService interface {
	GetSalesMovement(ctx context.Context, actor *model.User, days int) ([]repository.SalesMovementData, error)
	GetDashboardStats(ctx context.Context, actor *model.User) (*repository.DashboardStats, error)
}

type dashboardService struct {
	statsRepo repository.StatsRepository
	now       func() time.Time
}

func NewDashboardService(statsRepo repository.StatsRepository) DashboardService {
	return &dashboardService{statsRepo: statsRepo, now: time.Now}
}

func (s *dashboardService) GetSalesMovement(ctx context.Context, actor *model.User, days int) ([]repository.SalesMovementData, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if days < 1 || days > maxMovementDays {
		return nil, apperr.Validation("days must be between 1 and %d", maxMovementDays)
	}
	endDate := s.now().UTC()
	startDate := startOfDay(endDate).AddDate(0, 0, -(days - 1))

	return s.statsRepo.GetSalesMovement(ctx, policy.OwnerScope(actor), startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, actor *model.User) (*repository.DashboardStats, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.statsRepo.GetDashboardStats(ctx, policy.OwnerScope(actor), startOfDay(s.now().UTC()))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

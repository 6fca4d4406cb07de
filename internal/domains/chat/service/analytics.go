package service

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/model"
)

const maxAnalyticsRange = 366 * 24 * time.Hour

// Analytics chạy các query thống kê song song, [from, to) theo ngày
func (s *ChatService) Analytics(ctx context.Context, from, to time.Time) (*model.Analytics, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	// "to" là ngày cuối cùng, tính trọn ngày
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())

	if !from.Before(to) || to.Sub(from) > maxAnalyticsRange {
		return nil, model.NewChatError(http.StatusBadRequest, model.ErrCodeInvalidRange, "Khoảng thời gian không hợp lệ")
	}

	result := &model.Analytics{From: from, To: to}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.repo.CountByStatus(gctx, from, to)
		if err != nil {
			return err
		}
		result.TotalConversations = counts.Total
		result.OpenConversations = counts.Open
		result.ClosedConversations = counts.Closed
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountMessages(gctx, from, to)
		if err != nil {
			return err
		}
		result.TotalMessages = n
		return nil
	})
	g.Go(func() error {
		avg, err := s.repo.AvgFirstResponseSeconds(gctx, from, to)
		if err != nil {
			return err
		}
		result.AvgFirstResponseSeconds = math.Round(avg*10) / 10
		return nil
	})
	g.Go(func() error {
		stats, err := s.repo.StaffHandled(gctx, from, to)
		if err != nil {
			return err
		}
		result.StaffHandled = stats
		return nil
	})
	g.Go(func() error {
		dist, err := s.repo.TagDistribution(gctx, from, to)
		if err != nil {
			return err
		}
		result.TagDistribution = dist
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build chat analytics: %w", err)
	}
	return result, nil
}

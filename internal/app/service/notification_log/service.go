package notification_log

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/esimtrip/cashier/internal/models"
	"github.com/esimtrip/cashier/pkg/logctx"
	"github.com/esimtrip/cashier/pkg/tool"
	"github.com/esimtrip/cashier/pkg/types"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	wg  sync.WaitGroup
}

func New(lc fx.Lifecycle, db *gorm.DB, log *zap.SugaredLogger) *Service {
	s := &Service{db: db, log: log}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error {
		s.Flush()
		return nil
	}})
	return s
}

// Save asynchronously persists a payment notification log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, entry *models.PaymentNotificationLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	log := logctx.FromCtx(ctx, s.log)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// the request context is cancelled once the response is written
		if err := s.db.WithContext(context.WithoutCancel(ctx)).Save(entry).Error; err != nil {
			log.Errorw("failed to save notification log", "id", entry.ID, "status", entry.Status, "err", err)
		}
	}()
}

// Flush waits for pending Save calls.
func (s *Service) Flush() { s.wg.Wait() }

type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.PaymentNotificationLog `json:"items"`
	Total int64                            `json:"total"`
}

var ErrInvalidScanRequest = errors.New("invalid scan request")

// Normalize applies paging defaults and validates filters and sorting
// against the log's column allow-list.
func (r *ScanRequest) Normalize() error {
	if r.Size <= 0 {
		r.Size = 20
	}
	r.Size = min(r.Size, 200)
	r.From = max(r.From, 0)
	if r.SortBy == "" {
		r.SortBy = "created_at"
	}
	if !lo.Contains(models.PaymentNotificationLogScanColumns, r.SortBy) {
		return fmt.Errorf("%w: sort_by %q", ErrInvalidScanRequest, r.SortBy)
	}
	for _, f := range r.Filters {
		if f == nil {
			continue
		}
		if err := f.Validate(models.PaymentNotificationLogScanColumns); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidScanRequest, err)
		}
	}
	return nil
}

// Scan implements paginated admin listing with filters.
func (s *Service) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidScanRequest)
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	filters := lo.Filter(req.Filters, func(f *types.CommonFilter, _ int) bool { return f != nil })

	tx := s.db.WithContext(ctx).Model(&models.PaymentNotificationLog{})
	if len(filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count notification logs: %w", err)
	}

	var rows []*models.PaymentNotificationLog
	q := tx.Limit(req.Size).Offset(req.From).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}
	return &ScanResponse{Items: rows, Total: total}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)

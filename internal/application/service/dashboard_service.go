package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

const (
	topClientLimit = 5
	trendMonths    = 12
)

// DashboardService provides dashboard statistics
type DashboardService struct {
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(analyticsRepo repository.AnalyticsRepository) *DashboardService {
	return &DashboardService{
		analyticsRepo: analyticsRepo,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	TotalInvoices int64               `json:"total_invoices"`
	PaidCount     int64               `json:"paid_count"`
	UnpaidCount   int64               `json:"unpaid_count"`
	OverdueCount  int64               `json:"overdue_count"`
	PaidAmount    decimal.Decimal     `json:"paid_amount"`
	UnpaidAmount  decimal.Decimal     `json:"unpaid_amount"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	TopClients    []TopClientPoint    `json:"top_clients"`
	MonthlyTotals []MonthlyTotalPoint `json:"monthly_totals"`
}

// TopClientPoint represents a client's billed total
type TopClientPoint struct {
	ClientID uuid.UUID       `json:"client_id"`
	Name     string          `json:"name"`
	Total    decimal.Decimal `json:"total"`
	Invoices int64           `json:"invoices"`
}

// MonthlyTotalPoint represents the amount issued in one calendar month
type MonthlyTotalPoint struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// GetDashboardStats returns dashboard statistics. Cancelled invoices are counted
// in total_invoices but excluded from every amount.
func (s *DashboardService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	now := s.now()
	stats := &DashboardStats{
		PaidAmount:    decimal.Zero,
		UnpaidAmount:  decimal.Zero,
		TotalAmount:   decimal.Zero,
		TopClients:    make([]TopClientPoint, 0, topClientLimit),
		MonthlyTotals: make([]MonthlyTotalPoint, 0, trendMonths),
	}

	totals, err := s.analyticsRepo.StatusTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, row := range totals {
		stats.TotalInvoices += row.Count
		switch row.Status {
		case enum.InvoiceStatusPaid:
			stats.PaidCount += row.Count
			stats.PaidAmount = stats.PaidAmount.Add(row.Amount)
		case enum.InvoiceStatusCancelled:
			continue
		default:
			stats.UnpaidCount += row.Count
			stats.UnpaidAmount = stats.UnpaidAmount.Add(row.Amount)
		}
		stats.TotalAmount = stats.TotalAmount.Add(row.Amount)
	}
	stats.PaidAmount = stats.PaidAmount.Round(2)
	stats.UnpaidAmount = stats.UnpaidAmount.Round(2)
	stats.TotalAmount = stats.TotalAmount.Round(2)

	stats.OverdueCount, err = s.analyticsRepo.CountOverdue(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	clients, err := s.analyticsRepo.TopClients(ctx, userID, topClientLimit)
	if err != nil {
		return nil, err
	}
	for _, c := range clients {
		stats.TopClients = append(stats.TopClients, TopClientPoint{
			ClientID: c.ClientID,
			Name:     c.ClientName,
			Total:    c.Total.Round(2),
			Invoices: c.InvoiceCount,
		})
	}

	// Bucket the last twelve calendar months including the current one
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trendMonths - 1), 0)
	issued, err := s.analyticsRepo.IssuedSince(ctx, userID, start)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]decimal.Decimal, trendMonths)
	for _, row := range issued {
		key := row.IssueDate.UTC().Format("2006-01")
		buckets[key] = buckets[key].Add(row.TotalAmount)
	}
	for i := 0; i < trendMonths; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		stats.MonthlyTotals = append(stats.MonthlyTotals, MonthlyTotalPoint{
			Month: key,
			Total: buckets[key].Round(2),
		})
	}

	return stats, nil
}

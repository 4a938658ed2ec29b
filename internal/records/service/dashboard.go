package service

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"agristack/internal/records/models"
	"agristack/internal/records/store"
	"agristack/pkg/domain"
	textutil "agristack/pkg/platform/strings"
)

const recentActivityLimit = 5

// DashboardStats gathers the landing page figures concurrently.
func (s *Service) DashboardStats(ctx context.Context, p domain.Principal) (*models.DashboardStats, error) {
	if err := requireRead(p); err != nil {
		return nil, err
	}

	var (
		stats    = &models.DashboardStats{GeneratedAt: s.now()}
		farmers  []models.Record
		visits   []models.Record
		pendingI int
		pendingO int
	)
	pending := store.Eq("approval_status", string(models.ApprovalPending))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.query(gctx, store.Query{Collection: models.CollectionFarmers})
		if err != nil {
			return err
		}
		farmers = page.Records
		return nil
	})
	g.Go(func() error {
		page, err := s.query(gctx, store.Query{Collection: models.CollectionOutreach})
		if err != nil {
			return err
		}
		visits = page.Records
		return nil
	})
	g.Go(func() (err error) {
		stats.TotalInspections, err = s.count(gctx, models.CollectionInspections)
		return err
	})
	g.Go(func() (err error) {
		stats.PassedInspections, err = s.count(gctx, models.CollectionInspections, store.Eq("is_passed", true))
		return err
	})
	g.Go(func() (err error) {
		stats.FailedInspections, err = s.count(gctx, models.CollectionInspections, store.Eq("is_passed", false))
		return err
	})
	g.Go(func() (err error) {
		pendingI, err = s.count(gctx, models.CollectionInspections, pending)
		return err
	})
	g.Go(func() (err error) {
		pendingO, err = s.count(gctx, models.CollectionOutreach, pending)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err, "dashboard")
	}

	stats.TotalFarmers = len(farmers)
	stats.VehicleCount = len(visits)
	stats.PendingApprovals = pendingI + pendingO

	villages := make([]string, 0, len(farmers))
	monthStart := startOfMonth(stats.GeneratedAt.In(s.location))
	lastMonthStart := monthStart.AddDate(0, -1, 0)
	for _, rec := range farmers {
		f := rec.(*models.Farmer)
		villages = append(villages, f.Village)
		switch strings.ToLower(strings.TrimSpace(f.Gender)) {
		case "male":
			stats.Gender.Male++
		case "female":
			stats.Gender.Female++
		default:
			stats.Gender.Other++
		}
		switch {
		case !f.CreatedAt.Before(monthStart):
			stats.FarmerTrend.ThisMonth++
		case !f.CreatedAt.Before(lastMonthStart):
			stats.FarmerTrend.LastMonth++
		}
	}
	stats.VillagesCovered = textutil.CountDistinctFold(villages)
	stats.FarmerTrend.Percent = trendPercent(stats.FarmerTrend.ThisMonth, stats.FarmerTrend.LastMonth)

	for _, rec := range visits {
		stats.FarmersReached += rec.(*models.Outreach).FarmersCount
	}
	return stats, nil
}

// trendPercent expresses this month's registrations as a percentage of
// last month's. With no registrations last month any growth reads as 100.
func trendPercent(thisMonth, lastMonth int) float64 {
	switch {
	case lastMonth > 0:
		return math.Round(float64(thisMonth) / float64(lastMonth) * 100)
	case thisMonth > 0:
		return 100
	}
	return 0
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// RecentActivity merges the latest registrations and inspections.
func (s *Service) RecentActivity(ctx context.Context, p domain.Principal) ([]models.Activity, error) {
	if err := requireRead(p); err != nil {
		return nil, err
	}

	var farmers, inspections *store.Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		farmers, err = s.query(gctx, store.Query{Collection: models.CollectionFarmers, Limit: recentActivityLimit})
		return err
	})
	g.Go(func() (err error) {
		inspections, err = s.query(gctx, store.Query{Collection: models.CollectionInspections, Limit: recentActivityLimit})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err, "activity")
	}

	feed := make([]models.Activity, 0, len(farmers.Records)+len(inspections.Records))
	for _, rec := range farmers.Records {
		f := rec.(*models.Farmer)
		feed = append(feed, models.Activity{
			ID:        f.ID,
			Type:      models.CollectionFarmers,
			Title:     "New Farmer: " + f.FullName,
			Detail:    f.District,
			Status:    "Completed",
			Timestamp: f.CreatedAt,
		})
	}
	for _, rec := range inspections.Records {
		i := rec.(*models.Inspection)
		feed = append(feed, models.Activity{
			ID:        i.ID,
			Type:      models.CollectionInspections,
			Title:     "Inspection: " + i.FarmerName + " (" + i.Crop + ")",
			Detail:    i.Village,
			Status:    i.Result(),
			Timestamp: i.CreatedAt,
		})
	}
	slices.SortStableFunc(feed, func(a, b models.Activity) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(feed) > recentActivityLimit {
		feed = feed[:recentActivityLimit]
	}
	return feed, nil
}

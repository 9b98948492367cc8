package services

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
	"wedmarket/internal/repos"
)

const (
	defaultAdLimit          = 10
	FeaturedLimit           = 8
	RecommendedLimit        = 5
	CategoryFeaturedLimit   = 4
	DefaultExpiringWithin   = 24 * time.Hour
	randomFallbackPartLimit = 50
)

// AdQuery selects currently-active advertisements.
type AdQuery struct {
	Type            domain.AdType
	Position        domain.Position
	CategorySection string
	ProductCategory string
	Limit           int
}

// AdInput carries the editable ad fields. Zero values keep whatever the ad
// already has (or the creation default).
type AdInput struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"image_url"`
	LinkURL         string          `json:"link_url"`
	AdType          domain.AdType   `json:"ad_type"`
	Position        domain.Position `json:"position"`
	CategorySection string          `json:"category_section"`
	Priority        *int            `json:"priority"`
	IsActive        *bool           `json:"is_active"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	ProductID       string          `json:"product_id"`
	ProductCategory string          `json:"product_category"`
	Budget          *float64        `json:"budget"`
}

type AdStats struct {
	TotalAds         int            `json:"total_ads"`
	ActiveAds        int            `json:"active_ads"`
	TotalImpressions int64          `json:"total_impressions"`
	TotalClicks      int64          `json:"total_clicks"`
	OverallCTR       float64        `json:"overall_ctr"`
	AvgImpressions   float64        `json:"avg_impressions_per_ad"`
	ByType           map[string]int `json:"by_type"`
	ByPosition       map[string]int `json:"by_position"`
	ByCategory       map[string]int `json:"by_category"`
}

// AdService builds the ad-bearing display blocks and manages ads.
type AdService struct {
	Ads     AdStore
	Catalog *CatalogService
	Now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAdService uses rng for random fill; nil seeds from the runtime.
func NewAdService(ads AdStore, catalog *CatalogService, rng *rand.Rand) *AdService {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &AdService{Ads: ads, Catalog: catalog, Now: time.Now, rng: rng}
}

// ActiveAds lists ads that are active now, by priority then age.
func (s *AdService) ActiveAds(ctx context.Context, q AdQuery) ([]domain.AdItem, error) {
	if q.Limit <= 0 {
		q.Limit = defaultAdLimit
	}
	rows, err := s.Ads.List(ctx, repos.AdFilter{
		Type:            q.Type,
		Position:        q.Position,
		CategorySection: q.CategorySection,
		ProductCategory: q.ProductCategory,
		ActiveOnly:      true,
	})
	if err != nil {
		return nil, err
	}
	now := s.Now()
	out := make([]domain.AdItem, 0, min(len(rows), q.Limit))
	for _, ad := range rows {
		if len(out) == q.Limit {
			break
		}
		if !ad.ActiveAt(now) {
			continue
		}
		out = append(out, domain.AdItem{Ad: ad, Product: s.linkedProduct(ctx, ad)})
	}
	return out, nil
}

func (s *AdService) linkedProduct(ctx context.Context, ad domain.Advertisement) *domain.Product {
	if ad.ProductID == nil || *ad.ProductID == "" {
		return nil
	}
	category := ""
	if ad.ProductCategory != nil {
		category = *ad.ProductCategory
	}
	prod, _, err := s.Catalog.GetProduct(ctx, *ad.ProductID, category)
	if err != nil {
		applog.Warn(nil, "ads.product.resolve.fail", err, map[string]any{"ad_id": ad.ID, "product_id": *ad.ProductID})
		return nil
	}
	return &prod
}

// activeOrNone degrades an ad read failure to "no ads".
func (s *AdService) activeOrNone(ctx context.Context, q AdQuery) []domain.AdItem {
	ads, err := s.ActiveAds(ctx, q)
	if err != nil {
		applog.Warn(nil, "ads.read.fail", err, map[string]any{"type": string(q.Type), "position": string(q.Position)})
		return nil
	}
	return ads
}

// CategorySection is the 9-slot grid for one category: targeted
// category_sections ads, then the partition's newest products.
func (s *AdService) CategorySection(ctx context.Context, category string) ([]domain.Slot, error) {
	p := s.Catalog.ResolveTable(category)
	ads := s.activeOrNone(ctx, AdQuery{
		Type:            domain.AdCategorySections,
		CategorySection: domain.SectionKey(p.Category()),
		Limit:           MaxSlots,
	})
	prods, err := s.Catalog.Products.List(ctx, p, MaxSlots)
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", p, err)
	}
	slots := FillSlots(ads, prods, MaxSlots)
	s.recordShown(ctx, slots)
	return slots, nil
}

// Featured is the homepage featured block, topped up with random products.
func (s *AdService) Featured(ctx context.Context, limit int) []domain.Slot {
	if limit <= 0 {
		limit = FeaturedLimit
	}
	ads := s.activeOrNone(ctx, AdQuery{Type: domain.AdFeatured, Position: domain.PosHomepageFeatured, Limit: limit})
	return s.topUp(ctx, ads, limit)
}

// Recommended shows one paid ad first, then recommended ads, then random
// products.
func (s *AdService) Recommended(ctx context.Context, limit int) []domain.Slot {
	if limit <= 0 {
		limit = RecommendedLimit
	}
	ads := s.activeOrNone(ctx, AdQuery{Type: domain.AdPaid, Limit: 1})
	if rest := limit - len(ads); rest > 0 {
		ads = append(ads, s.activeOrNone(ctx, AdQuery{Type: domain.AdRecommended, Limit: rest})...)
	}
	return s.topUp(ctx, ads, limit)
}

// CategoryFeatured is the small block on a category page: category_featured
// ads for the category, then its newest products.
func (s *AdService) CategoryFeatured(ctx context.Context, category string, limit int) []domain.Slot {
	if limit <= 0 {
		limit = CategoryFeaturedLimit
	}
	p := s.Catalog.ResolveTable(category)
	ads := s.activeOrNone(ctx, AdQuery{
		Position:        domain.PosCategoryFeatured,
		ProductCategory: string(p.Category()),
		Limit:           limit,
	})
	var prods []domain.Product
	if len(ads) < limit {
		var err error
		if prods, err = s.Catalog.Products.List(ctx, p, limit); err != nil {
			applog.Warn(nil, "catalog.partition.read.fail", err, map[string]any{"partition": string(p)})
		}
	}
	slots := FillSlots(ads, prods, limit)
	s.recordShown(ctx, slots)
	return slots
}

func (s *AdService) topUp(ctx context.Context, ads []domain.AdItem, limit int) []domain.Slot {
	var filler []domain.Product
	if need := limit - len(ads); need > 0 {
		shown := map[string]bool{}
		for _, a := range ads {
			if a.Product != nil {
				shown[a.Product.ID] = true
			}
		}
		for _, p := range s.RandomProducts(ctx, need+len(shown)) {
			if !shown[p.ID] {
				filler = append(filler, p)
			}
		}
	}
	slots := FillSlots(ads, filler, limit)
	s.recordShown(ctx, slots)
	return slots
}

// RandomProducts returns up to n distinct products picked uniformly from all
// partitions. An empty pool falls back to the default partition; failure
// there yields an empty result.
func (s *AdService) RandomProducts(ctx context.Context, n int) []domain.Product {
	if n <= 0 {
		return nil
	}
	pool := s.Catalog.ListAll(ctx)
	if len(pool) == 0 {
		var err error
		pool, err = s.Catalog.Products.List(ctx, domain.DefaultPartition, max(n, randomFallbackPartLimit))
		if err != nil {
			applog.Warn(nil, "ads.random.fallback.fail", err, map[string]any{"partition": string(domain.DefaultPartition)})
			return nil
		}
	}
	s.shuffle(pool)
	return pool[:min(n, len(pool))]
}

// shuffle is Fisher–Yates over the service's generator.
func (s *AdService) shuffle(ps []domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(ps) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		ps[i], ps[j] = ps[j], ps[i]
	}
}

func (s *AdService) recordShown(ctx context.Context, slots []domain.Slot) {
	if ids := adIDs(slots); len(ids) > 0 {
		if err := s.RecordImpressions(ctx, ids...); err != nil {
			applog.Warn(nil, "ads.impressions.fail", err, map[string]any{"ads": len(ids)})
		}
	}
}

func (s *AdService) RecordImpressions(ctx context.Context, ids ...string) error {
	return s.Ads.IncrementImpressions(ctx, ids...)
}

func (s *AdService) RecordClick(ctx context.Context, id string) error {
	return s.Ads.IncrementClicks(ctx, id)
}

func (s *AdService) GetAd(ctx context.Context, id string) (domain.Advertisement, error) {
	return s.Ads.Get(ctx, id)
}

func (s *AdService) ListAds(ctx context.Context, f repos.AdFilter) ([]domain.Advertisement, error) {
	return s.Ads.List(ctx, f)
}

func (s *AdService) CreateAd(ctx context.Context, in AdInput) (domain.Advertisement, error) {
	ad := domain.Advertisement{
		AdType:    domain.AdFeatured,
		Position:  domain.PosHomepageFeatured,
		Priority:  1,
		IsActive:  true,
		StartDate: domain.FormatTime(s.Now()),
	}
	if err := in.apply(&ad); err != nil {
		return domain.Advertisement{}, err
	}
	if err := s.Ads.Insert(ctx, &ad); err != nil {
		return domain.Advertisement{}, fmt.Errorf("create ad: %w: %w", domain.ErrCreateFailed, err)
	}
	applog.Audit(nil, "ads.create", map[string]any{"id": ad.ID, "type": string(ad.AdType), "position": string(ad.Position)})
	return ad, nil
}

func (s *AdService) UpdateAd(ctx context.Context, id string, in AdInput) (domain.Advertisement, error) {
	ad, err := s.Ads.Get(ctx, id)
	if err != nil {
		return domain.Advertisement{}, err
	}
	if err := in.apply(&ad); err != nil {
		return domain.Advertisement{}, err
	}
	if err := s.Ads.Update(ctx, &ad); err != nil {
		return domain.Advertisement{}, err
	}
	applog.Audit(nil, "ads.update", map[string]any{"id": id})
	return ad, nil
}

// SetAdStatus accepts "active" or "inactive".
func (s *AdService) SetAdStatus(ctx context.Context, id, status string) error {
	var active bool
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active":
		active = true
	case "inactive":
	default:
		return fmt.Errorf("ad status %q: %w", status, domain.ErrInvalidInput)
	}
	if err := s.Ads.SetActive(ctx, id, active); err != nil {
		return err
	}
	applog.Audit(nil, "ads.status", map[string]any{"id": id, "active": active})
	return nil
}

func (s *AdService) DeleteAd(ctx context.Context, id string) error {
	if _, err := s.Ads.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Ads.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete ad %s: %w: %w", id, domain.ErrDeleteFailed, err)
	}
	applog.Audit(nil, "ads.delete", map[string]any{"id": id})
	return nil
}

// Statistics aggregates counters over every ad.
func (s *AdService) Statistics(ctx context.Context) (AdStats, error) {
	ads, err := s.Ads.List(ctx, repos.AdFilter{})
	if err != nil {
		return AdStats{}, err
	}
	st := AdStats{
		TotalAds:   len(ads),
		ByType:     map[string]int{},
		ByPosition: map[string]int{},
		ByCategory: map[string]int{},
	}
	now := s.Now()
	for _, ad := range ads {
		if ad.ActiveAt(now) {
			st.ActiveAds++
		}
		st.TotalImpressions += ad.ImpressionsCount
		st.TotalClicks += ad.ClicksCount
		st.ByType[string(ad.AdType)]++
		st.ByPosition[string(ad.Position)]++
		if c := adCategory(ad); c != "" {
			st.ByCategory[c]++
		}
	}
	st.OverallCTR = OverallCTR(ads)
	if len(ads) > 0 {
		st.AvgImpressions = round2(float64(st.TotalImpressions) / float64(len(ads)))
	}
	return st, nil
}

func adCategory(ad domain.Advertisement) string {
	if ad.ProductCategory != nil && *ad.ProductCategory != "" {
		return *ad.ProductCategory
	}
	if ad.CategorySection != nil {
		return strings.TrimSuffix(*ad.CategorySection, "_homepage")
	}
	return ""
}

// OverallCTR is total clicks over total impressions as a percentage, rounded
// to two decimals.
func OverallCTR(ads []domain.Advertisement) float64 {
	var imp, clk int64
	for _, ad := range ads {
		imp += ad.ImpressionsCount
		clk += ad.ClicksCount
	}
	if imp == 0 {
		return 0
	}
	return round2(float64(clk) / float64(imp) * 100)
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

// ExpiringSoon lists active ads ending within the window.
func (s *AdService) ExpiringSoon(ctx context.Context, within time.Duration) ([]domain.Advertisement, error) {
	if within <= 0 {
		within = DefaultExpiringWithin
	}
	now := s.Now()
	return s.Ads.EndingBetween(ctx, now, now.Add(within))
}

func (in AdInput) apply(ad *domain.Advertisement) error {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&ad.Title, in.Title)
	set(&ad.Description, in.Description)
	set(&ad.ImageURL, in.ImageURL)
	set(&ad.LinkURL, in.LinkURL)

	if in.AdType != "" {
		if !in.AdType.Valid() {
			return fmt.Errorf("ad type %q: %w", in.AdType, domain.ErrInvalidInput)
		}
		ad.AdType = in.AdType
	}
	if in.Position != "" {
		if !in.Position.Valid() {
			return fmt.Errorf("ad position %q: %w", in.Position, domain.ErrInvalidInput)
		}
		ad.Position = in.Position
	}
	if in.Priority != nil {
		ad.Priority = *in.Priority
	}
	if in.IsActive != nil {
		ad.IsActive = *in.IsActive
	}
	if in.Budget != nil {
		if *in.Budget < 0 {
			return fmt.Errorf("ad budget: %w", domain.ErrInvalidInput)
		}
		ad.Budget = *in.Budget
	}
	if in.StartDate != "" {
		t, err := parseAdDate(in.StartDate)
		if err != nil {
			return err
		}
		ad.StartDate = t
	}
	if in.EndDate != "" {
		t, err := parseAdDate(in.EndDate)
		if err != nil {
			return err
		}
		ad.EndDate = &t
	}
	if pid := strings.TrimSpace(in.ProductID); pid != "" {
		ad.ProductID = &pid
	}
	if in.ProductCategory != "" {
		c, ok := domain.ParseCategory(in.ProductCategory)
		if !ok {
			return fmt.Errorf("ad product category %q: %w", in.ProductCategory, domain.ErrInvalidInput)
		}
		pc := string(c)
		ad.ProductCategory = &pc
	}
	if sec := strings.TrimSpace(in.CategorySection); sec != "" {
		ad.CategorySection = &sec
	}
	if ad.AdType == domain.AdCategorySections && (ad.CategorySection == nil || *ad.CategorySection == "") {
		if ad.ProductCategory == nil {
			return fmt.Errorf("category_sections ad needs a category: %w", domain.ErrInvalidInput)
		}
		sec := domain.SectionKey(domain.Category(*ad.ProductCategory))
		ad.CategorySection = &sec
	}
	return nil
}

var adDateLayouts = []string{domain.TimeLayout, time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// parseAdDate accepts the stored layout, RFC 3339, an HTML datetime-local
// value or a bare date, and normalises to the stored layout.
func parseAdDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, l := range adDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return domain.FormatTime(t), nil
		}
	}
	return "", fmt.Errorf("ad date %q: %w", s, domain.ErrInvalidInput)
}

package domain

import "time"

type Product struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Price       float64    `db:"price" json:"price"` // 0 = contact for price
	Category    Category   `db:"category" json:"category"`
	Subcategory StringList `db:"subcategory" json:"subcategory"`
	Governorate string     `db:"governorate" json:"governorate"`
	Cities      StringList `db:"cities" json:"cities"`
	WhatsApp    string     `db:"whatsapp" json:"whatsapp,omitempty"`
	Facebook    string     `db:"facebook" json:"facebook,omitempty"`
	Instagram   string     `db:"instagram" json:"instagram,omitempty"`
	ImageURLs   StringList `db:"image_urls" json:"image_urls"`
	Colors      StringList `db:"colors" json:"colors,omitempty"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   string     `db:"created_at" json:"created_at"`
	UpdatedAt   string     `db:"updated_at" json:"updated_at"`
}

const (
	ProductStatusActive  = "active"
	ProductStatusDeleted = "deleted"
)

func (p Product) PrimaryImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

type AdType string

const (
	AdFeatured         AdType = "featured"
	AdRecommended      AdType = "recommended"
	AdPaid             AdType = "paid"
	AdBanner           AdType = "banner"
	AdCategorySections AdType = "category_sections"
)

func (t AdType) Valid() bool {
	switch t {
	case AdFeatured, AdRecommended, AdPaid, AdBanner, AdCategorySections:
		return true
	}
	return false
}

type Position string

const (
	PosHomepageFeatured    Position = "homepage_featured"
	PosHomepageRecommended Position = "homepage_recommended"
	PosSidebar             Position = "sidebar"
	PosCategoryFeatured    Position = "category_featured"
)

func (p Position) Valid() bool {
	switch p {
	case PosHomepageFeatured, PosHomepageRecommended, PosSidebar, PosCategoryFeatured:
		return true
	}
	return false
}

// SectionKey is the category_section value targeting a category's homepage block.
func SectionKey(c Category) string { return string(c) + "_homepage" }

type Advertisement struct {
	ID               string   `db:"id" json:"id"`
	Title            string   `db:"title" json:"title"`
	Description      string   `db:"description" json:"description"`
	ImageURL         string   `db:"image_url" json:"image_url"`
	LinkURL          string   `db:"link_url" json:"link_url"`
	AdType           AdType   `db:"ad_type" json:"ad_type"`
	Position         Position `db:"position" json:"position"`
	CategorySection  *string  `db:"category_section" json:"category_section,omitempty"`
	Priority         int      `db:"priority" json:"priority"`
	IsActive         bool     `db:"is_active" json:"is_active"`
	StartDate        string   `db:"start_date" json:"start_date"`
	EndDate          *string  `db:"end_date" json:"end_date,omitempty"`
	ProductID        *string  `db:"product_id" json:"product_id,omitempty"`
	ProductCategory  *string  `db:"product_category" json:"product_category,omitempty"`
	ImpressionsCount int64    `db:"impressions_count" json:"impressions_count"`
	ClicksCount      int64    `db:"clicks_count" json:"clicks_count"`
	Budget           float64  `db:"budget" json:"budget"`
	Spent            float64  `db:"spent" json:"spent"`
	CreatedAt        string   `db:"created_at" json:"created_at"`
	UpdatedAt        string   `db:"updated_at" json:"updated_at"`
}

// ActiveAt reports whether the ad may be shown at now: the is_active gate is
// set and end_date is absent or still ahead. An unparsable end_date counts as
// expired.
func (a Advertisement) ActiveAt(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.EndDate == nil || *a.EndDate == "" {
		return true
	}
	end, err := ParseTime(*a.EndDate)
	if err != nil {
		return false
	}
	return end.After(now)
}

// CTR is clicks per impression as a percentage.
func (a Advertisement) CTR() float64 {
	if a.ImpressionsCount == 0 {
		return 0
	}
	return float64(a.ClicksCount) / float64(a.ImpressionsCount) * 100
}

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Submission is a pending product request. Category is kept as submitted and
// only resolved to a partition on approval.
type Submission struct {
	ID              string           `db:"id" json:"id"`
	Title           string           `db:"title" json:"title"`
	Description     string           `db:"description" json:"description"`
	Price           float64          `db:"price" json:"price"`
	Category        string           `db:"category" json:"category"`
	Subcategory     StringList       `db:"subcategory" json:"subcategory"`
	Governorate     string           `db:"governorate" json:"governorate"`
	Cities          StringList       `db:"cities" json:"cities"`
	WhatsApp        string           `db:"whatsapp" json:"whatsapp,omitempty"`
	Facebook        string           `db:"facebook" json:"facebook,omitempty"`
	Instagram       string           `db:"instagram" json:"instagram,omitempty"`
	Colors          StringList       `db:"colors" json:"colors,omitempty"`
	ImageURLs       ImageRefs        `db:"image_urls" json:"image_urls"`
	Status          SubmissionStatus `db:"status" json:"status"`
	RejectionReason string           `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       string           `db:"created_at" json:"created_at"`
	UpdatedAt       string           `db:"updated_at" json:"updated_at"`
}

type SubmissionStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Favorite is one saved product for a visitor key.
type Favorite struct {
	UserKey   string   `db:"user_key" json:"-"`
	ProductID string   `db:"product_id" json:"product_id"`
	Category  Category `db:"category" json:"category"`
	CreatedAt string   `db:"created_at" json:"created_at"`
}

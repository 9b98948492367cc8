package repos

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"wedmarket/internal/domain"
)

// DB is the table store handle shared by every repo. Timeout bounds each
// remote call; zero leaves the caller's deadline alone.
type DB struct {
	*sqlx.DB
	Timeout time.Duration
}

// Wrap adapts an existing handle, e.g. one backed by sqlmock.
func Wrap(db *sqlx.DB, timeout time.Duration) *DB { return &DB{DB: db, Timeout: timeout} }

func (d *DB) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.Timeout)
}

// OpenDB connects with driver "sqlite" or "postgres" and creates the schema.
func OpenDB(driver, dsn string) (*DB, error) {
	if driver == "" {
		driver = "sqlite"
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: an in-memory database is per connection and sqlite
		// serialises writers anyway
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &DB{DB: db}, nil
}

func productTableDDL(p domain.Partition) string {
	colors := ""
	if p.HasColors() {
		colors = "\n  colors TEXT NOT NULL DEFAULT '[]',"
	}
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
  category TEXT NOT NULL CHECK (category = '%[2]s'),
  subcategory TEXT NOT NULL DEFAULT '[]',
  governorate TEXT NOT NULL DEFAULT '',
  cities TEXT NOT NULL DEFAULT '[]',
  whatsapp TEXT NOT NULL DEFAULT '',
  facebook TEXT NOT NULL DEFAULT '',
  instagram TEXT NOT NULL DEFAULT '',
  image_urls TEXT NOT NULL DEFAULT '[]',%[3]s
  status TEXT NOT NULL DEFAULT 'active',
  deleted_at TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_created_at ON %[1]s(created_at);
`, p, p.Category(), colors)
}

func ensureSchema(db *sqlx.DB) error {
	var b strings.Builder
	for _, p := range domain.Partitions() {
		b.WriteString(productTableDDL(p))
	}
	b.WriteString(`
-- Advertisements
CREATE TABLE IF NOT EXISTS advertisements(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  link_url TEXT NOT NULL DEFAULT '',
  ad_type TEXT NOT NULL CHECK (ad_type IN ('featured','recommended','paid','banner','category_sections')),
  position TEXT NOT NULL,
  category_section TEXT,
  priority INTEGER NOT NULL DEFAULT 1,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  start_date TEXT NOT NULL,
  end_date TEXT,
  product_id TEXT,
  product_category TEXT,
  impressions_count INTEGER NOT NULL DEFAULT 0,
  clicks_count INTEGER NOT NULL DEFAULT 0,
  budget NUMERIC NOT NULL DEFAULT 0,
  spent NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ads_placement ON advertisements(ad_type, position);
CREATE INDEX IF NOT EXISTS idx_ads_end_date ON advertisements(end_date);

-- Pending submissions
CREATE TABLE IF NOT EXISTS product_requests(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
  category TEXT NOT NULL DEFAULT '',
  subcategory TEXT NOT NULL DEFAULT '[]',
  governorate TEXT NOT NULL DEFAULT '',
  cities TEXT NOT NULL DEFAULT '[]',
  whatsapp TEXT NOT NULL DEFAULT '',
  facebook TEXT NOT NULL DEFAULT '',
  instagram TEXT NOT NULL DEFAULT '',
  colors TEXT NOT NULL DEFAULT '[]',
  image_urls TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected')),
  rejection_reason TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_product_requests_status ON product_requests(status);

-- Favorites
CREATE TABLE IF NOT EXISTS favorites(
  user_key TEXT NOT NULL,
  product_id TEXT NOT NULL,
  category TEXT NOT NULL,
  created_at TEXT NOT NULL,
  PRIMARY KEY (user_key, product_id)
);
`)
	_, err := db.Exec(b.String())
	return err
}

// SeedDemo inserts a handful of listings and ads when the catalog is empty.
func SeedDemo(ctx context.Context, db *DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products_cake`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Println("[seed] inserting demo products/advertisements")

	prods := NewProductRepo(db)
	ads := NewAdRepo(db)
	now := time.Now()
	demo := []domain.Product{
		{Title: "Three-tier vanilla cake", Description: "Buttercream, fresh flowers", Price: 120, Category: domain.CategoryCake, Governorate: "Baghdad"},
		{Title: "Chocolate drip cake", Description: "Serves 40", Price: 85, Category: domain.CategoryCake, Governorate: "Erbil"},
		{Title: "Rose gold kosha", Description: "Stage decor with LED arch", Price: 0, Category: domain.CategoryKoshat, Governorate: "Baghdad"},
		{Title: "Engraved mirror", Description: "Custom names, 60x90", Price: 45, Category: domain.CategoryMirr, Governorate: "Basra"},
		{Title: "Gold foil invitations", Description: "Pack of 100", Price: 60, Category: domain.CategoryInvitations, Governorate: "Baghdad"},
		{Title: "Peony bouquet", Description: "Bridal bouquet", Price: 35, Category: domain.CategoryFlowerBouquets, Colors: domain.StringList{"pink", "white"}},
		{Title: "Guest book", Description: "Velvet cover", Price: 20, Category: domain.CategoryOther},
	}
	for i := range demo {
		p := &demo[i]
		p.CreatedAt = domain.FormatTime(now.Add(-time.Duration(i) * time.Hour))
		if err := prods.Insert(ctx, p.Category.Partition(), p); err != nil {
			return err
		}
	}
	pid := demo[0].ID
	pcat := string(demo[0].Category)
	section := domain.SectionKey(domain.CategoryCake)
	return ads.Insert(ctx, &domain.Advertisement{
		ID:              uuid.NewString(),
		Title:           "Cake of the week",
		AdType:          domain.AdCategorySections,
		Position:        domain.PosHomepageFeatured,
		CategorySection: &section,
		Priority:        5,
		IsActive:        true,
		ProductID:       &pid,
		ProductCategory: &pcat,
	})
}

// Command seed-db loads the launch dataset: the canonical color palette,
// Egypt shipping geography, a demo catalog, coupons and a demo user with a
// working bearer token. Every step is idempotent, so the command can be
// re-run against a live database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Elfar/piano/internal/domain/auth"
	"github.com/Mohamed-Elfar/piano/internal/domain/coupon"
	"github.com/Mohamed-Elfar/piano/internal/storage/postgres"
)

const (
	demoUserEmail = "demo@piano.example"
	demoUserName  = "Demo User"
	demoUserPhone = "+201000000000"
)

// The no-op DO UPDATE makes RETURNING yield the id for existing rows too.
const (
	upsertColorSQL = `INSERT INTO colors (name, hex_code) VALUES ($1, UPPER($2))
		ON CONFLICT (hex_code) DO UPDATE SET name = EXCLUDED.name`

	upsertGovernorateSQL = `INSERT INTO governorates (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	insertAreaSQL = `INSERT INTO areas (name, governorate_id) VALUES ($1, $2)
		ON CONFLICT (name, governorate_id) DO NOTHING`

	upsertCategorySQL = `INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertSubcategorySQL = `INSERT INTO subcategories (name, category_id) VALUES ($1, $2)
		ON CONFLICT (name, category_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertRoomSQL = `INSERT INTO rooms (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertStyleSQL = `INSERT INTO styles (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	getColorIDSQL   = `SELECT id FROM colors WHERE name = $1`
	getProductIDSQL = `SELECT id FROM products WHERE name = $1`

	insertProductSQL = `INSERT INTO products (name, short_description, description, dimensions,
			original_price, sale_price, is_on_sale, rating, category_id, subcategory_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	linkColorSQL = `INSERT INTO product_colors (product_id, color_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	linkRoomSQL = `INSERT INTO product_rooms (product_id, room_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	linkStyleSQL = `INSERT INTO product_styles (product_id, style_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
)

// canonicalPalette is the fixed set of colors products may reference.
// Hex codes are normalized to upper case on insert and act as the merge key,
// so renaming a color here renames it in place.
var canonicalPalette = []struct {
	name string
	hex  string
}{
	{"Black", "#000000"},
	{"White", "#F4F3EF"},
	{"Red", "#AF2A4D"},
	{"Orange", "#C46D00"},
	{"Warm Yellow", "#FFDD00"},
	{"Green", "#3D8E4E"},
	{"Mint Gray", "#7A9274"},
	{"Brown", "#D4BCA4"},
	{"Dark Brown", "#885A38"},
	{"Dark Blue", "#3D6F8E"},
	{"Blue", "#007AFF"},
	{"Purple", "#AF52DE"},
	{"Teal", "#5AC8FA"},
	{"Pink", "#FF2D55"},
	{"Navy", "#1F3A5F"},
	{"Olive", "#556B2F"},
	{"Lavender", "#E6E6FA"},
	{"Gray", "#8E8E93"},
}

// egyptGovernorates is the launch delivery coverage. Areas are created with
// zero shipping cost; real rates are assigned per area afterwards.
var egyptGovernorates = []struct {
	name  string
	areas []string
}{
	{"Cairo", []string{"Nasr City", "Maadi", "Heliopolis", "Zamalek", "Shubra"}},
	{"Giza", []string{"Dokki", "Mohandessin", "Haram", "6th of October", "Sheikh Zayed"}},
	{"Alex", []string{"Sidi Gaber", "Stanley", "Roushdy", "Miami", "Alex"}},
	{"Aswan", []string{"Aswan City", "Kom Ombo", "Edfu"}},
	{"Luxor", []string{"Luxor City", "Al Qurna", "Esna"}},
	{"Qalyubia", []string{"Shubra El Kheima", "Banha", "Tukh"}},
	{"Beheira", []string{"Damanhour", "Kafr El Dawar"}},
}

type productJSON struct {
	Name             string           `json:"name"`
	ShortDescription string           `json:"short_description"`
	Description      string           `json:"description"`
	Dimensions       string           `json:"dimensions"`
	OriginalPrice    decimal.Decimal  `json:"original_price"`
	SalePrice        *decimal.Decimal `json:"sale_price"`
	IsOnSale         bool             `json:"is_on_sale"`
	Rating           decimal.Decimal  `json:"rating"`
	Category         string           `json:"category"`
	Subcategory      string           `json:"subcategory"`
	Rooms            []string         `json:"rooms"`
	Styles           []string         `json:"styles"`
	Colors           []string         `json:"colors"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		token        string
		pepper       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&token, "token", "", "bearer token to seed for the demo user (or PIANO_SEED_TOKEN env)")
	flag.StringVar(&pepper, "token-pepper", "", "HMAC pepper for bearer token hashing (or PIANO_TOKEN_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if token == "" {
		token = os.Getenv("PIANO_SEED_TOKEN")
	}
	if token == "" {
		slog.Error("seed token is required: set --token or PIANO_SEED_TOKEN")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("PIANO_TOKEN_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, token, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, token, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedColors(ctx, pool); err != nil {
		return errors.Wrap(err, "seed colors")
	}

	if err := seedGeography(ctx, pool); err != nil {
		return errors.Wrap(err, "seed geography")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedDemoUser(ctx, pool, token, pepper); err != nil {
		return errors.Wrap(err, "seed demo user")
	}

	return nil
}

func seedColors(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding color palette", slog.Int("count", len(canonicalPalette)))

	for _, c := range canonicalPalette {
		if _, err := pool.Exec(ctx, upsertColorSQL, c.name, c.hex); err != nil {
			return errors.Wrapf(err, "upsert color %s", c.name)
		}
	}

	return nil
}

func seedGeography(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding governorates and areas")

	for _, gov := range egyptGovernorates {
		var govID int64
		if err := pool.QueryRow(ctx, upsertGovernorateSQL, gov.name).Scan(&govID); err != nil {
			return errors.Wrapf(err, "upsert governorate %s", gov.name)
		}

		for _, area := range gov.areas {
			if _, err := pool.Exec(ctx, insertAreaSQL, area, govID); err != nil {
				return errors.Wrapf(err, "insert area %s", area)
			}
		}

		slog.Info("seeded governorate",
			slog.String("name", gov.name), slog.Int("areas", len(gov.areas)))
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("seeding products", slog.Int("count", len(products)))

	for _, p := range products {
		if err := seedProduct(ctx, pool, p); err != nil {
			return errors.Wrapf(err, "seed product %s", p.Name)
		}

		slog.Info("seeded product", slog.String("name", p.Name))
	}

	return nil
}

func seedProduct(ctx context.Context, pool *pgxpool.Pool, p productJSON) error {
	var categoryID, subcategoryID *int64
	if p.Category != "" {
		id, err := upsertNamed(ctx, pool, upsertCategorySQL, p.Category)
		if err != nil {
			return errors.Wrapf(err, "upsert category %s", p.Category)
		}
		categoryID = &id

		if p.Subcategory != "" {
			var subID int64
			if err := pool.QueryRow(ctx, upsertSubcategorySQL, p.Subcategory, id).Scan(&subID); err != nil {
				return errors.Wrapf(err, "upsert subcategory %s", p.Subcategory)
			}
			subcategoryID = &subID
		}
	}

	productID, err := getOrCreateProduct(ctx, pool, p, categoryID, subcategoryID)
	if err != nil {
		return err
	}

	for _, room := range p.Rooms {
		roomID, err := upsertNamed(ctx, pool, upsertRoomSQL, room)
		if err != nil {
			return errors.Wrapf(err, "upsert room %s", room)
		}
		if _, err := pool.Exec(ctx, linkRoomSQL, productID, roomID); err != nil {
			return errors.Wrapf(err, "link room %s", room)
		}
	}

	for _, style := range p.Styles {
		styleID, err := upsertNamed(ctx, pool, upsertStyleSQL, style)
		if err != nil {
			return errors.Wrapf(err, "upsert style %s", style)
		}
		if _, err := pool.Exec(ctx, linkStyleSQL, productID, styleID); err != nil {
			return errors.Wrapf(err, "link style %s", style)
		}
	}

	// Colors are not created on the fly: a product naming an unknown color is
	// a data error, not a new palette entry.
	for _, color := range p.Colors {
		var colorID int64
		if err := pool.QueryRow(ctx, getColorIDSQL, color).Scan(&colorID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errors.Errorf("color %q is not in the palette", color)
			}
			return errors.Wrapf(err, "look up color %s", color)
		}
		if _, err := pool.Exec(ctx, linkColorSQL, productID, colorID); err != nil {
			return errors.Wrapf(err, "link color %s", color)
		}
	}

	return nil
}

func upsertNamed(ctx context.Context, pool *pgxpool.Pool, sql, name string) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, sql, name).Scan(&id)
	return id, err
}

// getOrCreateProduct matches products by name. Existing products keep their
// stored prices and flags; only the taxonomy links are refreshed around them.
func getOrCreateProduct(ctx context.Context, pool *pgxpool.Pool, p productJSON, categoryID, subcategoryID *int64) (int64, error) {
	var id int64
	err := pool.QueryRow(ctx, getProductIDSQL, p.Name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, errors.Wrap(err, "look up product")
	}

	err = pool.QueryRow(ctx, insertProductSQL,
		p.Name, p.ShortDescription, p.Description, p.Dimensions,
		p.OriginalPrice, p.SalePrice, p.IsOnSale, p.Rating,
		categoryID, subcategoryID,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert product")
	}
	return id, nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo coupons")

	repo := postgres.NewCouponRepository(pool)
	now := time.Now()

	coupons := []*coupon.Coupon{
		{
			Code:            "WELCOME10",
			DiscountPercent: decimal.NewFromInt(10),
			IsActive:        true,
			ValidFrom:       now,
			ValidTo:         now.AddDate(1, 0, 0),
		},
		{
			Code:            "SUMMER25",
			DiscountPercent: decimal.NewFromInt(25),
			IsActive:        true,
			ValidFrom:       now,
			ValidTo:         now.AddDate(0, 3, 0),
		},
	}

	for _, c := range coupons {
		if err := repo.Upsert(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}

		slog.Info("upserted coupon",
			slog.String("code", c.Code),
			slog.String("discount_percent", c.DiscountPercent.String()))
	}

	return nil
}

func seedDemoUser(ctx context.Context, pool *pgxpool.Pool, token, pepper string) error {
	slog.Info("seeding demo user and bearer token")

	repo := postgres.NewTokenRepository(pool)

	userID, err := repo.UpsertUser(ctx, demoUserEmail, demoUserName, demoUserPhone)
	if err != nil {
		return errors.Wrap(err, "upsert demo user")
	}

	hash := auth.HashToken([]byte(pepper), token)
	if _, err := repo.UpsertToken(ctx, userID, hash, "Seed token"); err != nil {
		return errors.Wrap(err, "upsert bearer token")
	}

	slog.Info("upserted demo user",
		slog.Int64("user_id", userID),
		slog.String("email", demoUserEmail))

	return nil
}

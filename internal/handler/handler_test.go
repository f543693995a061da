package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamed-Elfar/piano/internal/domain/address"
	"github.com/Mohamed-Elfar/piano/internal/domain/auth"
	"github.com/Mohamed-Elfar/piano/internal/domain/cart"
	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
	"github.com/Mohamed-Elfar/piano/internal/domain/coupon"
	"github.com/Mohamed-Elfar/piano/internal/domain/favorite"
	"github.com/Mohamed-Elfar/piano/internal/domain/geo"
	"github.com/Mohamed-Elfar/piano/internal/domain/order"
	"github.com/Mohamed-Elfar/piano/internal/domain/review"
)

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// --- Mock implementations ---

type mockProductRepo struct {
	products []catalog.Product
	byID     map[int64]*catalog.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context, _ catalog.ListParams) ([]catalog.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetActiveByIDs(_ context.Context, ids []int64) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Suggest(_ context.Context, prefix string, limit int) ([]string, error) {
	var out []string
	for _, p := range m.products {
		if len(out) == limit {
			break
		}
		if strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(prefix)) {
			out = append(out, p.Name)
		}
	}
	return out, nil
}

type mockTaxonomyRepo struct {
	categories    []catalog.Category
	subcategories []catalog.Subcategory
	rooms         []catalog.Room
	styles        []catalog.Style
	colors        []catalog.Color
}

func (m *mockTaxonomyRepo) Categories(_ context.Context) ([]catalog.Category, error) {
	return m.categories, nil
}

func (m *mockTaxonomyRepo) Subcategories(_ context.Context, categoryID *int64) ([]catalog.Subcategory, error) {
	if categoryID == nil {
		return m.subcategories, nil
	}
	var out []catalog.Subcategory
	for _, s := range m.subcategories {
		if s.CategoryID == *categoryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockTaxonomyRepo) Rooms(_ context.Context) ([]catalog.Room, error)   { return m.rooms, nil }
func (m *mockTaxonomyRepo) Styles(_ context.Context) ([]catalog.Style, error) { return m.styles, nil }
func (m *mockTaxonomyRepo) Colors(_ context.Context) ([]catalog.Color, error) { return m.colors, nil }

type mockGeoRepo struct {
	governorates []geo.Governorate
	areas        map[int64]*geo.Area
}

func (m *mockGeoRepo) Governorates(_ context.Context) ([]geo.Governorate, error) {
	return m.governorates, nil
}

func (m *mockGeoRepo) Areas(_ context.Context) ([]geo.Area, error) {
	var out []geo.Area
	for _, a := range m.areas {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockGeoRepo) GetArea(_ context.Context, id int64) (*geo.Area, error) {
	a, ok := m.areas[id]
	if !ok {
		return nil, geo.ErrAreaNotFound
	}
	return a, nil
}

// mockCartRepo is a stateful in-memory cart so mutate-then-reread flows
// behave like the real repository.
type mockCartRepo struct {
	cart       *cart.Cart
	products   map[int64]*catalog.Product
	coupons    map[int64]*coupon.Coupon
	nextItemID int64
}

func (m *mockCartRepo) GetByUser(_ context.Context, _ int64) (*cart.Cart, error) {
	if m.cart == nil {
		return nil, cart.ErrNotFound
	}
	for i := range m.cart.Items {
		m.cart.Items[i].Product = m.products[m.cart.Items[i].ProductID]
	}
	return m.cart, nil
}

func (m *mockCartRepo) GetOrCreate(_ context.Context, userID int64) (*cart.Cart, error) {
	if m.cart == nil {
		m.cart = &cart.Cart{ID: 1, UserID: userID, CreatedAt: testTime}
	}
	return m.cart, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, _, productID int64, quantity int) error {
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items[i].Quantity += quantity
			return nil
		}
	}
	m.nextItemID++
	m.cart.Items = append(m.cart.Items, cart.Item{ID: m.nextItemID, ProductID: productID, Quantity: quantity})
	return nil
}

func (m *mockCartRepo) SetItemQuantity(_ context.Context, _, productID int64, quantity int) error {
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (m *mockCartRepo) RemoveItem(_ context.Context, _, productID int64) error {
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (m *mockCartRepo) SetCoupon(_ context.Context, _ int64, couponID *int64) error {
	if couponID == nil {
		m.cart.Coupon = nil
		return nil
	}
	m.cart.Coupon = m.coupons[*couponID]
	return nil
}

func (m *mockCartRepo) ClearItems(_ context.Context, _ int64) error {
	if m.cart != nil {
		m.cart.Items = nil
	}
	return nil
}

type mockCouponValidator struct {
	coupon *coupon.Coupon
	err    error
}

func (m *mockCouponValidator) Validate(_ context.Context, _ string) (*coupon.Coupon, error) {
	return m.coupon, m.err
}

type mockOrderRepo struct {
	order     *order.Order
	summaries []order.Summary
	err       error

	checkoutReq *order.CheckoutRequest
	listLimit   int
}

func (m *mockOrderRepo) Checkout(_ context.Context, req order.CheckoutRequest, _ time.Time) (*order.Order, error) {
	m.checkoutReq = &req
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ int64, limit int) ([]order.Summary, error) {
	m.listLimit = limit
	return m.summaries, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, _, orderID int64) (*order.Order, error) {
	if m.order == nil || m.order.ID != orderID {
		return nil, order.ErrNotFound
	}
	return m.order, nil
}

type mockAddressRepo struct {
	addrs  map[int64]*address.Address
	areas  map[int64]*geo.Area
	nextID int64
}

func (m *mockAddressRepo) ListByUser(_ context.Context, userID int64) ([]address.Address, error) {
	var out []address.Address
	for _, a := range m.addrs {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAddressRepo) GetByID(_ context.Context, userID, id int64) (*address.Address, error) {
	a, ok := m.addrs[id]
	if !ok || a.UserID != userID {
		return nil, address.ErrNotFound
	}
	return a, nil
}

func (m *mockAddressRepo) Create(_ context.Context, userID int64, in address.Input) (*address.Address, error) {
	if in.IsDefault {
		for _, a := range m.addrs {
			if a.UserID == userID {
				a.IsDefault = false
			}
		}
	}
	m.nextID++
	a := &address.Address{
		ID:               m.nextID,
		UserID:           userID,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		PhoneNumber:      in.PhoneNumber,
		StreetAddress:    in.StreetAddress,
		ApartmentDetails: in.ApartmentDetails,
		AreaID:           in.AreaID,
		Area:             m.areas[in.AreaID],
		IsDefault:        in.IsDefault,
		CreatedAt:        testTime,
		UpdatedAt:        testTime,
	}
	if m.addrs == nil {
		m.addrs = make(map[int64]*address.Address)
	}
	m.addrs[a.ID] = a
	return a, nil
}

func (m *mockAddressRepo) Update(_ context.Context, userID, id int64, in address.Input) (*address.Address, error) {
	a, ok := m.addrs[id]
	if !ok || a.UserID != userID {
		return nil, address.ErrNotFound
	}
	a.FirstName, a.LastName = in.FirstName, in.LastName
	a.PhoneNumber, a.StreetAddress = in.PhoneNumber, in.StreetAddress
	a.ApartmentDetails = in.ApartmentDetails
	a.AreaID, a.Area = in.AreaID, m.areas[in.AreaID]
	a.IsDefault = in.IsDefault
	return a, nil
}

func (m *mockAddressRepo) Delete(_ context.Context, userID, id int64) error {
	a, ok := m.addrs[id]
	if !ok || a.UserID != userID {
		return address.ErrNotFound
	}
	delete(m.addrs, id)
	return nil
}

func (m *mockAddressRepo) SetDefault(_ context.Context, userID, id int64) (*address.Address, error) {
	a, ok := m.addrs[id]
	if !ok || a.UserID != userID {
		return nil, address.ErrNotFound
	}
	for _, other := range m.addrs {
		if other.UserID == userID {
			other.IsDefault = false
		}
	}
	a.IsDefault = true
	return a, nil
}

type mockFavoriteRepo struct {
	favorited map[int64]bool
	nextID    int64
	deleteErr error
}

func (m *mockFavoriteRepo) ListByUser(_ context.Context, _ int64) ([]favorite.Favorite, error) {
	return nil, nil
}

func (m *mockFavoriteRepo) Toggle(_ context.Context, userID, productID int64) (*favorite.Favorite, bool, error) {
	if m.favorited[productID] {
		delete(m.favorited, productID)
		return nil, false, nil
	}
	if m.favorited == nil {
		m.favorited = make(map[int64]bool)
	}
	m.favorited[productID] = true
	m.nextID++
	return &favorite.Favorite{ID: m.nextID, UserID: userID, ProductID: productID, AddedAt: testTime}, true, nil
}

func (m *mockFavoriteRepo) Delete(_ context.Context, _, _ int64) error {
	return m.deleteErr
}

func (m *mockFavoriteRepo) IsFavorited(_ context.Context, _, productID int64) (bool, error) {
	return m.favorited[productID], nil
}

type mockReviewRepo struct {
	reviews map[int64]*review.Review
	nextID  int64
	email   string
}

func (m *mockReviewRepo) ListByProduct(_ context.Context, productID int64) ([]review.Review, error) {
	var out []review.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, productID, reviewID int64) (*review.Review, error) {
	r, ok := m.reviews[reviewID]
	if !ok || r.ProductID != productID {
		return nil, review.ErrNotFound
	}
	return r, nil
}

func (m *mockReviewRepo) Create(_ context.Context, r *review.Review) error {
	for _, existing := range m.reviews {
		if existing.UserID == r.UserID && existing.ProductID == r.ProductID {
			return review.ErrAlreadyReviewed
		}
	}
	m.nextID++
	r.ID = m.nextID
	r.UserEmail = m.email
	r.CreatedAt = testTime
	if m.reviews == nil {
		m.reviews = make(map[int64]*review.Review)
	}
	m.reviews[r.ID] = r
	return nil
}

func (m *mockReviewRepo) Update(_ context.Context, r *review.Review) error {
	m.reviews[r.ID] = r
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, reviewID int64) error {
	delete(m.reviews, reviewID)
	return nil
}

// mockAuthRepo accepts any token by echoing the queried hash back, so the
// verifier's constant-time comparison always matches.
type mockAuthRepo struct {
	userID int64
	user   *auth.User
	err    error
}

func (m *mockAuthRepo) FindByHash(_ context.Context, hash string) (*auth.TokenInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &auth.TokenInfo{ID: 1, UserID: m.userID, TokenHash: hash}, nil
}

func (m *mockAuthRepo) GetUser(_ context.Context, id int64) (*auth.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, auth.ErrUnauthorized
	}
	return m.user, nil
}

// --- Helpers ---

type testEnv struct {
	router    http.Handler
	products  *mockProductRepo
	taxonomy  *mockTaxonomyRepo
	geo       *mockGeoRepo
	carts     *mockCartRepo
	validator *mockCouponValidator
	orders    *mockOrderRepo
	addresses *mockAddressRepo
	favorites *mockFavoriteRepo
	reviews   *mockReviewRepo
	auth      *mockAuthRepo
}

func newTestEnv() *testEnv {
	env := &testEnv{
		products:  &mockProductRepo{byID: make(map[int64]*catalog.Product)},
		taxonomy:  &mockTaxonomyRepo{},
		geo:       &mockGeoRepo{areas: make(map[int64]*geo.Area)},
		validator: &mockCouponValidator{},
		orders:    &mockOrderRepo{},
		addresses: &mockAddressRepo{addrs: make(map[int64]*address.Address)},
		favorites: &mockFavoriteRepo{},
		reviews:   &mockReviewRepo{email: "jane@example.com"},
		auth:      &mockAuthRepo{userID: 42, user: &auth.User{ID: 42, Email: "jane@example.com", Name: "Jane", PhoneNumber: "+20100000000"}},
	}
	env.carts = &mockCartRepo{products: env.products.byID, coupons: make(map[int64]*coupon.Coupon)}
	env.addresses.areas = env.geo.areas

	h := NewHandler(Deps{
		Products:  env.products,
		Taxonomy:  env.taxonomy,
		Geo:       env.geo,
		Carts:     cart.NewService(env.carts, env.products, env.validator),
		Orders:    order.NewService(env.orders),
		Addresses: address.NewService(env.addresses, env.geo),
		Favorites: favorite.NewService(env.favorites, env.products),
		Reviews:   review.NewService(env.reviews, env.products),
		Verifier:  auth.NewVerifier(env.auth, []byte("test-pepper")),
	})
	env.router = h.Routes()
	return env
}

func (e *testEnv) addProduct(p catalog.Product) {
	e.products.products = append(e.products.products, p)
	stored := p
	e.products.byID[p.ID] = &stored
}

func (e *testEnv) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer test-token")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testProduct(id int64, name string, price string) catalog.Product {
	return catalog.Product{
		ID:            id,
		Name:          name,
		OriginalPrice: dec(price),
		Rating:        dec("4.5"),
		IsActive:      true,
		Colors:        []catalog.Color{{ID: 1, Name: "Walnut", HexCode: "#5C4033"}},
		CreatedAt:     testTime,
	}
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	env := newTestEnv()
	env.addProduct(testProduct(1, "Oak Table", "1200.00"))
	sale := dec("80.00")
	p2 := testProduct(2, "Walnut Chair", "100.00")
	p2.SalePrice = &sale
	p2.IsOnSale = true
	env.addProduct(p2)

	rec := env.do(t, http.MethodGet, "/api/products", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[[]map[string]any](t, rec)
	require.Len(t, body, 2)
	assert.EqualValues(t, 1, body[0]["id"])
	assert.Equal(t, "Oak Table", body[0]["name"])
	assert.Equal(t, "1200.00", body[0]["original_price"])
	assert.Nil(t, body[0]["sale_price"])
	assert.Equal(t, "80.00", body[1]["sale_price"])
	assert.Equal(t, true, body[1]["is_on_sale"])

	colors, ok := body[0]["colors"].([]any)
	require.True(t, ok)
	require.Len(t, colors, 1)
	assert.Equal(t, "#5C4033", colors[0].(map[string]any)["hex_code"])
}

func TestListProducts_BadCategory(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/products?category=zero", nil, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.EqualValues(t, 400, body["code"])
}

func TestGetProduct(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		env := newTestEnv()
		p := testProduct(7, "Oak Table", "1200.00")
		p.Rooms = []catalog.Room{{ID: 1, Name: "Living Room"}}
		env.addProduct(p)

		rec := env.do(t, http.MethodGet, "/api/products/7", nil, false)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "Oak Table", body["name"])
		assert.Equal(t, false, body["is_favorited"])
		rooms := body["rooms"].([]any)
		require.Len(t, rooms, 1)
		assert.Equal(t, "Living Room", rooms[0].(map[string]any)["name"])
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodGet, "/api/products/99", nil, false)
		require.Equal(t, http.StatusNotFound, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.EqualValues(t, 404, body["code"])
		assert.Equal(t, "product not found", body["message"])
	})

	t.Run("favorited when authenticated", func(t *testing.T) {
		env := newTestEnv()
		env.addProduct(testProduct(7, "Oak Table", "1200.00"))
		env.favorites.favorited = map[int64]bool{7: true}

		rec := env.do(t, http.MethodGet, "/api/products/7", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, true, body["is_favorited"])
	})
}

func TestSuggestProducts(t *testing.T) {
	env := newTestEnv()
	env.addProduct(testProduct(1, "Oak Table", "1200.00"))
	env.addProduct(testProduct(2, "Oak Shelf", "300.00"))
	env.addProduct(testProduct(3, "Velvet Sofa", "5000.00"))

	rec := env.do(t, http.MethodGet, "/api/products/suggest?q=oak", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	names := decodeBody[[]string](t, rec)
	assert.Equal(t, []string{"Oak Table", "Oak Shelf"}, names)
}

func TestListCategories_GroupsSubcategories(t *testing.T) {
	env := newTestEnv()
	env.taxonomy.categories = []catalog.Category{{ID: 1, Name: "Furniture"}, {ID: 2, Name: "Lighting"}}
	env.taxonomy.subcategories = []catalog.Subcategory{
		{ID: 10, Name: "Tables", CategoryID: 1},
		{ID: 11, Name: "Chairs", CategoryID: 1},
	}

	rec := env.do(t, http.MethodGet, "/api/categories", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[[]map[string]any](t, rec)
	require.Len(t, body, 2)
	subs := body[0]["subcategories"].([]any)
	assert.Len(t, subs, 2)
	assert.Empty(t, body[1]["subcategories"])
}

func TestListGovernorates_NestsAreas(t *testing.T) {
	env := newTestEnv()
	env.geo.governorates = []geo.Governorate{{
		ID:   1,
		Name: "Cairo",
		Areas: []geo.Area{
			{ID: 5, Name: "Maadi", GovernorateID: 1, ShippingCost: dec("45")},
		},
	}}

	rec := env.do(t, http.MethodGet, "/api/governorates", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[[]map[string]any](t, rec)
	require.Len(t, body, 1)
	areas := body[0]["areas"].([]any)
	require.Len(t, areas, 1)
	assert.Equal(t, "45.00", areas[0].(map[string]any)["shipping_cost"])
}

func TestAuthentication(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodGet, "/api/cart", nil, false)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "unauthorized", body["message"])
	})

	t.Run("unknown token", func(t *testing.T) {
		env := newTestEnv()
		env.auth.err = auth.ErrUnauthorized

		rec := env.do(t, http.MethodGet, "/api/cart", nil, true)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetCart(t *testing.T) {
	t.Run("no cart yet", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodGet, "/api/cart", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "0.00", body["cart_subtotal"])
		assert.Equal(t, "0.00", body["coupon_discount_amount"])
		assert.Empty(t, body["items"])
	})

	t.Run("priced with coupon", func(t *testing.T) {
		env := newTestEnv()
		sale := dec("80.00")
		p := testProduct(7, "Walnut Chair", "100.00")
		p.SalePrice = &sale
		p.IsOnSale = true
		env.addProduct(p)

		env.carts.cart = &cart.Cart{
			ID:     3,
			UserID: 42,
			Items:  []cart.Item{{ID: 1, ProductID: 7, Quantity: 2}},
			Coupon: &coupon.Coupon{ID: 5, Code: "SAVE10", DiscountPercent: dec("10")},
		}

		rec := env.do(t, http.MethodGet, "/api/cart", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "160.00", body["cart_subtotal"])
		assert.Equal(t, "SAVE10", body["coupon_code"])
		assert.Equal(t, "16.00", body["coupon_discount_amount"])

		items := body["items"].([]any)
		require.Len(t, items, 1)
		item := items[0].(map[string]any)
		assert.Equal(t, "80.00", item["unit_price"])
		assert.Equal(t, "160.00", item["line_total"])
		assert.Equal(t, "Walnut Chair", item["product"].(map[string]any)["name"])
	})
}

func TestAddCartItem(t *testing.T) {
	t.Run("creates cart and line", func(t *testing.T) {
		env := newTestEnv()
		env.addProduct(testProduct(7, "Oak Table", "1200.00"))

		rec := env.do(t, http.MethodPost, "/api/cart/items", addCartItemRequest{ProductID: 7, Quantity: 2}, true)
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "2400.00", body["cart_subtotal"])
	})

	t.Run("zero quantity", func(t *testing.T) {
		env := newTestEnv()
		env.addProduct(testProduct(7, "Oak Table", "1200.00"))

		rec := env.do(t, http.MethodPost, "/api/cart/items", addCartItemRequest{ProductID: 7, Quantity: 0}, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "quantity must be at least 1", body["message"])
	})

	t.Run("inactive product", func(t *testing.T) {
		env := newTestEnv()
		p := testProduct(7, "Retired Lamp", "50.00")
		p.IsActive = false
		env.addProduct(p)

		rec := env.do(t, http.MethodPost, "/api/cart/items", addCartItemRequest{ProductID: 7, Quantity: 1}, true)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateCartItem_MissingLine(t *testing.T) {
	env := newTestEnv()
	env.addProduct(testProduct(7, "Oak Table", "1200.00"))
	env.carts.cart = &cart.Cart{ID: 3, UserID: 42}

	rec := env.do(t, http.MethodPut, "/api/cart/items/7", updateCartItemRequest{Quantity: 3}, true)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "cart item not found", body["message"])
}

func TestApplyCoupon(t *testing.T) {
	t.Run("attaches and reprices", func(t *testing.T) {
		env := newTestEnv()
		env.addProduct(testProduct(7, "Oak Table", "1000.00"))
		env.carts.cart = &cart.Cart{ID: 3, UserID: 42, Items: []cart.Item{{ID: 1, ProductID: 7, Quantity: 1}}}
		cp := &coupon.Coupon{ID: 5, Code: "SAVE10", DiscountPercent: dec("10"), IsActive: true}
		env.validator.coupon = cp
		env.carts.coupons[5] = cp

		rec := env.do(t, http.MethodPut, "/api/cart/coupon", applyCouponRequest{Code: "SAVE10"}, true)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "SAVE10", body["coupon_code"])
		assert.Equal(t, "100.00", body["coupon_discount_amount"])
	})

	t.Run("invalid code", func(t *testing.T) {
		env := newTestEnv()
		env.carts.cart = &cart.Cart{ID: 3, UserID: 42}
		env.validator.err = coupon.ErrInvalidCoupon

		rec := env.do(t, http.MethodPut, "/api/cart/coupon", applyCouponRequest{Code: "NOPE"}, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "invalid or expired coupon code", body["message"])
	})

	t.Run("expired code", func(t *testing.T) {
		env := newTestEnv()
		env.carts.cart = &cart.Cart{ID: 3, UserID: 42}
		env.validator.err = coupon.ErrCouponExpired

		rec := env.do(t, http.MethodPut, "/api/cart/coupon", applyCouponRequest{Code: "OLD"}, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "invalid or expired coupon code", body["message"])
	})
}

func TestClearCart(t *testing.T) {
	env := newTestEnv()
	env.carts.cart = &cart.Cart{ID: 3, UserID: 42, Items: []cart.Item{{ID: 1, ProductID: 7, Quantity: 2}}}

	rec := env.do(t, http.MethodDelete, "/api/cart", nil, true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, env.carts.cart.Items)
}

func newPlacedOrder() *order.Order {
	code := "SAVE10"
	productID := int64(7)
	return &order.Order{
		ID:             9,
		UserID:         42,
		CartSubtotal:   dec("1000.00"),
		ShippingCost:   dec("45.00"),
		CouponDiscount: dec("100.00"),
		FinalTotal:     dec("945.00"),
		CouponCodeUsed: &code,
		PaymentMethod:  "Cash on Delivery",
		PaymentStatus:  "PENDING",
		Status:         order.StatusPending,
		CreatedAt:      testTime,
		ShippingAddress: &address.Address{
			ID:            4,
			UserID:        42,
			FirstName:     "Jane",
			LastName:      "Doe",
			PhoneNumber:   "+20100000000",
			StreetAddress: "12 Nile St",
			Area:          &geo.Area{ID: 5, Name: "Maadi", GovernorateID: 1, GovernorateName: "Cairo", ShippingCost: dec("45")},
		},
		Items: []order.Item{
			{ID: 1, OrderID: 9, ProductID: &productID, ProductName: "Oak Table", Quantity: 1, PriceAtPurchase: dec("1000.00")},
		},
	}
}

func validCheckoutRequest() checkoutRequest {
	return checkoutRequest{
		ShippingAddress: checkoutAddressRequest{
			FirstName:     "Jane",
			LastName:      "Doe",
			PhoneNumber:   "+20100000000",
			StreetAddress: "12 Nile St",
			AreaID:        5,
		},
		PaymentMethod: "Cash on Delivery",
	}
}

func TestCheckout(t *testing.T) {
	t.Run("places order", func(t *testing.T) {
		env := newTestEnv()
		env.orders.order = newPlacedOrder()

		rec := env.do(t, http.MethodPost, "/api/checkout", validCheckoutRequest(), true)
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.EqualValues(t, 9, body["id"])
		assert.Equal(t, "1000.00", body["cart_subtotal"])
		assert.Equal(t, "45.00", body["shipping_cost"])
		assert.Equal(t, "100.00", body["coupon_discount"])
		assert.Equal(t, "945.00", body["final_total"])
		assert.Equal(t, "PENDING", body["status"])
		assert.Equal(t, "Pending Payment", body["status_display"])

		addr := body["shipping_address"].(map[string]any)
		assert.Equal(t, "Maadi", addr["area_name"])
		assert.Equal(t, "Cairo", addr["governorate_name"])

		items := body["items"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, "Oak Table", items[0].(map[string]any)["product_name"])

		require.NotNil(t, env.orders.checkoutReq)
		assert.EqualValues(t, 42, env.orders.checkoutReq.UserID)
	})

	t.Run("missing required field", func(t *testing.T) {
		env := newTestEnv()
		req := validCheckoutRequest()
		req.ShippingAddress.FirstName = ""

		rec := env.do(t, http.MethodPost, "/api/checkout", req, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "invalid shipping_address.first_name: this field is required", body["message"])
	})

	t.Run("empty cart", func(t *testing.T) {
		env := newTestEnv()
		env.orders.err = order.ErrEmptyCart

		rec := env.do(t, http.MethodPost, "/api/checkout", validCheckoutRequest(), true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "cannot checkout on an empty cart", body["message"])
	})

	t.Run("unknown area", func(t *testing.T) {
		env := newTestEnv()
		env.orders.err = geo.ErrAreaNotFound

		rec := env.do(t, http.MethodPost, "/api/checkout", validCheckoutRequest(), true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "area not found", body["message"])
	})
}

func TestListOrders(t *testing.T) {
	env := newTestEnv()
	env.orders.summaries = []order.Summary{
		{ID: 9, FinalTotal: dec("945.00"), Status: order.StatusShipped, CreatedAt: testTime},
	}

	rec := env.do(t, http.MethodGet, "/api/orders", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[[]map[string]any](t, rec)
	require.Len(t, body, 1)
	assert.Equal(t, "945.00", body[0]["final_total"])
	assert.Equal(t, "Shipped", body[0]["status_display"])
	assert.Equal(t, 0, env.orders.listLimit, "full history has no limit")
}

func TestGetOrder_NotFound(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/orders/9", nil, true)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "order not found", body["message"])
}

func TestAddresses(t *testing.T) {
	area := &geo.Area{ID: 5, Name: "Maadi", GovernorateID: 1, GovernorateName: "Cairo", ShippingCost: dec("45")}

	validReq := addressRequest{
		FirstName:     "Jane",
		LastName:      "Doe",
		PhoneNumber:   "+20100000000",
		StreetAddress: "12 Nile St",
		AreaID:        5,
	}

	t.Run("create", func(t *testing.T) {
		env := newTestEnv()
		env.geo.areas[5] = area

		rec := env.do(t, http.MethodPost, "/api/addresses", validReq, true)
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "Jane", body["first_name"])
		assert.Equal(t, "Maadi", body["area"].(map[string]any)["name"])
		assert.Equal(t, "Cairo", body["governorate"].(map[string]any)["name"])
		assert.Equal(t, false, body["is_default"])
	})

	t.Run("missing field", func(t *testing.T) {
		env := newTestEnv()
		env.geo.areas[5] = area
		req := validReq
		req.PhoneNumber = ""

		rec := env.do(t, http.MethodPost, "/api/addresses", req, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "invalid phone_number: this field is required", body["message"])
	})

	t.Run("unknown area", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodPost, "/api/addresses", validReq, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "area not found", body["message"])
	})

	t.Run("set default", func(t *testing.T) {
		env := newTestEnv()
		env.geo.areas[5] = area

		first := env.do(t, http.MethodPost, "/api/addresses", validReq, true)
		require.Equal(t, http.StatusCreated, first.Code)
		id := decodeBody[map[string]any](t, first)["id"].(float64)

		rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/addresses/%d/default", int64(id)), nil, true)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, true, body["is_default"])
	})

	t.Run("delete missing", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(t, http.MethodDelete, "/api/addresses/99", nil, true)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestToggleFavorite(t *testing.T) {
	env := newTestEnv()
	env.addProduct(testProduct(7, "Oak Table", "1200.00"))

	added := env.do(t, http.MethodPost, "/api/favorites/toggle", toggleFavoriteRequest{ProductID: 7}, true)
	require.Equal(t, http.StatusCreated, added.Code)

	body := decodeBody[map[string]any](t, added)
	assert.Equal(t, "Product added to favorites", body["message"])
	assert.Equal(t, true, body["is_favorited"])
	fav := body["favorite"].(map[string]any)
	assert.Equal(t, "Oak Table", fav["product"].(map[string]any)["name"])

	removed := env.do(t, http.MethodPost, "/api/favorites/toggle", toggleFavoriteRequest{ProductID: 7}, true)
	require.Equal(t, http.StatusOK, removed.Code)

	body = decodeBody[map[string]any](t, removed)
	assert.Equal(t, "Product removed from favorites", body["message"])
	assert.Equal(t, false, body["is_favorited"])
	assert.NotContains(t, body, "favorite")
}

func TestToggleFavorite_UnknownProduct(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/favorites/toggle", toggleFavoriteRequest{ProductID: 99}, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveFavorite_NotFound(t *testing.T) {
	env := newTestEnv()
	env.favorites.deleteErr = favorite.ErrNotFound

	rec := env.do(t, http.MethodDelete, "/api/favorites/5", nil, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviews(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		env := newTestEnv()
		env.addProduct(testProduct(7, "Oak Table", "1200.00"))

		rec := env.do(t, http.MethodPost, "/api/products/7/reviews", reviewRequest{Rating: 5, Comment: "Sturdy"}, true)
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "jane@example.com", body["user"])
		assert.EqualValues(t, 5, body["rating"])
		assert.Equal(t, "Sturdy", body["comment"])
	})

	t.Run("second review conflicts", func(t *testing.T) {
		env := newTestEnv()
		env.addProduct(testProduct(7, "Oak Table", "1200.00"))

		first := env.do(t, http.MethodPost, "/api/products/7/reviews", reviewRequest{Rating: 5, Comment: "Sturdy"}, true)
		require.Equal(t, http.StatusCreated, first.Code)

		second := env.do(t, http.MethodPost, "/api/products/7/reviews", reviewRequest{Rating: 4, Comment: "Again"}, true)
		require.Equal(t, http.StatusConflict, second.Code)

		body := decodeBody[map[string]any](t, second)
		assert.Equal(t, "you have already reviewed this product", body["message"])
	})

	t.Run("rating out of range", func(t *testing.T) {
		env := newTestEnv()
		env.addProduct(testProduct(7, "Oak Table", "1200.00"))

		rec := env.do(t, http.MethodPost, "/api/products/7/reviews", reviewRequest{Rating: 6, Comment: "Too good"}, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "rating must be between 1 and 5", body["message"])
	})

	t.Run("public listing", func(t *testing.T) {
		env := newTestEnv()
		env.addProduct(testProduct(7, "Oak Table", "1200.00"))
		env.reviews.reviews = map[int64]*review.Review{
			1: {ID: 1, UserID: 42, UserEmail: "jane@example.com", ProductID: 7, Rating: 5, Comment: "Sturdy", CreatedAt: testTime},
		}

		rec := env.do(t, http.MethodGet, "/api/products/7/reviews", nil, false)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[[]map[string]any](t, rec)
		require.Len(t, body, 1)
		assert.Equal(t, "jane@example.com", body[0]["user"])
	})
}

func TestProfile(t *testing.T) {
	env := newTestEnv()
	env.orders.summaries = []order.Summary{
		{ID: 9, FinalTotal: dec("945.00"), Status: order.StatusDelivered, CreatedAt: testTime},
	}

	rec := env.do(t, http.MethodGet, "/api/profile", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "jane@example.com", body["email"])
	assert.Equal(t, "Jane", body["name"])
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	assert.Equal(t, profileRecentOrders, env.orders.listLimit)
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
	"github.com/Mohamed-Elfar/piano/internal/domain/review"
)

// namedRef is the {id, name} shape shared by category, subcategory, room,
// and style references.
type namedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type colorResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	HexCode string `json:"hex_code"`
}

type subcategoryResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
}

type categoryResponse struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Subcategories []namedRef `json:"subcategories"`
}

type productListResponse struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	ShortDescription string          `json:"short_description"`
	OriginalPrice    money           `json:"original_price"`
	SalePrice        *money          `json:"sale_price"`
	IsOnSale         bool            `json:"is_on_sale"`
	Rating           money           `json:"rating"`
	Colors           []colorResponse `json:"colors"`
	Category         *string         `json:"category"`
	Subcategory      *string         `json:"subcategory"`
}

type productDetailResponse struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	ShortDescription string           `json:"short_description"`
	Description      string           `json:"description"`
	Dimensions       string           `json:"dimensions"`
	OriginalPrice    money            `json:"original_price"`
	SalePrice        *money           `json:"sale_price"`
	IsOnSale         bool             `json:"is_on_sale"`
	Rating           money            `json:"rating"`
	IsActive         bool             `json:"is_active"`
	CategoryID       *int64           `json:"category_id"`
	SubcategoryID    *int64           `json:"subcategory_id"`
	Category         *namedRef        `json:"category"`
	Subcategory      *namedRef        `json:"subcategory"`
	Colors           []colorResponse  `json:"colors"`
	Rooms            []namedRef       `json:"rooms"`
	Styles           []namedRef       `json:"styles"`
	IsFavorited      bool             `json:"is_favorited"`
	Reviews          []reviewResponse `json:"reviews"`
	CreatedAt        time.Time        `json:"created_at"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := catalog.ListParams{
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(ctx, w, http.StatusBadRequest, "invalid category id")
			return
		}
		params.CategoryID = &id
	}

	products, err := h.products.List(ctx, params)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	out := make([]productListResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductList(&products[i]))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r, "productID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.products.GetByID(ctx, id)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	reviews, err := h.reviews.ListForProduct(ctx, id)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	// Detail is public, but a valid bearer token personalizes is_favorited.
	var favorited bool
	if userID, ok := h.maybeUser(r); ok {
		if favorited, err = h.favorites.IsFavorited(ctx, userID, id); err != nil {
			respondDomainError(ctx, w, err)
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, toProductDetail(p, reviews, favorited))
}

func (h *Handler) suggestProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query().Get("q")
	if q == "" {
		respondJSON(ctx, w, http.StatusOK, []string{})
		return
	}
	limit := queryInt(r, "limit", 10)
	if limit < 1 || limit > 25 {
		limit = 10
	}

	names, err := h.products.Suggest(ctx, q, limit)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(ctx, w, http.StatusOK, names)
}

// listCategories returns every category with its subcategories nested.
func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.taxonomy.Categories(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	subcategories, err := h.taxonomy.Subcategories(ctx, nil)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	byCategory := make(map[int64][]namedRef, len(categories))
	for _, s := range subcategories {
		byCategory[s.CategoryID] = append(byCategory[s.CategoryID], namedRef{ID: s.ID, Name: s.Name})
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		subs := byCategory[c.ID]
		if subs == nil {
			subs = []namedRef{}
		}
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, Subcategories: subs})
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func (h *Handler) listSubcategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var categoryID *int64
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(ctx, w, http.StatusBadRequest, "invalid category id")
			return
		}
		categoryID = &id
	}

	subcategories, err := h.taxonomy.Subcategories(ctx, categoryID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	out := make([]subcategoryResponse, 0, len(subcategories))
	for _, s := range subcategories {
		out = append(out, subcategoryResponse{ID: s.ID, Name: s.Name, CategoryID: s.CategoryID})
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rooms, err := h.taxonomy.Rooms(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	out := make([]namedRef, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, namedRef{ID: room.ID, Name: room.Name})
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func (h *Handler) listStyles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	styles, err := h.taxonomy.Styles(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	out := make([]namedRef, 0, len(styles))
	for _, style := range styles {
		out = append(out, namedRef{ID: style.ID, Name: style.Name})
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func (h *Handler) listColors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	colors, err := h.taxonomy.Colors(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toColors(colors))
}

func toProductList(p *catalog.Product) productListResponse {
	return productListResponse{
		ID:               p.ID,
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		OriginalPrice:    money(p.OriginalPrice),
		SalePrice:        moneyPtr(p.SalePrice),
		IsOnSale:         p.IsOnSale,
		Rating:           money(p.Rating),
		Colors:           toColors(p.Colors),
		Category:         optName(p.CategoryID, p.CategoryName),
		Subcategory:      optName(p.SubcategoryID, p.SubcategoryName),
	}
}

func toProductDetail(p *catalog.Product, reviews []review.Review, favorited bool) productDetailResponse {
	resp := productDetailResponse{
		ID:               p.ID,
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Dimensions:       p.Dimensions,
		OriginalPrice:    money(p.OriginalPrice),
		SalePrice:        moneyPtr(p.SalePrice),
		IsOnSale:         p.IsOnSale,
		Rating:           money(p.Rating),
		IsActive:         p.IsActive,
		CategoryID:       p.CategoryID,
		SubcategoryID:    p.SubcategoryID,
		Colors:           toColors(p.Colors),
		Rooms:            make([]namedRef, 0, len(p.Rooms)),
		Styles:           make([]namedRef, 0, len(p.Styles)),
		IsFavorited:      favorited,
		Reviews:          toReviews(reviews),
		CreatedAt:        p.CreatedAt,
	}
	if p.CategoryID != nil {
		resp.Category = &namedRef{ID: *p.CategoryID, Name: p.CategoryName}
	}
	if p.SubcategoryID != nil {
		resp.Subcategory = &namedRef{ID: *p.SubcategoryID, Name: p.SubcategoryName}
	}
	for _, room := range p.Rooms {
		resp.Rooms = append(resp.Rooms, namedRef{ID: room.ID, Name: room.Name})
	}
	for _, style := range p.Styles {
		resp.Styles = append(resp.Styles, namedRef{ID: style.ID, Name: style.Name})
	}
	return resp
}

func toColors(colors []catalog.Color) []colorResponse {
	out := make([]colorResponse, 0, len(colors))
	for _, c := range colors {
		out = append(out, colorResponse{ID: c.ID, Name: c.Name, HexCode: c.HexCode})
	}
	return out
}

// optName points at the joined name only when the reference is set.
func optName(id *int64, name string) *string {
	if id == nil {
		return nil
	}
	return &name
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}

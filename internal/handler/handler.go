// Package handler exposes the store's REST API. Handlers own transport
// concerns only: decoding, path and query parsing, and mapping domain
// errors to the HTTP envelope. Business rules live in the domain services.
package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/Mohamed-Elfar/piano/internal/domain/address"
	"github.com/Mohamed-Elfar/piano/internal/domain/auth"
	"github.com/Mohamed-Elfar/piano/internal/domain/cart"
	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
	"github.com/Mohamed-Elfar/piano/internal/domain/favorite"
	"github.com/Mohamed-Elfar/piano/internal/domain/geo"
	"github.com/Mohamed-Elfar/piano/internal/domain/order"
	"github.com/Mohamed-Elfar/piano/internal/domain/review"
)

// Deps bundles the domain dependencies behind the REST API.
type Deps struct {
	Products  catalog.Repository
	Taxonomy  catalog.TaxonomyRepository
	Geo       geo.Repository
	Carts     *cart.Service
	Orders    *order.Service
	Addresses *address.Service
	Favorites *favorite.Service
	Reviews   *review.Service
	Verifier  *auth.Verifier
}

// Handler serves the REST API.
type Handler struct {
	products  catalog.Repository
	taxonomy  catalog.TaxonomyRepository
	geo       geo.Repository
	carts     *cart.Service
	orders    *order.Service
	addresses *address.Service
	favorites *favorite.Service
	reviews   *review.Service
	verifier  *auth.Verifier
}

// NewHandler constructs a Handler with the given dependencies.
func NewHandler(d Deps) *Handler {
	return &Handler{
		products:  d.Products,
		taxonomy:  d.Taxonomy,
		geo:       d.Geo,
		carts:     d.Carts,
		orders:    d.Orders,
		addresses: d.Addresses,
		favorites: d.Favorites,
		reviews:   d.Reviews,
		verifier:  d.Verifier,
	}
}

// Routes returns the router serving the API. Catalog, geography, and
// review listings are public; everything else requires a bearer token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/suggest", h.suggestProducts)
		r.Get("/products/{productID}", h.getProduct)
		r.Get("/products/{productID}/reviews", h.listReviews)
		r.Get("/categories", h.listCategories)
		r.Get("/subcategories", h.listSubcategories)
		r.Get("/rooms", h.listRooms)
		r.Get("/styles", h.listStyles)
		r.Get("/colors", h.listColors)
		r.Get("/governorates", h.listGovernorates)
		r.Get("/areas", h.listAreas)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.getCart)
				r.Delete("/", h.clearCart)
				r.Post("/items", h.addCartItem)
				r.Put("/items/{productID}", h.updateCartItem)
				r.Delete("/items/{productID}", h.removeCartItem)
				r.Put("/coupon", h.applyCoupon)
				r.Delete("/coupon", h.removeCoupon)
			})

			r.Post("/checkout", h.checkout)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{orderID}", h.getOrder)

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", h.listAddresses)
				r.Post("/", h.createAddress)
				r.Get("/{addressID}", h.getAddress)
				r.Put("/{addressID}", h.updateAddress)
				r.Delete("/{addressID}", h.deleteAddress)
				r.Post("/{addressID}/default", h.setDefaultAddress)
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", h.listFavorites)
				r.Post("/toggle", h.toggleFavorite)
				r.Delete("/{favoriteID}", h.removeFavorite)
			})

			r.Post("/products/{productID}/reviews", h.createReview)
			r.Put("/products/{productID}/reviews/{reviewID}", h.updateReview)
			r.Delete("/products/{productID}/reviews/{reviewID}", h.deleteReview)

			r.Get("/profile", h.getProfile)
		})
	})

	return r
}

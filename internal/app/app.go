package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/Mohamed-Elfar/piano/internal/domain/address"
	"github.com/Mohamed-Elfar/piano/internal/domain/auth"
	"github.com/Mohamed-Elfar/piano/internal/domain/cart"
	"github.com/Mohamed-Elfar/piano/internal/domain/coupon"
	"github.com/Mohamed-Elfar/piano/internal/domain/favorite"
	"github.com/Mohamed-Elfar/piano/internal/domain/order"
	"github.com/Mohamed-Elfar/piano/internal/domain/review"
	"github.com/Mohamed-Elfar/piano/internal/handler"
	"github.com/Mohamed-Elfar/piano/internal/storage/postgres"
	"github.com/Mohamed-Elfar/piano/pkg/health"
	"github.com/Mohamed-Elfar/piano/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	taxonomyRepo := postgres.NewTaxonomyRepository(pool)
	geoRepo := postgres.NewGeoRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)
	favoriteRepo := postgres.NewFavoriteRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	tokenRepo := postgres.NewTokenRepository(pool)

	// Domain services behind the REST handlers.
	couponValidator := coupon.NewRepoValidator(couponRepo)
	h := handler.NewHandler(handler.Deps{
		Products:  productRepo,
		Taxonomy:  taxonomyRepo,
		Geo:       geoRepo,
		Carts:     cart.NewService(cartRepo, productRepo, couponValidator),
		Orders:    order.NewService(orderRepo),
		Addresses: address.NewService(addressRepo, geoRepo),
		Favorites: favorite.NewService(favoriteRepo, productRepo),
		Reviews:   review.NewService(reviewRepo, productRepo),
		Verifier:  auth.NewVerifier(tokenRepo, []byte(cfg.TokenPepper)),
	})

	// Mux: health endpoints + API routes on one server.
	api := h.Routes()
	routeFinder := httpmiddleware.MakeRouteFinder(api)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("piano-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

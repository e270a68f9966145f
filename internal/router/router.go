package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	mem "alterations-manager/internal/adapters/storage/memory"
	pg "alterations-manager/internal/adapters/storage/postgres"
	"alterations-manager/internal/domain/appointments"
	"alterations-manager/internal/domain/catalog"
	"alterations-manager/internal/domain/clients"
	"alterations-manager/internal/domain/garments"
	"alterations-manager/internal/domain/orders"
	"alterations-manager/internal/domain/payments"
	"alterations-manager/internal/domain/shops"
	"alterations-manager/internal/domain/stages"
	"alterations-manager/internal/domain/timeentries"
	"alterations-manager/internal/middleware"
	"alterations-manager/internal/platform/logger"
	"alterations-manager/internal/platform/metrics"
	"alterations-manager/internal/ports/auth"
	"alterations-manager/internal/ports/notify"
	payport "alterations-manager/internal/ports/payments"

	_ "alterations-manager/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger    logger.Logger
	Publisher notify.Publisher // nil = eventos descartados

	// Payments nil = endpoints de onboarding devuelven 503.
	Payments        payport.Provider
	PaymentsOptions payments.Options

	// RateLimiter nil = sin límite.
	RateLimiter *middleware.RateLimiter
}

// Services expone lo que main necesita fuera de HTTP (job de recordatorios).
type Services struct {
	Shops        *shops.Service
	Clients      *clients.Service
	Stages       *stages.Service
	Catalog      *catalog.Service
	Garments     *garments.Service
	Orders       *orders.Service
	Appointments *appointments.Service
	TimeEntries  *timeentries.Service
	Payments     *payments.Service
}

type repos struct {
	shops        shops.Repository
	clients      clients.Repository
	stages       stages.Repository
	catalog      catalog.Repository
	garments     garments.Repository
	orders       orders.Repository
	appointments appointments.Repository
	timeEntries  timeentries.Repository
	webhooks     payments.WebhookRepository
}

func newRepos(db *sql.DB) repos {
	if db != nil {
		return repos{
			shops:        pg.NewShopsRepo(db),
			clients:      pg.NewClientsRepo(db),
			stages:       pg.NewStagesRepo(db),
			catalog:      pg.NewCatalogRepo(db),
			garments:     pg.NewGarmentsRepo(db),
			orders:       pg.NewOrdersRepo(db),
			appointments: pg.NewAppointmentsRepo(db),
			timeEntries:  pg.NewTimeEntriesRepo(db),
			webhooks:     pg.NewWebhookEventsRepo(db),
		}
	}

	garmentRepo := mem.NewGarmentRepo()
	return repos{
		shops:        mem.NewShopRepo(),
		clients:      mem.NewClientRepo(),
		stages:       mem.NewStageRepo(garmentRepo),
		catalog:      mem.NewCatalogRepo(),
		garments:     garmentRepo,
		orders:       mem.NewOrderRepo(),
		appointments: mem.NewAppointmentRepo(),
		timeEntries:  mem.NewTimeEntryRepo(),
		webhooks:     mem.NewWebhookEventRepo(),
	}
}

// NewServices arma los servicios por módulo sobre los repos elegidos.
func NewServices(opts Options) *Services {
	rp := newRepos(opts.DB)

	stagesSvc := stages.NewService(rp.stages)
	shopsSvc := shops.NewService(rp.shops, stagesSvc)
	// clients recibe el repo (no el servicio) de órdenes: orders ya depende de clients.
	clientsSvc := clients.NewService(rp.clients, rp.orders)
	catalogSvc := catalog.NewService(rp.catalog)
	garmentsSvc := garments.NewService(rp.garments, stagesSvc, catalogSvc, opts.Publisher)
	ordersSvc := orders.NewService(rp.orders, clientsSvc, garmentsSvc, opts.Publisher)
	apptSvc := appointments.NewService(rp.appointments, shopsSvc, clientsSvc, opts.Publisher)
	timeSvc := timeentries.NewService(rp.timeEntries, garmentsSvc)
	paymentsSvc := payments.NewService(opts.Payments, shopsSvc, ordersSvc, rp.webhooks, opts.PaymentsOptions)

	return &Services{
		Shops:        shopsSvc,
		Clients:      clientsSvc,
		Stages:       stagesSvc,
		Catalog:      catalogSvc,
		Garments:     garmentsSvc,
		Orders:       ordersSvc,
		Appointments: apptSvc,
		TimeEntries:  timeSvc,
		Payments:     paymentsSvc,
	}
}

func NewRouter(opts Options) http.Handler {
	h, _ := Build(opts)
	return h
}

func Build(opts Options) (http.Handler, *Services) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	svc := NewServices(opts)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))
	r.Use(metrics.InstrumentHandler)

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Handler)
	}
	r.Use(middleware.ShopContext(svc.Shops))

	r.Get("/health", healthHandler(opts.DB))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	shops.RegisterRoutes(r, svc.Shops)
	clients.RegisterRoutes(r, svc.Clients)
	stages.RegisterRoutes(r, svc.Stages)
	catalog.RegisterRoutes(r, svc.Catalog)
	garments.RegisterRoutes(r, svc.Garments)
	orders.RegisterRoutes(r, svc.Orders)
	appointments.RegisterRoutes(r, svc.Appointments)
	timeentries.RegisterRoutes(r, svc.TimeEntries)
	payments.RegisterRoutes(r, svc.Payments)

	return r, svc
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

package restapi

import (
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"

	"github.com/komponen/marketplace/assets"
	"github.com/komponen/marketplace/internal/svc/appsvc"
	"github.com/komponen/marketplace/internal/svc/authsvc"
	"github.com/komponen/marketplace/internal/svc/iconsvc"
	"github.com/komponen/marketplace/internal/svc/vendorsvc"
	"github.com/komponen/marketplace/pkg/tracer"
	"github.com/komponen/marketplace/pkg/userpool"
	"github.com/komponen/marketplace/pkg/validator"
	"github.com/komponen/marketplace/transport/restapi/handlerapp"
	"github.com/komponen/marketplace/transport/restapi/handlerauth"
	"github.com/komponen/marketplace/transport/restapi/handlericon"
	"github.com/komponen/marketplace/transport/restapi/handlervendor"
)

type Config struct {
	AppServiceName string            `validate:"required"`
	AppVersion     string            `validate:"required"`
	AppService     appsvc.Service    `validate:"required"`
	IconService    iconsvc.Service   `validate:"required"`
	VendorService  vendorsvc.Service `validate:"required"`
	AuthService    authsvc.Service   `validate:"required"`
	Pool           userpool.Pool     `validate:"required"`

	// IconBucket is the object storage bucket the icon event hook
	// accepts notifications for.
	IconBucket string `validate:"required"`
}

type DefaultHTTP struct {
	router *chi.Mux
}

func NewHTTPTransport(cfg Config) (*DefaultHTTP, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("http transport cfg error: %w", err)
	}

	// ** Application handler
	handlerAppCfg := handlerapp.HandlerConfig{
		AppService: cfg.AppService,
	}

	handlerApp, err := handlerapp.NewHandler(handlerAppCfg)
	if err != nil {
		return nil, err
	}

	// ** Icon pipeline handler
	handlerIconCfg := handlericon.HandlerConfig{
		IconService: cfg.IconService,
		Bucket:      cfg.IconBucket,
	}

	handlerIcon, err := handlericon.NewHandler(handlerIconCfg)
	if err != nil {
		return nil, err
	}

	// ** Vendor handler
	handlerVendorCfg := handlervendor.HandlerConfig{
		VendorService: cfg.VendorService,
	}

	handlerVendor, err := handlervendor.NewHandler(handlerVendorCfg)
	if err != nil {
		return nil, err
	}

	// ** Auth handler
	handlerAuthCfg := handlerauth.HandlerConfig{
		AuthService: cfg.AuthService,
	}

	handlerAuth, err := handlerauth.NewHandler(handlerAuthCfg)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	skip := func(r *http.Request) bool {
		switch strings.TrimSpace(path.Clean(r.URL.Path)) {
		case "/swaggerui",
			"/health",
			"/ping":
			return true
		}

		return false
	}

	router.Use(middleware.StripSlashes)

	router.Use(cors.Handler(cors.Options{
		// AllowedOrigins:   []string{"https://foo.com"}, // Use this to allow specific origin hosts
		AllowedOrigins: []string{"https://*", "http://*"},
		// AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	router.Use(func(next http.Handler) http.Handler {
		return tracer.Middleware(tracer.MiddlewareConfig{
			TracerName:     "github.com/komponen/marketplace",
			ServiceName:    assets.ServiceName,
			SkipFunc:       skip,
			TracerProvider: otel.GetTracerProvider(),    // global tracer provider
			TextPropagator: otel.GetTextMapPropagator(), // use global text map propagator
		}, next)
	})

	// add trace id and also log request response
	router.Use(func(next http.Handler) http.Handler {
		return requestLogger(skip, next)
	})

	swaggerDir, _ := fs.Sub(assets.SwaggerUI, ".")
	router.Mount("/", http.FileServer(http.FS(swaggerDir)))

	// Anonymous routes: the public catalog, the auth flows, the mailed
	// invitation link and the object storage event hook.
	router.Get("/api/v1/apps", handlerApp.ListPublishedApps())

	router.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", handlerAuth.Login())
		r.Post("/signup", handlerAuth.SignUp())
		r.Post("/forgot", handlerAuth.ForgotPassword())
		r.Post("/forgot/confirm", handlerAuth.ConfirmForgotPassword())
	})

	router.Get("/api/v1/vendors/{vendor}/invitations/{email}/{code}", handlerVendor.AcceptInvitation())
	router.Post("/api/v1/events/icons", handlerIcon.UploadEvent())

	// Everything below resolves the bearer token into a pool user.
	router.Group(func(r chi.Router) {
		r.Use(authMiddleware(cfg.Pool))

		r.Get("/api/v1/auth/profile", handlerAuth.Profile())

		// Resource: vendors
		r.Route("/api/v1/vendors", func(r chi.Router) {
			r.Post("/", handlerVendor.CreateVendor())
			r.Get("/", handlerVendor.ListVendors())
			r.Get("/{vendor}", handlerVendor.GetVendor())
			r.Post("/{vendor}/approve", handlerVendor.ApproveVendor())

			r.Post("/{vendor}/invitations", handlerVendor.InviteUser())
			r.Post("/{vendor}/users", handlerVendor.AddUser())
			r.Get("/{vendor}/users", handlerVendor.ListUsers())
			r.Delete("/{vendor}/users/{email}", handlerVendor.RemoveUser())
			r.Post("/{vendor}/credentials", handlerVendor.CreateCredentials())

			// Resource: apps of one vendor
			r.Post("/{vendor}/apps", handlerApp.CreateApp())
			r.Get("/{vendor}/apps", handlerApp.ListVendorApps())
			r.Get("/{vendor}/apps/{app_id}", handlerApp.GetApp())
			r.Patch("/{vendor}/apps/{app_id}", handlerApp.UpdateApp())
			r.Delete("/{vendor}/apps/{app_id}", handlerApp.DeleteApp())
			r.Post("/{vendor}/apps/{app_id}/icon", handlerIcon.GetUploadLink())
		})
	})

	instance := &DefaultHTTP{
		router: router,
	}

	return instance, nil
}

// Server .
func (a *DefaultHTTP) Server() http.Handler {
	return a.router
}

// Package http wires the edge endpoints: one handler file per route,
// guards composed per the endpoint table, uniform envelope responses.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/quollhq/authedge/internal/edge/service"
	"github.com/quollhq/authedge/internal/edge/store"
	"github.com/quollhq/authedge/pkg/csrfx"
	"github.com/quollhq/authedge/pkg/httpx"
	"github.com/quollhq/authedge/pkg/jwtx"
	"github.com/quollhq/authedge/pkg/slogx"
)

// RouterConfig carries the dependencies the endpoints need.
type RouterConfig struct {
	Version string
	Logger  *slog.Logger

	Store  store.Store
	Tokens *jwtx.Service

	AuthFlow *service.AuthFlow
	Accounts *service.AccountService

	Guard *csrfx.Guard

	BasicUser    string
	BasicPass    string
	CookieSecure bool
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	cfg       RouterConfig
	startTime time.Time

	basicAuth httpx.Middleware
	csrfGuard httpx.Middleware
}

func NewRouter(cfg RouterConfig) *Router {
	r := &Router{
		Mux:       http.NewServeMux(),
		cfg:       cfg,
		startTime: time.Now(),
		basicAuth: httpx.BasicAuthMiddleware(cfg.BasicUser, cfg.BasicPass),
		csrfGuard: cfg.Guard.Middleware,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		httpx.TimingMiddleware,
		slogx.HTTPMiddleware(cfg.Logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUser()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// GET /csrf - moderate limit, mints the session token
	r.Mux.Handle("GET /v0/auth/csrf",
		httpx.Chain(&CsrfHandler{Flow: r.cfg.AuthFlow},
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.basicAuth,
			r.csrfGuard,
		),
	)

	// POST /sign-up - strict limit (account creation)
	r.Mux.Handle("POST /v0/auth/sign-up",
		httpx.Chain(&SignUpHandler{Flow: r.cfg.AuthFlow},
			httpx.RateLimitByIP(httpx.StrictLimit),
			r.basicAuth,
			r.csrfGuard,
		),
	)

	// POST /sign-in - strict limit (brute force prevention)
	r.Mux.Handle("POST /v0/auth/sign-in",
		httpx.Chain(&SignInHandler{
			Flow:       r.cfg.AuthFlow,
			RefreshTTL: r.cfg.Tokens.RefreshTTL(),
			Secure:     r.cfg.CookieSecure,
		},
			httpx.RateLimitByIP(httpx.StrictLimit),
			r.basicAuth,
			r.csrfGuard,
		),
	)

	// GET /sign-out - moderate limit
	r.Mux.Handle("GET /v0/auth/sign-out",
		httpx.Chain(&SignOutHandler{Flow: r.cfg.AuthFlow},
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.basicAuth,
			r.csrfGuard,
		),
	)

	// GET /refresh - moderate limit, no csrf guard (cookie-authenticated read)
	r.Mux.Handle("GET /v0/auth/refresh",
		httpx.Chain(&RefreshHandler{Flow: r.cfg.AuthFlow},
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.basicAuth,
		),
	)
}

func (r *Router) registerUser() {
	// GET /verify/{accessToken} - strict limit (activation attempts)
	r.Mux.Handle("GET /v0/user/verify/{accessToken}",
		httpx.Chain(&VerifyHandler{Accounts: r.cfg.Accounts},
			httpx.RateLimitByIP(httpx.StrictLimit),
			r.basicAuth,
		),
	)

	// POST /profile - lenient limit, requires a live access token
	r.Mux.Handle("POST /v0/user/profile",
		httpx.Chain(&ProfileHandler{Accounts: r.cfg.Accounts},
			httpx.RateLimitByIP(httpx.LenientLimit),
			r.basicAuth,
			AccessTokenMiddleware(r.cfg.Tokens),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.cfg.Version),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.cfg.Version, r.cfg.Store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

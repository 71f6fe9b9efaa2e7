package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/stoliar/commerce-mesh/internal/gateway/admintoken"
)

// Gateway fronts the auth, user and order services behind one origin.
//
// Its one piece of business logic is the registration route: public clients
// cannot hold the ADMIN role the auth service demands there, so the gateway
// swaps in its own service admin token before forwarding.
type Gateway struct {
	authProxy  *httputil.ReverseProxy
	userProxy  *httputil.ReverseProxy
	orderProxy *httputil.ReverseProxy
	admin      *admintoken.Supplier
	logger     *slog.Logger
}

type Config struct {
	AuthServiceURL  string
	UserServiceURL  string
	OrderServiceURL string
}

func NewGateway(cfg Config, admin *admintoken.Supplier, logger *slog.Logger) (*Gateway, error) {
	authProxy, err := newServiceProxy(cfg.AuthServiceURL, logger)
	if err != nil {
		return nil, err
	}
	userProxy, err := newServiceProxy(cfg.UserServiceURL, logger)
	if err != nil {
		return nil, err
	}
	orderProxy, err := newServiceProxy(cfg.OrderServiceURL, logger)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		authProxy:  authProxy,
		userProxy:  userProxy,
		orderProxy: orderProxy,
		admin:      admin,
		logger:     logger,
	}, nil
}

func newServiceProxy(rawURL string, logger *slog.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, proxyErr error) {
		logger.ErrorContext(r.Context(), "upstream unavailable",
			"module", "gateway.proxy",
			"layer", "adapter",
			"operation", "forward",
			"outcome", "failure",
			"path", r.URL.Path,
			"target", target.Host,
			"error", proxyErr,
		)
		writeError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream service unavailable")
	}
	return proxy, nil
}

// Routes builds the gateway router with rate limiting applied to every
// proxied path.
func (g *Gateway) Routes(limiter *RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(limiter.Middleware)
	r.Use(stripServiceIdentity)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "ok"})
	})

	r.Post("/api/v1/auth/register", g.forwardRegister)
	r.Handle("/api/v1/auth/*", g.authProxy)
	r.Handle("/api/v1/users", g.userProxy)
	r.Handle("/api/v1/users/*", g.userProxy)
	r.Handle("/api/v1/orders", g.orderProxy)
	r.Handle("/api/v1/orders/*", g.orderProxy)

	return r
}

// stripServiceIdentity drops the X-Service-Name header from inbound traffic.
// Upstream services grant trusted-caller access on that header, so only the
// gateway itself may assert it.
func stripServiceIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del("X-Service-Name")
		next.ServeHTTP(w, r)
	})
}

// forwardRegister injects the service admin token. An empty slot means the
// gateway cannot authorize the registration chain yet, so it answers 503
// instead of forwarding a request doomed to 403.
func (g *Gateway) forwardRegister(w http.ResponseWriter, r *http.Request) {
	token, ok := g.admin.Token()
	if !ok {
		g.logger.WarnContext(r.Context(), "registration rejected, admin token slot empty",
			"module", "gateway.proxy",
			"layer", "adapter",
			"operation", "forward_register",
			"outcome", "failure",
		)
		writeError(w, http.StatusServiceUnavailable, "DEPENDENCY_FAILURE", "gateway is not ready to accept registrations")
		return
	}

	r.Header.Set("Authorization", "Bearer "+token)
	r.Header.Set("X-Service-Name", "api-gateway")
	g.authProxy.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, map[string]string{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}

// Package router assembles the gin engine: global middleware, health probes,
// the provider webhooks and the admin API.
package router

import (
	"fmt"
	"net/http"

	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"github.com/giftcampaign/backend/internal/interfaces/http/handler"
	"github.com/giftcampaign/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one resource under a shared prefix
// and middleware chain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, handlers)
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers are the HTTP handlers served by the engine
type Handlers struct {
	Health        *handler.HealthHandler
	Webhook       *handler.WebhookHandler
	PurchaseOrder *handler.PurchaseOrderHandler
	Order         *handler.OrderHandler
	Task          *handler.TaskHandler
}

// Options configures the global middleware chain
type Options struct {
	Logger         *zap.Logger
	Meter          metric.Meter
	Tracing        middleware.TracingConfig
	MaxBodySize    int64
	TrustedProxies []string
	// APIKeys maps webhook bearer keys to provider names
	APIKeys map[string]string
}

// NewEngine builds the gin engine with every route registered
func NewEngine(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.TracingWithConfig(opts.Tracing),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(opts.Meter, log),
		middleware.BodyLimit(opts.MaxBodySize),
	)

	engine.GET("/health", h.Health.Live)
	engine.GET("/health/ready", h.Health.Ready)

	r := NewRouter(engine)
	r.Register(logisticsRoutes(h.Webhook, middleware.APIKeyConfig{Keys: opts.APIKeys, Logger: log}))
	r.Register(purchaseOrderRoutes(h.PurchaseOrder))
	r.Register(orderRoutes(h.Order))
	r.Register(taskRoutes(h.Task))
	r.Setup()

	return engine, nil
}

func logisticsRoutes(h *handler.WebhookHandler, keys middleware.APIKeyConfig) *DomainGroup {
	g := NewDomainGroup("logistics", "/logistics")
	g.POST("/:provider/webhook", middleware.APIKeyAuth(keys), middleware.SpanAttributes(), h.Receive)
	return g
}

func purchaseOrderRoutes(h *handler.PurchaseOrderHandler) *DomainGroup {
	g := NewDomainGroup("purchase-orders", "/purchase-orders")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id/lines/:lineId", h.UpdateLine)
	g.POST("/:id/send-to-supplier", h.SendToSupplier)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/quick-approve", h.QuickApprove)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/send-again", h.SendAgain)
	return g
}

func orderRoutes(h *handler.OrderHandler) *DomainGroup {
	g := NewDomainGroup("orders", "/orders")
	g.GET("/summary", h.Summary)
	g.POST("/:id/send-to-logistics", h.SendToLogistics)
	return g
}

func taskRoutes(h *handler.TaskHandler) *DomainGroup {
	g := NewDomainGroup("tasks", "/tasks")
	g.GET("/dead", h.ListDead)
	g.POST("/:id/retry", h.Retry)
	return g
}

package server

import (
	"errors"
	"net"
	"net/http"
	"reflect"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ─── public fluent builder ───────────────────────────────────
type Builder struct {
	httpPort string

	cors    *cors.Cors
	limit   rate.Limit
	burst   int
	authMw  func(http.HandlerFunc) http.HandlerFunc
	extra   map[string]http.HandlerFunc
	timeout time.Duration

	singletons  map[reflect.Type]reflect.Value
	providers   map[reflect.Type]reflect.Value
	controllers []reflect.Value
}

func New() *Builder {
	return &Builder{
		cors:       cors.AllowAll(),
		limit:      rate.Inf,
		extra:      map[string]http.HandlerFunc{},
		timeout:    time.Minute,
		singletons: map[reflect.Type]reflect.Value{},
		providers:  map[reflect.Type]reflect.Value{},
	}
}

// ----- basic wiring ----------------------------------------------------------

func (b *Builder) HTTPPort(p string) *Builder { b.httpPort = p; return b }

func (b *Builder) CORS(c *cors.Cors) *Builder { b.cors = c; return b }

// RateLimit caps controller routes at rps requests per second with the given burst.
// A non-positive rps disables limiting.
func (b *Builder) RateLimit(rps float64, burst int) *Builder {
	if rps <= 0 {
		b.limit = rate.Inf
		return b
	}
	b.limit = rate.Limit(rps)
	b.burst = burst
	return b
}

// Authenticate guards every controller route with mw.
func (b *Builder) Authenticate(mw func(http.HandlerFunc) http.HandlerFunc) *Builder {
	b.authMw = mw
	return b
}

// Timeout sets the read and write timeouts of the HTTP server.
func (b *Builder) Timeout(d time.Duration) *Builder { b.timeout = d; return b }

// Handle mounts an unauthenticated handler next to the controller routes.
func (b *Builder) Handle(pattern string, h http.HandlerFunc) *Builder {
	b.extra[pattern] = h
	return b
}

// ----- dependency injection --------------------------------------------------

func (b *Builder) Provide(value any) *Builder {
	b.singletons[reflect.TypeOf(value)] = reflect.ValueOf(value)
	return b
}

func (b *Builder) ProvideAs(value any, ifacePtr any) *Builder {
	ifaceType := reflect.TypeOf(ifacePtr).Elem()
	val := reflect.ValueOf(value)

	if !val.Type().Implements(ifaceType) {
		logger.Fatal("Provided value does not implement the given interface",
			zap.String("valueType", val.Type().String()),
			zap.String("interfaceType", ifaceType.String()))
		return b
	}

	b.singletons[ifaceType] = val
	return b
}

// ProvideFunc registers a lazy provider: func(deps...) T or func(deps...) (T, error).
func (b *Builder) ProvideFunc(fn any) *Builder {
	v := reflect.ValueOf(fn)
	if !validFactory(v.Type()) {
		logger.Fatal("ProvideFunc expects func(...) T or func(...) (T, error)", zap.Any("received", fn))
		return b
	}
	b.providers[v.Type().Out(0)] = v
	return b
}

// RegisterController adds a factory whose result implements RestController.
func (b *Builder) RegisterController(factory any) *Builder {
	v := reflect.ValueOf(factory)
	if !validFactory(v.Type()) {
		logger.Fatal("controller factory must be a function", zap.Any("received", factory))
		return b
	}
	b.controllers = append(b.controllers, v)
	return b
}

// ----- Resolve DI and build server -----------------------------------------------------

func (b *Builder) Build() (*BootServer, error) {
	if b.httpPort == "" {
		return nil, errors.New("http port must be set")
	}

	// tiny DI container
	ctn := newContainer(b.singletons, b.providers)

	mux := http.NewServeMux()
	limiter := rate.NewLimiter(b.limit, b.burst)

	for _, f := range b.controllers {
		ctrl, err := invokeFactory(ctn, f)
		if err != nil {
			return nil, err
		}
		rc, ok := ctrl.Interface().(RestController)
		if !ok {
			return nil, errors.New("controller " + ctrl.Type().String() + " does not implement RestController")
		}

		for _, route := range rc.Routes() {
			h := methodFilterHandler(route.Method, route.Handler)
			if b.authMw != nil {
				h = b.authMw(h)
			}
			h = rateLimitHandler(limiter, h)
			mux.HandleFunc(route.Pattern, h)
			logger.Debug("Registered route", zap.String("method", route.Method), zap.String("pattern", route.Pattern))
		}
	}

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// register extra handlers
	for p, h := range b.extra {
		mux.HandleFunc(p, h)
	}

	lnHTTP, err := net.Listen("tcp", b.httpPort)
	if err != nil {
		return nil, err
	}

	httpSrv := &http.Server{
		Handler:      b.cors.Handler(requestLogger(mux)),
		ReadTimeout:  b.timeout,
		WriteTimeout: b.timeout,
		IdleTimeout:  2 * b.timeout,
	}

	return &BootServer{http: httpSrv, lnHTTP: lnHTTP}, nil
}

// invokeFactory resolves arguments via container and calls the func.
func invokeFactory(ctn *container, fn reflect.Value) (reflect.Value, error) {
	return ctn.call(fn)
}

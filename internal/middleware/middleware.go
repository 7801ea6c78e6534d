package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/akolanti/PDFChat/internal/metrics"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

type Settings struct {
	AuthToken      string
	RatePerSecond  float64
	BurstPerSecond int
}

var (
	once      sync.Once
	authToken string
)

// Init configures authentication and rate limiting. An empty auth token disables authentication.
func Init(settings Settings) {
	once.Do(func() {
		authToken = settings.AuthToken
		limiterInstance = NewIPRateLimiter(rate.Limit(settings.RatePerSecond), settings.BurstPerSecond)
	})
}

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if !re.badRequest.isBadRequest {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(routePattern(r), strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

// WrapHandler is Wrap for handlers that are not plain funcs, such as the MCP endpoint.
func WrapHandler(next http.Handler) http.HandlerFunc {
	return Wrap(next.ServeHTTP)
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if handleBadRequest(re) {
		return re
	}
	re.logger.Info("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	re = rateLimiter(re)
	if handleBadRequest(re) {
		return re //stop here if rate limit fails
	}
	re = authenticate(re)
	handleBadRequest(re)
	return re
}

// routePattern keeps session ids out of metric labels.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

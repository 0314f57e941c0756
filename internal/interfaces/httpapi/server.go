package httpapi

import (
	"net/http"

	"github.com/riskibarqy/club-stats/internal/platform/id"
	"github.com/riskibarqy/club-stats/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	corsAllowedOrigins []string,
	requestIDs id.Generator,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if requestIDs == nil {
		requestIDs = id.NewRandomGenerator(0)
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerSeasonRoutes(mux, handler)

	return RequestTracing(RequestLogging(logger, requestIDs, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered",
					"panic", rec,
					"request_id", requestIDFromContext(ctx),
					"http_path", r.URL.Path,
				)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/club-stats/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "club-stats"
)

// envelope follows the Google JSON style guide: exactly one of data or error is set.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	ID         string     `json:"id,omitempty"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var internalError = mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

// errorRules is checked in order; the first rule with a matching target wins.
var errorRules = []struct {
	targets []error
	mapped  mappedError
}{
	{[]error{usecase.ErrSuperseded}, mappedError{http.StatusConflict, "superseded", "ABORTED"}},
	{[]error{usecase.ErrInvalidInput}, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{[]error{usecase.ErrNotFound}, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{[]error{usecase.ErrTimeout, context.DeadlineExceeded}, mappedError{http.StatusGatewayTimeout, "upstreamTimeout", "DEADLINE_EXCEEDED"}},
	{[]error{usecase.ErrValidation}, mappedError{http.StatusBadGateway, "invalidSeasonData", "DATA_LOSS"}},
	{[]error{
		usecase.ErrDependencyUnavailable,
		usecase.ErrSourceUnavailable,
		usecase.ErrSeasonNotConfigured,
		usecase.ErrAggregateAbort,
	}, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
}

// writeJSON encodes into a pooled buffer first so an encoding failure can still
// produce a clean 500 instead of a truncated body.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload envelope) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	payload.APIVersion = googleAPIVersion
	payload.ID = requestIDFromContext(ctx)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		span.RecordError(err)
		buf.Reset()
		status = http.StatusInternalServerError
		fallback := envelope{APIVersion: googleAPIVersion, ID: payload.ID, Error: newErrorBody(internalError, "response encoding failed")}
		if err := sonic.ConfigDefault.NewEncoder(buf).Encode(fallback); err != nil {
			w.WriteHeader(status)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, _ = w.Write(buf.B)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, envelope{Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, envelope{Error: newErrorBody(mapped, err.Error())})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeJSON(ctx, w, http.StatusInternalServerError, envelope{Error: newErrorBody(internalError, "internal server error")})
}

func newErrorBody(mapped mappedError, message string) *errorBody {
	return &errorBody{
		Code:    mapped.HTTPStatus,
		Message: message,
		Status:  mapped.Status,
		Errors:  []errorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: message}},
	}
}

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	for _, rule := range errorRules {
		for _, target := range rule.targets {
			if errors.Is(err, target) {
				return rule.mapped
			}
		}
	}
	return internalError
}

package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/groblegark/configstore/internal/idgen"
)

// RequestIDHeader carries the request ID on HTTP requests and responses, and
// (lower-cased) in gRPC metadata.
const RequestIDHeader = "X-Request-ID"

const internalErrorMessage = "internal server error"

// Bearer token failures. The messages are returned to callers as is.
var (
	errMissingAuth   = errors.New("missing authorization header")
	errInvalidScheme = errors.New("invalid authorization scheme")
	errInvalidToken  = errors.New("invalid token")
)

// checkBearer validates an Authorization header value against token.
func checkBearer(header, token string) error {
	if header == "" {
		return errMissingAuth
	}
	provided, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return errInvalidScheme
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
		return errInvalidToken
	}
	return nil
}

// newRequestID returns a fresh request ID, or "" if generation fails.
func newRequestID(logger *slog.Logger) string {
	id, err := idgen.RequestID()
	if err != nil {
		logger.Warn("failed to generate request id", "err", err)
		return ""
	}
	return id
}

// --- gRPC ---

// LoggingInterceptor takes the request ID from the x-request-id metadata (or
// generates one), stores it in the context, and logs each unary call.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var id string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(strings.ToLower(RequestIDHeader)); len(vals) > 0 {
				id = vals[0]
			}
		}
		if id == "" {
			id = newRequestID(logger)
		}

		start := time.Now()
		resp, err := handler(WithRequestID(ctx, id), req)

		attrs := []any{"method", info.FullMethod, "request_id", id, "duration", time.Since(start)}
		if err != nil {
			logger.Warn("rpc completed", append(attrs, "code", status.Code(err).String(), "err", err)...)
		} else {
			logger.Info("rpc completed", attrs...)
		}
		return resp, err
	}
}

// RecoveryInterceptor converts a handler panic into codes.Internal.
func RecoveryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("panic recovered in gRPC handler",
					"method", info.FullMethod,
					"panic", fmt.Sprint(p),
					"stack", string(debug.Stack()))
				err = status.Error(codes.Internal, internalErrorMessage)
			}
		}()
		return handler(ctx, req)
	}
}

// AuthInterceptor requires "authorization: Bearer <token>" metadata on every
// RPC except Health. An empty token disables the check.
func AuthInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if token == "" || info.FullMethod == HealthMethod {
			return handler(ctx, req)
		}
		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				header = vals[0]
			}
		}
		if err := checkBearer(header, token); err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(ctx, req)
	}
}

// --- HTTP ---

// AuthMiddleware requires "Authorization: Bearer <token>" on every request
// except GET /health. An empty token disables the check.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exempt := r.Method == http.MethodGet && r.URL.Path == "/health"
		if !exempt {
			if err := checkBearer(r.Header.Get("Authorization"), token); err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware echoes the client's X-Request-ID, or a generated one,
// and stores it in the request context.
func RequestIDMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = newRequestID(logger)
		}
		if id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// statusRecorder remembers the status a handler wrote. It forwards Flush so
// the event stream keeps working behind the logging middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingMiddleware writes one access log line per request, at error level
// for 5xx responses.
func LoggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", RequestIDFromContext(r.Context()),
			"duration", time.Since(start))
	})
}

// RecoveryMiddleware turns a handler panic into a 500 response.
// http.ErrAbortHandler is re-raised for net/http to handle.
func RecoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			logger.Error("panic recovered in HTTP handler",
				"path", r.URL.Path,
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()))
			writeError(w, http.StatusInternalServerError, internalErrorMessage)
		}()
		next.ServeHTTP(w, r)
	})
}

package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// stubHandler is a no-op gRPC handler used in interceptor tests.
func stubHandler(_ context.Context, _ any) (any, error) {
	return "ok", nil
}

var getConfigInfo = &grpc.UnaryServerInfo{FullMethod: GetConfigMethod}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckBearer(t *testing.T) {
	for _, tc := range []struct {
		header string
		want   error
	}{
		{"", errMissingAuth},
		{"Basic secret", errInvalidScheme},
		{"bearer secret", errInvalidScheme},
		{"Bearer wrong", errInvalidToken},
		{"Bearer secret", nil},
	} {
		if got := checkBearer(tc.header, "secret"); got != tc.want {
			t.Errorf("checkBearer(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}
}

func TestLoggingInterceptor_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	failing := func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "nope")
	}
	if _, err := LoggingInterceptor(logger)(context.Background(), nil, getConfigInfo, failing); status.Code(err) != codes.NotFound {
		t.Fatalf("err = %v", err)
	}
	for _, want := range []string{"level=WARN", "code=NotFound", "method=" + GetConfigMethod} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log %q missing %q", buf.String(), want)
		}
	}
}

func TestAuthInterceptor(t *testing.T) {
	for _, tc := range []struct {
		name     string
		token    string
		method   string
		md       metadata.MD
		wantCode codes.Code
	}{
		{name: "Disabled", token: "", method: GetConfigMethod, wantCode: codes.OK},
		{name: "HealthExempt", token: "secret", method: HealthMethod, wantCode: codes.OK},
		{name: "MissingMetadata", token: "secret", method: GetConfigMethod, wantCode: codes.Unauthenticated},
		{name: "MissingAuthHeader", token: "secret", method: GetConfigMethod, md: metadata.Pairs("other", "value"), wantCode: codes.Unauthenticated},
		{name: "WrongToken", token: "secret", method: GetConfigMethod, md: metadata.Pairs("authorization", "Bearer wrong"), wantCode: codes.Unauthenticated},
		{name: "InvalidScheme", token: "secret", method: ListModelsMethod, md: metadata.Pairs("authorization", "Basic secret"), wantCode: codes.Unauthenticated},
		{name: "CorrectToken", token: "secret", method: GetConfigMethod, md: metadata.Pairs("authorization", "Bearer secret"), wantCode: codes.OK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			if tc.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tc.md)
			}
			resp, err := AuthInterceptor(tc.token)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tc.method}, stubHandler)
			if got := status.Code(err); got != tc.wantCode {
				t.Fatalf("code = %v, want %v (err=%v)", got, tc.wantCode, err)
			}
			if tc.wantCode == codes.OK && resp != "ok" {
				t.Fatalf("expected 'ok', got %v", resp)
			}
		})
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	panicky := func(context.Context, any) (any, error) { panic("boom") }
	_, err := RecoveryInterceptor(discardLogger())(context.Background(), nil, getConfigInfo, panicky)
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestLoggingInterceptor_RequestID(t *testing.T) {
	var seen string
	capture := func(ctx context.Context, _ any) (any, error) {
		seen = RequestIDFromContext(ctx)
		return "ok", nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-fromclient"))
	if _, err := LoggingInterceptor(discardLogger())(ctx, nil, getConfigInfo, capture); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "req-fromclient" {
		t.Errorf("request id = %q, want %q", seen, "req-fromclient")
	}

	if _, err := LoggingInterceptor(discardLogger())(context.Background(), nil, getConfigInfo, capture); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(seen, "req-") {
		t.Errorf("generated request id = %q, want req- prefix", seen)
	}
}

// --- HTTP middleware tests ---

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	for _, tc := range []struct {
		name   string
		token  string
		method string
		path   string
		header string
		want   int
	}{
		{name: "NoHeader", token: "secret", method: http.MethodPost, path: "/get_config", want: http.StatusUnauthorized},
		{name: "WrongToken", token: "secret", method: http.MethodPost, path: "/get_config", header: "Bearer wrong", want: http.StatusUnauthorized},
		{name: "InvalidScheme", token: "secret", method: http.MethodGet, path: "/v1/models", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "CorrectToken", token: "secret", method: http.MethodPost, path: "/get_config", header: "Bearer secret", want: http.StatusOK},
		{name: "HealthExempt", token: "secret", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "Disabled", token: "", method: http.MethodPost, path: "/get_config", want: http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(tc.token, okHandler()).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d; body: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(discardLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "req-abc" || rec.Header().Get(RequestIDHeader) != "req-abc" {
		t.Errorf("propagated id: ctx=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.HasPrefix(seen, "req-") {
		t.Errorf("generated id = %q, want req- prefix", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seen)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := LoggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/get_config", nil))

	out := buf.String()
	for _, want := range []string{"http request", "path=/get_config", "status=418", "method=POST"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := RecoveryMiddleware(logger, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/get_config", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	trialapi "github.com/pysensei/ai-gateway/internal/api/trial"
)

// rateLimitContextKey is the context key for rate limit info.
type rateLimitContextKey struct{}

// RateLimitInfo carries the quota decision from the handler to the response
// headers. Reset is epoch milliseconds, matching the response bodies.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time

	set bool
}

// SetRateLimits records the quota decision for the header-writing
// middleware. No-op if RateLimitHeaderMiddleware isn't present.
func SetRateLimits(ctx context.Context, limit, remaining int, resetAt time.Time) {
	if info, ok := ctx.Value(rateLimitContextKey{}).(*RateLimitInfo); ok {
		info.Limit = limit
		info.Remaining = remaining
		info.ResetAt = resetAt
		info.set = true
	}
}

// RateLimitHeaderMiddleware writes X-RateLimit-* headers on responses. The
// handler records the decision via SetRateLimits; the headers go out with
// the first write, so they are present on both success and denial responses.
func RateLimitHeaderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RateLimitInfo{}
		ctx := context.WithValue(r.Context(), rateLimitContextKey{}, info)
		r = r.WithContext(ctx)

		wrapped := &rateLimitResponseWriter{ResponseWriter: w, info: info}
		next.ServeHTTP(wrapped, r)
	})
}

// rateLimitResponseWriter wraps ResponseWriter to write rate limit headers.
type rateLimitResponseWriter struct {
	http.ResponseWriter
	info         *RateLimitInfo
	wroteHeaders bool
}

func (rw *rateLimitResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeaders {
		rw.writeRateLimitHeaders()
		rw.wroteHeaders = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *rateLimitResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeaders {
		rw.writeRateLimitHeaders()
		rw.wroteHeaders = true
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *rateLimitResponseWriter) writeRateLimitHeaders() {
	if rw.info == nil || !rw.info.set {
		return
	}

	h := rw.Header()
	h.Set(trialapi.HeaderLimit, strconv.Itoa(rw.info.Limit))
	// Remaining is written even at 0: the 429 body and header must agree.
	h.Set(trialapi.HeaderRemaining, strconv.Itoa(rw.info.Remaining))
	h.Set(trialapi.HeaderReset, strconv.FormatInt(rw.info.ResetAt.UnixMilli(), 10))
}

// Flush forwards Flush to the underlying ResponseWriter if it supports
// http.Flusher.
func (rw *rateLimitResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

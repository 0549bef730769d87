package main

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterPool() *limiterPool {
	return &limiterPool{limiters: make(map[string]*rate.Limiter)}
}

func (p *limiterPool) get(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[ip]
	if !ok {
		// 10 req/s with burst of 20 keeps polling clients out of 429 land.
		l = rate.NewLimiter(10, 20)
		p.limiters[ip] = l
	}
	return l
}

func middlewareRateLimit(pool *limiterPool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, _ := net.SplitHostPort(r.RemoteAddr)
		if !pool.get(ip).Allow() {
			http.Error(w, "Rate Limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func middlewareCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Empire-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

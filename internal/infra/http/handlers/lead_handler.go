package handlers

import (
	"encoding/json"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadgate/internal/entity"
	"github.com/xavierca1/leadgate/internal/infra/http/middleware"
	"github.com/xavierca1/leadgate/internal/usecase"
)

const maxBodyBytes = 64 << 10

type LeadHandler struct {
	uc          *usecase.CaptureLeadUseCase
	sessions    Sessions
	rateLimiter *RateLimiter
	trustProxy  bool
	logger      *zap.Logger
}

// NewLeadHandler takes the client address from X-Forwarded-For / X-Real-IP only when
// trustProxy is set, i.e. when a reverse proxy in front of the service overwrites them.
func NewLeadHandler(uc *usecase.CaptureLeadUseCase, s Sessions, rl *RateLimiter, trustProxy bool, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		uc:          uc,
		sessions:    s,
		rateLimiter: rl,
		trustProxy:  trustProxy,
		logger:      logger.Named("lead-handler"),
	}
}

// View renders the page the session is currently on.
func (h *LeadHandler) View(w http.ResponseWriter, r *http.Request) {
	h.sessions.with(w, r, func(sess *entity.Session) {
		writeJSON(w, http.StatusOK, h.uc.View(sess))
	})
}

func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	clientIP := getClientIP(r, h.trustProxy)
	if h.rateLimiter != nil && !h.rateLimiter.Allow(clientIP) {
		middleware.RecordLeadRejected("RATE_LIMITED")
		writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
		return
	}

	input, err := decodeCaptureInput(w, r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	h.sessions.with(w, r, func(sess *entity.Session) {
		out, err := h.uc.Execute(r.Context(), sess, input)
		if err != nil {
			code := usecase.ErrorCode(err)
			middleware.RecordLeadRejected(code)
			if usecase.IsTechnicalError(err) {
				middleware.RecordStoreError("append")
				h.logger.Error("lead capture failed", zap.String("ip", clientIP), zap.Error(err))
			}

			view := h.uc.View(sess)
			view.Error = viewError(err)
			writeJSON(w, statusFor(err), view)
			return
		}

		middleware.RecordLeadCaptured()
		writeJSON(w, http.StatusCreated, usecase.PageView{State: out.State, PDFURL: out.PDFURL})
	})
}

// decodeCaptureInput accepts a JSON body or a regular HTML form post.
func decodeCaptureInput(w http.ResponseWriter, r *http.Request) (usecase.CaptureLeadInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var input usecase.CaptureLeadInput
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&input)
		return input, err
	}

	if err := r.ParseForm(); err != nil {
		return input, err
	}
	input.Name = r.PostForm.Get("name")
	input.Email = r.PostForm.Get("email")
	input.Phone = r.PostForm.Get("phone")
	input.Company = r.PostForm.Get("company")
	// resposta não numérica conta como errada
	if n, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("challenge_answer"))); err == nil {
		input.ChallengeAnswer = &n
	}
	return input, nil
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// o primeiro é o cliente original
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimiter is a fixed window counter per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration

	Now func() time.Time
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		Now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := rl.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

// Evict forgets visitors whose window expired long ago. Run it from the sweeper.
func (rl *RateLimiter) Evict() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.Now()
	n := 0
	for ip, v := range rl.visitors {
		if now.Sub(v.lastReset) > rl.window*2 {
			delete(rl.visitors, ip)
			n++
		}
	}
	return n
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"challengeflow/analytics"
	"challengeflow/auth"
	"challengeflow/report"
	"challengeflow/snapshot"
)

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

type analyticsService interface {
	CarrierAnalytics(ctx context.Context, companyID string) (analytics.CarrierAnalytics, error)
	OutcomeTrends(ctx context.Context, companyID string, months int) ([]analytics.TrendBucket, error)
	GenerateMonthlyReport(ctx context.Context, companyID string, month, year int) (report.MonthlyReport, error)
	TriageAccuracy(ctx context.Context, companyID string) (analytics.TriageAccuracy, error)
	SystemAnalytics(ctx context.Context, period snapshot.Period, start, end time.Time) (snapshot.Snapshot, error)
}

type tokenService interface {
	Exchange(ctx context.Context, req auth.TokenRequest) (auth.TokenResult, error)
	VerifyToken(token string) (auth.Claims, error)
}

// Server is the thin JSON layer over the analytics engine.
type Server struct {
	analytics analyticsService
	tokens    tokenService
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	now       func() time.Time
	location  *time.Location
}

func NewServer(svc analyticsService, tokens tokenService, gatherer prometheus.Gatherer, logger *slog.Logger, loc *time.Location) *Server {
	return &Server{
		analytics: svc,
		tokens:    tokens,
		gatherer:  gatherer,
		logger:    logger,
		now:       time.Now,
		location:  loc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/auth/token", s.handleToken)
	mux.Handle("/api/dataq-analytics/carrier", s.requireAuth(s.handleCarrier))
	mux.Handle("/api/dataq-analytics/trends", s.requireAuth(s.handleTrends))
	mux.Handle("/api/dataq-analytics/monthly-report", s.requireAuth(s.handleMonthlyReport))
	mux.Handle("/api/dataq-analytics/triage-accuracy", s.requireAuth(s.handleTriageAccuracy))
	mux.Handle("/api/dataq-analytics/system", s.requireAuth(s.handleSystem))
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.tokens.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
	})
}

func claimsFrom(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(auth.Claims)
	return c, ok
}

// companyFor resolves which company a request reads. Carrier callers always
// read their own company; operators name one with ?companyId=.
func companyFor(r *http.Request) (string, int, string) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		return "", http.StatusUnauthorized, "unauthenticated"
	}
	if claims.Role == auth.RoleCarrier {
		return claims.CompanyID, 0, ""
	}
	id := strings.TrimSpace(r.URL.Query().Get("companyId"))
	if id == "" {
		return "", http.StatusBadRequest, "companyId is required"
	}
	return id, 0, ""
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req auth.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.tokens.Exchange(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     res.Token,
		Role:      string(res.Claims.Role),
		CompanyID: res.Claims.CompanyID,
		ExpiresAt: res.Claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCarrier(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	companyID, code, msg := companyFor(r)
	if code != 0 {
		writeError(w, code, msg)
		return
	}
	out, err := s.analytics.CarrierAnalytics(r.Context(), companyID)
	if err != nil {
		s.analyticsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCarrierResponse(out))
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	companyID, code, msg := companyFor(r)
	if code != 0 {
		writeError(w, code, msg)
		return
	}
	months := 0
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "months must be a non-negative integer")
			return
		}
		months = n
	}
	buckets, err := s.analytics.OutcomeTrends(r.Context(), companyID, months)
	if err != nil {
		s.analyticsError(w, r, err)
		return
	}
	items := make([]trendResponse, 0, len(buckets))
	for _, b := range buckets {
		items = append(items, trendResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	companyID, code, msg := companyFor(r)
	if code != 0 {
		writeError(w, code, msg)
		return
	}
	now := s.now().In(s.location)
	month, err := intParam(r, "month", int(now.Month()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, err := intParam(r, "year", now.Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := s.analytics.GenerateMonthlyReport(r.Context(), companyID, month, year)
	if err != nil {
		s.analyticsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMonthlyReportResponse(rep))
}

func (s *Server) handleTriageAccuracy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	companyID, code, msg := companyFor(r)
	if code != 0 {
		writeError(w, code, msg)
		return
	}
	out, err := s.analytics.TriageAccuracy(r.Context(), companyID)
	if err != nil {
		s.analyticsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, triageResponse(out))
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, _ := claimsFrom(r.Context())
	if claims.Role != auth.RoleOperator {
		writeError(w, http.StatusForbidden, "system analytics require an operator token")
		return
	}

	q := r.URL.Query()
	period := snapshot.PeriodMonthly
	if v := q.Get("period"); v != "" {
		p, err := snapshot.ParsePeriod(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "period must be monthly, quarterly or yearly")
			return
		}
		period = p
	}
	start, end := period.Window(s.now().In(s.location))
	if v := q.Get("start"); v != "" {
		t, err := parseTime(v, s.location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start")
			return
		}
		start = t
		_, end = period.Window(t)
	}
	if v := q.Get("end"); v != "" {
		t, err := parseTime(v, s.location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end")
			return
		}
		end = t
	}

	snap, err := s.analytics.SystemAnalytics(r.Context(), period, start, end)
	if err != nil {
		s.analyticsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSystemResponse(snap))
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

// parseTime accepts RFC 3339 timestamps or bare dates in loc.
func parseTime(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, v, loc)
}

func (s *Server) analyticsError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, analytics.ErrInvalidPeriod) || errors.Is(err, snapshot.ErrInvalidPeriod) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.internalError(w, r, err)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

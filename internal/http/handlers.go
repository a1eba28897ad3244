package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"subcal/internal/core"
)

// subscriptionView adds the derived fields the list screen shows.
type subscriptionView struct {
	core.Subscription
	Canceled bool   `json:"canceled"`
	Tenure   string `json:"tenure"`
}

type brandView struct {
	Name  string `json:"name"`
	Known bool   `json:"known"`
	core.Brand
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subs.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	today := s.subs.Today()
	now := time.Now()
	views := make([]subscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, subscriptionView{
			Subscription: sub,
			Canceled:     core.IsCanceledAsOf(sub, today),
			Tenure:       core.Tenure(sub.CreatedAt, now),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscriptions": views})
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sub, err := req.toSubscription()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	created, err := s.subs.Create(r.Context(), ownerFrom(r.Context()), sub)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": created.ID})
}

func (s *Server) handleEndSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.subs.End(r.Context(), ownerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.subs.Stats(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleMonthCalendar(w http.ResponseWriter, r *http.Request) {
	year, ok := parseYear(chi.URLParam(r, "year"))
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid year", nil)
		return
	}
	m, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || m < 1 || m > 12 {
		writeError(w, http.StatusBadRequest, "validation", "month must be between 1 and 12", nil)
		return
	}
	cal, err := s.subs.Month(r.Context(), ownerFrom(r.Context()), year, time.Month(m))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (s *Server) handleYearCalendar(w http.ResponseWriter, r *http.Request) {
	year, ok := parseYear(chi.URLParam(r, "year"))
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "invalid year", nil)
		return
	}
	cal, err := s.subs.Year(r.Context(), ownerFrom(r.Context()), year)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	day := 0
	if v := r.URL.Query().Get("day"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 || d > 31 {
			writeError(w, http.StatusBadRequest, "validation", "day must be between 1 and 31", nil)
			return
		}
		day = d
	}
	rem, err := s.subs.Reminders(r.Context(), ownerFrom(r.Context()), day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if rem.DueToday == nil {
		rem.DueToday = []core.Subscription{}
	}
	if rem.DueTomorrow == nil {
		rem.DueTomorrow = []core.Subscription{}
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := s.subs.Notifications(r.Context(), ownerFrom(r.Context()), s.symbol)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleBrand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusOK, brandView{Name: name, Known: core.IsKnownBrand(name), Brand: core.LookupBrand(name)})
}

func parseYear(v string) (int, bool) {
	y, err := strconv.Atoi(v)
	if err != nil || y < 1 || y > 9999 {
		return 0, false
	}
	return y, true
}

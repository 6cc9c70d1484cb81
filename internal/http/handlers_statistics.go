package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"helpinghand/internal/core"
)

func (s *Server) handleUserTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.stats.UserTotals(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, "user totals", userTotalsJSON{
		TotalDonation:     totals.TotalDonation.Cents,
		UserTotalDonation: totals.UserTotalDonation.Cents,
	})
}

// parseWindow builds the statistics window from query parameters. Exactly
// one window is selected; an unknown name or a bad custom length is a
// client error, never a silent default.
func parseWindow(query map[string][]string) (core.Window, string, error) {
	get := func(key string) string {
		if vs := query[key]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	name := get("window")
	_, hasDays := query["days"]
	if hasDays && name != "custom" {
		// days belongs to the custom window alone; combined with a named
		// window the selection would be ambiguous.
		return core.Window{}, "", core.ErrInvalidWindow
	}
	switch name {
	case "", "week":
		return core.WeekToDate(), "week", nil
	case "month":
		return core.MonthToDate(), "month", nil
	case "year":
		return core.YearToDate(), "year", nil
	case "custom":
		days, err := strconv.Atoi(get("days"))
		if err != nil {
			return core.Window{}, "", core.ErrInvalidWindow
		}
		window, err := core.CustomWindow(days)
		if err != nil {
			return core.Window{}, "", err
		}
		return window, "custom-" + strconv.Itoa(days), nil
	default:
		return core.Window{}, "", core.ErrInvalidWindow
	}
}

func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	window, cacheKey, err := parseWindow(r.URL.Query())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if rows, ok := s.statsCache.Get(cacheKey); ok {
		slog.DebugContext(r.Context(), "Daily totals cache hit", "window", cacheKey)
		writeSuccess(w, "daily totals", rows)
		return
	}

	totals, err := s.stats.DailyTotals(r.Context(), window)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	rows := toDailyTotalsJSON(totals)
	s.statsCache.Set(cacheKey, rows)
	writeSuccess(w, "daily totals", rows)
}

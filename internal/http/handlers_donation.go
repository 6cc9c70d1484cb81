package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"helpinghand/internal/core"
	applog "helpinghand/internal/log"
)

const maxBodyBytes = 64 << 10

type recordPaymentRequest struct {
	PayerID string          `json:"payerId"`
	Amount  json.RawMessage `json:"amount"`
}

// parseAmount accepts either a JSON number or a decimal string, both parsed
// with the fixed-point parser so float rounding never touches money.
func parseAmount(raw json.RawMessage) (core.Money, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return core.Money{}, core.ErrInvalidAmount
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, core.ErrInvalidAmount
	}
	return core.Money{Cents: cents}, nil
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("campaignId")

	var req recordPaymentRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	payerID := strings.TrimSpace(req.PayerID)
	if payerID == "" {
		payerID = claimsFromContext(r.Context()).UserID
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	payment, campaign, err := s.recorder.RecordPayment(r.Context(), campaignID, payerID, amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// Raised totals changed, so cached statistics are stale.
	s.statsCache.Purge()

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Payment recorded",
		applog.FieldPaymentID, payment.ID,
		applog.FieldCampaignID, campaign.ID,
		applog.FieldAmountCents, amount.Cents)

	writeSuccess(w, "payment recorded", map[string]any{
		"payment": toPaymentJSON(payment),
		"campaign": campaignJSON{
			ID:          campaign.ID,
			Title:       campaign.Title,
			Description: campaign.Description,
			GoalCents:   campaign.Goal.Cents,
			RaisedCents: campaign.Raised.Cents,
			Featured:    campaign.Featured,
			StartDate:   formatDate(campaign.StartDate),
			EndDate:     formatDate(campaign.EndDate),
			Category:    categoryJSON{ID: campaign.CategoryID},
			Organizer:   userJSON{ID: campaign.OrganizerID},
			PaymentIDs:  campaign.PaymentIDs,
		},
	})
}

func (s *Server) handleListDonations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := core.CampaignFilter{
		SearchText:  strings.TrimSpace(query.Get("searchText")),
		CategoryID:  strings.TrimSpace(query.Get("category")),
		OrganizerID: strings.TrimSpace(query.Get("organizer")),
		ID:          strings.TrimSpace(query.Get("id")),
	}
	if v := strings.TrimSpace(query.Get("featured")); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid featured flag")
			return
		}
		filter.Featured = featured
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	views, err := s.query.FindCampaigns(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, "donations", toCampaignListJSON(views))
}

func (s *Server) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	view, err := s.query.FindCampaignByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, "donation", toCampaignJSON(view))
}

package http

import (
	"time"

	"helpinghand/internal/core"
)

// JSON projections of the domain types. Monetary values are integer cents.

type userJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type campaignJSON struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	GoalCents   int64        `json:"goalCents"`
	RaisedCents int64        `json:"raisedCents"`
	Featured    bool         `json:"featured"`
	StartDate   string       `json:"startDate,omitempty"`
	EndDate     string       `json:"endDate,omitempty"`
	Category    categoryJSON `json:"category"`
	Organizer   userJSON     `json:"organizer"`
	PaymentIDs  []string     `json:"paymentIds,omitempty"`
}

type paymentJSON struct {
	ID          string `json:"id"`
	CampaignID  string `json:"campaignId"`
	PayerID     string `json:"payerId"`
	AmountCents int64  `json:"amountCents"`
	CreatedAt   string `json:"createdAt"`
}

type dailyTotalJSON struct {
	Date        string `json:"date"`
	Day         string `json:"day"`
	TotalAmount int64  `json:"totalAmount"`
}

type userTotalsJSON struct {
	TotalDonation     int64 `json:"totalDonation"`
	UserTotalDonation int64 `json:"userTotalDonation"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func toCampaignJSON(v core.CampaignView) campaignJSON {
	return campaignJSON{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		GoalCents:   v.Goal.Cents,
		RaisedCents: v.Raised.Cents,
		Featured:    v.Featured,
		StartDate:   formatDate(v.StartDate),
		EndDate:     formatDate(v.EndDate),
		Category:    categoryJSON{ID: v.Category.ID, Name: v.Category.Name},
		Organizer:   userJSON{ID: v.Organizer.ID, Name: v.Organizer.Name, Role: v.Organizer.Role},
		PaymentIDs:  v.PaymentIDs,
	}
}

func toCampaignListJSON(views []core.CampaignView) []campaignJSON {
	out := make([]campaignJSON, 0, len(views))
	for _, v := range views {
		out = append(out, toCampaignJSON(v))
	}
	return out
}

func toPaymentJSON(p core.Payment) paymentJSON {
	return paymentJSON{
		ID:          p.ID,
		CampaignID:  p.CampaignID,
		PayerID:     p.PayerID,
		AmountCents: p.Amount.Cents,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toDailyTotalsJSON(rows []core.DailyTotal) []dailyTotalJSON {
	out := make([]dailyTotalJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, dailyTotalJSON{
			Date:        row.Date,
			Day:         row.Weekday,
			TotalAmount: row.Total.Cents,
		})
	}
	return out
}

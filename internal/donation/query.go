package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"helpinghand/internal/core"
)

// QueryEngine resolves campaigns into views with their category and
// organizer records denormalized in.
type QueryEngine struct {
	campaigns  CampaignReader
	users      UserRepository
	categories CategoryRepository
}

func NewQueryEngine(campaigns CampaignReader, users UserRepository, categories CategoryRepository) *QueryEngine {
	return &QueryEngine{campaigns: campaigns, users: users, categories: categories}
}

// FindCampaigns returns the resolved views of every campaign matching the
// filter. Campaigns whose category or organizer reference does not resolve
// are dropped from the result, not reported as errors. Results are ordered
// by campaign id so a limit is reproducible.
func (q *QueryEngine) FindCampaigns(ctx context.Context, filter core.CampaignFilter) ([]core.CampaignView, error) {
	all, err := q.campaigns.ListCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	views := make([]core.CampaignView, 0, len(all))
	for _, c := range all {
		if !filter.Matches(c) {
			continue
		}
		view, err := q.resolve(ctx, c)
		if err != nil {
			if errors.Is(err, core.ErrBrokenRef) {
				slog.DebugContext(ctx, "Dropping campaign with broken reference",
					"campaign_id", c.ID, "error", err)
				continue
			}
			return nil, err
		}
		views = append(views, view)
		if filter.Limit > 0 && len(views) == filter.Limit {
			break
		}
	}
	return views, nil
}

// FindCampaignByID returns the resolved view for one campaign. A missing
// campaign, and a campaign whose references cannot be resolved, both yield
// core.ErrNotFound: a view that cannot be joined does not exist to readers.
func (q *QueryEngine) FindCampaignByID(ctx context.Context, id string) (core.CampaignView, error) {
	if !core.ValidID(id) {
		return core.CampaignView{}, core.ErrInvalidID
	}
	c, err := q.campaigns.GetCampaign(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.CampaignView{}, fmt.Errorf("campaign %s: %w", id, core.ErrNotFound)
		}
		return core.CampaignView{}, fmt.Errorf("get campaign: %w", err)
	}
	view, err := q.resolve(ctx, c)
	if err != nil {
		if errors.Is(err, core.ErrBrokenRef) {
			slog.WarnContext(ctx, "Campaign has broken reference",
				"campaign_id", c.ID, "error", err)
			return core.CampaignView{}, fmt.Errorf("campaign %s: %w", id, core.ErrNotFound)
		}
		return core.CampaignView{}, err
	}
	return view, nil
}

func (q *QueryEngine) resolve(ctx context.Context, c core.Campaign) (core.CampaignView, error) {
	cat, err := q.categories.GetCategory(ctx, c.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.CampaignView{}, fmt.Errorf("category %s: %w", c.CategoryID, core.ErrBrokenRef)
		}
		return core.CampaignView{}, fmt.Errorf("resolve category: %w", err)
	}
	org, err := q.users.GetUser(ctx, c.OrganizerID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.CampaignView{}, fmt.Errorf("organizer %s: %w", c.OrganizerID, core.ErrBrokenRef)
		}
		return core.CampaignView{}, fmt.Errorf("resolve organizer: %w", err)
	}
	return core.CampaignView{Campaign: c, Category: cat, Organizer: org}, nil
}

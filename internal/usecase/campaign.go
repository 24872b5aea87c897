package usecase

import (
	"context"

	"github.com/robtrove/TroveCRM/internal/domain"
)

type CampaignTotals struct {
	Campaigns   int     `json:"campaigns"`
	Active      int     `json:"active"`
	EmailsSent  int     `json:"emailsSent"`
	Conversions int     `json:"conversions"`
	TotalBudget float64 `json:"totalBudget"`
	TotalSpent  float64 `json:"totalSpent"`
}

type CampaignUsecase struct {
	campaigns EntityStore[domain.Campaign]
}

func NewCampaignUsecase(campaigns EntityStore[domain.Campaign]) *CampaignUsecase {
	return &CampaignUsecase{campaigns: campaigns}
}

func (uc *CampaignUsecase) Metrics(ctx context.Context) (CampaignTotals, error) {
	ctx, span := tracer.Start(ctx, "Campaign.Usecase.Metrics")
	defer span.End()

	campaigns, err := uc.campaigns.List(ctx)
	if err != nil {
		return CampaignTotals{}, err
	}
	return TotalCampaigns(campaigns), nil
}

// TotalCampaigns counts sent emails over email campaigns only; conversions
// and spend are summed over all campaigns.
func TotalCampaigns(campaigns []domain.Campaign) CampaignTotals {
	var t CampaignTotals
	for _, c := range campaigns {
		t.Campaigns++
		if c.Status == domain.CampaignActive {
			t.Active++
		}
		if c.Type == domain.CampaignEmail {
			t.EmailsSent += c.Metrics.Sent
		}
		t.Conversions += c.Metrics.Converted
		t.TotalBudget += c.Budget
		t.TotalSpent += c.Spent
	}
	return t
}

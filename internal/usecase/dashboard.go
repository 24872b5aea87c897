package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/robtrove/TroveCRM/internal/domain"
)

type Dashboard struct {
	Currency          string         `json:"currency"`
	Customers         int            `json:"customers"`
	ActiveCustomers   int            `json:"activeCustomers"`
	OpenTickets       int            `json:"openTickets"`
	OpenDeals         int            `json:"openDeals"`
	PipelineValue     float64        `json:"pipelineValue"`
	PipelineValueText string         `json:"pipelineValueText"`
	RevenueText       string         `json:"revenueText"`
	Campaigns         CampaignTotals `json:"campaigns"`
	CampaignSpentText string         `json:"campaignSpentText"`
}

type DashboardUsecase struct {
	customers EntityStore[domain.Customer]
	tickets   EntityStore[domain.Ticket]
	deals     EntityStore[domain.Deal]
	campaigns EntityStore[domain.Campaign]
}

func NewDashboardUsecase(
	customers EntityStore[domain.Customer],
	tickets EntityStore[domain.Ticket],
	deals EntityStore[domain.Deal],
	campaigns EntityStore[domain.Campaign],
) *DashboardUsecase {
	return &DashboardUsecase{
		customers: customers,
		tickets:   tickets,
		deals:     deals,
		campaigns: campaigns,
	}
}

// Summary aggregates every collection concurrently and formats amounts in currency.
func (uc *DashboardUsecase) Summary(ctx context.Context, currency string) (Dashboard, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.Usecase.Summary")
	defer span.End()

	if _, ok := domain.LookupCurrency(currency); !ok {
		currency = domain.DefaultCurrency
	}
	d := Dashboard{Currency: currency}
	var revenue float64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		customers, err := uc.customers.List(ctx)
		if err != nil {
			return err
		}
		d.Customers = len(customers)
		for _, c := range customers {
			if c.Status == domain.CustomerActive {
				d.ActiveCustomers++
			}
			revenue += c.Spent
		}
		return nil
	})
	g.Go(func() error {
		tickets, err := uc.tickets.List(ctx)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if t.Status == domain.TicketOpen || t.Status == domain.TicketInProgress {
				d.OpenTickets++
			}
		}
		return nil
	})
	g.Go(func() error {
		deals, err := uc.deals.List(ctx)
		if err != nil {
			return err
		}
		for _, deal := range deals {
			if deal.Stage != domain.StageClosed {
				d.OpenDeals++
				d.PipelineValue += deal.Value
			}
		}
		return nil
	})
	g.Go(func() error {
		campaigns, err := uc.campaigns.List(ctx)
		if err != nil {
			return err
		}
		d.Campaigns = TotalCampaigns(campaigns)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.PipelineValueText = domain.FormatAmount(currency, d.PipelineValue)
	d.RevenueText = domain.FormatAmount(currency, revenue)
	d.CampaignSpentText = domain.FormatAmount(currency, d.Campaigns.TotalSpent)
	return d, nil
}

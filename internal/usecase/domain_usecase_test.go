package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robtrove/TroveCRM/internal/domain"
)

func TestMoveDealToProposalSetsProgress(t *testing.T) {
	for _, prior := range []int{0, 20, 90, 100} {
		store := newMemStore(domain.DealSchema, domain.Deal{
			ID: "d1", Title: "Renewal", Company: "Acme", Value: 500,
			Stage: domain.StageQualified, Progress: prior, CreatedAt: time.Now().UTC(),
		})
		uc := NewPipelineUsecase(store)

		deal, err := uc.MoveDeal(context.Background(), "d1", domain.StageProposal)
		require.NoError(t, err)
		assert.Equal(t, domain.StageProposal, deal.Stage)
		assert.Equal(t, 75, deal.Progress)
	}
}

func TestMoveDealAnyDirection(t *testing.T) {
	store := newMemStore(domain.DealSchema, domain.Deal{ID: "d1", Title: "t", Company: "c", Stage: domain.StageClosed, Progress: 100})
	uc := NewPipelineUsecase(store)

	deal, err := uc.MoveDeal(context.Background(), "d1", domain.StageQualified)
	require.NoError(t, err)
	assert.Equal(t, 20, deal.Progress)

	_, err = uc.MoveDeal(context.Background(), "d1", "won")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.MoveDeal(context.Background(), "missing", domain.StageClosed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPipelineSummary(t *testing.T) {
	store := newMemStore(domain.DealSchema,
		domain.Deal{ID: "1", Stage: domain.StageProposal, Value: 100},
		domain.Deal{ID: "2", Stage: domain.StageProposal, Value: 50},
		domain.Deal{ID: "3", Stage: domain.StageClosed, Value: 10},
	)
	summary, err := NewPipelineUsecase(store).Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, len(domain.Stages))
	assert.Equal(t, domain.StageQualified, summary[0].ID)
	assert.Equal(t, 2, summary[3].Count)
	assert.Equal(t, 150.0, summary[3].Total)
	assert.Equal(t, 1, summary[5].Count)
}

func TestCampaignTotals(t *testing.T) {
	totals := TotalCampaigns([]domain.Campaign{
		{Type: domain.CampaignEmail, Status: domain.CampaignActive, Spent: 100, Budget: 200, Metrics: domain.CampaignMetrics{Sent: 1000, Converted: 10}},
		{Type: domain.CampaignSocial, Status: domain.CampaignCompleted, Spent: 50, Budget: 60, Metrics: domain.CampaignMetrics{Sent: 500, Converted: 5}},
	})
	assert.Equal(t, 2, totals.Campaigns)
	assert.Equal(t, 1, totals.Active)
	assert.Equal(t, 1000, totals.EmailsSent)
	assert.Equal(t, 15, totals.Conversions)
	assert.Equal(t, 150.0, totals.TotalSpent)
	assert.Equal(t, 260.0, totals.TotalBudget)
}

func TestTicketStatusAndComments(t *testing.T) {
	store := newMemStore(domain.TicketSchema, domain.Ticket{
		ID: "t1", Title: "Login broken", Description: "...", Category: "auth",
		Status: domain.TicketOpen, Priority: domain.PriorityHigh, Comments: []domain.Comment{},
	})
	uc := NewTicketUsecase(store)
	ctx := context.Background()

	tk, err := uc.SetStatus(ctx, "t1", domain.TicketInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketInProgress, tk.Status)

	_, err = uc.SetStatus(ctx, "t1", "stuck")
	assert.ErrorIs(t, err, domain.ErrValidation)

	tk, err = uc.AddComment(ctx, "t1", "sam", "Looking into it")
	require.NoError(t, err)
	tk, err = uc.AddComment(ctx, "t1", "sam", "Fixed")
	require.NoError(t, err)
	require.Len(t, tk.Comments, 2)
	assert.Equal(t, "Looking into it", tk.Comments[0].Content)
	assert.NotEmpty(t, tk.Comments[1].ID)
	assert.NotEqual(t, tk.Comments[0].ID, tk.Comments[1].ID)

	_, err = uc.AddComment(ctx, "t1", "sam", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDashboardSummary(t *testing.T) {
	customers := newMemStore(domain.CustomerSchema,
		domain.Customer{ID: "1", Status: domain.CustomerActive, Spent: 100},
		domain.Customer{ID: "2", Status: domain.CustomerInactive, Spent: 50},
	)
	tickets := newMemStore(domain.TicketSchema,
		domain.Ticket{ID: "1", Status: domain.TicketOpen},
		domain.Ticket{ID: "2", Status: domain.TicketInProgress},
		domain.Ticket{ID: "3", Status: domain.TicketClosed},
	)
	deals := newMemStore(domain.DealSchema,
		domain.Deal{ID: "1", Stage: domain.StageProposal, Value: 400},
		domain.Deal{ID: "2", Stage: domain.StageClosed, Value: 1000},
	)
	campaigns := newMemStore(domain.CampaignSchema,
		domain.Campaign{ID: "1", Type: domain.CampaignEmail, Spent: 20, Metrics: domain.CampaignMetrics{Sent: 10}},
	)
	uc := NewDashboardUsecase(customers, tickets, deals, campaigns)

	d, err := uc.Summary(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Customers)
	assert.Equal(t, 1, d.ActiveCustomers)
	assert.Equal(t, 2, d.OpenTickets)
	assert.Equal(t, 1, d.OpenDeals)
	assert.Equal(t, 400.0, d.PipelineValue)
	assert.Equal(t, "€364.00", d.PipelineValueText)
	assert.Equal(t, 10, d.Campaigns.EmailsSent)

	deals.listFn = func(ctx context.Context) ([]domain.Deal, error) {
		return nil, domain.PersistenceError{Op: "list deals", Err: errors.New("down")}
	}
	_, err = uc.Summary(context.Background(), "USD")
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

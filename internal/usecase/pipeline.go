package usecase

import (
	"context"

	"github.com/robtrove/TroveCRM/internal/domain"
)

type PipelineUsecase struct {
	deals EntityStore[domain.Deal]
}

func NewPipelineUsecase(deals EntityStore[domain.Deal]) *PipelineUsecase {
	return &PipelineUsecase{deals: deals}
}

// MoveDeal moves a deal to any stage and sets its progress to the stage's value.
func (uc *PipelineUsecase) MoveDeal(ctx context.Context, id, stage string) (domain.Deal, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.Usecase.MoveDeal")
	defer span.End()

	st, ok := domain.LookupStage(stage)
	if !ok {
		return domain.Deal{}, domain.ValidationError{Field: "stage", Message: "unknown stage " + stage}
	}
	return uc.deals.Update(ctx, id, domain.Fields{
		"stage":    st.ID,
		"progress": st.Progress,
	})
}

// Summary returns deal count and total value per stage in board order.
func (uc *PipelineUsecase) Summary(ctx context.Context) ([]domain.StageSummary, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.Usecase.Summary")
	defer span.End()

	deals, err := uc.deals.List(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeStages(deals), nil
}

func SummarizeStages(deals []domain.Deal) []domain.StageSummary {
	out := make([]domain.StageSummary, len(domain.Stages))
	index := map[string]int{}
	for i, st := range domain.Stages {
		out[i] = domain.StageSummary{Stage: st}
		index[st.ID] = i
	}
	for _, d := range deals {
		i, ok := index[d.Stage]
		if !ok {
			continue
		}
		out[i].Count++
		out[i].Total += d.Value
	}
	return out
}

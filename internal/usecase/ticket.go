package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robtrove/TroveCRM/internal/domain"
)

type TicketUsecase struct {
	tickets EntityStore[domain.Ticket]
}

func NewTicketUsecase(tickets EntityStore[domain.Ticket]) *TicketUsecase {
	return &TicketUsecase{tickets: tickets}
}

func (uc *TicketUsecase) SetStatus(ctx context.Context, id, status string) (domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Ticket.Usecase.SetStatus")
	defer span.End()

	if !domain.ValidTicketStatus(status) {
		return domain.Ticket{}, domain.ValidationError{Field: "status", Message: "unknown status " + status}
	}
	return uc.tickets.Update(ctx, id, domain.Fields{"status": status})
}

// AddComment appends a comment to the stored comment list of a ticket.
func (uc *TicketUsecase) AddComment(ctx context.Context, id, author, content string) (domain.Ticket, error) {
	ctx, span := tracer.Start(ctx, "Ticket.Usecase.AddComment")
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return domain.Ticket{}, domain.ValidationError{Field: "content", Message: "required"}
	}
	if strings.TrimSpace(author) == "" {
		return domain.Ticket{}, domain.ValidationError{Field: "author", Message: "required"}
	}

	ticket, err := uc.tickets.Get(ctx, id)
	if err != nil {
		return domain.Ticket{}, err
	}

	comments := append(append([]domain.Comment{}, ticket.Comments...), domain.Comment{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	})
	return uc.tickets.Update(ctx, id, domain.Fields{"comments": comments})
}

package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/listview"
)

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	chans  []string
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, event domain.ChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chans = append(m.chans, channel)
	m.events = append(m.events, event)
	return m.err
}

func TestEntityServicePublishesChanges(t *testing.T) {
	store := newMemStore[domain.Deal](domain.DealSchema)
	pub := &mockPublisher{}
	svc := NewEntityService[domain.Deal](store, domain.DealSchema, pub, nil)

	ctx := context.WithValue(context.Background(), domain.RequesterIdCtxKey, "user-1")
	deal, err := svc.Create(ctx, domain.Fields{"title": "Renewal", "company": "Acme", "value": 1000})
	require.NoError(t, err)
	assert.Equal(t, domain.StageQualified, deal.Stage)

	_, err = svc.Update(ctx, deal.ID, domain.Fields{"value": 1500})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, deal.ID))

	require.Len(t, pub.events, 3)
	assert.Equal(t, []string{"crm:deals", "crm:deals", "crm:deals"}, pub.chans)
	assert.Equal(t, domain.ChangeCreated, pub.events[0].Type)
	assert.Equal(t, domain.ChangeUpdated, pub.events[1].Type)
	assert.Equal(t, domain.ChangeDeleted, pub.events[2].Type)
	assert.Equal(t, "user-1", pub.events[0].Actor)
}

func TestEntityServiceFailedMutationPublishesNothing(t *testing.T) {
	store := newMemStore[domain.Deal](domain.DealSchema)
	pub := &mockPublisher{}
	svc := NewEntityService[domain.Deal](store, domain.DealSchema, pub, nil)

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, pub.events)
}

func TestEntityServicePublishFailureIsNotFatal(t *testing.T) {
	store := newMemStore[domain.Article](domain.ArticleSchema)
	svc := NewEntityService[domain.Article](store, domain.ArticleSchema, &mockPublisher{err: errors.New("redis down")}, nil)

	_, err := svc.Create(context.Background(), domain.Fields{"title": "FAQ", "content": "...", "category": "general"})
	assert.NoError(t, err)
}

func TestEntityServiceBulkDelete(t *testing.T) {
	store := newMemStore(domain.CustomerSchema, customer("1", "A", "active"), customer("2", "B", "active"))
	svc := NewEntityService[domain.Customer](store, domain.CustomerSchema, nil, nil)

	outcomes := svc.BulkDelete(context.Background(), []string{"1", "9", "2"})
	require.Len(t, outcomes, 3)
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, domain.ErrNotFound)
	assert.NoError(t, outcomes[2].Err)

	left, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestEntityServiceQueryAndExport(t *testing.T) {
	store := newMemStore(domain.CustomerSchema,
		customer("1", "Alice Freeman", "active"),
		customer("2", "Bob Smith", "inactive"),
	)
	svc := NewEntityService[domain.Customer](store, domain.CustomerSchema, nil, nil)
	q := listview.Query{Equals: map[string]string{"status": "active"}}

	got, err := svc.Query(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, listview.IDs(got))

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), q, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "Alice Freeman,"))
}

package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/listview"
	"github.com/robtrove/TroveCRM/internal/usecase"
)

// RemoteStore is an entity store backed by the table API of one collection.
type RemoteStore[T domain.Record] struct {
	client     *Client
	collection string
	query      url.Values
}

func NewRemoteStore[T domain.Record](c *Client, collection string) *RemoteStore[T] {
	return &RemoteStore[T]{client: c, collection: collection}
}

// WithQuery returns a store whose List applies q on the server.
func (s *RemoteStore[T]) WithQuery(q listview.Query) *RemoteStore[T] {
	return &RemoteStore[T]{client: s.client, collection: s.collection, query: q.Values()}
}

func (s *RemoteStore[T]) path(id string) string {
	p := apiPrefix + "/" + s.collection
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (s *RemoteStore[T]) List(ctx context.Context) ([]T, error) {
	path := s.path("")
	if len(s.query) > 0 {
		path += "?" + s.query.Encode()
	}
	records := []T{}
	if err := s.client.HttpRequest(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (s *RemoteStore[T]) Get(ctx context.Context, id string) (T, error) {
	var record T
	err := s.client.HttpRequest(ctx, http.MethodGet, s.path(id), nil, &record)
	return record, err
}

func (s *RemoteStore[T]) Create(ctx context.Context, draft domain.Fields) (T, error) {
	var record T
	err := s.client.HttpRequest(ctx, http.MethodPost, s.path(""), draft, &record)
	return record, err
}

func (s *RemoteStore[T]) Update(ctx context.Context, id string, patch domain.Fields) (T, error) {
	var record T
	err := s.client.HttpRequest(ctx, http.MethodPatch, s.path(id), patch, &record)
	return record, err
}

func (s *RemoteStore[T]) Delete(ctx context.Context, id string) error {
	return s.client.HttpRequest(ctx, http.MethodDelete, s.path(id), nil, nil)
}

var _ usecase.EntityStore[domain.Customer] = (*RemoteStore[domain.Customer])(nil)

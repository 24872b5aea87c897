package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/interface/rest/middleware"
	"github.com/robtrove/TroveCRM/internal/interface/rest/presenter"
	"github.com/robtrove/TroveCRM/internal/listview"
	"github.com/robtrove/TroveCRM/internal/policy"
	"github.com/robtrove/TroveCRM/internal/usecase"
)

// collectionHandler serves the table API of one entity collection.
type collectionHandler[T domain.Record] struct {
	service *usecase.EntityService[T]
}

type routeRegistrar interface {
	register(g *echo.Group, auth *middleware.AuthMiddleware)
}

func (h collectionHandler[T]) register(g *echo.Group, auth *middleware.AuthMiddleware) {
	resource := h.service.Schema().Collection
	read := auth.Authorize(resource, policy.ActionRead)

	g.GET("", h.handleList, read)
	g.GET("/export.csv", h.handleExport, read)
	g.GET("/:id", h.handleGet, read)
	g.POST("", h.handleCreate, auth.Authorize(resource, policy.ActionCreate))
	g.PATCH("/:id", h.handleUpdate, auth.Authorize(resource, policy.ActionUpdate))
	g.DELETE("/:id", h.handleDelete, auth.Authorize(resource, policy.ActionDelete))
	g.POST("/bulk-delete", h.handleBulkDelete, auth.Authorize(resource, policy.ActionDelete))
}

func (h collectionHandler[T]) handleList(c echo.Context) error {
	ctx := c.Request().Context()

	q, err := listview.ParseQuery(c.QueryParams(), h.service.Schema())
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	records, err := h.service.Query(ctx, q)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Tagged(c, records)
}

func (h collectionHandler[T]) handleGet(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, record)
}

func (h collectionHandler[T]) handleCreate(c echo.Context) error {
	ctx := c.Request().Context()

	var draft domain.Fields
	if err := decodeBody(c, &draft); err != nil {
		return presenter.BadRequest(c, err)
	}

	record, err := h.service.Create(ctx, draft)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, record)
}

func (h collectionHandler[T]) handleUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	var patch domain.Fields
	if err := decodeBody(c, &patch); err != nil {
		return presenter.BadRequest(c, err)
	}

	record, err := h.service.Update(ctx, c.Param("id"), patch)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, record)
}

func (h collectionHandler[T]) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.service.Delete(ctx, c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type bulkDeleteResult struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
	// Status is the code a single DELETE of this id would have returned.
	Status int `json:"status"`
}

type bulkDeleteResponse struct {
	Deleted int                `json:"deleted"`
	Failed  int                `json:"failed"`
	Results []bulkDeleteResult `json:"results"`
}

func (h collectionHandler[T]) handleBulkDelete(c echo.Context) error {
	ctx := c.Request().Context()

	var req bulkDeleteRequest
	if err := decodeBody(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if len(req.IDs) == 0 {
		return presenter.BadRequest(c, domain.ValidationError{Field: "ids", Message: "at least one id is required"})
	}

	outcomes := h.service.BulkDelete(ctx, req.IDs)
	resp := bulkDeleteResponse{Results: make([]bulkDeleteResult, 0, len(outcomes))}
	for _, o := range outcomes {
		r := bulkDeleteResult{ID: o.ID, Status: http.StatusNoContent}
		if o.Err != nil {
			r.Error = o.Err.Error()
			r.Status = presenter.Status(o.Err)
			resp.Failed++
		} else {
			resp.Deleted++
		}
		resp.Results = append(resp.Results, r)
	}
	return presenter.OK(c, resp)
}

func (h collectionHandler[T]) handleExport(c echo.Context) error {
	ctx := c.Request().Context()
	schema := h.service.Schema()

	q, err := listview.ParseQuery(c.QueryParams(), schema)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	var buf bytes.Buffer
	if err := h.service.Export(ctx, q, &buf); err != nil {
		return presenter.Error(c, err)
	}

	filename := fmt.Sprintf("%s-%s.csv", schema.Collection, time.Now().UTC().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().Header().Set("ETag", presenter.ETag(buf.Bytes()))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// decodeBody reads a JSON request body. echo's binder is not used because it
// merges path parameters into map destinations.
func decodeBody(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(dst); err != nil {
		return domain.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

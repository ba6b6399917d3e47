package handlers

import (
	"context"
	"net/http"

	"ecopulse-analytics-api/models"
	"ecopulse-analytics-api/services"
	"ecopulse-analytics-api/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// DocumentStore is a collection addressed by record id.
type DocumentStore interface {
	Name() string
	List(ctx context.Context, filter bson.M, page store.Page) ([]bson.M, error)
	Get(ctx context.Context, id string) (bson.M, error)
	Create(ctx context.Context, doc bson.M) (string, error)
	Update(ctx context.Context, id string, fields bson.M) error
	Delete(ctx context.Context, id string) error
}

// FilterFunc builds a list filter from query parameters.
type FilterFunc func(c *gin.Context) (bson.M, error)

// DocumentHandler serves CRUD routes for one collection.
type DocumentHandler struct {
	docs   DocumentStore
	filter FilterFunc
	label  string
	events notifier
}

func NewDocumentHandler(docs DocumentStore, label string, filter FilterFunc, cache *services.CacheService, invalidates ...string) *DocumentHandler {
	return &DocumentHandler{
		docs:   docs,
		filter: filter,
		label:  label,
		events: notifier{cache: cache, prefixes: invalidates},
	}
}

// PeerRecordFilter matches startYear and endYear against year or Year.
// Both must be given for the range to apply.
func PeerRecordFilter(c *gin.Context) (bson.M, error) {
	start, err := queryInt(c, "startYear")
	if err != nil {
		return nil, err
	}
	end, err := queryInt(c, "endYear")
	if err != nil {
		return nil, err
	}
	if start == 0 || end == 0 {
		return bson.M{}, nil
	}
	return store.YearRangeFilter(start, end), nil
}

// RecommendationFilter matches an exact Year.
func RecommendationFilter(c *gin.Context) (bson.M, error) {
	year, err := queryInt(c, "year")
	if err != nil {
		return nil, err
	}
	if year == 0 {
		return bson.M{}, nil
	}
	return bson.M{models.FieldYear: year}, nil
}

func (h *DocumentHandler) List(c *gin.Context) {
	filter := bson.M{}
	if h.filter != nil {
		var err error
		if filter, err = h.filter(c); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	p := ParsePagination(c)
	page := store.Page{Before: p.Before}
	if p.Enabled {
		page.Limit = int64(p.Limit + 1)
	}
	docs, err := h.docs.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, "list "+h.docs.Name(), err)
		return
	}
	if docs == nil {
		docs = []bson.M{}
	}

	if !p.Enabled {
		c.JSON(http.StatusOK, gin.H{"status": "success", "records": docs})
		return
	}

	hasMore := len(docs) > p.Limit
	if hasMore {
		docs = docs[:p.Limit]
	}
	var nextCursor string
	if hasMore && len(docs) > 0 {
		nextCursor, _ = docs[len(docs)-1]["_id"].(string)
	}
	c.JSON(http.StatusOK, CursorResponse{Status: "success", Records: docs, NextCursor: nextCursor, HasMore: hasMore})
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var body bson.M
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := h.docs.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, "create "+h.docs.Name(), err)
		return
	}
	h.events.changed(h.docs.Name(), models.EventCreated, id)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": h.label + " created successfully", "id": id})
}

// Insert serves the legacy insert route, which reports no id.
func (h *DocumentHandler) Insert(c *gin.Context) {
	var body bson.M
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := h.docs.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, "insert "+h.docs.Name(), err)
		return
	}
	h.events.changed(h.docs.Name(), models.EventCreated, id)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Data inserted successfully"})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.docs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "record": doc})
}

func (h *DocumentHandler) Update(c *gin.Context) {
	var body bson.M
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := c.Param("id")
	if err := h.docs.Update(c.Request.Context(), id, body); err != nil {
		h.fail(c, "update", err)
		return
	}
	h.events.changed(h.docs.Name(), models.EventUpdated, id)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": h.label + " updated successfully"})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.docs.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete", err)
		return
	}
	h.events.changed(h.docs.Name(), models.EventDeleted, id)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": h.label + " deleted successfully"})
}

func (h *DocumentHandler) fail(c *gin.Context, op string, err error) {
	respondLookupError(c, h.label, op+" "+h.docs.Name(), err)
}

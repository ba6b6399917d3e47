package handlers

import (
	"context"
	"net/http"
	"strconv"

	"ecopulse-analytics-api/models"
	"ecopulse-analytics-api/services"
	"ecopulse-analytics-api/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// RecordStore is the national record collection.
type RecordStore interface {
	Create(ctx context.Context, doc bson.M) (string, error)
	UpdateByYear(ctx context.Context, year int, update bson.M) (bson.M, error)
	SetDeleted(ctx context.Context, year int, deleted bool) error
}

type RecordsHandler struct {
	records RecordStore
	events  notifier
}

func NewRecordsHandler(records RecordStore, cache *services.CacheService) *RecordsHandler {
	return &RecordsHandler{
		records: records,
		events:  notifier{cache: cache, prefixes: []string{nationalCachePrefix}},
	}
}

// Create serves POST /create/.
func (h *RecordsHandler) Create(c *gin.Context) {
	var body bson.M
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, ok := body[models.FieldYear]; !ok {
		badRequest(c, "Year is required")
		return
	}
	id, err := h.records.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, "create record", err)
		return
	}
	h.events.changed(store.RecordsCollection, models.EventCreated, id)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Data inserted successfully"})
}

// Update serves PUT /update/:year/.
func (h *RecordsHandler) Update(c *gin.Context) {
	year, ok := pathYear(c)
	if !ok {
		return
	}
	var body bson.M
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := h.records.UpdateByYear(c.Request.Context(), year, body); err != nil {
		respondLookupError(c, "Record", "update record", err)
		return
	}
	h.events.changed(store.RecordsCollection, models.EventUpdated, strconv.Itoa(year))
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Record updated successfully"})
}

// Delete serves DELETE /delete/:year/ as a soft delete.
func (h *RecordsHandler) Delete(c *gin.Context) {
	h.setDeleted(c, true, models.EventDeleted, "Record soft deleted successfully")
}

// Recover serves PUT /recover/:year/.
func (h *RecordsHandler) Recover(c *gin.Context) {
	h.setDeleted(c, false, models.EventRecovered, "Record recovered successfully")
}

func (h *RecordsHandler) setDeleted(c *gin.Context, deleted bool, event, message string) {
	year, ok := pathYear(c)
	if !ok {
		return
	}
	if err := h.records.SetDeleted(c.Request.Context(), year, deleted); err != nil {
		respondLookupError(c, "Record", event+" record", err)
		return
	}
	h.events.changed(store.RecordsCollection, event, strconv.Itoa(year))
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": message})
}

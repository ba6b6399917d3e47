package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/store"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, forecast.ErrModelNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s failed: %v", op, err)
	}
	c.JSON(status, gin.H{"status": "error", "message": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": message})
}

// queryInt reads an optional integer query parameter, 0 when absent.
func queryInt(c *gin.Context, key string) (int, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter, must be an integer", key)
	}
	return v, nil
}

func pathYear(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		badRequest(c, "invalid year in path")
		return 0, false
	}
	return year, true
}

// respondLookupError reports a missing document as "<label> not found".
func respondLookupError(c *gin.Context, label, op string, err error) {
	if statusFor(err) == http.StatusNotFound {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": label + " not found"})
		return
	}
	respondError(c, op, err)
}

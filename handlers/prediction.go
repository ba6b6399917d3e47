package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/peer"
	"ecopulse-analytics-api/services"

	"github.com/gin-gonic/gin"
)

const (
	nationalCachePrefix = services.NationalForecastPrefix
	peerCachePrefix     = "peer:"
	forecastCacheTTL    = 60 * time.Second
)

type PredictionHandler struct {
	analytics *services.Analytics
	cache     *services.CacheService
}

func NewPredictionHandler(analytics *services.Analytics, cache *services.CacheService) *PredictionHandler {
	return &PredictionHandler{analytics: analytics, cache: cache}
}

type nationalResponse struct {
	Status      string           `json:"status"`
	Target      string           `json:"target"`
	Predictions []map[string]any `json:"predictions"`
}

type peerRow struct {
	Year       int     `json:"Year"`
	Place      string  `json:"Place"`
	EnergyType string  `json:"Energy Type"`
	Value      float64 `json:"Predicted Value"`
}

type peerResponse struct {
	Status      string    `json:"status"`
	Predictions []peerRow `json:"predictions"`
}

// GetNational serves /predictions/:target/?start_year&end_year.
func (h *PredictionHandler) GetNational(c *gin.Context) {
	target := c.Param("target")
	start, err := queryInt(c, "start_year")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	end, err := queryInt(c, "end_year")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	start, end = forecast.ClampRange(start, end)

	cacheKey := fmt.Sprintf("%s%s:%d:%d", nationalCachePrefix, strings.ToLower(target), start, end)
	var cached nationalResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Predictions != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	_, rows, err := h.analytics.NationalForecast(c.Request.Context(), target, start, end)
	if err != nil {
		respondError(c, "national forecast", err)
		return
	}

	resp := nationalResponse{Status: "success", Target: target, Predictions: make([]map[string]any, 0, len(rows))}
	for _, r := range rows {
		out := map[string]any{
			"Year":                 r.Year,
			"Predicted Production": r.Predicted,
			"isPredicted":          !r.IsActual,
		}
		for name, v := range r.Features {
			out[name] = v
		}
		resp.Predictions = append(resp.Predictions, out)
	}
	go h.cache.Set(context.Background(), cacheKey, resp, forecastCacheTTL)

	c.JSON(http.StatusOK, resp)
}

// GetPeer serves /peertopeer/?start_year&end_year. A bare year is taken as
// the start year.
func (h *PredictionHandler) GetPeer(c *gin.Context) {
	start, err := queryInt(c, "start_year")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if start == 0 {
		if start, err = queryInt(c, "year"); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	end, err := queryInt(c, "end_year")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if start == 0 {
		start = peer.DefaultYear
	}
	if end == 0 {
		end = peer.DefaultYear
	}
	if end < start {
		end = start
	}

	cacheKey := fmt.Sprintf("%s%d:%d", peerCachePrefix, start, end)
	var cached peerResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Predictions != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	records, err := h.analytics.PeerForecast(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, "peer forecast", err)
		return
	}

	resp := peerResponse{Status: "success", Predictions: make([]peerRow, len(records))}
	for i, r := range records {
		resp.Predictions[i] = peerRow{Year: r.Year, Place: r.Place, EnergyType: r.EnergyType, Value: r.Value}
	}
	go h.cache.Set(context.Background(), cacheKey, resp, forecastCacheTTL)

	c.JSON(http.StatusOK, resp)
}

package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"ecopulse-analytics-api/recommend"
	"ecopulse-analytics-api/services"

	"github.com/gin-gonic/gin"
)

const recommendCachePrefix = "recommend:"

type RecommendationHandler struct {
	analytics *services.Analytics
	cache     *services.CacheService
}

func NewRecommendationHandler(analytics *services.Analytics, cache *services.CacheService) *RecommendationHandler {
	return &RecommendationHandler{analytics: analytics, cache: cache}
}

type FutureProjections struct {
	Year     int    `json:"year"`
	Title    string `json:"title"`
	Rate     string `json:"Predicted MERALCO Rate"`
	Capacity string `json:"Installable Solar Capacity"`
}

type LineItem struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

type Report struct {
	FutureProjections   FutureProjections `json:"future_projections"`
	CostBenefitAnalysis []LineItem        `json:"cost_benefit_analysis"`
}

type recommendationResponse struct {
	Status          string  `json:"status"`
	Recommendations *Report `json:"recommendations"`
}

// NewReport formats a recommendation for display.
func NewReport(r recommend.Recommendation) *Report {
	roi := fmt.Sprintf("%.2f years", r.ROIYears)
	if math.IsInf(r.ROIYears, 1) {
		roi = "inf years"
	}
	return &Report{
		FutureProjections: FutureProjections{
			Year:     r.Year,
			Title:    "Solar Investment Projections",
			Rate:     fmt.Sprintf("PHP %.2f per kWh", r.Rate),
			Capacity: fmt.Sprintf("%.2f kW", r.CapacityKW),
		},
		CostBenefitAnalysis: []LineItem{
			{
				Label:       "Estimated Yearly Energy Production",
				Value:       fmt.Sprintf("%.2f kWh", r.YearlyProductionKWh),
				Icon:        "energy",
				Description: "Total energy production per year",
			},
			{
				Label:       "Estimated Yearly Savings",
				Value:       fmt.Sprintf("PHP %.2f", r.YearlySavings),
				Icon:        "savings",
				Description: "Total savings per year",
			},
			{
				Label:       "Estimated ROI (Payback Period)",
				Value:       roi,
				Icon:        "roi",
				Description: "Return on investment period",
			},
		},
	}
}

// GetSolar serves /solar_recommendations/?year&budget.
func (h *RecommendationHandler) GetSolar(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if year == 0 {
		year = recommend.DefaultYear
	}
	budget := 0.0
	if s := c.Query("budget"); s != "" {
		if budget, err = strconv.ParseFloat(s, 64); err != nil || math.IsNaN(budget) || math.IsInf(budget, 0) {
			badRequest(c, "invalid budget parameter, must be a number")
			return
		}
	}

	cacheKey := fmt.Sprintf("%s%d:%g", recommendCachePrefix, year, budget)
	var cached recommendationResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Recommendations != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	r, err := h.analytics.Recommend(c.Request.Context(), year, budget)
	if err != nil {
		respondError(c, "solar recommendation", err)
		return
	}

	resp := recommendationResponse{Status: "success", Recommendations: NewReport(r)}
	go h.cache.Set(context.Background(), cacheKey, resp, 5*time.Minute)

	c.JSON(http.StatusOK, resp)
}

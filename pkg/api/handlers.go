package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "risk-analyzer",
		"timestamp": time.Now().Format(time.RFC3339),
		"portfolio": gin.H{
			"totalValue":    s.portfolio.TotalValue(),
			"positionCount": s.portfolio.PositionCount(),
		},
	})
}

func (s *Server) handleGetPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, s.portfolio.Snapshot())
}

func (s *Server) handleGetPositions(c *gin.Context) {
	n := 5
	if raw := c.Query("largest"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"positions":        s.portfolio.Positions(),
		"largestPositions": s.portfolio.LargestPositions(n),
		"sectorExposure":   s.portfolio.SectorExposure(),
	})
}

type updatePortfolioRequest struct {
	Cash      *float64 `json:"cash"`
	Positions []struct {
		Symbol   string  `json:"symbol" binding:"required"`
		Quantity float64 `json:"quantity"`
		AvgPrice float64 `json:"avgPrice"`
		Sector   string  `json:"sector"`
	} `json:"positions"`
}

// handleUpdatePortfolio replaces the live portfolio's positions and/or
// cash, then persists the new snapshot. This is the only mutation path
// besides the monitoring loop. The rebuild is a single atomic swap, so
// a tick firing mid-update never checks limits against a half-applied
// portfolio.
func (s *Server) handleUpdatePortfolio(c *gin.Context) {
	var req updatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch {
	case req.Positions != nil:
		cash := s.portfolio.Cash()
		if req.Cash != nil {
			cash = *req.Cash
		}
		positions := make([]models.Position, 0, len(req.Positions))
		for _, pos := range req.Positions {
			positions = append(positions, models.Position{
				Symbol:   pos.Symbol,
				Quantity: pos.Quantity,
				AvgPrice: pos.AvgPrice,
				Sector:   pos.Sector,
			})
		}
		if err := s.portfolio.Replace(cash, positions); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	case req.Cash != nil:
		s.portfolio.SetCash(*req.Cash)
	}

	if err := s.store.SaveSnapshot(c.Request.Context(), s.portfolio.Snapshot()); err != nil {
		s.log.Errorf("Failed to persist portfolio after update: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "updated",
		"portfolio": s.portfolio.Snapshot(),
	})
}

type checkRiskRequest struct {
	Allocation       float64                   `json:"allocation"`
	CurrentPortfolio *models.PortfolioSnapshot `json:"current_portfolio"`
}

// handleCheckRisk runs the limit checks against either the live
// portfolio or a caller-supplied snapshot.
func (s *Server) handleCheckRisk(c *gin.Context) {
	var req checkRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := s.portfolio
	if req.CurrentPortfolio != nil {
		target = models.FromSnapshot(req.CurrentPortfolio)
	}

	violations := s.monitor.CheckRiskLimits(target)
	resp := gin.H{
		"approved":   len(violations) == 0,
		"violations": violations,
	}
	if len(violations) > 0 {
		resp["reason"] = violations[0].Message
		resp["suggested_allocation"] = req.Allocation * 0.8
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEvaluateTrade(c *gin.Context) {
	var trade models.Trade
	if err := c.ShouldBindJSON(&trade); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evaluation, err := s.monitor.EvaluateNewTrade(c.Request.Context(), trade, s.portfolio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, evaluation)
}

func (s *Server) handleRiskReport(c *gin.Context) {
	report := s.monitor.GenerateRiskReport(c.Request.Context(), s.portfolio)

	if err := s.store.SaveReport(c.Request.Context(), report); err != nil {
		s.log.Errorf("Failed to cache risk report: %v", err)
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleRiskLimits(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.Limits())
}

func (s *Server) handleRiskMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now().Format(time.RFC3339),
		"metrics":   s.monitor.PortfolioRisk(c.Request.Context(), s.portfolio),
		"alerts":    s.monitor.ActiveAlerts(),
	})
}

type stressTestRequest struct {
	Scenario *models.StressScenario `json:"scenario" binding:"required"`
}

func (s *Server) handleStressTest(c *gin.Context) {
	var req stressTestRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Scenario == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scenario required"})
		return
	}

	result := s.calc.StressTest(s.portfolio, *req.Scenario, s.monitor.Limits().MaxDrawdown)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleStressScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scenarios":   s.monitor.Scenarios(),
		"description": "Available stress test scenarios",
	})
}

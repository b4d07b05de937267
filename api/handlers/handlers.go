package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kalsim-labs/kalsim/core"
	"github.com/kalsim-labs/kalsim/market"
)

// Runner is the slice of the simulation manager the HTTP layer needs.
type Runner interface {
	Start(cfg core.SimulationConfig) (string, error)
	Stop() bool
	State() core.RunSnapshot
	Results() (core.RunArtifact, error)
}

// Handlers bundles the collaborators behind the HTTP surface.
type Handlers struct {
	Runner       Runner
	TrendFetcher market.TrendFetcher
}

func New(runner Runner, trendFetcher market.TrendFetcher) *Handlers {
	return &Handlers{Runner: runner, TrendFetcher: trendFetcher}
}

// StartSimulation - Kicks off a new run in the background
func (h *Handlers) StartSimulation(c *gin.Context) {
	var cfg core.SimulationConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid simulation config"})
		return
	}

	runID, err := h.Runner.Start(cfg)
	if err != nil {
		var cfgErr *core.ConfigValidationError
		switch {
		case errors.Is(err, core.ErrRunConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "A simulation is already running"})
		case errors.As(err, &cfgErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": cfgErr.Error(), "field": cfgErr.Field})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Simulation started",
		"run_id":      runID,
		"total_steps": cfg.TotalSteps(),
	})
}

// StopSimulation - Requests a cooperative stop at the next step boundary
func (h *Handlers) StopSimulation(c *gin.Context) {
	if !h.Runner.Stop() {
		c.JSON(http.StatusOK, gin.H{"message": "No simulation running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stop requested"})
}

// GetSimulationState - Returns the latest run snapshot
func (h *Handlers) GetSimulationState(c *gin.Context) {
	c.JSON(http.StatusOK, h.Runner.State())
}

// GetResultsStats - Returns the aggregate of the most recent finished run
func (h *Handlers) GetResultsStats(c *gin.Context) {
	artifact, err := h.Runner.Results()
	if err != nil {
		if errors.Is(err, core.ErrNoResults) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No simulation results available"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":     artifact.RunID,
		"status":     artifact.Status,
		"summary":    artifact.Summary,
		"chart_data": artifact.ChartData,
	})
}

// GetMarketTrend - Fetches the live market trend seed for a topic
func (h *Handlers) GetMarketTrend(c *gin.Context) {
	topic := c.Query("topic")
	if topic == "" {
		topic = "prediction markets"
	}

	seed, err := market.SeedTrend(h.TrendFetcher, topic)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"topic":      seed.Topic,
			"base_price": seed.BasePrice,
			"headlines":  seed.Headlines,
			"warning":    "trend lookup failed, returning neutral defaults",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topic":      seed.Topic,
		"base_price": seed.BasePrice,
		"headlines":  seed.Headlines,
	})
}

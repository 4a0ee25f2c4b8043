package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// The last twelve months of the dataset as captured.
const (
	WindowStart = "2016-08-23"
	WindowEnd   = "2017-08-23"
)

const homePage = "Welcome to the climate observation API!</br></br>" +
	"Available routes</br>" +
	"/api/v1.0/precipitation</br>" +
	"/api/v1.0/stations</br>" +
	"/api/v1.0/tobs</br>" +
	"/api/v1.0/&lt;start&gt;</br>" +
	"/api/v1.0/&lt;start&gt;/&lt;end&gt;"

// handleHome lists the available routes
// GET /
func (s *Server) handleHome(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(homePage))
}

// handlePrecipitation returns date -> precipitation for the fixed window
// GET /api/v1.0/precipitation
func (s *Server) handlePrecipitation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.QueryTimeout)
	defer cancel()

	prcp, err := s.store.Precipitation(ctx, WindowStart, WindowEnd)
	if err != nil {
		s.queryFailed(c, "precipitation", err)
		return
	}

	c.JSON(http.StatusOK, prcp)
}

// handleStations returns every station id
// GET /api/v1.0/stations
func (s *Server) handleStations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.QueryTimeout)
	defer cancel()

	ids, err := s.store.StationIDs(ctx)
	if err != nil {
		s.queryFailed(c, "stations", err)
		return
	}

	c.JSON(http.StatusOK, ids)
}

// handleTobs returns the temperature observations for the fixed window
// GET /api/v1.0/tobs
func (s *Server) handleTobs(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.QueryTimeout)
	defer cancel()

	temps, err := s.store.Temperatures(ctx, WindowStart, WindowEnd)
	if err != nil {
		s.queryFailed(c, "tobs", err)
		return
	}

	c.JSON(http.StatusOK, temps)
}

// handleTemperatureStats returns TMIN, TAVG and TMAX from start onward, or
// between start and end inclusive. Dates are passed to the query untouched;
// an empty match (including end before start) is a 200 with null values.
// GET /api/v1.0/:start
// GET /api/v1.0/:start/:end
func (s *Server) handleTemperatureStats(c *gin.Context) {
	start := c.Param("start")
	var end *string
	if e, ok := c.Params.Get("end"); ok {
		end = &e
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.QueryTimeout)
	defer cancel()

	stats, err := s.store.TemperatureStats(ctx, start, end)
	if err != nil {
		s.queryFailed(c, "temperature stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) queryFailed(c *gin.Context, op string, err error) {
	s.logger.ErrorContext(c.Request.Context(), "query failed",
		"op", op,
		"error", err,
		"request_id", requestID(c),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

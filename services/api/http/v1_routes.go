package http

const apiVersion = "v1.0"

// registerV1Routes sets up the /api/v1.0 climate routes.
// Static segments take precedence over :start, so precipitation, stations and
// tobs are never read as dates.
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/" + apiVersion)
	v1.Use(apiVersionMiddleware(apiVersion))
	{
		v1.GET("/precipitation", s.handlePrecipitation)
		v1.GET("/stations", s.handleStations)
		v1.GET("/tobs", s.handleTobs)
		v1.GET("/:start", s.handleTemperatureStats)
		v1.GET("/:start/:end", s.handleTemperatureStats)
	}
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type sessionURI struct {
	Code string `uri:"code" binding:"required,joincode"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleGetSession(c *gin.Context) {
	var req sessionURI
	if !bindURI(c, &req) {
		return
	}
	snap, err := s.orch.State(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeError(c, http.StatusNotFound, reasonSessionNotFound, err.Error())
			return
		}
		writeError(c, http.StatusServiceUnavailable, reasonUnavailable, "session state unavailable")
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleQuestionSets(c *gin.Context) {
	sets, err := s.provider.Sets(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list question sets failed")
		writeError(c, http.StatusInternalServerError, reasonInternal, "failed to list question sets")
		return
	}
	page, perPage := parsePagination(c, defaultSetsPerPage, maxSetsPerPage)
	pagination, start, end := paginate(page, perPage, len(sets))
	c.JSON(http.StatusOK, gin.H{
		"sets":       sets[start:end],
		"pagination": pagination,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	sessions, err := s.orch.Stats(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, reasonUnavailable, "stats unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions":    sessions,
		"connections": s.hub.Stats(),
	})
}

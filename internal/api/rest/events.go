package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kaffeewerk/brewcore/internal/types"
)

// GET /api/v1/events?limit=50
func (s *Server) listEvents(c *gin.Context) {
	jrnl := s.lm.Journal()
	if jrnl == nil {
		c.JSON(http.StatusServiceUnavailable, types.NewErrorResponse(types.CodeUnavailable,
			"Event journal is disabled", nil))
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidRequest,
				"limit must be between 1 and 1000", raw))
			return
		}
		limit = parsed
	}

	events, err := jrnl.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.CodeInternal,
			"Failed to query events", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kaffeewerk/brewcore/internal/machine"
	"github.com/kaffeewerk/brewcore/internal/recipes"
	"github.com/kaffeewerk/brewcore/internal/types"
)

type machineCommandRequest struct {
	Command    string `json:"command" binding:"required"`
	CoffeeType *int16 `json:"coffee_type,omitempty"`
}

// GET /api/v1/machine/status
func (s *Server) getMachineStatus(c *gin.Context) {
	status := s.lm.MachineController().Status()
	c.JSON(http.StatusOK, status)
}

// POST /api/v1/machine/command
func (s *Server) executeMachineCommand(c *gin.Context) {
	var req machineCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidRequest, "Invalid request body", err.Error()))
		return
	}

	ctrl := s.lm.MachineController()

	var err error
	switch req.Command {
	case "power_on":
		err = ctrl.PowerOn()
	case "reset":
		err = ctrl.Reset()
	case "select_coffee":
		if req.CoffeeType == nil {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidRequest,
				"select_coffee requires coffee_type", nil))
			return
		}
		err = ctrl.SelectCoffee(recipes.CoffeeType(*req.CoffeeType))
	case "acknowledge_pickup":
		err = ctrl.AcknowledgePickup()
	default:
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidCommand,
			"Unknown command", req.Command))
		return
	}

	if err != nil {
		s.logger.Warn("Machine command rejected",
			zap.String("command", req.Command),
			zap.Error(err))
		c.JSON(commandErrorStatus(err), types.NewErrorResponse(commandErrorCode(err),
			"Command rejected", err.Error()))
		return
	}

	status := ctrl.Status()
	c.JSON(http.StatusAccepted, types.CommandResponse{
		Command:    req.Command,
		State:      status.State,
		SequenceID: status.SequenceID,
	})
}

func commandErrorStatus(err error) int {
	switch {
	case errors.Is(err, machine.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, machine.ErrInsufficientResources):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func commandErrorCode(err error) string {
	switch {
	case errors.Is(err, machine.ErrBusy):
		return types.CodeBusy
	case errors.Is(err, machine.ErrInsufficientResources):
		return types.CodeInsufficientResources
	default:
		return types.CodeInvalidCommand
	}
}

package rest

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaffeewerk/brewcore/internal/pvar"
	"github.com/kaffeewerk/brewcore/internal/types"
)

type variableView struct {
	Name      string         `json:"name"`
	Type      pvar.DataType  `json:"type"`
	Direction pvar.Direction `json:"direction"`
	Value     any            `json:"value"`
}

type setVariableRequest struct {
	Value any `json:"value"`
}

// GET /api/v1/variables
func (s *Server) listVariables(c *gin.Context) {
	store := s.lm.Store()
	snapshot := store.Snapshot()

	defs := store.Definitions()
	views := make([]variableView, 0, len(defs))
	for _, def := range defs {
		views = append(views, variableView{
			Name:      def.Name,
			Type:      def.Type,
			Direction: def.Direction,
			Value:     snapshot[def.Name],
		})
	}

	c.JSON(http.StatusOK, gin.H{"variables": views})
}

// GET /api/v1/variables/:name
func (s *Server) getVariable(c *gin.Context) {
	name := c.Param("name")
	store := s.lm.Store()

	def, ok := store.Definition(name)
	if !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.CodeNotFound, "Unknown variable", name))
		return
	}

	value, err := readVariable(store, def)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.CodeInternal, "Failed to read variable", err.Error()))
		return
	}

	c.JSON(http.StatusOK, variableView{
		Name:      def.Name,
		Type:      def.Type,
		Direction: def.Direction,
		Value:     value,
	})
}

// PUT /api/v1/variables/:name
func (s *Server) setVariable(c *gin.Context) {
	name := c.Param("name")
	store := s.lm.Store()

	def, ok := store.Definition(name)
	if !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.CodeNotFound, "Unknown variable", name))
		return
	}

	if def.Direction != pvar.DirectionInput {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.CodeForbidden,
			"Variable is published by the machine and cannot be written", name))
		return
	}

	var req setVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidRequest, "Invalid request body", err.Error()))
		return
	}

	if err := writeVariable(store, def, req.Value); err != nil {
		if errors.Is(err, pvar.ErrTypeMismatch) {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeTypeMismatch,
				"Value does not match variable type", string(def.Type)))
			return
		}
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.CodeInternal, "Failed to write variable", err.Error()))
		return
	}

	c.JSON(http.StatusOK, variableView{
		Name:      def.Name,
		Type:      def.Type,
		Direction: def.Direction,
		Value:     req.Value,
	})
}

func readVariable(store pvar.Store, def pvar.VariableDefinition) (any, error) {
	switch def.Type {
	case pvar.DataTypeBool:
		return store.GetBool(def.Name)
	case pvar.DataTypeInt16:
		return store.GetInt16(def.Name)
	case pvar.DataTypeString:
		return store.GetString(def.Name)
	default:
		return nil, pvar.ErrTypeMismatch
	}
}

// writeVariable coerces the decoded JSON value to the variable's type.
// JSON numbers arrive as float64; only integral values in int16 range pass.
func writeVariable(store pvar.Store, def pvar.VariableDefinition, value any) error {
	switch def.Type {
	case pvar.DataTypeBool:
		b, ok := value.(bool)
		if !ok {
			return pvar.ErrTypeMismatch
		}
		return store.SetBool(def.Name, b)
	case pvar.DataTypeInt16:
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) || f < math.MinInt16 || f > math.MaxInt16 {
			return pvar.ErrTypeMismatch
		}
		return store.SetInt16(def.Name, int16(f))
	case pvar.DataTypeString:
		str, ok := value.(string)
		if !ok {
			return pvar.ErrTypeMismatch
		}
		return store.SetString(def.Name, str)
	default:
		return pvar.ErrTypeMismatch
	}
}

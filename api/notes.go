package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/backstage/services/bipagem/domain"
)

// DivergenceRequest is an operator correction to a note
type DivergenceRequest struct {
	TypeCode       string `json:"tipo" validate:"required,max=16"`
	Description    string `json:"descricao" validate:"max=255"`
	InformedVolume int    `json:"volumeInformado" validate:"gte=0"`
}

func (s *Server) listNotes(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	notebook, err := s.handlers.Notes.List(ctx, session)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, notebook)
}

func (s *Server) scanNote(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req ScanRequest
	if err := bindJSON(c, &req); err != nil {
		WriteError(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.handlers.Notes.Scan(ctx, session, req.Code)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) removeNote(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	notebook, err := s.handlers.Notes.Remove(ctx, session, c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, notebook)
}

func (s *Server) setDivergence(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req DivergenceRequest
	if err := bindJSON(c, &req); err != nil {
		WriteError(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	notebook, err := s.handlers.Notes.SetDivergence(ctx, session, c.Param("id"), domain.Divergence{
		TypeCode:       req.TypeCode,
		Description:    req.Description,
		InformedVolume: req.InformedVolume,
	})
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, notebook)
}

func (s *Server) clearDivergence(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	notebook, err := s.handlers.Notes.ClearDivergence(ctx, session, c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, notebook)
}

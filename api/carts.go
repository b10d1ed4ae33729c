package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/handlers"
	"example.com/backstage/services/bipagem/utils"
)

// CreateCartRequest names a new cart. An empty name gets the next
// "Carro N".
type CreateCartRequest struct {
	Name string `json:"nome" validate:"max=64"`
}

// ScanRequest carries one raw barcode read
type ScanRequest struct {
	Code string `json:"codigo" validate:"required,max=512"`
}

func (s *Server) listCarts(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	carts, err := s.handlers.Carts.ListCarts(ctx, session)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, carts)
}

func (s *Server) createCart(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req CreateCartRequest
	if err := bindJSON(c, &req); err != nil {
		WriteError(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	cart, err := s.handlers.Carts.CreateCart(ctx, session, req.Name)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cart)
}

func (s *Server) activateCart(c *gin.Context) {
	s.cartCommand(c, s.handlers.Carts.SwitchActive)
}

func (s *Server) scanCart(c *gin.Context) {
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

	result, err := s.handlers.Carts.Scan(ctx, session, req.Code)
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) removeCartLine(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	cart, err := s.handlers.Carts.RemoveLine(ctx, session, c.Param("id"), c.Param("lineId"))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

func (s *Server) submitCartForReview(c *gin.Context) {
	s.cartCommand(c, s.handlers.Carts.SubmitForReview)
}

func (s *Server) finalizeCartScan(c *gin.Context) {
	s.cartCommand(c, s.handlers.Carts.FinalizeScan)
}

func (s *Server) completeCart(c *gin.Context) {
	s.cartCommand(c, s.handlers.Carts.Complete)
}

func (s *Server) unpackCart(c *gin.Context) {
	s.cartCommand(c, s.handlers.Carts.Unpack)
}

func (s *Server) startPacking(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.handlers.Carts.StartPacking(ctx, session, c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) cartHistory(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	events, err := s.handlers.Carts.History(ctx, session, c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

type cartCommandFunc func(ctx context.Context, session domain.Session, cartID string) (*handlers.CartView, error)

// cartCommand runs a command that takes only the cart id from the path
func (s *Server) cartCommand(c *gin.Context, fn cartCommandFunc) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	cart, err := fn(ctx, session, c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// bindJSON decodes the request body and validates it. An empty body decodes
// to the zero value.
func bindJSON(c *gin.Context, req interface{}) error {
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			return NewValidationError(err.Error())
		}
	}
	return utils.ValidateStruct(req)
}

package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/emarket/internal/market"
)

func (s *Server) productIndex(id market.ID) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// handleListItems supports json-server style userId and title filters.
func (s *Server) handleListItems(c *gin.Context) {
	owner := market.ID(c.Query("userId"))
	title := strings.ToLower(strings.TrimSpace(c.Query("title")))

	s.mu.Lock()
	out := make([]market.Product, 0, len(s.products))
	for _, p := range s.products {
		if owner != "" && p.UserID != owner {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(p.Title), title) {
			continue
		}
		out = append(out, p)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(market.ID(c.Param("id")))
	if i < 0 {
		abort(c, http.StatusNotFound, "item not found")
		return
	}
	c.JSON(http.StatusOK, s.products[i])
}

func (s *Server) handleCreateItem(vehicle bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p market.Product
		if err := c.ShouldBindJSON(&p); err != nil {
			abort(c, http.StatusBadRequest, "invalid body")
			return
		}
		if vehicle {
			p.Category = market.CategoryVehicle
		}
		if p.UserID == "" {
			p.UserID = caller(c)
		}
		if p.UserID != caller(c) {
			abort(c, http.StatusForbidden, "forbidden")
			return
		}
		p.Status = market.ProductActive
		if err := market.Validate(p); err != nil {
			abort(c, http.StatusUnprocessableEntity, err.Error())
			return
		}

		s.mu.Lock()
		p.ID = idString(s.newID())
		p.CreatedAt = s.now().UTC().Format(time.RFC3339)
		s.products = append(s.products, p)
		s.mu.Unlock()
		c.JSON(http.StatusCreated, p)
	}
}

// ownedProduct resolves :id and checks the caller owns it. The lock must
// be held.
func (s *Server) ownedProduct(c *gin.Context) (int, bool) {
	i := s.productIndex(market.ID(c.Param("id")))
	if i < 0 {
		abort(c, http.StatusNotFound, "item not found")
		return -1, false
	}
	if s.products[i].UserID != caller(c) {
		abort(c, http.StatusForbidden, "forbidden")
		return -1, false
	}
	return i, true
}

func (s *Server) handleUpdateItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.ownedProduct(c)
	if !ok {
		return
	}
	updated := s.products[i]
	updated.Images = append([]string(nil), updated.Images...)
	if err := c.ShouldBindJSON(&updated); err != nil {
		abort(c, http.StatusBadRequest, "invalid body")
		return
	}
	updated.ID = s.products[i].ID
	updated.UserID = s.products[i].UserID
	updated.CreatedAt = s.products[i].CreatedAt
	if err := market.Validate(updated); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.products[i] = updated
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.ownedProduct(c)
	if !ok {
		return
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleToggleStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.ownedProduct(c)
	if !ok {
		return
	}
	if s.products[i].Status == market.ProductSold {
		s.products[i].Status = market.ProductActive
	} else {
		s.products[i].Status = market.ProductSold
	}
	c.JSON(http.StatusOK, s.products[i])
}

package mockapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/five82/emarket/internal/market"
)

func (s *Server) handleListFavorites(c *gin.Context) {
	user := market.ID(c.Query("userId"))
	product := market.ID(c.Query("productId"))

	s.mu.Lock()
	out := make([]market.Favorite, 0)
	for _, f := range s.favorites {
		if user != "" && f.UserID != user {
			continue
		}
		if product != "" && f.ProductID != product {
			continue
		}
		out = append(out, f)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

// handleAddFavorite keeps at most one favorite per (user, product) pair;
// adding an existing pair returns the stored record.
func (s *Server) handleAddFavorite(c *gin.Context) {
	var f market.Favorite
	if err := c.ShouldBindJSON(&f); err != nil {
		abort(c, http.StatusBadRequest, "invalid body")
		return
	}
	if f.UserID == "" {
		f.UserID = caller(c)
	}
	if f.UserID != caller(c) {
		abort(c, http.StatusForbidden, "forbidden")
		return
	}
	if err := market.Validate(f); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.favorites {
		if existing.UserID == f.UserID && existing.ProductID == f.ProductID {
			c.JSON(http.StatusOK, existing)
			return
		}
	}
	f.ID = idString(s.newID())
	s.favorites = append(s.favorites, f)
	c.JSON(http.StatusCreated, f)
}

func (s *Server) handleDeleteFavorite(c *gin.Context) {
	id := market.ID(c.Param("id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.favorites {
		if f.ID != id {
			continue
		}
		if f.UserID != caller(c) {
			abort(c, http.StatusForbidden, "forbidden")
			return
		}
		s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
		c.Status(http.StatusNoContent)
		return
	}
	abort(c, http.StatusNotFound, "favorite not found")
}

package mockapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/five82/emarket/internal/market"
)

func (s *Server) handleListAddresses(c *gin.Context) {
	s.mu.Lock()
	list := append([]market.Address{}, s.addrBook[market.ID(c.Param("id"))]...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, list)
}

func bindAddress(c *gin.Context) (market.Address, bool) {
	var a market.Address
	if err := c.ShouldBindJSON(&a); err != nil {
		abort(c, http.StatusBadRequest, "invalid body")
		return a, false
	}
	if err := market.Validate(a); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return a, false
	}
	return a, true
}

func (s *Server) handleCreateAddress(c *gin.Context) {
	a, ok := bindAddress(c)
	if !ok {
		return
	}
	user := market.ID(c.Param("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.addrBook[user]
	if len(list) >= market.MaxAddresses {
		abort(c, http.StatusConflict, market.ErrAddressLimit.Error())
		return
	}
	a.ID = idString(s.newID())
	a.IsPrimary = len(list) == 0
	s.addrBook[user] = append(list, a)
	c.JSON(http.StatusCreated, a)
}

func addressIndex(list []market.Address, id market.ID) int {
	for i, a := range list {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) handleUpdateAddress(c *gin.Context) {
	a, ok := bindAddress(c)
	if !ok {
		return
	}
	user, id := market.ID(c.Param("id")), market.ID(c.Param("addressId"))

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.addrBook[user]
	i := addressIndex(list, id)
	if i < 0 {
		abort(c, http.StatusNotFound, "address not found")
		return
	}
	a.ID = id
	a.IsPrimary = list[i].IsPrimary
	list[i] = a
	c.JSON(http.StatusOK, a)
}

func (s *Server) handleDeleteAddress(c *gin.Context) {
	user, id := market.ID(c.Param("id")), market.ID(c.Param("addressId"))

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.addrBook[user]
	i := addressIndex(list, id)
	if i < 0 {
		c.Status(http.StatusNoContent)
		return
	}
	rest := append(append([]market.Address{}, list[:i]...), list[i+1:]...)
	s.addrBook[user] = market.NormalizePrimary(rest)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSetPrimary(c *gin.Context) {
	user, id := market.ID(c.Param("id")), market.ID(c.Param("addressId"))

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.addrBook[user]
	if addressIndex(list, id) < 0 {
		abort(c, http.StatusNotFound, "address not found")
		return
	}
	for i := range list {
		list[i].IsPrimary = list[i].ID == id
	}
	c.Status(http.StatusNoContent)
}

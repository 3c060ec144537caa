package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/emarket/internal/market"
)

// json renders a user the way the legacy backend does: numeric id and
// Portuguese field names.
func (u *userRecord) json() gin.H {
	out := gin.H{"id": u.ID, "nome": u.Name, "email": u.Email}
	if u.Avatar != "" {
		out["foto"] = u.Avatar
	}
	return out
}

func (s *Server) userByEmail(email string) *userRecord {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			return u
		}
	}
	return nil
}

func (s *Server) userByID(id market.ID) (int, *userRecord) {
	for i, u := range s.users {
		if idString(u.ID) == id {
			return i, u
		}
	}
	return -1, nil
}

func (s *Server) handleListUsers(c *gin.Context) {
	s.mu.Lock()
	out := make([]gin.H, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.json())
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, u := s.userByID(market.ID(c.Param("id")))
	if u == nil {
		abort(c, http.StatusNotFound, "user not found")
		return
	}
	c.JSON(http.StatusOK, u.json())
}

func (s *Server) handleRegister(c *gin.Context) {
	var reg market.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		abort(c, http.StatusBadRequest, "invalid body")
		return
	}
	if err := market.Validate(reg); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		abort(c, http.StatusInternalServerError, "could not hash password")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userByEmail(reg.Email) != nil {
		abort(c, http.StatusConflict, "email already registered")
		return
	}
	rec := &userRecord{ID: s.newID(), Name: reg.Name, Email: reg.Email, CPF: reg.CPF, PasswordHash: hash}
	s.users = append(s.users, rec)
	c.JSON(http.StatusCreated, rec.json())
}

type userPatch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	id := market.ID(c.Param("id"))
	if caller(c) != id {
		abort(c, http.StatusForbidden, "forbidden")
		return
	}
	var patch userPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abort(c, http.StatusBadRequest, "invalid body")
		return
	}
	var hash []byte
	if patch.Password != nil {
		if len(*patch.Password) < 6 {
			abort(c, http.StatusUnprocessableEntity, "password too short")
			return
		}
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(*patch.Password), s.bcryptCost); err != nil {
			abort(c, http.StatusInternalServerError, "could not hash password")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, u := s.userByID(id)
	if u == nil {
		abort(c, http.StatusNotFound, "user not found")
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		u.Email = strings.TrimSpace(*patch.Email)
	}
	if hash != nil {
		u.PasswordHash = hash
	}
	c.JSON(http.StatusOK, u.json())
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	id := market.ID(c.Param("id"))
	if caller(c) != id {
		abort(c, http.StatusForbidden, "forbidden")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, u := s.userByID(id)
	if u == nil {
		abort(c, http.StatusNotFound, "user not found")
		return
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	delete(s.addrBook, id)
	c.Status(http.StatusNoContent)
}

package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/emarket/internal/market"
)

const ctxUserID = "userId"

func (s *Server) issueToken(id market.ID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   string(id),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds market.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		abort(c, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	rec := s.userByEmail(creds.Email)
	var hash []byte
	var body gin.H
	if rec != nil {
		hash = rec.PasswordHash
		body = rec.json()
	}
	s.mu.Unlock()

	if rec == nil || bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		abort(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.issueToken(idString(rec.ID))
	if err != nil {
		s.log.Error().Err(err).Msg("sign token")
		abort(c, http.StatusInternalServerError, "could not sign token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": body})
}

// requireAuth validates the bearer token and stores its subject.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(raw)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, http.StatusUnauthorized, "missing token")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.secret, nil
		}, jwt.WithTimeFunc(s.now))
		if err != nil || !token.Valid || claims.Subject == "" {
			s.log.Debug().Err(err).Msg("token rejected")
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Set(ctxUserID, market.ID(claims.Subject))
		c.Next()
	}
}

// requireSelf limits /users/:id subroutes to the token's own user.
func (s *Server) requireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller(c) != market.ID(c.Param("id")) {
			abort(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

func caller(c *gin.Context) market.ID {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(market.ID)
	return id
}

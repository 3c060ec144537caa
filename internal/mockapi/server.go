// Package mockapi is an in-memory development backend speaking the
// marketplace REST contract. It backs cmd/emarket-mock and the
// end-to-end tests.
package mockapi

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/emarket/internal/market"
)

const (
	defaultSecret   = "emarket-dev-secret"
	defaultTokenTTL = 24 * time.Hour
)

// Option configures a Server.
type Option func(*Server)

// WithAddresses toggles the address endpoints. Disabled, every address
// path answers 404, which is how clients detect a backend without them.
func WithAddresses(enabled bool) Option {
	return func(s *Server) { s.addresses = enabled }
}

// WithSecret sets the HS256 signing secret.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

type userRecord struct {
	ID           int
	Name         string
	Email        string
	CPF          string
	Avatar       string
	PasswordHash []byte
}

// Server holds the backend state.
type Server struct {
	mu         sync.Mutex
	nextID     int
	users      []*userRecord
	products   []market.Product
	favorites  []market.Favorite
	addrBook   map[market.ID][]market.Address
	addresses  bool
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	log        zerolog.Logger
	now        func() time.Time
}

// New builds a Server with address endpoints enabled.
func New(opts ...Option) *Server {
	s := &Server{
		addrBook:   make(map[market.ID][]market.Address),
		addresses:  true,
		secret:     []byte(defaultSecret),
		tokenTTL:   defaultTokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) newID() int {
	s.nextID++
	return s.nextID
}

func idString(n int) market.ID {
	return market.ID(strconv.Itoa(n))
}

// SeedUser registers an account directly and returns its id.
func (s *Server) SeedUser(name, email, password string) (market.ID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &userRecord{ID: s.newID(), Name: name, Email: email, PasswordHash: hash}
	s.users = append(s.users, rec)
	return idString(rec.ID), nil
}

// SeedProduct stores p as-is apart from a fresh id.
func (s *Server) SeedProduct(p market.Product) market.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = idString(s.newID())
	if p.CreatedAt == "" {
		p.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	if p.Status == "" {
		p.Status = market.ProductActive
	}
	s.products = append(s.products, p)
	return p
}

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(s.Router())
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	auth := s.requireAuth()

	r.POST("/auth/login", s.handleLogin)

	r.GET("/users", s.handleListUsers)
	r.GET("/users/:id", s.handleGetUser)
	r.POST("/users", s.handleRegister)
	r.PUT("/users/:id", auth, s.handleUpdateUser)
	r.DELETE("/users/:id", auth, s.handleDeleteUser)

	r.GET("/items", s.handleListItems)
	r.GET("/items/:id", s.handleGetItem)
	r.PATCH("/items/:id/status", auth, s.handleToggleStatus)
	for _, kind := range []string{"product", "vehicle"} {
		vehicle := kind == "vehicle"
		r.POST("/items/"+kind, auth, s.handleCreateItem(vehicle))
		r.PATCH("/items/"+kind+"/:id", auth, s.handleUpdateItem)
		r.DELETE("/items/"+kind+"/:id", auth, s.handleDeleteItem)
	}

	r.GET("/favorite", auth, s.handleListFavorites)
	r.POST("/favorite", auth, s.handleAddFavorite)
	r.DELETE("/favorite/:id", auth, s.handleDeleteFavorite)

	if s.addresses {
		addr := r.Group("/users/:id/addresses", auth, s.requireSelf())
		addr.GET("", s.handleListAddresses)
		addr.POST("", s.handleCreateAddress)
		addr.PUT("/:addressId", s.handleUpdateAddress)
		addr.DELETE("/:addressId", s.handleDeleteAddress)
		addr.POST("/:addressId/primary", s.handleSetPrimary)
	}

	return r
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"message": msg})
}

package fakebackend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	userIDKey = "user_id"
	tokenTTL  = 7 * 24 * time.Hour
)

type user struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type meResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// SeedUser creates an account directly and returns its id and a valid token.
func (s *Server) SeedUser(name, email, password string) (userID, token string, err error) {
	u, err := s.createUser(name, email, password)
	if err != nil {
		return "", "", err
	}
	token, err = s.IssueToken(u.ID)
	if err != nil {
		return "", "", err
	}
	return u.ID, token, nil
}

// IssueToken signs a token for userID.
func (s *Server) IssueToken(userID string) (string, error) {
	return s.issueToken(userID, time.Now().Add(tokenTTL))
}

// IssueExpiredToken signs a token for userID that has already expired.
func (s *Server) IssueExpiredToken(userID string) (string, error) {
	return s.issueToken(userID, time.Now().Add(-time.Hour))
}

func (s *Server) issueToken(userID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		userIDKey: userID,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	userID, _ := claims[userIDKey].(string)
	if userID == "" {
		return "", errors.New("token has no subject")
	}
	return userID, nil
}

func (s *Server) createUser(name, email, password string) (*user, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return nil, errUserExists
	}
	u := &user{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: hash}
	s.users[email] = u
	return u, nil
}

func (s *Server) userByID(id string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

var errUserExists = errors.New("user already exists")

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortMessage(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		userID, err := s.parseToken(raw)
		if err != nil {
			abortMessage(c, http.StatusUnauthorized, "Token is not valid")
			return
		}
		if _, ok := s.userByID(userID); !ok {
			abortMessage(c, http.StatusUnauthorized, "Token is not valid")
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		abortMessage(c, http.StatusBadRequest, "Please provide all required fields")
		return
	}
	u, err := s.createUser(req.Name, req.Email, req.Password)
	if errors.Is(err, errUserExists) {
		abortMessage(c, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		abortMessage(c, http.StatusInternalServerError, "Server error")
		return
	}
	s.respondWithToken(c, http.StatusCreated, u)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortMessage(c, http.StatusBadRequest, "Please provide email and password")
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		abortMessage(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.respondWithToken(c, http.StatusOK, u)
}

func (s *Server) me(c *gin.Context) {
	u, ok := s.userByID(c.GetString(userIDKey))
	if !ok {
		abortMessage(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, meResponse{UserID: u.ID, Name: u.Name, Email: u.Email})
}

func (s *Server) respondWithToken(c *gin.Context, status int, u *user) {
	token, err := s.IssueToken(u.ID)
	if err != nil {
		abortMessage(c, http.StatusInternalServerError, "Server error")
		return
	}
	c.JSON(status, authResponse{Token: token, UserID: u.ID, Name: u.Name, Email: u.Email})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

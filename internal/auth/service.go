package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Digital231/lastDance/internal/config"
	"github.com/Digital231/lastDance/internal/database"
	"github.com/Digital231/lastDance/internal/models"

	"github.com/golang-jwt/jwt/v5"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

const specialSymbols = "!@#$%^&*_+"

// FieldError is one entry of the 400 response body: {"errors":[{...}]}.
type FieldError struct {
	Field string `json:"field,omitempty"`
	Msg   string `json:"msg"`
}

type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Msg
	}
	return strings.Join(msgs, "; ")
}

type Service struct {
	db  database.Database
	cfg *config.Config
}

func NewService(db database.Database, cfg *config.Config) *Service {
	return &Service{
		db:  db,
		cfg: cfg,
	}
}

func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error) {
	if err := s.validateRegistrationRequest(req); err != nil {
		return nil, err
	}

	// Duplicate check before insert, matching the uniqueness error shape the
	// client expects.
	if _, err := s.db.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, &ValidationError{Errors: []FieldError{{Field: "username", Msg: "Username already exists"}}}
	}

	user, err := s.db.CreateUser(ctx, req.Username, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user.PasswordHash = ""
	return &models.LoginResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("invalid credentials")
	}

	user, err := s.db.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	// Remove sensitive data
	user.PasswordHash = ""

	return &models.LoginResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *Service) ValidateToken(tokenString string) (*jwt.MapClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.JWT.Secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *Service) GetUserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	userIDFloat, ok := (*claims)["user_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	userID := int(userIDFloat)
	return s.db.GetUserByID(ctx, userID)
}

func (s *Service) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.cfg.JWT.ExpiresIn).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWT.Secret)
}

func (s *Service) validateRegistrationRequest(req *models.RegisterRequest) error {
	var fields []FieldError

	req.Username = strings.TrimSpace(req.Username)
	if err := ValidateUsername(req.Username); err != nil {
		fields = append(fields, *err)
	}

	if err := ValidatePassword(req.Password, s.cfg.Chat.MinPasswordEntropy); err != nil {
		fields = append(fields, *err)
	}

	if req.Password != req.ConfirmPassword {
		fields = append(fields, FieldError{Field: "confirm_password", Msg: "Passwords do not match"})
	}

	if len(fields) > 0 {
		return &ValidationError{Errors: fields}
	}
	return nil
}

func ValidateUsername(username string) *FieldError {
	// Limits count characters, not bytes.
	if n := utf8.RuneCountInString(username); n < 4 || n > 20 {
		return &FieldError{Field: "username", Msg: "Username must be between 4 and 20 characters"}
	}
	return nil
}

// ValidatePassword enforces the product rules (length, an uppercase letter,
// a special symbol) plus a minimum-entropy floor.
func ValidatePassword(password string, minEntropy int) *FieldError {
	if n := utf8.RuneCountInString(password); n < 4 || n > 20 {
		return &FieldError{Field: "password", Msg: "Password must be between 4 and 20 characters"}
	}

	hasUpper := strings.IndexFunc(password, unicode.IsUpper) >= 0
	if !hasUpper || !strings.ContainsAny(password, specialSymbols) {
		return &FieldError{
			Field: "password",
			Msg:   "Password must include an uppercase letter and a special symbol (" + specialSymbols + ")",
		}
	}

	if err := passwordvalidator.Validate(password, float64(minEntropy)); err != nil {
		return &FieldError{Field: "password", Msg: err.Error()}
	}

	return nil
}

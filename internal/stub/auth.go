package stub

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"lemonade/internal/models"
)

// AuthService handles signup, login and token issuing for the stub
// backend.
type AuthService struct {
	users      *userRepo
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *userRepo, jwtSecret string) *AuthService {
	return &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
	}
}

// Signup registers an account identified by email and/or phone and
// returns the public profile with a signed token.
func (s *AuthService) Signup(name, email, phone, password string) (*models.User, string, error) {
	if email != "" {
		if existing, err := s.users.GetByEmail(email); err == nil && existing != nil {
			return nil, "", fmt.Errorf("email '%s' already registered", email)
		}
	}
	if phone != "" {
		if existing, err := s.users.GetByPhone(phone); err == nil && existing != nil {
			return nil, "", fmt.Errorf("phone '%s' already registered", phone)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	record := &userRecord{
		User:         models.User{Name: name, Email: email, Phone: phone},
		PasswordHash: string(hashedPassword),
	}
	if err := s.users.Create(record); err != nil {
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.generateToken(&record.User)
	if err != nil {
		return nil, "", err
	}
	return &record.User, token, nil
}

// Login authenticates by email or phone and returns the profile with a
// signed token. A generic error hides whether the account exists.
func (s *AuthService) Login(email, phone, password string) (*models.User, string, error) {
	var record *userRecord
	var err error
	if email != "" {
		record, err = s.users.GetByEmail(email)
	} else {
		record, err = s.users.GetByPhone(phone)
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	token, err := s.generateToken(&record.User)
	if err != nil {
		return nil, "", err
	}
	return &record.User, token, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"name":    user.Name,
		"exp":     time.Now().Add(s.tokenDurat).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT, returning the claims if
// valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

package customer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/aims-commerce/internal"
	customerDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/customer"
)

type Repository interface {
	Create(ctx context.Context, dm *customerDatamodel.Customer) error
	GetByEmail(ctx context.Context, email string) (*customerDatamodel.Customer, error)
	GetByID(ctx context.Context, id int64) (*customerDatamodel.Customer, error)
}

// Service handles registration, login and token lifecycle.
type Service struct {
	repo           Repository
	tokenGenerator TokenGenerator
	bcryptCost     int
}

func NewService(repo Repository, tokenGen TokenGenerator, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
	}
}

// Register creates a new account. Email uniqueness is enforced by the unique
// index, so a concurrent duplicate surfaces as ErrEmailAlreadyUsed from the
// repository instead of a pre-check race.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*Customer, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	dm := &customerDatamodel.Customer{
		Email:        dto.Email,
		PasswordHash: string(hash),
		Name:         dto.Name,
		Phone:        dto.Phone,
		Address:      dto.Address,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, dm); err != nil {
		return nil, err
	}

	return FromDataModel(dm), nil
}

// Authenticate validates credentials and returns tokens. Lookup failures and
// password mismatches collapse into the same error so responses do not reveal
// which emails have accounts.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	dm, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(dm.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !dm.IsActive {
		return AuthTokens{}, internal.ErrCustomerInactive
	}

	return s.issueTokens(dm.ID, dm.Email)
}

// RefreshTokens rotates the token pair. The account is re-checked so a
// deactivated customer cannot keep a session alive through refreshes.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	customerID, err := strconv.ParseInt(claims.CustomerID, 10, 64)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	dm, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !dm.IsActive {
		return AuthTokens{}, internal.ErrCustomerInactive
	}

	return s.issueTokens(dm.ID, dm.Email)
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// GetByID loads the account profile.
func (s *Service) GetByID(ctx context.Context, id int64) (*Customer, error) {
	dm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(dm), nil
}

func (s *Service) issueTokens(customerID int64, email string) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(customerID, email)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(customerID, email)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("generate refresh token: %w", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// JWTTokenGenerator signs HS256 tokens, access and refresh with their own
// secret and TTL.
type JWTTokenGenerator struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewJWTTokenGenerator(cfg internal.SecurityConfig) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenDuration,
		refreshTTL:    cfg.RefreshTokenDuration,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(customerID int64, email string) (string, error) {
	return j.sign(customerID, email, j.accessSecret, j.accessTTL)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(customerID int64, email string) (string, error) {
	return j.sign(customerID, email, j.refreshSecret, j.refreshTTL)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, j.accessSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, j.refreshSecret)
}

func (j *JWTTokenGenerator) sign(customerID int64, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	subject := strconv.FormatInt(customerID, 10)

	claims := &Claims{
		CustomerID: subject,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (j *JWTTokenGenerator) parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

package customer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	customerDatamodel "github.com/frahmantamala/aims-commerce/internal/core/datamodel/customer"
)

// Customer is the account shape exposed to the rest of the application and to
// API responses. The password hash stays inside the repository layer.
type Customer struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// FromDataModel maps a persistence row to the domain shape, dropping the
// password hash.
func FromDataModel(dm *customerDatamodel.Customer) *Customer {
	if dm == nil {
		return nil
	}
	return &Customer{
		ID:        dm.ID,
		Email:     dm.Email,
		Name:      dm.Name,
		Phone:     dm.Phone,
		Address:   dm.Address,
		IsActive:  dm.IsActive,
		CreatedAt: dm.CreatedAt,
	}
}

// AuthTokens is the pair returned by login and refresh.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims carried inside both access and refresh tokens. CustomerID is kept as
// a string so the subject and the custom claim stay in the same format.
type Claims struct {
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// TokenGenerator issues and validates the two token kinds. Access and refresh
// tokens are signed with different secrets, so validation is split per kind
// rather than guessing which secret applies.
type TokenGenerator interface {
	GenerateAccessToken(customerID int64, email string) (string, error)
	GenerateRefreshToken(customerID int64, email string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourly/internal/models"
)

const identityKey = "identity"

// CustomClaims mirrors the claims Supabase puts in its access tokens.
type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller, resolved once per request by the auth
// middleware and passed by value into services.
type Identity struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

func NewIdentity(userID uuid.UUID, email, role string) Identity {
	if role == "" {
		role = models.RoleUser
	}
	return Identity{UserID: userID, Email: email, Role: role}
}

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

func (i Identity) IsGuide() bool { return i.Role == models.RoleTourGuide }

func (i Identity) IsTraveler() bool { return i.Role == models.RoleUser }

func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

func (i Identity) IsOwner(userID uuid.UUID) bool {
	return i.UserID != uuid.Nil && i.UserID == userID
}

func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil
}

func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

func IdentityFromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

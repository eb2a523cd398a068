package services

import (
	"strings"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/authoring"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/security"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles admin authentication and JWT operations
type AuthService struct {
	adminPassword string
	jwtSecret     string
	tokenTTL      time.Duration
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

// NewAuthService creates a new authentication service
func NewAuthService(adminPassword, jwtSecret string, tokenTTL time.Duration, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthService {
	return &AuthService{
		adminPassword: adminPassword,
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string `json:"token,omitempty"`
	Role    string `json:"role,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TokenTTL is how long issued admin tokens stay valid.
func (a *AuthService) TokenTTL() time.Duration {
	return a.tokenTTL
}

// AuthenticateAdmin validates the admin password and issues a JWT
func (a *AuthService) AuthenticateAdmin(password string) *AuthResult {
	marker := a.perfTracker.StartOperation("admin_login", "auth")
	defer marker.Complete()

	if a.adminPassword == "" || password == "" {
		marker.SetSuccess(false)
		a.logger.LogAuthOperation("admin_login", false, map[string]any{"reason": "not configured or empty password"})
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	ok := bcrypt.CompareHashAndPassword([]byte(a.adminPassword), []byte(password)) == nil
	// Fallback for plaintext passwords in local setups
	if !ok && !isBcryptHash(a.adminPassword) {
		ok = password == a.adminPassword
	}
	if !ok {
		marker.SetSuccess(false)
		a.logger.LogAuthOperation("admin_login", false, nil)
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	token, err := security.GenerateAdminToken(a.jwtSecret, a.tokenTTL)
	if err != nil {
		marker.SetError(err)
		a.logger.Auth().Error("Token generation failed", "error", err.Error())
		return &AuthResult{Success: false, Error: "Token generation failed"}
	}

	a.logger.LogAuthOperation("admin_login", true, nil)
	return &AuthResult{Token: token, Role: "admin", Success: true}
}

// CapabilityFor returns the authoring capability carried by a token. Invalid or
// missing tokens yield a capability without admin rights.
func (a *AuthService) CapabilityFor(tokenString string) authoring.Capability {
	if tokenString == "" {
		return authoring.Capability{}
	}
	if err := security.ValidateAdminToken(tokenString, a.jwtSecret); err != nil {
		a.logger.Auth().Debug("Admin token rejected", "error", err.Error())
		return authoring.Capability{}
	}
	return authoring.AdminCapability
}

// HashPassword produces a bcrypt hash suitable for ADMIN_PASSWORD.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/menuqr/menuqr/internal/models"
	"github.com/menuqr/menuqr/internal/plans"
	"github.com/menuqr/menuqr/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// AuthService handles signup, login and the second factor.
type AuthService struct{ *base }

// SignupInput is the signup request.
type SignupInput struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	Password       string `json:"password" binding:"required"`
	RestaurantName string `json:"restaurantName"`
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validateEmail(raw string) error {
	addr, errParse := mail.ParseAddress(raw)
	if errParse != nil || addr.Address != raw {
		return validationError("invalid email %q", raw)
	}
	return nil
}

// Validate normalizes and checks the input.
func (in *SignupInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.RestaurantName = strings.TrimSpace(in.RestaurantName)
	if in.Name == "" {
		return validationError("name is required")
	}
	if errEmail := validateEmail(in.Email); errEmail != nil {
		return errEmail
	}
	if len(in.Password) < MinPasswordLength {
		return validationError("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// SignupResult is the created account.
type SignupResult struct {
	User       models.User
	Restaurant *models.Restaurant
}

// Signup registers a PENDING owner with a FREEMIUM subscription and,
// optionally, their restaurant.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (SignupResult, error) {
	if errValidate := in.Validate(); errValidate != nil {
		return SignupResult{}, errValidate
	}
	hash, errHash := security.HashPassword(in.Password)
	if errHash != nil {
		return SignupResult{}, errHash
	}

	var result SignupResult
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		var existing int64
		if errCount := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&existing).Error; errCount != nil {
			return fmt.Errorf("check email: %w", errCount)
		}
		if existing > 0 {
			return conflictError("email %s is already registered", in.Email)
		}

		user := models.User{
			Name:           in.Name,
			Email:          in.Email,
			Password:       hash,
			ApprovalStatus: models.ApprovalPending,
			Tier:           models.TierAdmin,
		}
		if errCreate := tx.Create(&user).Error; errCreate != nil {
			return conflictOnUnique(errCreate, "email %s is already registered", in.Email)
		}
		if errSub := createSubscription(tx, user.ID, plans.Freemium); errSub != nil {
			return errSub
		}
		result = SignupResult{User: user}

		if in.RestaurantName != "" {
			restaurant, errRestaurant := createRestaurant(ctx, tx, s.base, user.ID, RestaurantInput{Name: in.RestaurantName})
			if errRestaurant != nil {
				return errRestaurant
			}
			result.Restaurant = &restaurant
		}
		return nil
	})
	if errTx != nil {
		return SignupResult{}, errTx
	}
	log.Infof("auth: signup %s (user %d) awaiting approval", result.User.Email, result.User.ID)
	return result, nil
}

// CreateSuperAdmin creates an approved SUPER_ADMIN account. It is used by the
// first-run setup and the CLI.
func (s *AuthService) CreateSuperAdmin(ctx context.Context, name, email, password string) (models.User, error) {
	in := SignupInput{Name: name, Email: email, Password: password}
	if errValidate := in.Validate(); errValidate != nil {
		return models.User{}, errValidate
	}
	hash, errHash := security.HashPassword(in.Password)
	if errHash != nil {
		return models.User{}, errHash
	}
	now := s.now()
	user := models.User{
		Name:           in.Name,
		Email:          in.Email,
		Password:       hash,
		ApprovalStatus: models.ApprovalApproved,
		Tier:           models.TierSuperAdmin,
		IsApproved:     true,
		ApprovedAt:     &now,
	}
	errTx := s.tx(ctx, func(tx *gorm.DB) error {
		if errCreate := tx.Create(&user).Error; errCreate != nil {
			return conflictOnUnique(errCreate, "email %s is already registered", in.Email)
		}
		return createSubscription(tx, user.ID, plans.Enterprise)
	})
	if errTx != nil {
		return models.User{}, errTx
	}
	return user, nil
}

// LoginInput is the login request.
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totpCode"`
}

// LoginResult carries the issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

var errInvalidCredentials = &Error{Kind: KindUnauthorized, Code: "invalid_credentials", Message: "invalid email or password"}

// Login checks credentials and issues a session token. Rejected accounts are
// refused with their persisted reason; pending accounts still get a token so
// they can see their approval state.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return LoginResult{}, validationError("email and password are required")
	}

	var user models.User
	errFind := s.run(ctx, func(conn *gorm.DB) error {
		return conn.Where("email = ?", email).Take(&user).Error
	})
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return LoginResult{}, errInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load user: %w", errFind)
	}
	if !security.CheckPassword(user.Password, in.Password) {
		return LoginResult{}, errInvalidCredentials
	}
	if user.ApprovalStatus == models.ApprovalRejected {
		msg := "account rejected"
		if reason := strings.TrimSpace(user.RejectionReason); reason != "" {
			msg += ": " + reason
		}
		return LoginResult{}, &Error{Kind: KindForbidden, Code: "account_rejected", Message: msg}
	}
	if user.HasTOTP() {
		code := strings.TrimSpace(in.TOTPCode)
		if code == "" {
			return LoginResult{}, &Error{Kind: KindUnauthorized, Code: "totp_required", Message: "totp code required"}
		}
		if !security.ValidateTOTPAt(user.TOTPSecret, code, s.now()) {
			return LoginResult{}, &Error{Kind: KindUnauthorized, Code: "invalid_totp", Message: "invalid totp code"}
		}
	}

	token, expiresAt, errIssue := security.IssueUserToken(s.deps.JWT.Secret, s.deps.JWT.Expiry, user.ID, user.Email)
	if errIssue != nil {
		return LoginResult{}, errIssue
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.User, error) {
	claims, errParse := security.ParseUserToken(s.deps.JWT.Secret, token)
	if errParse != nil {
		return models.User{}, unauthorizedError("invalid token")
	}
	var user models.User
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		var errLoad error
		user, errLoad = loadUser(conn, claims.UserID)
		return errLoad
	})
	if errRun != nil {
		if errors.Is(errRun, ErrNotFound) {
			return models.User{}, unauthorizedError("invalid token")
		}
		return models.User{}, errRun
	}
	if user.ApprovalStatus == models.ApprovalRejected {
		return models.User{}, &Error{Kind: KindForbidden, Code: "account_rejected", Message: "account rejected"}
	}
	return user, nil
}

// MeResult is the caller's profile.
type MeResult struct {
	User       models.User
	Restaurant *models.Restaurant
}

// Me returns the caller and their restaurant, if any.
func (s *AuthService) Me(ctx context.Context, userID uint64) (MeResult, error) {
	var result MeResult
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		user, errUser := loadUser(conn, userID)
		if errUser != nil {
			return errUser
		}
		result = MeResult{User: user}
		restaurant, errRestaurant := ownedRestaurant(conn, userID)
		if errRestaurant != nil {
			if errors.Is(errRestaurant, ErrNotFound) {
				return nil
			}
			return errRestaurant
		}
		result.Restaurant = &restaurant
		return nil
	})
	return result, errRun
}

// PrepareTOTP generates a secret for enrollment. Nothing is stored until
// ConfirmTOTP proves the authenticator works.
func (s *AuthService) PrepareTOTP(ctx context.Context, userID uint64) (security.TOTPEnrollment, error) {
	var user models.User
	errRun := s.run(ctx, func(conn *gorm.DB) error {
		var errLoad error
		user, errLoad = loadUser(conn, userID)
		return errLoad
	})
	if errRun != nil {
		return security.TOTPEnrollment{}, errRun
	}
	if user.HasTOTP() {
		return security.TOTPEnrollment{}, conflictError("totp is already enabled")
	}
	return security.GenerateTOTP(user.Email)
}

// ConfirmTOTP stores secret once code validates against it.
func (s *AuthService) ConfirmTOTP(ctx context.Context, userID uint64, secret, code string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return validationError("secret is required")
	}
	if !security.ValidateTOTPAt(secret, code, s.now()) {
		return &Error{Kind: KindValidation, Code: "invalid_totp", Message: "invalid totp code"}
	}
	return s.tx(ctx, func(tx *gorm.DB) error {
		user, errLoad := loadUser(tx, userID)
		if errLoad != nil {
			return errLoad
		}
		if user.HasTOTP() {
			return conflictError("totp is already enabled")
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]any{"totp_secret": secret, "updated_at": s.now()}).Error
	})
}

// DisableTOTP clears the secret after checking a current code.
func (s *AuthService) DisableTOTP(ctx context.Context, userID uint64, code string) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		user, errLoad := loadUser(tx, userID)
		if errLoad != nil {
			return errLoad
		}
		if !user.HasTOTP() {
			return invalidStateError("totp is not enabled")
		}
		if !security.ValidateTOTPAt(user.TOTPSecret, code, s.now()) {
			return &Error{Kind: KindValidation, Code: "invalid_totp", Message: "invalid totp code"}
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]any{"totp_secret": "", "updated_at": s.now()}).Error
	})
}

func createSubscription(tx *gorm.DB, userID uint64, plan plans.Plan) error {
	sub, errNew := models.NewSubscription(userID, plan)
	if errNew != nil {
		return errNew
	}
	if errValidate := sub.Validate(); errValidate != nil {
		return errValidate
	}
	if errCreate := tx.Create(&sub).Error; errCreate != nil {
		return fmt.Errorf("create subscription: %w", errCreate)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/feedesk-api/internal/dto"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/repository"
	"github.com/noah-isme/feedesk-api/internal/session"
	"github.com/noah-isme/feedesk-api/internal/token"
)

var (
	// ErrAccountExists indicates the email is already registered for the role.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound indicates no admin or student uses the email.
	ErrAccountNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates a wrong password.
	ErrInvalidCredentials = errors.New("incorrect password")
	// ErrSessionLimit indicates the account is signed in on too many devices.
	ErrSessionLimit = errors.New("maximum active sessions reached, log out from another device first")
)

// Principal identifies the caller of an authenticated request.
type Principal struct {
	UserID  uint
	Role    string
	TokenID string
}

// AuthService registers accounts and issues access tokens.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AccountResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Logout(ctx context.Context, principal Principal) error
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error
}

type authService struct {
	admins      repository.AdminRepository
	students    repository.StudentRepository
	settings    repository.SettingsRepository
	tokens      *token.Manager
	sessions    session.Store
	maxSessions int
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	hashCost    int
}

// AuthServiceConfig carries the token and session settings of the auth service.
type AuthServiceConfig struct {
	Tokens      *token.Manager
	Sessions    session.Store
	MaxSessions int
}

// NewAuthService constructs the auth service. A nil session store disables
// session limiting.
func NewAuthService(admins repository.AdminRepository, students repository.StudentRepository, settings repository.SettingsRepository, validator *validator.Validate, cfg AuthServiceConfig, logger zerolog.Logger) AuthService {
	return &authService{
		admins:      admins,
		students:    students,
		settings:    settings,
		tokens:      cfg.Tokens,
		sessions:    cfg.Sessions,
		maxSessions: cfg.MaxSessions,
		validator:   validator,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "auth_service").Logger(),
		hashCost:    bcrypt.DefaultCost,
	}
}

// Register creates an admin when the role asks for one, otherwise a student
// billed at the configured monthly fee.
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AccountResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AccountResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := s.clean(req.Name)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return dto.AccountResponse{}, fmt.Errorf("hash password: %w", err)
	}

	if req.Role == models.RoleAdmin {
		if _, err := s.admins.GetByEmail(ctx, email); err == nil {
			return dto.AccountResponse{}, ErrAccountExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AccountResponse{}, err
		}

		admin := models.Admin{Name: name, Email: email, Password: string(hash)}
		if err := s.admins.Create(ctx, &admin); err != nil {
			return dto.AccountResponse{}, fmt.Errorf("create admin: %w", err)
		}

		s.logger.Info().Uint("admin_id", admin.ID).Msg("admin registered")
		return dto.AccountResponse{ID: admin.ID, Name: admin.Name, Email: admin.Email, Role: models.RoleAdmin}, nil
	}

	if _, err := s.students.GetByEmail(ctx, email); err == nil {
		return dto.AccountResponse{}, ErrAccountExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AccountResponse{}, err
	}

	fee, configured, err := s.settings.GetMonthlyFee(ctx)
	if err != nil {
		return dto.AccountResponse{}, err
	}
	if !configured {
		return dto.AccountResponse{}, ErrFeeNotConfigured
	}

	student := models.Student{
		Name:       name,
		Email:      email,
		Phone:      strings.TrimSpace(req.Phone),
		Password:   string(hash),
		School:     s.clean(req.School),
		Class:      s.clean(req.Class),
		MonthlyFee: fee,
	}
	if err := s.students.Create(ctx, &student); err != nil {
		return dto.AccountResponse{}, fmt.Errorf("create student: %w", err)
	}

	s.logger.Info().Uint("student_id", student.ID).Msg("student registered")
	return dto.AccountResponse{ID: student.ID, Name: student.Name, Email: student.Email, Role: models.RoleStudent}, nil
}

// Login checks admins first and students second.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	admin, err := s.admins.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)) != nil {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return s.issue(ctx, admin.ID, models.RoleAdmin, admin.Name)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.LoginResponse{}, err
	}

	student, err := s.students.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrAccountNotFound
		}
		return dto.LoginResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(student.Password), []byte(req.Password)) != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	return s.issue(ctx, student.ID, models.RoleStudent, student.Name)
}

// Logout ends the session that carried the token.
func (s *authService) Logout(ctx context.Context, principal Principal) error {
	if s.sessions == nil || principal.TokenID == "" {
		return nil
	}
	if err := s.sessions.Remove(ctx, principal.Role, principal.UserID, principal.TokenID); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	s.logger.Info().Uint("user_id", principal.UserID).Str("role", principal.Role).Msg("logged out")
	return nil
}

// ResetPassword replaces the password of the admin or student using the
// email and signs that account out of every device.
func (s *authService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	role := models.RoleAdmin
	var userID uint
	admin, err := s.admins.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		userID = admin.ID
		err = s.admins.UpdatePassword(ctx, admin.ID, string(hash))
	case errors.Is(err, gorm.ErrRecordNotFound):
		role = models.RoleStudent
		var student models.Student
		student, err = s.students.GetByEmail(ctx, req.Email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return err
		}
		userID = student.ID
		err = s.students.UpdatePassword(ctx, student.ID, string(hash))
	default:
		return err
	}
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if s.sessions != nil {
		if err := s.sessions.Clear(ctx, role, userID); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", userID).Str("role", role).Msg("failed to clear sessions")
		}
	}

	s.logger.Info().Uint("user_id", userID).Str("role", role).Msg("password reset")
	return nil
}

func (s *authService) issue(ctx context.Context, userID uint, role, name string) (dto.LoginResponse, error) {
	signed, claims, err := s.tokens.Issue(userID, role)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	if s.sessions != nil {
		added, err := s.sessions.Acquire(ctx, role, userID, claims.ID, claims.ExpiresAt, s.maxSessions)
		if err != nil {
			return dto.LoginResponse{}, fmt.Errorf("store session: %w", err)
		}
		if !added {
			return dto.LoginResponse{}, ErrSessionLimit
		}
	}

	s.logger.Info().Uint("user_id", userID).Str("role", role).Msg("login succeeded")
	return dto.LoginResponse{
		Token:     signed,
		Role:      role,
		Name:      name,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}

func (s *authService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

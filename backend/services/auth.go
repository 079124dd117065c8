package services

import (
	"context"
	"crypto/subtle"
	"strings"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name       string `json:"name" validate:"required,notblank"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Role       string `json:"role" validate:"omitempty,oneof=student admin"`
	InviteCode string `json:"inviteCode"`
}

type ProfileUpdate struct {
	Name     string `json:"name" validate:"omitempty,notblank"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
	// required when Password is set
	CurrentPassword string `json:"currentPassword" validate:"required_with=Password"`
}

// AuthService handles accounts. Admin sign-ups follow the configured policy.
type AuthService struct {
	db  *gorm.DB
	log *utils.Logger
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, log *utils.Logger, cfg *config.Config) *AuthService {
	return &AuthService{db: db, log: log, cfg: cfg}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&taken).Error; err != nil {
			return errors.Wrap(err, "check email")
		}
		if taken > 0 {
			return ErrEmailExists
		}
		if role == models.RoleAdmin {
			if err := s.allowAdmin(tx, in.InviteCode); err != nil {
				return err
			}
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailExists
			}
			return errors.Wrap(err, "create user")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAdminRegistrationForbidden) {
			s.log.Warn("admin registration refused", "email", user.Email, "policy", s.cfg.AdminRegistrationPolicy)
		}
		return nil, err
	}

	s.log.Info("user registered", "userID", user.ID, "role", user.Role)
	return &user, nil
}

func (s *AuthService) allowAdmin(tx *gorm.DB, inviteCode string) error {
	switch s.cfg.AdminRegistrationPolicy {
	case config.AdminPolicyOpen:
		return nil
	case config.AdminPolicyInviteOnly:
		want := s.cfg.AdminInviteCode
		if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(inviteCode)) != 1 {
			return ErrAdminRegistrationForbidden
		}
		return nil
	default:
		var admins int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
			return errors.Wrap(err, "count admins")
		}
		if admins > 0 {
			return ErrAdminRegistrationForbidden
		}
		return nil
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "load user")
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errors.Wrap(err, "load user")
		}

		updates := map[string]interface{}{}
		if name := strings.TrimSpace(in.Name); name != "" {
			updates["name"] = name
		}
		if in.Email != "" && in.Email != user.Email {
			var taken int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", in.Email, id).Count(&taken).Error; err != nil {
				return errors.Wrap(err, "check email")
			}
			if taken > 0 {
				return ErrEmailExists
			}
			updates["email"] = in.Email
		}
		if in.Password != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
				return ErrInvalidCredentials
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
			if err != nil {
				return errors.Wrap(err, "hash password")
			}
			updates["password_hash"] = string(hashed)
		}
		if len(updates) == 0 {
			return nil
		}
		return errors.Wrap(tx.Model(&user).Updates(updates).Error, "update user")
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// EnrolledCourseIDs lists the ids of the user's courses in enrollment order.
func (s *AuthService) EnrolledCourseIDs(ctx context.Context, id uint) ([]uint, error) {
	ids := []uint{}
	err := s.db.WithContext(ctx).Model(&models.UserCourse{}).
		Where("user_id = ?", id).Order("created_at ASC, id ASC").Pluck("course_id", &ids).Error
	return ids, errors.Wrap(err, "list enrolled courses")
}

// ListUsers pages through users, optionally filtered by role.
func (s *AuthService) ListUsers(ctx context.Context, role string, page, pageSize int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	q := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}
	var users []models.User
	if err := q.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list users")
	}
	return users, total, nil
}

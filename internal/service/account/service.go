// Package account — регистрация, вход и управление учётными записями.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

const minPasswordLength = 6

// TokenIssuer выпускает токен доступа для пользователя.
type TokenIssuer interface {
	Issue(user domain.User) (string, time.Time, error)
}

// RegisterInput — данные для новой учётной записи.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	// Role учитывается только в CreateUser; Register всегда создаёт CLIENT.
	Role string
}

// Session — результат успешного входа.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// Service управляет пользователями.
type Service struct {
	users  domain.UserRepository
	tokens TokenIssuer
	logger *log.Entry
	now    func() time.Time
	cost   int
}

// NewService создаёт сервис учётных записей.
func NewService(users domain.UserRepository, tokens TokenIssuer, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "account")
	}
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		cost:   bcrypt.DefaultCost,
	}
}

// Register создаёт клиента.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	return s.create(ctx, in, domain.RoleClient)
}

// CreateUser создаёт учётную запись с произвольной ролью. Только ADMIN.
func (s *Service) CreateUser(ctx context.Context, actor domain.Actor, in RegisterInput) (domain.User, error) {
	if !actor.IsAdmin() {
		return domain.User{}, domain.ErrForbidden
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return domain.User{}, err
	}
	return s.create(ctx, in, role)
}

// Login проверяет email и пароль и выпускает токен.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if user.Deleted() {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	s.logger.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("user logged in")
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Me возвращает учётную запись вызывающего.
func (s *Service) Me(ctx context.Context, actor domain.Actor) (domain.User, error) {
	user, err := s.users.Get(ctx, actor.UserID)
	if err != nil {
		return domain.User{}, err
	}
	if user.Deleted() {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// List возвращает активных пользователей. Только ADMIN.
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	active := users[:0]
	for _, user := range users {
		if !user.Deleted() {
			active = append(active, user)
		}
	}
	return active, nil
}

// Delete мягко удаляет пользователя: себя или кого угодно для ADMIN.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() && actor.UserID != id {
		return domain.ErrForbidden
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Deleted() {
		return domain.ErrUserNotFound
	}

	now := s.now()
	user.DeletedAt = &now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.WithFields(log.Fields{"user_id": id, "actor_id": actor.UserID}).Info("user deleted")
	return nil
}

// SeedAdmin создаёт администратора, если пользователя с таким email ещё нет.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil
	}
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	_, err = s.create(ctx, RegisterInput{Name: "Administrator", Email: email, Password: password}, domain.RoleAdmin)
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	s.logger.WithField("email", domain.NormalizeEmail(email)).Info("admin account seeded")
	return nil
}

func (s *Service) create(ctx context.Context, in RegisterInput, role domain.Role) (domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	var errs []error
	if name == "" {
		errs = append(errs, domain.ErrNameRequired)
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		errs = append(errs, domain.ErrEmailInvalid)
	}
	if len(in.Password) < minPasswordLength {
		errs = append(errs, domain.ErrPasswordTooShort)
	}
	if len(errs) > 0 {
		return domain.User{}, errors.Join(errs...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.logger.WithFields(log.Fields{"user_id": user.ID, "role": role}).Info("user registered")
	return user, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"task_manager/internal/lib/jwt"
	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/models"
	"task_manager/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthorized       = errors.New("unauthorized")
)

// TokenPair is what a successful login hands back to the client.
type TokenPair struct {
	Access  string
	Refresh string
}

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	tokens      TokenManager
	events      EventPublisher
	cost        int
	now         func() time.Time
}

type UserSaver interface {
	SaveUser(ctx context.Context, email string, fullName *string, passHash []byte) (models.User, error)
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
}

type TokenManager interface {
	NewAccessToken(subject string) (string, error)
	NewRefreshToken(subject string) (string, error)
	Parse(token string) (jwt.Claims, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	tokens TokenManager,
	events EventPublisher,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		tokens:      tokens,
		events:      events,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
	}
}

// WithCost overrides the bcrypt cost used for new password hashes.
func (a *Auth) WithCost(cost int) *Auth {
	a.cost = cost
	return a
}

// dummyHash is compared against when the e-mail is unknown so that both
// login failures take roughly the same time.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return h
})

func (a *Auth) RegisterNewUser(
	ctx context.Context,
	email string,
	password string,
	fullName *string,
) (models.User, TokenPair, error) {
	const op = "auth.RegisterNewUser"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("registering new user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrSaver.SaveUser(ctx, email, fullName, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		log.Error("failed to save user", sl.Err(err))
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := a.issuePair(user.Email)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return models.User{}, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	event := models.Event{
		Type:       models.EventUserRegistered,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: a.now().UTC(),
	}
	if user.FullName != nil {
		event.FullName = *user.FullName
	}

	if err := a.events.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event", sl.Err(err))
	}

	log.Info("user registered", slog.Int64("uid", user.ID))

	return user, pair, nil
}

// Login checks the credentials and returns a fresh access and refresh token.
// Unknown e-mail and wrong password are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, password string) (TokenPair, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))

			log.Info("user not found")
			return TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		log.Error("failed to get user", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := a.issuePair(user.Email)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return pair, nil
}

// Refresh mints a new access token for the subject of a valid refresh token.
// Refresh tokens are not rotated.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	claims, err := a.tokens.Parse(refreshToken)
	if err != nil {
		log.Info("rejected refresh token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	access, err := a.tokens.NewAccessToken(claims.Subject)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("access token refreshed")

	return access, nil
}

// CurrentUser resolves a bearer token to its user. A token whose subject no
// longer exists is treated like an invalid one.
func (a *Auth) CurrentUser(ctx context.Context, token string) (models.User, error) {
	const op = "auth.CurrentUser"

	log := a.log.With(slog.String("op", op))

	claims, err := a.tokens.Parse(token)
	if err != nil {
		log.Debug("rejected token", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	user, err := a.usrProvider.User(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("token subject no longer exists")
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}

		log.Error("failed to get user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (a *Auth) issuePair(subject string) (TokenPair, error) {
	access, err := a.tokens.NewAccessToken(subject)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := a.tokens.NewRefreshToken(subject)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/authhub/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// UserStore is the slice of the user store the auth core consumes.
type UserStore interface {
	UserReader
	GetByID(ctx context.Context, id int64) (user.User, error)
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
	Update(ctx context.Context, id int64, email, passwordHash string) (user.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenCodec interface {
	GenerateAccessToken(subject string) (string, error)
	ParseAndVerify(token string) (string, error)
}

// Observer receives auth outcomes, e.g. for metrics.
type Observer interface {
	ObserveAuth(op, result string)
}

// Session is what register and login hand back.
type Session struct {
	AccessToken string
	Identity    user.Identity
}

type Service struct {
	users    UserStore
	resolver *Resolver
	hasher   PasswordHasher
	tokens   TokenCodec
	log      *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

func NewService(users UserStore, hasher PasswordHasher, tokens TokenCodec, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:    users,
		resolver: NewResolver(users),
		hasher:   hasher,
		tokens:   tokens,
		log:      log,
		tracer:   otel.Tracer("github.com/geocoder89/authhub/internal/auth"),
	}
}

func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

func (s *Service) Register(ctx context.Context, email, password string) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer span.End()

	existing, err := s.resolver.ByEmail(ctx, email)

	if err != nil {
		return Session{}, s.record(span, "register", err)
	}

	if existing != nil {
		return Session{}, s.record(span, "register", ErrEmailTaken)
	}

	hash, err := s.hasher.Hash(password)

	if err != nil {
		return Session{}, s.record(span, "register", fmt.Errorf("hash password: %w", err))
	}

	u, err := s.users.Create(ctx, email, hash)

	if err != nil {
		// lost a race against a concurrent registration of the same email
		return Session{}, s.record(span, "register", storeErr(err))
	}

	sess, err := s.issue(u)

	if err != nil {
		return Session{}, s.record(span, "register", err)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "email", u.Email)
	s.observe("register", "ok")

	return sess, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	u, err := s.resolver.ByEmail(ctx, email)

	if err != nil {
		return Session{}, s.record(span, "login", err)
	}

	// unknown email and wrong password must look the same to the caller
	if u == nil || !s.hasher.Verify(password, u.PasswordHash) {
		s.log.InfoContext(ctx, "login rejected", "email", email)
		return Session{}, s.record(span, "login", ErrInvalidCredentials)
	}

	sess, err := s.issue(*u)

	if err != nil {
		return Session{}, s.record(span, "login", err)
	}

	s.observe("login", "ok")

	return sess, nil
}

// Authenticate verifies the token and re-reads its subject from the store.
func (s *Service) Authenticate(ctx context.Context, token string) (user.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Authenticate")
	defer span.End()

	email, err := s.tokens.ParseAndVerify(token)

	if err != nil {
		return user.Identity{}, s.record(span, "authenticate", err)
	}

	u, err := s.resolver.ByEmail(ctx, email)

	if err != nil {
		return user.Identity{}, s.record(span, "authenticate", err)
	}

	if u == nil {
		return user.Identity{}, s.record(span, "authenticate", ErrInvalidCredentials)
	}

	s.observe("authenticate", "ok")

	return u.Identity(), nil
}

// ChangeCredentials replaces email and password of user id.
// The password is always re-hashed. The current password is not checked.
func (s *Service) ChangeCredentials(ctx context.Context, id int64, email, password string) (user.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "auth.ChangeCredentials", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	hash, err := s.hasher.Hash(password)

	if err != nil {
		return user.Identity{}, s.record(span, "change_credentials", fmt.Errorf("hash password: %w", err))
	}

	u, err := s.users.Update(ctx, id, email, hash)

	if err != nil {
		return user.Identity{}, s.record(span, "change_credentials", storeErr(err))
	}

	s.log.InfoContext(ctx, "credentials changed", "user_id", u.ID)
	s.observe("change_credentials", "ok")

	return u.Identity(), nil
}

func (s *Service) issue(u user.User) (Session, error) {
	token, err := s.tokens.GenerateAccessToken(u.Email)

	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}

	return Session{AccessToken: token, Identity: u.Identity()}, nil
}

func (s *Service) observe(op, result string) {
	if s.observer != nil {
		s.observer.ObserveAuth(op, result)
	}
}

func (s *Service) record(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	result := "error"
	if IsUnauthorized(err) || errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrNotFound) {
		result = "rejected"
	}

	s.observe(op, result)

	return err
}

// storeErr keeps the domain sentinels and tags everything else as a store failure.
func storeErr(err error) error {
	if errors.Is(err, user.ErrNotFound) || errors.Is(err, user.ErrEmailTaken) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// Package users drives account registration, profile editing and display
// through the profile field dispatcher.
package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/fields"
	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/render"
	"github.com/social-apps/backend/internal/storage"
	"github.com/social-apps/backend/internal/storage/models"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	ErrNotFound       = errors.New("user not found")
	ErrUnknownField   = errors.New("unknown profile field")
	ErrInvalidPrivacy = errors.New("invalid privacy value")
)

// FieldErrors maps input names to validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid fields: " + strings.Join(keys, ", ")
}

// Store persists accounts.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// PrivacyStore persists per-field privacy values.
type PrivacyStore interface {
	Set(ctx context.Context, userID int64, fieldKey, value string) error
	ListByUser(ctx context.Context, userID int64) (map[string]string, error)
}

// Indexer refreshes a user's search index entries.
type Indexer interface {
	IndexUser(ctx context.Context, user *models.User) error
}

// ProfileNotifier is told when a profile changes.
type ProfileNotifier interface {
	BroadcastProfileUpdated(userID int64)
}

type usernameChecker interface {
	CheckAvailability(ctx context.Context, username string, exceptID int64) error
}

// Deps are the service's collaborators. Notifier is optional.
type Deps struct {
	Dispatcher *fields.Dispatcher
	Users      Store
	Privacy    PrivacyStore
	Indexer    Indexer
	Notifier   ProfileNotifier
	Translator render.Translator
	Logger     logger.Logger
}

// Service manages accounts and their profile fields.
type Service struct {
	dispatcher *fields.Dispatcher
	users      Store
	privacy    PrivacyStore
	indexer    Indexer
	notifier   ProfileNotifier
	tr         render.Translator
	lggr       logger.Logger
}

// NewService creates a users service.
func NewService(d Deps) *Service {
	return &Service{
		dispatcher: d.Dispatcher,
		users:      d.Users,
		privacy:    d.Privacy,
		indexer:    d.Indexer,
		notifier:   d.Notifier,
		tr:         d.Translator,
		lggr:       d.Logger.Named("users"),
	}
}

// RegisterForm renders every field's registration input. errs are the
// messages of a previous failed attempt.
func (s *Service) RegisterForm(post fields.Post, errs map[string]string) ([]fields.Rendered, error) {
	return s.dispatcher.Register(post, &fields.Registration{Errors: errs})
}

// Register validates post and creates the account. Rule failures are
// returned as FieldErrors.
func (s *Service) Register(ctx context.Context, post fields.Post) (*models.User, error) {
	password := post["password"]
	delete(post, "password")

	errs, err := s.dispatcher.ValidateRegister(ctx, post)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs["password"] = s.tr.T("users.password.too_short", MinPasswordLength)
	}
	if len(errs) > 0 {
		return nil, FieldErrors(errs)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(post["name"]),
		PasswordHash: hash,
	}
	s.dispatcher.BeforeSaveRegister(post, user)

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.lggr.Infow("user registered", "user", user.ID, "email", logger.RedactEmail(user.Email))
	s.index(ctx, user)
	return user, nil
}

// EditForm renders the profile edit inputs for actor.
func (s *Service) EditForm(ctx context.Context, actor auth.ActingUser) ([]fields.Rendered, error) {
	user, err := s.load(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Edit(fields.Post{}, user, nil)
}

// Update validates post against actor's account and saves it.
func (s *Service) Update(ctx context.Context, actor auth.ActingUser, post fields.Post) (*models.User, error) {
	user, err := s.load(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	// fields left out of the submission keep their stored value
	for _, f := range s.dispatcher.Fields() {
		if _, ok := post[f.InputName()]; !ok {
			post[f.InputName()] = f.Value(user)
		}
	}

	errs, err := s.dispatcher.ValidateEdit(ctx, post, user)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, FieldErrors(errs)
	}

	if name, ok := post["name"]; ok {
		user.Name = strings.TrimSpace(name)
	}
	s.dispatcher.BeforeSaveEdit(post, user)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user %d: %w", user.ID, err)
	}

	s.index(ctx, user)
	if s.notifier != nil {
		s.notifier.BroadcastProfileUpdated(user.ID)
	}
	return user, nil
}

// Profile returns userID's account and the fields viewerID may see.
func (s *Service) Profile(ctx context.Context, viewerID, userID int64) (*models.User, []fields.Rendered, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	rendered, err := s.dispatcher.Display(ctx, viewerID, user)
	if err != nil {
		return nil, nil, err
	}
	return user, rendered, nil
}

// Samples renders the placeholder of every field.
func (s *Service) Samples() ([]fields.Rendered, error) {
	return s.dispatcher.Samples()
}

// CheckUsername reports whether username is free for actor. A nil error
// means available; rule failures are *fields.ValidationError.
func (s *Service) CheckUsername(ctx context.Context, actor auth.ActingUser, username string) error {
	f, ok := s.dispatcher.Field("username")
	if !ok {
		return ErrUnknownField
	}
	checker, ok := f.(usernameChecker)
	if !ok {
		return ErrUnknownField
	}
	return checker.CheckAvailability(ctx, username, actor.ID)
}

// Privacy returns actor's stored privacy values.
func (s *Service) Privacy(ctx context.Context, actor auth.ActingUser) (map[string]string, error) {
	return s.privacy.ListByUser(ctx, actor.ID)
}

// SetPrivacy stores actor's privacy value for fieldKey.
func (s *Service) SetPrivacy(ctx context.Context, actor auth.ActingUser, fieldKey, value string) error {
	if _, ok := s.dispatcher.Field(fieldKey); !ok {
		return ErrUnknownField
	}
	if !models.ValidPrivacy(value) {
		return ErrInvalidPrivacy
	}
	return s.privacy.Set(ctx, actor.ID, fieldKey, value)
}

// Login checks a username or email and password pair.
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	user, err := s.users.GetByUsername(ctx, identifier)
	if errors.Is(err, storage.ErrNotFound) && strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, identifier)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == "" || auth.CheckPassword(user.PasswordHash, password) != nil {
		return nil, auth.ErrInvalidCredentials
	}
	return user, nil
}

// OAuthLogin returns the account for an external identity, creating one
// named after the email when none exists.
func (s *Service) OAuthLogin(ctx context.Context, profile auth.OAuthProfile) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		Username: profile.Email,
		Email:    profile.Email,
		Name:     profile.Name,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating oauth user: %w", err)
	}

	s.lggr.Infow("user created from oauth login", "user", user.ID, "email", logger.RedactEmail(user.Email))
	s.index(ctx, user)
	return user, nil
}

func (s *Service) load(ctx context.Context, id int64) (*models.User, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %d: %w", id, err)
	}
	return user, nil
}

// index failures are logged; the nightly reindex repairs them.
func (s *Service) index(ctx context.Context, user *models.User) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexUser(ctx, user); err != nil {
		s.lggr.Warnw("indexing user", "user", user.ID, "err", err)
	}
}

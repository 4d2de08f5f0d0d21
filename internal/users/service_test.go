package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-apps/backend/internal/auth"
	"github.com/social-apps/backend/internal/fields"
	"github.com/social-apps/backend/internal/i18n"
	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/privacy"
	"github.com/social-apps/backend/internal/render"
	"github.com/social-apps/backend/internal/storage"
	"github.com/social-apps/backend/internal/storage/models"
)

type memUsers struct {
	rows   map[int64]models.User
	nextID int64
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{rows: map[int64]models.User{}}
	for _, u := range users {
		m.rows[u.ID] = u
		if u.ID > m.nextID {
			m.nextID = u.ID
		}
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.nextID++
	u.ID = m.nextID
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	if _, ok := m.rows[u.ID]; !ok {
		return storage.ErrNotFound
	}
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := m.rows[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) find(match func(models.User) bool) (*models.User, error) {
	for _, u := range m.rows {
		if match(u) {
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memUsers) UsernameExists(_ context.Context, username string, exceptID int64) (bool, error) {
	_, err := m.find(func(u models.User) bool {
		return u.ID != exceptID && strings.EqualFold(u.Username, username)
	})
	return err == nil, nil
}

type memPrivacy map[int64]map[string]string

func (m memPrivacy) Get(_ context.Context, userID int64, fieldKey string) (string, error) {
	if v, ok := m[userID][fieldKey]; ok {
		return v, nil
	}
	return models.PrivacyPublic, nil
}

func (m memPrivacy) Set(_ context.Context, userID int64, fieldKey, value string) error {
	if m[userID] == nil {
		m[userID] = map[string]string{}
	}
	m[userID][fieldKey] = value
	return nil
}

func (m memPrivacy) ListByUser(_ context.Context, userID int64) (map[string]string, error) {
	return m[userID], nil
}

type recordingIndexer struct {
	indexed []int64
	err     error
}

func (r *recordingIndexer) IndexUser(_ context.Context, u *models.User) error {
	r.indexed = append(r.indexed, u.ID)
	return r.err
}

type recordingNotifier struct {
	updated []int64
}

func (r *recordingNotifier) BroadcastProfileUpdated(userID int64) {
	r.updated = append(r.updated, userID)
}

type fixture struct {
	svc      *Service
	users    *memUsers
	privacy  memPrivacy
	indexer  *recordingIndexer
	notifier *recordingNotifier
}

func newFixture(t *testing.T, emailAsUsername bool, existing ...models.User) fixture {
	t.Helper()
	tr := i18n.New("en")
	users := newMemUsers(existing...)
	priv := memPrivacy{}
	deps := fields.Deps{
		Renderer:   render.New(tr),
		Translator: tr,
		Privacy:    privacy.NewService(priv),
		Logger:     logger.Test(t),
	}
	dispatcher := fields.NewDispatcher(
		fields.NewEmailField(fields.EmailParams{Searchable: true}, emailAsUsername, users, deps),
		fields.NewUsernameField(fields.UsernameParams{}, emailAsUsername, users, deps),
	)
	f := fixture{
		users:    users,
		privacy:  priv,
		indexer:  &recordingIndexer{},
		notifier: &recordingNotifier{},
	}
	f.svc = NewService(Deps{
		Dispatcher: dispatcher,
		Users:      users,
		Privacy:    priv,
		Indexer:    f.indexer,
		Notifier:   f.notifier,
		Translator: tr,
		Logger:     logger.Test(t),
	})
	return f
}

func existingUser(t *testing.T) models.User {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	return models.User{ID: 1, Username: "alice", Email: "alice@example.com", Name: "Alice", PasswordHash: hash}
}

func TestRegister(t *testing.T) {
	f := newFixture(t, false)

	post := fields.Post{
		"email":    " bob@example.com ",
		"username": "bobby",
		"name":     "Bob",
		"password": "hunter2hunter2",
	}
	user, err := f.svc.Register(context.Background(), post)
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.Equal(t, "bobby", user.Username)
	assert.Equal(t, "Bob", user.Name)
	assert.NoError(t, auth.CheckPassword(user.PasswordHash, "hunter2hunter2"))
	assert.NotContains(t, post, "email")
	assert.NotContains(t, post, "password")
	assert.Equal(t, []int64{1}, f.indexer.indexed)
}

func TestRegister_EmailAsUsername(t *testing.T) {
	f := newFixture(t, true)

	user, err := f.svc.Register(context.Background(), fields.Post{
		"email":    "carol@example.com",
		"password": "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", user.Username)
}

func TestRegister_FieldErrors(t *testing.T) {
	f := newFixture(t, false, existingUser(t))

	_, err := f.svc.Register(context.Background(), fields.Post{
		"email":    "ALICE@example.com",
		"username": "x",
		"password": "short",
	})

	var ferrs FieldErrors
	require.ErrorAs(t, err, &ferrs)
	assert.Equal(t, FieldErrors{
		"email":    "This email address is already used by another account.",
		"username": "The username must be at least 4 characters.",
		"password": "The password must be at least 8 characters.",
	}, ferrs)
	assert.Len(t, f.users.rows, 1)
}

func TestRegisterForm(t *testing.T) {
	f := newFixture(t, false)

	rendered, err := f.svc.RegisterForm(fields.Post{"email": "x@y.org"}, map[string]string{"email": "Bad"})
	require.NoError(t, err)
	require.Len(t, rendered, 2)
	assert.Equal(t, "email", rendered[0].Key)
	assert.Contains(t, rendered[0].HTML, "x@y.org")
	assert.Contains(t, rendered[0].HTML, "Bad")
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, false, existingUser(t))
	actor := auth.ActingUser{ID: 1}

	user, err := f.svc.Update(context.Background(), actor, fields.Post{
		"email":    "alice@example.com",
		"username": "alice2",
		"name":     "Alice L",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice2", user.Username)
	assert.Equal(t, "Alice L", f.users.rows[1].Name)
	assert.Equal(t, []int64{1}, f.indexer.indexed)
	assert.Equal(t, []int64{1}, f.notifier.updated)
}

func TestUpdate_KeepsEmailWhenNotPosted(t *testing.T) {
	f := newFixture(t, false, existingUser(t))

	user, err := f.svc.Update(context.Background(), auth.ActingUser{ID: 1}, fields.Post{"name": "A"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestUpdate_IndexFailureIsLogged(t *testing.T) {
	f := newFixture(t, false, existingUser(t))
	f.indexer.err = errors.New("index down")

	_, err := f.svc.Update(context.Background(), auth.ActingUser{ID: 1}, fields.Post{"name": "A"})
	require.NoError(t, err)
}

func TestUpdate_UnknownUser(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Update(context.Background(), auth.ActingUser{ID: 9}, fields.Post{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProfile_RespectsPrivacy(t *testing.T) {
	f := newFixture(t, false, existingUser(t))
	require.NoError(t, f.svc.SetPrivacy(context.Background(), auth.ActingUser{ID: 1}, "email", models.PrivacyOnlyMe))

	_, rendered, err := f.svc.Profile(context.Background(), 2, 1)
	require.NoError(t, err)
	for _, r := range rendered {
		assert.NotEqual(t, "email", r.Key)
	}

	_, rendered, err = f.svc.Profile(context.Background(), 1, 1)
	require.NoError(t, err)
	var keys []string
	for _, r := range rendered {
		keys = append(keys, r.Key)
	}
	assert.Contains(t, keys, "email")
}

func TestSetPrivacy_Rejections(t *testing.T) {
	f := newFixture(t, false, existingUser(t))
	actor := auth.ActingUser{ID: 1}

	assert.ErrorIs(t, f.svc.SetPrivacy(context.Background(), actor, "shoe_size", models.PrivacyPublic), ErrUnknownField)
	assert.ErrorIs(t, f.svc.SetPrivacy(context.Background(), actor, "email", "friends"), ErrInvalidPrivacy)

	values, err := f.svc.Privacy(context.Background(), actor)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestCheckUsername(t *testing.T) {
	f := newFixture(t, false, existingUser(t))

	assert.NoError(t, f.svc.CheckUsername(context.Background(), auth.ActingUser{}, "someone"))
	assert.NoError(t, f.svc.CheckUsername(context.Background(), auth.ActingUser{ID: 1}, "alice"))

	err := f.svc.CheckUsername(context.Background(), auth.ActingUser{ID: 2}, "Alice")
	var verr *fields.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "This username is already taken.", verr.Message)
}

func TestLogin(t *testing.T) {
	f := newFixture(t, false, existingUser(t))

	u, err := f.svc.Login(context.Background(), "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	u, err = f.svc.Login(context.Background(), "Alice@Example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = f.svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "nobody", "correct horse")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestOAuthLogin(t *testing.T) {
	f := newFixture(t, false, existingUser(t))

	u, err := f.svc.OAuthLogin(context.Background(), auth.OAuthProfile{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	u, err = f.svc.OAuthLogin(context.Background(), auth.OAuthProfile{Email: "dan@example.org", Name: "Dan"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
	assert.Equal(t, "dan@example.org", u.Username)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, []int64{2}, f.indexer.indexed)

	// accounts without a password cannot log in with one
	_, err = f.svc.Login(context.Background(), "dan@example.org", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

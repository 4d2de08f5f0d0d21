package fields

import (
	"context"
	"strings"
	"testing"

	"github.com/social-apps/backend/internal/i18n"
	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/render"
)

type fakeUsers struct {
	emails    map[string]bool
	usernames map[string]int64
	err       error
}

func (f *fakeUsers) EmailExists(_ context.Context, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.emails[strings.ToLower(email)], nil
}

func (f *fakeUsers) UsernameExists(_ context.Context, username string, exceptID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	id, ok := f.usernames[strings.ToLower(username)]
	return ok && id != exceptID, nil
}

type fakePrivacy struct {
	allow bool
	err   error
	calls []int64
}

func (f *fakePrivacy) Allowed(_ context.Context, viewerID, ownerID int64, _, _ string) (bool, error) {
	f.calls = append(f.calls, viewerID, ownerID)
	return f.allow, f.err
}

func testDeps(t *testing.T, p *fakePrivacy) Deps {
	t.Helper()
	tr := i18n.New("en")
	if p == nil {
		p = &fakePrivacy{allow: true}
	}
	return Deps{
		Renderer:   render.New(tr),
		Translator: tr,
		Privacy:    p,
		Logger:     logger.Test(t),
	}
}

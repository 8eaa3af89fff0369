package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/axokaze/kaze-api/internal/model"
	"github.com/axokaze/kaze-api/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository with the same
// compare-and-set semantics as the Mongo implementation: conditional
// methods check their state assertion and mutate under one lock.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, repository.ErrDuplicateEmail
		}
	}

	user.ID = bson.NewObjectID()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users[user.ID.Hex()] = copyUser(user)
	return copyUser(user), nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(user), nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, id string, params repository.UpdateUserParams) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if params.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *params.Email {
				return nil, repository.ErrDuplicateEmail
			}
		}
		user.Email = *params.Email
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.PasswordHash != nil {
		user.PasswordHash = *params.PasswordHash
	}
	user.UpdatedAt = time.Now()

	return copyUser(user), nil
}

func (r *fakeUserRepo) SetLoginOTP(_ context.Context, id string, otp model.LoginOTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.LoginOTP = &otp
	return nil
}

func (r *fakeUserRepo) ConsumeLoginOTP(_ context.Context, id, code string, now time.Time) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.LoginOTP == nil {
		return nil, repository.ErrNotFound
	}

	otp := user.LoginOTP
	if otp.Code != code || otp.Attempts >= model.MaxLoginOTPAttempts || !otp.ExpiresAt.After(now) {
		return nil, repository.ErrNotFound
	}

	user.LoginOTP = nil
	user.Verified = true
	user.UpdatedAt = now
	return copyUser(user), nil
}

func (r *fakeUserRepo) RecordOTPMismatch(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.LoginOTP == nil || user.LoginOTP.Attempts >= model.MaxLoginOTPAttempts {
		return 0, repository.ErrNotFound
	}

	user.LoginOTP.Attempts++
	return user.LoginOTP.Attempts, nil
}

func (r *fakeUserRepo) ClearExpiredLoginOTP(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if ok && user.LoginOTP != nil && !user.LoginOTP.ExpiresAt.After(now) {
		user.LoginOTP = nil
		user.UpdatedAt = now
	}
	return nil
}

func (r *fakeUserRepo) SetRefreshToken(_ context.Context, id string, token model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.RefreshToken = &token
	return nil
}

func (r *fakeUserRepo) RotateRefreshToken(
	_ context.Context,
	id, presented string,
	now time.Time,
	next model.RefreshToken,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.RefreshToken == nil {
		return nil, repository.ErrNotFound
	}
	if user.RefreshToken.Value != presented || !user.RefreshToken.ExpiresAt.After(now) {
		return nil, repository.ErrNotFound
	}

	user.RefreshToken = &next
	user.UpdatedAt = now
	return copyUser(user), nil
}

func (r *fakeUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[id]; ok {
		user.RefreshToken = nil
	}
	return nil
}

func (r *fakeUserRepo) SetPasswordReset(_ context.Context, id string, reset model.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordReset = &reset
	return nil
}

func (r *fakeUserRepo) GetUserByResetToken(_ context.Context, token string, now time.Time) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.PasswordReset != nil &&
			user.PasswordReset.Token == token &&
			user.PasswordReset.ExpiresAt.After(now) {
			return copyUser(user), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) ClearExpiredPasswordReset(_ context.Context, token string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.PasswordReset != nil &&
			user.PasswordReset.Token == token &&
			!user.PasswordReset.ExpiresAt.After(now) {
			user.PasswordReset = nil
			user.UpdatedAt = now
		}
	}
	return nil
}

func (r *fakeUserRepo) ResetPassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}

	user.PasswordHash = passwordHash
	user.PasswordReset = nil
	user.RefreshToken = nil
	return nil
}

// mutate runs fn against the stored record, bypassing the repository
// surface. Test setup only.
func (r *fakeUserRepo) mutate(id string, fn func(*model.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		fn(user)
	}
}

func copyUser(user *model.User) *model.User {
	clone := *user
	if user.LoginOTP != nil {
		otp := *user.LoginOTP
		clone.LoginOTP = &otp
	}
	if user.PasswordReset != nil {
		reset := *user.PasswordReset
		clone.PasswordReset = &reset
	}
	if user.RefreshToken != nil {
		token := *user.RefreshToken
		clone.RefreshToken = &token
	}
	return &clone
}

// fakeMailer records dispatched emails and can be told to fail.
type fakeMailer struct {
	mu       sync.Mutex
	otps     []sentEmail
	resets   []sentEmail
	failNext bool
}

type sentEmail struct {
	to      string
	payload string
}

func (m *fakeMailer) SendLoginOTP(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return errors.New("smtp unreachable")
	}
	m.otps = append(m.otps, sentEmail{to: to, payload: code})
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, resetLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return errors.New("smtp unreachable")
	}
	m.resets = append(m.resets, sentEmail{to: to, payload: resetLink})
	return nil
}

func (m *fakeMailer) lastOTP() (sentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.otps) == 0 {
		return sentEmail{}, false
	}
	return m.otps[len(m.otps)-1], true
}

func (m *fakeMailer) lastReset() (sentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.resets) == 0 {
		return sentEmail{}, false
	}
	return m.resets[len(m.resets)-1], true
}

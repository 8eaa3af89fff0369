package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProfileUsecase(t *testing.T) (ProfileUsecase, AuthUsecase, *fakeUserRepo) {
	t.Helper()

	repo := newFakeUserRepo()
	jwtAuth := newTestJWT()
	return NewProfileUsecase(repo, jwtAuth),
		NewAuthUsecase(repo, jwtAuth, &fakeMailer{}),
		repo
}

func strptr(s string) *string { return &s }

func TestGetProfile(t *testing.T) {
	t.Parallel()
	profileUC, authUC, _ := newTestProfileUsecase(t)

	registered := registerTestUser(t, authUC)

	profile, err := profileUC.GetProfile(context.Background(), registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aiko", profile.Name)
	assert.Equal(t, "a@example.com", profile.Email)
}

func TestGetProfile_UnknownUser(t *testing.T) {
	t.Parallel()
	profileUC, _, _ := newTestProfileUsecase(t)

	_, err := profileUC.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile_PasswordGateAppliesToNameOnlyChange(t *testing.T) {
	t.Parallel()
	profileUC, authUC, _ := newTestProfileUsecase(t)

	registered := registerTestUser(t, authUC)

	_, err := profileUC.UpdateProfile(context.Background(), UpdateProfileParams{
		UserID:          registered.User.ID,
		Name:            strptr("Akio"),
		CurrentPassword: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile_NameChangeRotatesTokens(t *testing.T) {
	t.Parallel()
	profileUC, authUC, repo := newTestProfileUsecase(t)

	registered := registerTestUser(t, authUC)

	result, err := profileUC.UpdateProfile(context.Background(), UpdateProfileParams{
		UserID:          registered.User.ID,
		Name:            strptr("Akio"),
		CurrentPassword: "Secret1!",
	})
	require.NoError(t, err)
	assert.Equal(t, "Akio", result.User.Name)
	require.NotNil(t, result.Tokens, "an identity change is a re-authentication event")

	// The rotation supersedes the refresh token issued at registration.
	stored, err := repo.GetUser(context.Background(), registered.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, result.Tokens.RefreshToken, stored.RefreshToken.Value)
	assert.NotEqual(t, registered.Tokens.RefreshToken, stored.RefreshToken.Value)

	_, err = authUC.RefreshTokens(context.Background(), registered.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestUpdateProfile_EmailChange(t *testing.T) {
	t.Parallel()
	profileUC, authUC, _ := newTestProfileUsecase(t)

	registered := registerTestUser(t, authUC)

	result, err := profileUC.UpdateProfile(context.Background(), UpdateProfileParams{
		UserID:          registered.User.ID,
		Email:           strptr("New@Example.com"),
		CurrentPassword: "Secret1!",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", result.User.Email)
	require.NotNil(t, result.Tokens)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	t.Parallel()
	profileUC, authUC, _ := newTestProfileUsecase(t)

	registered := registerTestUser(t, authUC)
	_, err := authUC.Register(context.Background(), RegisterParams{
		Name:     "Hana",
		Email:    "h@example.com",
		Password: "Secret1!",
	})
	require.NoError(t, err)

	_, err = profileUC.UpdateProfile(context.Background(), UpdateProfileParams{
		UserID:          registered.User.ID,
		Email:           strptr("h@example.com"),
		CurrentPassword: "Secret1!",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateProfile_NoEffectiveChange(t *testing.T) {
	t.Parallel()
	profileUC, authUC, _ := newTestProfileUsecase(t)

	registered := registerTestUser(t, authUC)

	// Same values as stored: nothing to apply, no rotation.
	result, err := profileUC.UpdateProfile(context.Background(), UpdateProfileParams{
		UserID:          registered.User.ID,
		Name:            strptr("Aiko"),
		Email:           strptr("a@example.com"),
		CurrentPassword: "Secret1!",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Tokens)
	assert.Equal(t, "Aiko", result.User.Name)
}

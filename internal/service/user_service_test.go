package service

import (
	"context"
	"testing"

	"toolshed/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.users, env.audit)
	ctx := context.Background()

	admin := createUser(t, env.db, "admin", "", "", model.RoleAdmin)

	created, err := svc.CreateUser(ctx, admin.ID.String(), CreateUserRequest{
		Username:  "jane",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "s3cret!",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane", created.Username)
	assert.Equal(t, "Jane Doe", created.FullName)
	assert.Equal(t, model.RoleMember, created.Role)

	t.Run("duplicate username rejected", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, admin.ID.String(), CreateUserRequest{
			Username: "jane",
			Email:    "other@example.com",
			Password: "s3cret!",
		})
		assert.Error(t, err)
	})

	t.Run("password is stored hashed", func(t *testing.T) {
		var stored model.User
		require.NoError(t, env.db.Where("username = ?", "jane").First(&stored).Error)
		assert.NotEqual(t, "s3cret!", stored.Password)
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.users, env.audit)
	ctx := context.Background()

	admin := createUser(t, env.db, "admin", "", "", model.RoleAdmin)
	_, err := svc.CreateUser(ctx, admin.ID.String(), CreateUserRequest{
		Username: "jane",
		Email:    "jane@example.com",
		Password: "s3cret!",
	})
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, LoginUserRequest{Username: "jane", Password: "s3cret!"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginUserRequest{Username: "jane", Password: "nope"})
		assert.Error(t, err)
	})

	t.Run("refresh rotates the token", func(t *testing.T) {
		rotated, err := svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
		require.NoError(t, err)
		assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

		// The old token is now unusable
		_, err = svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
		assert.Error(t, err)
	})
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.users, env.audit)
	ctx := context.Background()

	admin := createUser(t, env.db, "admin", "", "", model.RoleAdmin)
	member := createUser(t, env.db, "bob", "", "", model.RoleMember)

	t.Run("cannot delete own account", func(t *testing.T) {
		err := svc.DeleteUser(ctx, admin.ID.String(), admin.ID.String())
		assert.Error(t, err)
	})

	t.Run("deletes another user", func(t *testing.T) {
		require.NoError(t, svc.DeleteUser(ctx, admin.ID.String(), member.ID.String()))
		err := svc.DeleteUser(ctx, admin.ID.String(), member.ID.String())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

package userservice

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/Elmar465/SpendSnap/internal/domain"
	"github.com/Elmar465/SpendSnap/pkg/passpkg"
	"github.com/Elmar465/SpendSnap/pkg/randompkg"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()

	username := randompkg.Owner()
	password := randompkg.String(10)
	email := randompkg.Email()

	t.Run("OK", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := NewMockRepo(ctrl)
		service := New(repo)

		repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Times(1).
			DoAndReturn(func(_ context.Context, arg domain.CreateUserParams) (domain.User, error) {
				// The service must never hand the plain password to the store.
				require.NotEqual(t, password, arg.HashedPassword)
				require.NoError(t, passpkg.Check(password, arg.HashedPassword))

				return domain.User{
					ID:             1,
					Username:       arg.Username,
					HashedPassword: arg.HashedPassword,
					FullName:       arg.FullName,
					Email:          arg.Email,
				}, nil
			})

		got, err := service.Create(ctx, username, password, "Test User", email)
		require.NoError(t, err)
		require.Equal(t, int32(1), got.ID)
		require.Equal(t, username, got.Username)
		require.Equal(t, email, got.Email)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := NewMockRepo(ctrl)
		service := New(repo)

		repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Times(1).
			Return(domain.User{}, domain.ErrUsernameAlreadyExists)

		_, err := service.Create(ctx, username, password, "Test User", email)
		require.ErrorIs(t, err, domain.ErrUsernameAlreadyExists)
	})
}

func TestCheckPassword(t *testing.T) {
	ctx := context.Background()

	username := randompkg.Owner()
	password := randompkg.String(10)

	hashed, err := passpkg.Hash(password)
	require.NoError(t, err)

	user := domain.User{
		ID:             1,
		Username:       username,
		HashedPassword: hashed,
	}

	t.Run("OK", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := NewMockRepo(ctrl)
		service := New(repo)

		repo.EXPECT().
			Get(gomock.Any(), gomock.Eq(username)).
			Times(1).
			Return(user, nil)

		got, err := service.CheckPassword(ctx, username, password)
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
		require.Equal(t, username, got.Username)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := NewMockRepo(ctrl)
		service := New(repo)

		repo.EXPECT().
			Get(gomock.Any(), gomock.Eq(username)).
			Times(1).
			Return(user, nil)

		_, err := service.CheckPassword(ctx, username, "not-the-password")
		require.ErrorIs(t, err, domain.ErrWrongPassword)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := NewMockRepo(ctrl)
		service := New(repo)

		repo.EXPECT().
			Get(gomock.Any(), gomock.Eq(username)).
			Times(1).
			Return(domain.User{}, domain.ErrUserNotFound)

		_, err := service.CheckPassword(ctx, username, password)
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

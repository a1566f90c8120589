package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

var userColumnNames = []string{
	"id", "first_name", "last_name", "email", "college", "avatar_url", "password_hash", "email_verified", "created_at",
}

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepository(db), mock
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value"})

	err := repo.Create(context.Background(), &domain.User{ID: "u1", Email: "riya@ves.ac.in"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_NormalizesEmail(t *testing.T) {
	repo, mock := newUserRepo(t)
	created := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("u1", "Riya", "K", "riya@ves.ac.in", "VESIT", sqlmock.AnyArg(), "hash", false, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.User{
		ID:           "u1",
		FirstName:    "Riya",
		LastName:     "K",
		Email:        " Riya@VES.ac.in ",
		College:      "VESIT",
		PasswordHash: "hash",
		CreatedAt:    created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo, mock := newUserRepo(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("riya@ves.ac.in").
		WillReturnRows(sqlmock.NewRows(userColumnNames).
			AddRow("u1", "Riya", "K", "riya@ves.ac.in", "VESIT", nil, "hash", true, created))

	user, err := repo.GetByEmail(context.Background(), "RIYA@ves.ac.in")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.EmailVerified)
	assert.Empty(t, user.AvatarURL)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkVerified_UnknownUser(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email_verified = TRUE WHERE id = $1")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkVerified(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPushSubscriptionRepository_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPushSubscriptionRepository(db)

	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM push_subscriptions WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "user_id", "p256dh", "auth", "created_at"}).
			AddRow("https://push.example.com/a", "u1", "key", "auth", created).
			AddRow("https://push.example.com/b", "u1", "key2", "auth2", created))

	subs, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "https://push.example.com/b", subs[1].Endpoint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

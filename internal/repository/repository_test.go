package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/coriplus/coriplus/internal/models"
	"github.com/coriplus/coriplus/internal/repository"
	"github.com/coriplus/coriplus/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_FindByCredentials(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	testutil.CreateAdmin(t, db, "root")
	repo := repository.NewUserRepository(db)

	user, err := repo.FindByCredentials(ctx, "root", testutil.Password("root"))
	require.NoError(t, err)
	assert.Equal(t, "root", user.Username)
	assert.True(t, user.IsAdmin())

	_, err = repo.FindByCredentials(ctx, "root", "wrong")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.FindByCredentials(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_SetDisabled(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "alice")
	repo := repository.NewUserRepository(db)

	require.NoError(t, repo.SetDisabled(ctx, user.ID, models.DisabledStatePermanent))
	got, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DisabledStatePermanent, got.IsDisabled)

	assert.ErrorIs(t, repo.SetDisabled(ctx, 9999, models.DisabledStatePermanent), repository.ErrNotFound)
}

func TestReportRepository_ListOrdered(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	oldest := testutil.CreateReport(t, db, models.UserRef{ID: 1}, base)
	newest := testutil.CreateReport(t, db, models.MessageRef{ID: 2}, base.Add(2*time.Hour))
	middle := testutil.CreateReport(t, db, models.MessageRef{ID: 3}, base.Add(time.Hour))

	repo := repository.NewReportRepository(db)
	reports, total, err := repo.ListOrdered(ctx, repository.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, reports, 3)
	assert.Equal(t, []uint{newest.ID, middle.ID, oldest.ID}, []uint{reports[0].ID, reports[1].ID, reports[2].ID})

	reports, _, err = repo.ListOrdered(ctx, repository.ReportFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, middle.ID, reports[0].ID)
}

func TestReportRepository_ListOrderedByStatus(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.CreateReport(t, db, models.UserRef{ID: 1}, time.Now())
	testutil.CreateReport(t, db, models.UserRef{ID: 2}, time.Now())

	repo := repository.NewReportRepository(db)
	require.NoError(t, repo.UpdateStatus(ctx, a.ID, models.ReportStatusDeclined))

	declined := models.ReportStatusDeclined
	reports, total, err := repo.ListOrdered(ctx, repository.ReportFilter{Status: &declined})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, reports, 1)
	assert.Equal(t, a.ID, reports[0].ID)

	pending, err := repo.CountByStatus(ctx, models.ReportStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestReportRepository_FindByIDMissing(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := repository.NewReportRepository(db).FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReportRepository_ResolveMedia(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	first := testutil.CreateReport(t, db, models.MessageRef{ID: 42}, time.Now())
	second := testutil.CreateReport(t, db, models.MessageRef{ID: 42}, time.Now())
	other := testutil.CreateReport(t, db, models.UserRef{ID: 42}, time.Now())

	repo := repository.NewReportRepository(db)
	reviewer := uint(5)
	n, err := repo.ResolveMedia(ctx, models.MessageRef{ID: 42}, models.ReportStatusAccepted, &reviewer, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []uint{first.ID, second.ID} {
		got, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusAccepted, got.Status)
		require.NotNil(t, got.ReviewedByID)
		assert.Equal(t, reviewer, *got.ReviewedByID)
	}
	got, err := repo.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, got.Status)
}

func TestMessageRepository_DeleteByIDIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "bob")
	msg := testutil.CreateMessage(t, db, author, "hello")
	require.NoError(t, db.Create(&models.MessageUpvote{MessageID: msg.ID, UserID: author.ID, CreatedDate: time.Now()}).Error)
	require.NoError(t, db.Create(&models.Upload{MessageID: msg.ID, Type: "png"}).Error)

	repo := repository.NewMessageRepository(db)
	deleted, err := repo.DeleteByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err := repo.Exists(ctx, msg.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	var upvotes, uploads int64
	db.Model(&models.MessageUpvote{}).Count(&upvotes)
	db.Model(&models.Upload{}).Count(&uploads)
	assert.Zero(t, upvotes)
	assert.Zero(t, uploads)

	deleted, err = repo.DeleteByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUserRepository_GrantAdminTwice(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "mod")
	users := repository.NewUserRepository(db)

	require.NoError(t, users.GrantAdmin(ctx, user.ID))
	require.NoError(t, users.GrantAdmin(ctx, user.ID))

	got, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
}

func TestUserRepository_CreateDuplicateUsername(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice")

	err := repository.NewUserRepository(db).Create(context.Background(), &models.User{
		Username: "alice",
		Password: "x",
		Birthday: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepository_RevokeRefreshTokens(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	for _, owner := range []*models.User{alice, alice, bob} {
		require.NoError(t, db.Create(&models.RefreshToken{
			ID:        uuid.New(),
			UserID:    owner.ID,
			TokenHash: uuid.NewString(),
			ExpiresAt: time.Now().Add(time.Hour),
		}).Error)
	}

	require.NoError(t, repository.NewUserRepository(db).RevokeRefreshTokens(ctx, alice.ID))

	var live int64
	db.Model(&models.RefreshToken{}).Where("revoked = ?", false).Count(&live)
	assert.Equal(t, int64(1), live)
	db.Model(&models.RefreshToken{}).Where("user_id = ? AND revoked = ?", bob.ID, false).Count(&live)
	assert.Equal(t, int64(1), live)
}

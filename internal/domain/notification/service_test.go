package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"residence/internal/realtime"
)

type fakePusher struct {
	pushed    []int64
	connected map[int64]bool
}

func (f *fakePusher) PushToUser(residentID int64, event *realtime.Event) bool {
	if !f.connected[residentID] {
		return false
	}
	f.pushed = append(f.pushed, residentID)
	return true
}

func setupService(t *testing.T) (*Service, *fakePusher, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:notification_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Notification{}))

	pusher := &fakePusher{connected: map[int64]bool{}}
	svc := NewService(NewRepository(db), pusher, zap.NewNop())
	return svc, pusher, db
}

func TestSend_PersistsAndPushes(t *testing.T) {
	svc, pusher, _ := setupService(t)
	ctx := context.Background()
	pusher.connected[7] = true

	require.NoError(t, svc.ClaimFiled(ctx, 7, 1, 42, "101"))

	list, unread, err := svc.List(ctx, 7, nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, TypeClaimNew, list[0].Type)
	assert.False(t, list[0].IsRead)
	assert.EqualValues(t, 1, unread)
	assert.Equal(t, []int64{7}, pusher.pushed)
}

func TestSend_OfflineRecipientStillPersisted(t *testing.T) {
	svc, pusher, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.CallMissed(ctx, 9, 1, 5, "Amir Akhmetov"))

	assert.Empty(t, pusher.pushed, "no live connection, no push")
	unread, err := svc.UnreadCount(ctx, 9, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestSend_RejectsUnknownType(t *testing.T) {
	svc, _, db := setupService(t)

	err := svc.Send(context.Background(), &Notification{
		ResidentID: 1,
		BuildingID: 1,
		Type:       Type("SOMETHING_ELSE"),
		Title:      "x",
	})
	assert.ErrorIs(t, err, ErrUnknownType)

	var count int64
	db.Model(&Notification{}).Count(&count)
	assert.Zero(t, count)
}

func TestList_BuildingScope(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.ClaimFiled(ctx, 7, 1, 1, "101"))
	require.NoError(t, svc.ClaimFiled(ctx, 7, 2, 2, "305"))

	all, _, err := svc.List(ctx, 7, nil, 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	b1 := int64(1)
	scoped, unread, err := svc.List(ctx, 7, &b1, 20, 0)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.EqualValues(t, 1, scoped[0].BuildingID)
	assert.EqualValues(t, 1, unread)
}

func TestGet_OwnerOnly(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.ClaimFiled(ctx, 7, 1, 42, "101"))
	list, _, err := svc.List(ctx, 7, nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := svc.Get(ctx, list[0].ID, 7)
	require.NoError(t, err)
	assert.Equal(t, TypeClaimNew, got.Type)

	_, err = svc.Get(ctx, list[0].ID, 8)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, 99999, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkAsRead_Idempotent(t *testing.T) {
	svc, _, db := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.ClaimFiled(ctx, 7, 1, 1, "101"))
	var n Notification
	require.NoError(t, db.First(&n).Error)

	require.NoError(t, svc.MarkAsRead(ctx, n.ID, 7))

	var after Notification
	require.NoError(t, db.First(&after, n.ID).Error)
	require.True(t, after.IsRead)
	require.True(t, after.ReadAt.Valid)
	firstReadAt := after.ReadAt.Time

	// A second mark must succeed without touching read_at.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.MarkAsRead(ctx, n.ID, 7))
	require.NoError(t, db.First(&after, n.ID).Error)
	assert.True(t, after.ReadAt.Time.Equal(firstReadAt), "read_at must never change once set")
}

func TestMarkAsRead_WrongResident(t *testing.T) {
	svc, _, db := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.ClaimFiled(ctx, 7, 1, 1, "101"))
	var n Notification
	require.NoError(t, db.First(&n).Error)

	err := svc.MarkAsRead(ctx, n.ID, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.First(&n, n.ID).Error)
	assert.False(t, n.IsRead)
}

func TestMarkAllAsRead_Idempotent(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.ClaimFiled(ctx, 7, 1, 1, "101"))
	require.NoError(t, svc.ClaimFiled(ctx, 7, 1, 2, "102"))
	require.NoError(t, svc.ClaimFiled(ctx, 8, 1, 3, "103"))

	require.NoError(t, svc.MarkAllAsRead(ctx, 7))
	unread, err := svc.UnreadCount(ctx, 7, nil)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// Other residents are untouched.
	unread, err = svc.UnreadCount(ctx, 8, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	// Running it again with nothing unread is fine.
	require.NoError(t, svc.MarkAllAsRead(ctx, 7))
}

func TestTypeValid(t *testing.T) {
	for _, typ := range []Type{TypeClaimNew, TypeClaimAffected, TypeClaimStatusUpdate, TypeChatMessage, TypeCallMissed} {
		assert.True(t, typ.Valid(), string(typ))
	}
	assert.False(t, Type("EMAIL").Valid())
	assert.False(t, Type("").Valid())
}

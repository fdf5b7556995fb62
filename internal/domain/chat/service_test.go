package chat

import (
	"context"
	"database/sql"
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

	"residence/internal/domain/directory"
	"residence/internal/realtime"
)

type fakeHub struct {
	broadcasts []int64 // channel IDs
	connected  map[int64]bool
}

func (f *fakeHub) BroadcastToChannel(channelID int64, event *realtime.Event) {
	f.broadcasts = append(f.broadcasts, channelID)
}

func (f *fakeHub) IsConnected(residentID int64) bool { return f.connected[residentID] }

type fakeNotifier struct {
	notified []int64
}

func (f *fakeNotifier) ChatMessage(ctx context.Context, residentID, buildingID, channelID int64, senderName, preview string) error {
	f.notified = append(f.notified, residentID)
	return nil
}

type chatFixture struct {
	service *Service
	hub     *fakeHub
	notifs  *fakeNotifier

	building directory.Building
	admin    directory.Resident
	amir     directory.Resident
	siamak   directory.Resident
	outsider directory.Resident
}

func setupChat(t *testing.T) *chatFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:chat_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&directory.Building{},
		&directory.Apartment{},
		&directory.Resident{},
		&directory.Membership{},
		&Channel{},
		&ChannelMember{},
		&Message{},
	))

	dirRepo := directory.NewRepository(db)
	f := &chatFixture{
		hub:    &fakeHub{connected: map[int64]bool{}},
		notifs: &fakeNotifier{},
	}
	f.service = NewService(NewRepository(db), dirRepo, f.notifs, f.hub, zap.NewNop())

	ctx := context.Background()
	f.building = directory.Building{Name: "Jasmine Residence", City: "Almaty"}
	require.NoError(t, dirRepo.CreateBuilding(ctx, &f.building))

	addResident := func(email, first, last string, role directory.Role, member bool) directory.Resident {
		r := directory.Resident{Email: email, PasswordHash: "x", FirstName: first, LastName: last}
		require.NoError(t, dirRepo.CreateResident(ctx, &r))
		if member {
			require.NoError(t, dirRepo.CreateMembership(ctx, &directory.Membership{
				ResidentID: r.ID,
				BuildingID: f.building.ID,
				Role:       role,
				IsActive:   true,
				JoinedAt:   time.Now(),
				ApartmentID: sql.NullInt64{},
			}))
		}
		return r
	}

	f.admin = addResident("admin@jasmine.kz", "Aigerim", "Admin", directory.RoleAdmin, true)
	f.amir = addResident("amir@mail.kz", "Amir", "Akhmetov", directory.RoleResident, true)
	f.siamak = addResident("siamak@mail.kz", "Siamak", "Noor", directory.RoleResident, true)
	f.outsider = addResident("out@mail.kz", "Olga", "Out", directory.RoleResident, false)

	return f
}

func TestGetOrCreateDirect(t *testing.T) {
	f := setupChat(t)
	ctx := context.Background()

	first, err := f.service.GetOrCreateDirect(ctx, f.amir.ID, DirectChannelRequest{
		BuildingID: f.building.ID, ResidentID: f.siamak.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", first.Type)
	assert.Len(t, first.Members, 2)
	assert.Equal(t, "Siamak Noor", first.Name, "direct channels show the other party's name")

	// The same pair maps to the same channel, from either side.
	again, err := f.service.GetOrCreateDirect(ctx, f.siamak.ID, DirectChannelRequest{
		BuildingID: f.building.ID, ResidentID: f.amir.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestGetOrCreateDirect_Rejections(t *testing.T) {
	f := setupChat(t)
	ctx := context.Background()

	_, err := f.service.GetOrCreateDirect(ctx, f.amir.ID, DirectChannelRequest{
		BuildingID: f.building.ID, ResidentID: f.amir.ID,
	})
	assert.ErrorIs(t, err, ErrCannotChatSelf)

	_, err = f.service.GetOrCreateDirect(ctx, f.amir.ID, DirectChannelRequest{
		BuildingID: f.building.ID, ResidentID: f.outsider.ID,
	})
	assert.ErrorIs(t, err, ErrNotInBuilding)
}

func TestCreateGroup(t *testing.T) {
	f := setupChat(t)
	ctx := context.Background()

	resp, err := f.service.CreateGroup(ctx, f.admin.ID, CreateGroupRequest{
		BuildingID: f.building.ID,
		Name:       "Building announcements",
		MemberIDs:  []int64{f.amir.ID, f.siamak.ID, f.amir.ID}, // duplicate on purpose
	})
	require.NoError(t, err)
	assert.Equal(t, "group", resp.Type)
	assert.Equal(t, "Building announcements", resp.Name)
	assert.Len(t, resp.Members, 3, "creator plus two members, duplicates dropped")
}

func TestCreateGroup_RequiresElevatedRole(t *testing.T) {
	f := setupChat(t)

	_, err := f.service.CreateGroup(context.Background(), f.amir.ID, CreateGroupRequest{
		BuildingID: f.building.ID,
		Name:       "Rogue group",
	})
	assert.ErrorIs(t, err, directory.ErrNotBuildingAdmin)
}

func TestSendMessage(t *testing.T) {
	f := setupChat(t)
	ctx := context.Background()

	ch, err := f.service.GetOrCreateDirect(ctx, f.amir.ID, DirectChannelRequest{
		BuildingID: f.building.ID, ResidentID: f.siamak.ID,
	})
	require.NoError(t, err)

	msg, err := f.service.SendMessage(ctx, f.amir.ID, ch.ID, SendMessageRequest{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "Amir Akhmetov", msg.SenderName)
	assert.Equal(t, []int64{ch.ID}, f.hub.broadcasts)

	// Siamak is offline, must get a stored notification.
	assert.Equal(t, []int64{f.siamak.ID}, f.notifs.notified)
}

func TestSendMessage_OnlineMemberNotNotified(t *testing.T) {
	f := setupChat(t)
	ctx := context.Background()

	ch, err := f.service.GetOrCreateDirect(ctx, f.amir.ID, DirectChannelRequest{
		BuildingID: f.building.ID, ResidentID: f.siamak.ID,
	})
	require.NoError(t, err)

	f.hub.connected[f.siamak.ID] = true
	_, err = f.service.SendMessage(ctx, f.amir.ID, ch.ID, SendMessageRequest{Content: "hi"})
	require.NoError(t, err)

	assert.Empty(t, f.notifs.notified, "live recipients are reached through the broadcast")
}

func TestSendMessage_NonMember(t *testing.T) {
	f := setupChat(t)
	ctx := context.Background()

	ch, err := f.service.GetOrCreateDirect(ctx, f.amir.ID, DirectChannelRequest{
		BuildingID: f.building.ID, ResidentID: f.siamak.ID,
	})
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, f.admin.ID, ch.ID, SendMessageRequest{Content: "intrusion"})
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = f.service.ListMessages(ctx, f.admin.ID, ch.ID, 50, 0)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	f := setupChat(t)
	ctx := context.Background()

	ch, err := f.service.GetOrCreateDirect(ctx, f.amir.ID, DirectChannelRequest{
		BuildingID: f.building.ID, ResidentID: f.siamak.ID,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = f.service.SendMessage(ctx, f.amir.ID, ch.ID, SendMessageRequest{Content: fmt.Sprintf("msg %d", i)})
		require.NoError(t, err)
	}

	channels, err := f.service.ListChannels(ctx, f.siamak.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.EqualValues(t, 3, channels[0].UnreadCount)

	// Own messages never count as unread.
	channels, err = f.service.ListChannels(ctx, f.amir.ID)
	require.NoError(t, err)
	assert.Zero(t, channels[0].UnreadCount)

	require.NoError(t, f.service.MarkChannelRead(ctx, f.siamak.ID, ch.ID))
	channels, err = f.service.ListChannels(ctx, f.siamak.ID)
	require.NoError(t, err)
	assert.Zero(t, channels[0].UnreadCount)
}

func TestListMessages_NewestFirst(t *testing.T) {
	f := setupChat(t)
	ctx := context.Background()

	ch, err := f.service.GetOrCreateDirect(ctx, f.amir.ID, DirectChannelRequest{
		BuildingID: f.building.ID, ResidentID: f.siamak.ID,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = f.service.SendMessage(ctx, f.amir.ID, ch.ID, SendMessageRequest{Content: fmt.Sprintf("msg %d", i)})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	msgs, err := f.service.ListMessages(ctx, f.siamak.ID, ch.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "msg 2", msgs[0].Content)
	assert.Equal(t, "msg 1", msgs[1].Content)
}

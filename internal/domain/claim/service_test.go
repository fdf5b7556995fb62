package claim

import (
	"context"
	"database/sql"
	"fmt"
	"mime/multipart"
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
)

/* ==================== FAKES ==================== */

type sentNotification struct {
	kind       string
	residentID int64
	claimID    int64
}

type fakeNotifier struct {
	sent []sentNotification
	fail bool
}

func (f *fakeNotifier) ClaimFiled(ctx context.Context, residentID, buildingID, claimID int64, apartmentNumber string) error {
	if f.fail {
		return fmt.Errorf("notifier down")
	}
	f.sent = append(f.sent, sentNotification{"claim_new", residentID, claimID})
	return nil
}

func (f *fakeNotifier) ApartmentAffected(ctx context.Context, residentID, buildingID, claimID int64, apartmentNumber string) error {
	if f.fail {
		return fmt.Errorf("notifier down")
	}
	f.sent = append(f.sent, sentNotification{"claim_affected", residentID, claimID})
	return nil
}

func (f *fakeNotifier) ClaimStatusChanged(ctx context.Context, residentID, buildingID, claimID int64, status string) error {
	if f.fail {
		return fmt.Errorf("notifier down")
	}
	f.sent = append(f.sent, sentNotification{"claim_status", residentID, claimID})
	return nil
}

func (f *fakeNotifier) byKind(kind string) []sentNotification {
	var out []sentNotification
	for _, n := range f.sent {
		if n.kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type fakeFileStore struct {
	saved   []string
	removed []string
	failAt  int // fail on the Nth Save (1-based); 0 = never
}

func (f *fakeFileStore) Save(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, error) {
	if f.failAt > 0 && len(f.saved)+1 >= f.failAt {
		return "", fmt.Errorf("disk full")
	}
	url := fmt.Sprintf("/static/uploads/%s/%d_%s", prefix, len(f.saved), fh.Filename)
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeFileStore) Remove(ctx context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}

/* ==================== FIXTURE ==================== */

type fixture struct {
	db      *gorm.DB
	dirRepo directory.Repository
	notifs  *fakeNotifier
	files   *fakeFileStore
	service *Service

	building  directory.Building
	apt101    directory.Apartment
	apt102    directory.Apartment
	apt103    directory.Apartment
	admin     directory.Resident
	amir      directory.Resident
	siamak    directory.Resident
	moatez    directory.Resident
	building2 directory.Building
	aptOther  directory.Apartment
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:claim_test_%s?mode=memory&cache=shared", t.Name())
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
		&Claim{},
		&AffectedApartment{},
		&Photo{},
	))

	f := &fixture{
		db:      db,
		dirRepo: directory.NewRepository(db),
		notifs:  &fakeNotifier{},
		files:   &fakeFileStore{},
	}
	f.service = NewService(NewRepository(db), f.dirRepo, f.files, f.notifs, zap.NewNop())

	ctx := context.Background()

	f.building = directory.Building{Name: "Jasmine Residence", Address: "12 Garden Street", City: "Almaty"}
	require.NoError(t, f.dirRepo.CreateBuilding(ctx, &f.building))
	f.building2 = directory.Building{Name: "Tulip Towers", Address: "3 Hill Road", City: "Almaty"}
	require.NoError(t, f.dirRepo.CreateBuilding(ctx, &f.building2))

	f.apt101 = directory.Apartment{BuildingID: f.building.ID, Number: "101", Floor: 1}
	f.apt102 = directory.Apartment{BuildingID: f.building.ID, Number: "102", Floor: 1}
	f.apt103 = directory.Apartment{BuildingID: f.building.ID, Number: "103", Floor: 1}
	f.aptOther = directory.Apartment{BuildingID: f.building2.ID, Number: "201", Floor: 2}
	for _, a := range []*directory.Apartment{&f.apt101, &f.apt102, &f.apt103, &f.aptOther} {
		require.NoError(t, f.dirRepo.CreateApartment(ctx, a))
	}

	f.admin = f.addResident(t, "admin@jasmine.kz", "Aigerim", "Admin")
	f.amir = f.addResident(t, "amir@mail.kz", "Amir", "Akhmetov")
	f.siamak = f.addResident(t, "siamak@mail.kz", "Siamak", "Noor")
	f.moatez = f.addResident(t, "moatez@mail.kz", "Moatez", "Haddad")

	f.addMembership(t, f.admin.ID, f.building.ID, 0, directory.RoleAdmin)
	f.addMembership(t, f.amir.ID, f.building.ID, f.apt101.ID, directory.RoleResident)
	f.addMembership(t, f.siamak.ID, f.building.ID, f.apt102.ID, directory.RoleResident)
	f.addMembership(t, f.moatez.ID, f.building.ID, f.apt103.ID, directory.RoleResident)

	return f
}

func (f *fixture) addResident(t *testing.T, email, first, last string) directory.Resident {
	t.Helper()
	r := directory.Resident{Email: email, PasswordHash: "x", FirstName: first, LastName: last}
	require.NoError(t, f.dirRepo.CreateResident(context.Background(), &r))
	return r
}

func (f *fixture) addMembership(t *testing.T, residentID, buildingID, apartmentID int64, role directory.Role) {
	t.Helper()
	m := directory.Membership{
		ResidentID: residentID,
		BuildingID: buildingID,
		Role:       role,
		IsActive:   true,
		JoinedAt:   time.Now(),
	}
	if apartmentID != 0 {
		m.ApartmentID = sql.NullInt64{Int64: apartmentID, Valid: true}
	}
	require.NoError(t, f.dirRepo.CreateMembership(context.Background(), &m))
}

func waterDamageClaim(apartmentID int64, affected ...int64) CreateClaimRequest {
	return CreateClaimRequest{
		ApartmentID:          apartmentID,
		ClaimTypes:           []string{"WATER_DAMAGE"},
		Cause:                "Burst pipe",
		Description:          "Water leaked through the ceiling",
		AffectedApartmentIDs: affected,
	}
}

/* ==================== TESTS ==================== */

func TestCreateClaim_FanOut(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	resp, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID, f.apt102.ID), nil)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "101", resp.ApartmentNumber)
	assert.Equal(t, []int64{f.apt102.ID}, resp.AffectedApartmentIDs)

	filed := f.notifs.byKind("claim_new")
	require.Len(t, filed, 1)
	assert.Equal(t, f.admin.ID, filed[0].residentID)

	affected := f.notifs.byKind("claim_affected")
	require.Len(t, affected, 1)
	assert.Equal(t, f.siamak.ID, affected[0].residentID)

	// Moatez's apartment was not affected: no notification for him.
	for _, n := range f.notifs.sent {
		assert.NotEqual(t, f.moatez.ID, n.residentID)
	}
}

func TestCreateClaim_ReporterNeverNotified(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	// Amir also occupies 102 and reports damage affecting it.
	f.addMembership(t, f.amir.ID, f.building.ID, f.apt102.ID, directory.RoleResident)

	_, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID, f.apt102.ID), nil)
	require.NoError(t, err)

	for _, n := range f.notifs.byKind("claim_affected") {
		assert.NotEqual(t, f.amir.ID, n.residentID, "reporter must not be notified about their own claim")
	}
	// Siamak still gets his.
	require.Len(t, f.notifs.byKind("claim_affected"), 1)
}

func TestCreateClaim_NotOccupant(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt102.ID), nil)
	assert.ErrorIs(t, err, ErrForbidden)

	var count int64
	f.db.Model(&Claim{}).Count(&count)
	assert.Zero(t, count)
	assert.Empty(t, f.notifs.sent)
}

func TestCreateClaim_CrossBuildingAffected(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID, f.aptOther.ID), nil)
	assert.ErrorIs(t, err, ErrCrossBuilding)

	var count int64
	f.db.Model(&Claim{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateClaim_AffectedDeduplicated(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	// Own apartment and duplicates must be dropped silently.
	req := waterDamageClaim(f.apt101.ID, f.apt101.ID, f.apt102.ID, f.apt102.ID, f.apt103.ID)
	resp, err := f.service.CreateClaim(ctx, f.amir.ID, req, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{f.apt102.ID, f.apt103.ID}, resp.AffectedApartmentIDs)
	require.Len(t, f.notifs.byKind("claim_affected"), 2)
}

func TestCreateClaim_PhotoOrdering(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	photos := []*multipart.FileHeader{
		{Filename: "first.jpg"},
		{Filename: "second.jpg"},
		{Filename: "third.jpg"},
	}
	resp, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID), photos)
	require.NoError(t, err)

	require.Len(t, resp.Photos, 3)
	for i, p := range resp.Photos {
		assert.Equal(t, i, p.PhotoOrder)
	}
	assert.Contains(t, resp.Photos[0].URL, "first.jpg")
	assert.Contains(t, resp.Photos[2].URL, "third.jpg")
}

func TestCreateClaim_UploadFailureRollsBack(t *testing.T) {
	f := setupFixture(t)
	f.files.failAt = 3 // third photo fails
	ctx := context.Background()

	photos := []*multipart.FileHeader{
		{Filename: "a.jpg"},
		{Filename: "b.jpg"},
		{Filename: "c.jpg"},
	}
	_, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID, f.apt102.ID), photos)
	assert.ErrorIs(t, err, ErrUpload)

	// Nothing committed, nothing fanned out, stored files cleaned up.
	var claims, links, photoRows int64
	f.db.Model(&Claim{}).Count(&claims)
	f.db.Model(&AffectedApartment{}).Count(&links)
	f.db.Model(&Photo{}).Count(&photoRows)
	assert.Zero(t, claims)
	assert.Zero(t, links)
	assert.Zero(t, photoRows)
	assert.Empty(t, f.notifs.sent)
	assert.ElementsMatch(t, f.files.saved, f.files.removed)
}

func TestCreateClaim_NotifierFailureDoesNotFailCreation(t *testing.T) {
	f := setupFixture(t)
	f.notifs.fail = true
	ctx := context.Background()

	resp, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID, f.apt102.ID), nil)
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
}

func TestUpdateStatus(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID), nil)
	require.NoError(t, err)
	f.notifs.sent = nil

	resp, err := f.service.UpdateStatus(ctx, created.ID, f.admin.ID, "IN_REVIEW")
	require.NoError(t, err)
	assert.Equal(t, "IN_REVIEW", resp.Status)

	statuses := f.notifs.byKind("claim_status")
	require.Len(t, statuses, 1)
	assert.Equal(t, f.amir.ID, statuses[0].residentID)
}

func TestUpdateStatus_UnknownStatusRejected(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID), nil)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, created.ID, f.admin.ID, "BOGUS")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	var c Claim
	require.NoError(t, f.db.First(&c, created.ID).Error)
	assert.Equal(t, StatusPending, c.Status, "status must stay unchanged after a rejected update")
}

func TestUpdateStatus_RequiresElevatedRole(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID), nil)
	require.NoError(t, err)

	// Not even the reporter may change the status.
	_, err = f.service.UpdateStatus(ctx, created.ID, f.amir.ID, "APPROVED")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.service.UpdateStatus(ctx, created.ID, f.siamak.ID, "APPROVED")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestVisibility(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID, f.apt102.ID), nil)
	require.NoError(t, err)

	// Admin sees everything.
	list, err := f.service.GetClaimsByBuilding(ctx, f.building.ID, f.admin.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// The reporter sees it.
	list, err = f.service.GetClaimsByBuilding(ctx, f.building.ID, f.amir.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Siamak's apartment is affected: visible.
	list, err = f.service.GetClaimsByBuilding(ctx, f.building.ID, f.siamak.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Moatez is uninvolved: nothing.
	list, err = f.service.GetClaimsByBuilding(ctx, f.building.ID, f.moatez.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.service.GetClaim(ctx, created.ID, f.moatez.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	resp, err := f.service.GetClaim(ctx, created.ID, f.siamak.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.ID)
}

func TestDeleteClaim(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateClaim(ctx, f.amir.ID, waterDamageClaim(f.apt101.ID, f.apt102.ID), nil)
	require.NoError(t, err)

	err = f.service.DeleteClaim(ctx, created.ID, f.siamak.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.service.DeleteClaim(ctx, created.ID, f.amir.ID))

	var claims, links int64
	f.db.Model(&Claim{}).Count(&claims)
	f.db.Model(&AffectedApartment{}).Count(&links)
	assert.Zero(t, claims)
	assert.Zero(t, links, "affected links must be removed with the claim")

	_, err = f.service.GetClaim(ctx, created.ID, f.amir.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "IN_REVIEW", "APPROVED", "REJECTED", "CLOSED"} {
		_, err := ParseStatus(valid)
		assert.NoError(t, err, valid)
	}
	_, err := ParseStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidStatus, "statuses are case-sensitive")
}

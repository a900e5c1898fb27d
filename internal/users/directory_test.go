package users

import (
	"net/http"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clipzipship/czs-admin/internal/hash"
	"github.com/clipzipship/czs-admin/internal/models"
	"github.com/clipzipship/czs-admin/internal/usererr"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func TestCreate(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}

	require.NoError(t, d.Create("test_user", "password"))

	var user models.User
	require.NoError(t, d.DB.Where("username = ?", "test_user").First(&user).Error)
	require.Equal(t, models.RoleLevelUser, user.Role)
	require.NotEqual(t, "password", user.PasswordHash)
	require.True(t, hash.CheckPassword(user.PasswordHash, "password"))
}

func TestCreateTrimsUsername(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}

	require.NoError(t, d.Create("  test_user  ", "password"))

	var user models.User
	require.NoError(t, d.DB.Where("username = ?", "test_user").First(&user).Error)
}

func TestCreateDuplicateCaseInsensitive(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}

	require.NoError(t, d.Create("test_user", "password"))

	err := d.Create("TEST_USER", "other_password")
	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "This username already exists.", ue.Detail)
}

func TestCreateMissingFields(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}

	for _, pair := range [][2]string{{"", "password"}, {"test_user", ""}, {"", ""}} {
		err := d.Create(pair[0], pair[1])
		var ue *usererr.Error
		require.ErrorAs(t, err, &ue)
		require.Equal(t, http.StatusBadRequest, ue.Status)
	}
}

func TestUpdate(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}
	require.NoError(t, d.Create("old_name", "password"))

	ops := []PatchOp{
		{Path: "/role", Value: "100"},
		{Path: "/username", Value: "new_name"},
	}
	require.NoError(t, d.Update("old_name", ops))

	var user models.User
	require.NoError(t, d.DB.Where("username = ?", "new_name").First(&user).Error)

	// Only the /username operation is honored.
	require.Equal(t, models.RoleLevelUser, user.Role)
}

func TestUpdateUnknownUser(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}

	err := d.Update("ghost", []PatchOp{{Path: "/username", Value: "x"}})
	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusNotFound, ue.Status)
}

func TestUpdateInvalidOps(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}
	require.NoError(t, d.Create("test_user", "password"))

	err := d.Update("test_user", nil)
	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusBadRequest, ue.Status)
}

func TestDelete(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}
	require.NoError(t, d.Create("test_user", "password"))

	require.NoError(t, d.Delete(" test_user "))

	var count int64
	require.NoError(t, d.DB.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeleteUnknownUser(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}

	err := d.Delete("ghost")
	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusNotFound, ue.Status)
}

func TestList(t *testing.T) {
	d := &Directory{DB: InitTestDB(t)}
	require.NoError(t, d.Create("zoe", "password"))
	require.NoError(t, d.Create("adam", "password"))

	infos, err := d.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "adam", infos[0].Username)
	require.Equal(t, "zoe", infos[1].Username)
}

package catalog

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clipzipship/czs-admin/internal/config"
	"github.com/clipzipship/czs-admin/internal/models"
	"github.com/clipzipship/czs-admin/internal/usererr"
)

type stubStore struct {
	features    []FeatureParams
	featureErr  error
	coverages   []CoverageParams
	geometries  []string
	deleteCount int64
	deleteErr   error
	extent      map[string]interface{}
	extentErr   error
	extentCalls int
}

func (s *stubStore) AddFeature(_ context.Context, p FeatureParams) error {
	if s.featureErr != nil {
		return s.featureErr
	}
	s.features = append(s.features, p)
	return nil
}

func (s *stubStore) AddCoverage(_ context.Context, p CoverageParams) error {
	s.coverages = append(s.coverages, p)
	return nil
}

func (s *stubStore) UpdateGeometry(_ context.Context, name string) error {
	s.geometries = append(s.geometries, name)
	return nil
}

func (s *stubStore) Delete(_ context.Context, _ string) (int64, error) {
	return s.deleteCount, s.deleteErr
}

func (s *stubStore) Extent(_ context.Context, _, _ string, _ int, _ RemoteDB) (map[string]interface{}, error) {
	s.extentCalls++
	return s.extent, s.extentErr
}

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Theme{}, &models.Parent{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func NewTestRegistry(t *testing.T) (*Registry, *stubStore) {
	store := &stubStore{}
	r := &Registry{
		DB:    InitTestDB(t),
		Store: store,
		Cfg: &config.Config{
			DB_HOST:            "dbhost",
			DB_USER:            "dbuser",
			DB_PASSWORD:        "dbpass",
			DB_NAME_FEATURES:   "features",
			DB_SCHEMA_FEATURES: "public",
		},
	}
	return r, store
}

func featurePayload() Collection {
	return Collection{
		Type:            TypeFeature,
		ParentUUID:      "2f9eec52-0807-4d75-8b4d-6bfa5b5c0b9e",
		MetadataUUID:    "c9bf9e57-1685-4c89-bafb-ff5af830be8a",
		Name:            "test_collection",
		TitleEn:         "Test",
		TitleFr:         "Essai",
		CRS:             4326,
		TableName:       "some_table",
		TableIDField:    "id",
		TableQueryables: []string{" field_a ", "", "field_b", "  "},
	}
}

func TestAddCollectionFeature(t *testing.T) {
	r, store := NewTestRegistry(t)

	require.NoError(t, r.AddCollection(context.Background(), featurePayload()))
	require.Len(t, store.features, 1)

	p := store.features[0]
	require.Equal(t, "feature", p.ProviderType)
	require.Equal(t, "PostgreSQL", p.ProviderName)
	require.Equal(t, []string{"field_a", "field_b"}, p.Coll.TableQueryables)
	require.Equal(t, "dbhost", p.DBHost)
	require.Equal(t, "features", p.DBName)
	require.Equal(t, []string{"public"}, p.SearchPath)
	require.Equal(t, "https://open.canada.ca/data/en/dataset/c9bf9e57-1685-4c89-bafb-ff5af830be8a", p.Link.Href)
	require.Nil(t, p.TemporalBegin)
	require.Nil(t, p.TemporalEnd)
}

func TestAddCollectionCoverage(t *testing.T) {
	r, store := NewTestRegistry(t)

	data := Collection{
		Type:          TypeCoverage,
		MetadataUUID:  "c9bf9e57-1685-4c89-bafb-ff5af830be8a",
		Name:          "test_coverage",
		CovData:       "/data/raster.tif",
		CovFormatName: "GTiff",
	}
	require.NoError(t, r.AddCollection(context.Background(), data))
	require.Len(t, store.coverages, 1)

	p := store.coverages[0]
	require.Equal(t, "coverage", p.ProviderType)
	require.Equal(t, "rasterio", p.ProviderName)
	require.Equal(t, "GTiff", p.FormatName)
	require.Equal(t, "/data/raster.tif", p.Data)
}

func TestAddCollectionTemporalExtent(t *testing.T) {
	r, store := NewTestRegistry(t)

	data := featurePayload()
	data.ExtentTemporalBegin = "2006-01-02"
	data.ExtentTemporalEnd = "January 2, 2007"
	require.NoError(t, r.AddCollection(context.Background(), data))

	p := store.features[0]
	require.NotNil(t, p.TemporalBegin)
	require.NotNil(t, p.TemporalEnd)
	require.Equal(t, 2006, p.TemporalBegin.Year())
	require.Equal(t, 2007, p.TemporalEnd.Year())
}

func TestAddCollectionInvalidTemporalExtent(t *testing.T) {
	r, store := NewTestRegistry(t)

	data := featurePayload()
	data.ExtentTemporalBegin = "not-a-date"

	err := r.AddCollection(context.Background(), data)
	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "Invalid temporal extent begin.", ue.Detail)

	// Validation failed before any persistence call.
	require.Empty(t, store.features)
	require.Empty(t, store.coverages)
}

func TestAddCollectionInvalidType(t *testing.T) {
	r, store := NewTestRegistry(t)

	data := featurePayload()
	data.Type = "tiles"

	err := r.AddCollection(context.Background(), data)
	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "Collection provider type invalid.", ue.Detail)
	require.Empty(t, store.features)
}

func TestUpdateCollection(t *testing.T) {
	r, store := NewTestRegistry(t)

	require.NoError(t, r.UpdateCollection(context.Background(), "coll", map[string]interface{}{"geometry": true}))
	require.Equal(t, []string{"coll"}, store.geometries)

	// Anything other than a geometry recompute is a silent no-op.
	require.NoError(t, r.UpdateCollection(context.Background(), "coll", map[string]interface{}{"title_en": "New"}))
	require.NoError(t, r.UpdateCollection(context.Background(), "coll", map[string]interface{}{"geometry": false}))
	require.Len(t, store.geometries, 1)
}

func TestDeleteCollection(t *testing.T) {
	r, store := NewTestRegistry(t)

	store.deleteCount = 1
	deleted, err := r.DeleteCollection(context.Background(), "coll")
	require.NoError(t, err)
	require.True(t, deleted)

	store.deleteCount = 0
	deleted, err = r.DeleteCollection(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestDeleteCollectionDatabaseDiagnostic(t *testing.T) {
	r, store := NewTestRegistry(t)

	store.deleteErr = &pgconn.PgError{Code: "P0001", Message: "Collection test_collection is still referenced"}
	_, err := r.DeleteCollection(context.Background(), "test_collection")

	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusBadRequest, ue.Status)
	require.Contains(t, ue.Detail, "Collection test_collection is still referenced")
	require.Contains(t, ue.DetailFr, "Collection test_collection is still referenced")
}

func TestAddCollectionDatabaseDiagnostic(t *testing.T) {
	r, store := NewTestRegistry(t)

	store.featureErr = &pgconn.PgError{Code: "P0001", Message: "Parent uuid does not exist"}
	err := r.AddCollection(context.Background(), featurePayload())

	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusBadRequest, ue.Status)
	require.Contains(t, ue.Detail, "Parent uuid does not exist")
}

func TestAddCollectionOtherDatabaseErrorsPropagate(t *testing.T) {
	r, store := NewTestRegistry(t)

	// unique_violation is not the procedures' diagnostic channel and must
	// surface as an unexpected failure, not a user-facing message.
	store.featureErr = &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	err := r.AddCollection(context.Background(), featurePayload())

	var ue *usererr.Error
	require.False(t, errors.As(err, &ue))
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	require.Equal(t, "23505", pgErr.Code)
}

func TestGetParentsGrouping(t *testing.T) {
	r, _ := NewTestRegistry(t)

	themes := []models.Theme{
		{UUID: "theme-1", TitleEn: "Energy", TitleFr: "Énergie"},
		{UUID: "theme-2", TitleEn: "Water", TitleFr: "Eau"},
	}
	require.NoError(t, r.DB.Create(&themes).Error)

	parents := []models.Parent{
		{UUID: "parent-a", ThemeUUID: "theme-1", TitleEn: "Alpha", TitleFr: "Alpha"},
		{UUID: "parent-b", ThemeUUID: "theme-2", TitleEn: "Beta", TitleFr: "Bêta"},
		{UUID: "parent-c", ThemeUUID: "theme-1", TitleEn: "Gamma", TitleFr: "Gamma"},
	}
	require.NoError(t, r.DB.Create(&parents).Error)

	groups, err := r.GetParents()
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Themes in order of their first parent (by English title), parents
	// in first-seen order within each theme.
	require.Equal(t, "theme-1", groups[0].ThemeUUID)
	require.Equal(t, []ParentInfo{
		{ParentUUID: "parent-a", ParentEn: "Alpha", ParentFr: "Alpha"},
		{ParentUUID: "parent-c", ParentEn: "Gamma", ParentFr: "Gamma"},
	}, groups[0].Parents)

	require.Equal(t, "theme-2", groups[1].ThemeUUID)
	require.Len(t, groups[1].Parents, 1)
}

func TestAddAndDeleteParent(t *testing.T) {
	r, _ := NewTestRegistry(t)

	require.NoError(t, r.DB.Create(&models.Theme{UUID: "theme-1", TitleEn: "Energy", TitleFr: "Énergie"}).Error)

	parentUUID, err := r.AddParent(ParentPayload{ThemeUUID: "theme-1", TitleEn: "Alpha", TitleFr: "Alpha"})
	require.NoError(t, err)
	require.NotEmpty(t, parentUUID)

	deleted, err := r.DeleteParent(parentUUID)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = r.DeleteParent(parentUUID)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestAddParentInvalid(t *testing.T) {
	r, _ := NewTestRegistry(t)

	_, err := r.AddParent(ParentPayload{TitleEn: "Alpha"})
	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusBadRequest, ue.Status)
}

func TestGetExtentCredentialValidation(t *testing.T) {
	r, store := NewTestRegistry(t)

	full := RemoteDB{Host: "h", Port: "5432", Name: "db", User: "u", Password: "p"}

	blankEach := []struct {
		field string
		creds RemoteDB
	}{
		{"db_host", RemoteDB{Port: "5432", Name: "db", User: "u", Password: "p"}},
		{"db_port", RemoteDB{Host: "h", Name: "db", User: "u", Password: "p"}},
		{"db_name", RemoteDB{Host: "h", Port: "5432", User: "u", Password: "p"}},
		{"db_user", RemoteDB{Host: "h", Port: "5432", Name: "db", Password: "p"}},
		{"db_password", RemoteDB{Host: "h", Port: "5432", Name: "db", User: "u"}},
	}

	for _, tc := range blankEach {
		_, err := r.GetExtent(context.Background(), "public", "tbl", 4326, tc.creds)
		var ue *usererr.Error
		require.ErrorAs(t, err, &ue, tc.field)
		require.Contains(t, ue.Detail, tc.field)
	}
	require.Zero(t, store.extentCalls)

	store.extent = map[string]interface{}{"bbox": []interface{}{0.0, 0.0, 1.0, 1.0}}
	extent, err := r.GetExtent(context.Background(), "public", "tbl", 4326, full)
	require.NoError(t, err)
	require.Equal(t, store.extent, extent)
	require.Equal(t, 1, store.extentCalls)
}

func TestGetExtentGenericFailure(t *testing.T) {
	r, store := NewTestRegistry(t)

	store.extentErr = gorm.ErrInvalidData
	_, err := r.GetExtent(context.Background(), "public", "tbl", 4326,
		RemoteDB{Host: "h", Port: "5432", Name: "db", User: "u", Password: "p"})

	var ue *usererr.Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "Couldn't find extent for table tbl.", ue.Detail)
}

func TestParseTemporalEmpty(t *testing.T) {
	ts, err := parseTemporal("", "msg", "msg_fr")
	require.NoError(t, err)
	require.Nil(t, ts)

	ts, err = parseTemporal("2020-05-01T12:00:00Z", "msg", "msg_fr")
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC), ts.UTC())
}

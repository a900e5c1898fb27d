package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Stored procedures doing the actual geospatial work inside the database.
const (
	procAddFeature     = "czs.czs_add_collection_feature"
	procAddCoverage    = "czs.czs_add_collection_coverage"
	procDeleteColl     = "czs.czs_delete_collection"
	procUpdateGeometry = "czs.czs_update_collection_geometry"
	procGetExtent      = "czs.czs_get_extent"
)

// RemoteDB are the connection parameters of the database holding the
// actual feature tables, handed verbatim to the stored procedures.
type RemoteDB struct {
	Host     string `json:"db_host"`
	Port     string `json:"db_port"`
	Name     string `json:"db_name"`
	User     string `json:"db_user"`
	Password string `json:"db_password"`
}

type FeatureParams struct {
	Coll          Collection
	TemporalBegin *time.Time
	TemporalEnd   *time.Time
	ProviderType  string
	ProviderName  string
	Link          Link
	DBHost        string
	DBName        string
	DBUser        string
	DBPassword    string
	SearchPath    []string
}

type CoverageParams struct {
	Coll          Collection
	TemporalBegin *time.Time
	TemporalEnd   *time.Time
	ProviderType  string
	ProviderName  string
	Link          Link
	Data          string
	FormatName    string
	MimeType      string
}

type Link struct {
	Type     string
	Rel      string
	Title    string
	Href     string
	HrefLang string
}

// Store abstracts the stored-procedure layer so the registry can be
// exercised against a stub in tests and never needs a package-wide
// connection handle.
type Store interface {
	AddFeature(ctx context.Context, p FeatureParams) error
	AddCoverage(ctx context.Context, p CoverageParams) error
	UpdateGeometry(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) (int64, error)
	Extent(ctx context.Context, schema, table string, outCRS int, creds RemoteDB) (map[string]interface{}, error)
}

type PGStore struct {
	DB *gorm.DB
}

func (s *PGStore) AddFeature(ctx context.Context, p FeatureParams) error {
	c := p.Coll
	return s.DB.WithContext(ctx).Exec(
		"CALL "+procAddFeature+`(?, ?, ?, ?, ?, ?,
		  ?, ?, ?, ?, ?,
		  ?, ?, ?, ?, ?, ?, ?,
		  ?, ?, ?, ?, ?,
		  ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ParentUUID, c.MetadataUUID, c.Name, c.TitleEn, c.TitleFr, c.DescriptionEn,
		c.DescriptionFr, pq.Array(c.KeywordsEn), pq.Array(c.KeywordsFr), c.CRS, p.ProviderType,
		p.ProviderName, pq.Array(c.ExtentBBox), c.ExtentCRS, p.TemporalBegin, p.TemporalEnd, c.GeomWKT, c.GeomCRS,
		p.Link.Type, p.Link.Rel, p.Link.Title, p.Link.Href, p.Link.HrefLang,
		c.TableName, c.TableIDField, pq.Array(c.TableQueryables), p.DBHost, p.DBName, p.DBUser, p.DBPassword, pq.Array(p.SearchPath),
	).Error
}

func (s *PGStore) AddCoverage(ctx context.Context, p CoverageParams) error {
	c := p.Coll
	return s.DB.WithContext(ctx).Exec(
		"CALL "+procAddCoverage+`(?, ?, ?, ?, ?, ?,
		  ?, ?, ?, ?, ?,
		  ?, ?, ?, ?, ?, ?, ?,
		  ?, ?, ?, ?, ?,
		  ?, ?, ?)`,
		c.ParentUUID, c.MetadataUUID, c.Name, c.TitleEn, c.TitleFr, c.DescriptionEn,
		c.DescriptionFr, pq.Array(c.KeywordsEn), pq.Array(c.KeywordsFr), c.CRS, p.ProviderType,
		p.ProviderName, pq.Array(c.ExtentBBox), c.ExtentCRS, p.TemporalBegin, p.TemporalEnd, c.GeomWKT, c.GeomCRS,
		p.Link.Type, p.Link.Rel, p.Link.Title, p.Link.Href, p.Link.HrefLang,
		p.Data, p.FormatName, p.MimeType,
	).Error
}

func (s *PGStore) UpdateGeometry(ctx context.Context, name string) error {
	return s.DB.WithContext(ctx).Exec("CALL "+procUpdateGeometry+"(?)", name).Error
}

// Delete returns the affected-row count reported by the procedure's INOUT
// parameter.
func (s *PGStore) Delete(ctx context.Context, name string) (int64, error) {
	var count int64
	row := s.DB.WithContext(ctx).Raw("CALL "+procDeleteColl+"(?, ?)", name, 0).Row()
	if row == nil {
		return 0, fmt.Errorf("no result from %s", procDeleteColl)
	}
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("cannot read delete result: %w", err)
	}
	return count, nil
}

func (s *PGStore) Extent(ctx context.Context, schema, table string, outCRS int, creds RemoteDB) (map[string]interface{}, error) {
	var raw string
	row := s.DB.WithContext(ctx).Raw(
		"SELECT "+procGetExtent+"(?, ?, ?, ?, ?, ?, ?, ?)",
		schema, table, outCRS, creds.Host, creds.Port, creds.Name, creds.User, creds.Password,
	).Row()
	if row == nil {
		return nil, fmt.Errorf("no result from %s", procGetExtent)
	}
	if err := row.Scan(&raw); err != nil {
		return nil, fmt.Errorf("cannot read extent result: %w", err)
	}

	var extent map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &extent); err != nil {
		return nil, fmt.Errorf("cannot parse extent result: %w", err)
	}
	return extent, nil
}

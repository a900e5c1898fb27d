package catalog

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/clipzipship/czs-admin/internal/config"
	"github.com/clipzipship/czs-admin/internal/logging"
	"github.com/clipzipship/czs-admin/internal/models"
	"github.com/clipzipship/czs-admin/internal/usererr"
)

const (
	TypeFeature  = "feature"
	TypeCoverage = "coverage"

	linkHrefBase = "https://open.canada.ca/data/en/dataset/"

	// raise_exception, the code the stored procedures raise their own
	// user-directed diagnostics with.
	pgCodeRaiseException = "P0001"
)

// Collection is the registration payload for both collection types. Type
// discriminates the required field set; validation rejects mismatched
// payloads before any storage call.
type Collection struct {
	Type          string    `json:"type"`
	ParentUUID    string    `json:"parent_uuid"`
	MetadataUUID  string    `json:"metadata_uuid"`
	Name          string    `json:"name"`
	TitleEn       string    `json:"title_en"`
	TitleFr       string    `json:"title_fr"`
	DescriptionEn string    `json:"description_en"`
	DescriptionFr string    `json:"description_fr"`
	KeywordsEn    []string  `json:"keywords_en"`
	KeywordsFr    []string  `json:"keywords_fr"`
	CRS           int       `json:"crs"`
	ExtentBBox    []float64 `json:"extent_bbox"`
	ExtentCRS     string    `json:"extent_crs"`

	ExtentTemporalBegin string `json:"extent_temporal_begin"`
	ExtentTemporalEnd   string `json:"extent_temporal_end"`

	GeomWKT string `json:"geom_wkt"`
	GeomCRS int    `json:"geom_crs"`

	// Feature collections only.
	TableName       string   `json:"table_name"`
	TableIDField    string   `json:"table_id_field"`
	TableQueryables []string `json:"table_queryables"`

	// Coverage collections only.
	CovData       string `json:"cov_data"`
	CovFormatName string `json:"cov_format_name"`
}

// Notifier pokes the dependent serving layer after a collection change so
// it reloads its resource list.
type Notifier interface {
	NotifyReload(ctx context.Context)
}

// Indexer receives a copy of every registered collection for the admin UI
// search.
type Indexer interface {
	IndexCollection(ctx context.Context, c Collection) error
}

// EventPublisher emits audit events for collection lifecycle changes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

// Registry validates collection requests and forwards them to the stored
// procedures. Post-create side effects (reload notification, audit event,
// search indexing) are best-effort: logged on failure, never failing the
// request.
type Registry struct {
	DB       *gorm.DB
	Store    Store
	Cfg      *config.Config
	Notifier Notifier
	Events   EventPublisher
	Index    Indexer
}

func (r *Registry) AddCollection(ctx context.Context, data Collection) error {
	begin, err := parseTemporal(data.ExtentTemporalBegin,
		"Invalid temporal extent begin.", "Étendu temporel de début invalide.")
	if err != nil {
		return err
	}
	end, err := parseTemporal(data.ExtentTemporalEnd,
		"Invalid temporal extent end.", "Étendu temporel de fin invalide.")
	if err != nil {
		return err
	}

	link := Link{
		Type:     "text/html",
		Rel:      "canonical",
		Title:    "Metadata Record - Open Canada Portal",
		Href:     linkHrefBase + data.MetadataUUID,
		HrefLang: "en-CA",
	}

	switch data.Type {
	case TypeFeature:
		queryables := make([]string, 0, len(data.TableQueryables))
		for _, q := range data.TableQueryables {
			if q = strings.TrimSpace(q); q != "" {
				queryables = append(queryables, q)
			}
		}
		data.TableQueryables = queryables

		err = r.Store.AddFeature(ctx, FeatureParams{
			Coll:          data,
			TemporalBegin: begin,
			TemporalEnd:   end,
			ProviderType:  "feature",
			ProviderName:  "PostgreSQL",
			Link:          link,
			DBHost:        r.Cfg.DB_HOST,
			DBName:        r.Cfg.DB_NAME_FEATURES,
			DBUser:        r.Cfg.DB_USER,
			DBPassword:    r.Cfg.DB_PASSWORD,
			SearchPath:    []string{r.Cfg.DB_SCHEMA_FEATURES},
		})

	case TypeCoverage:
		err = r.Store.AddCoverage(ctx, CoverageParams{
			Coll:          data,
			TemporalBegin: begin,
			TemporalEnd:   end,
			ProviderType:  "coverage",
			ProviderName:  "rasterio",
			Link:          link,
			Data:          data.CovData,
			FormatName:    data.CovFormatName,
			MimeType:      mime.TypeByExtension(filepath.Ext(data.CovData)),
		})

	default:
		return usererr.New(http.StatusInternalServerError,
			"Collection provider type invalid.",
			"Type de fournisseur de collection invalide.")
	}

	if err != nil {
		return rewrapProcError(err)
	}

	r.afterAdd(ctx, data)
	return nil
}

// afterAdd runs the best-effort post-create side effects.
func (r *Registry) afterAdd(ctx context.Context, data Collection) {
	l := logging.FromContext(ctx).With("collection", data.Name)

	if r.Notifier != nil {
		r.Notifier.NotifyReload(ctx)
	}
	if r.Events != nil {
		event := map[string]interface{}{
			"type": "collection_created",
			"name": data.Name,
			"kind": data.Type,
		}
		if err := r.Events.PublishEvent(ctx, "collection_events", data.Name, event); err != nil {
			l.Error("event publish failed", "error", err)
		}
	}
	if r.Index != nil {
		if err := r.Index.IndexCollection(ctx, data); err != nil {
			l.Error("search indexing failed", "error", err)
		}
	}
}

// UpdateCollection only understands a geometry-recompute directive; any
// other patch is a silent no-op.
func (r *Registry) UpdateCollection(ctx context.Context, name string, patch map[string]interface{}) error {
	if geom, ok := patch["geometry"].(bool); !ok || !geom {
		return nil
	}
	if err := r.Store.UpdateGeometry(ctx, name); err != nil {
		return rewrapProcError(err)
	}
	return nil
}

func (r *Registry) DeleteCollection(ctx context.Context, name string) (bool, error) {
	count, err := r.Store.Delete(ctx, name)
	if err != nil {
		return false, rewrapProcError(err)
	}
	deleted := count >= 1

	if deleted && r.Events != nil {
		event := map[string]interface{}{"type": "collection_deleted", "name": name}
		if err := r.Events.PublishEvent(ctx, "collection_events", name, event); err != nil {
			logging.FromContext(ctx).Error("event publish failed", "collection", name, "error", err)
		}
	}
	return deleted, nil
}

// ThemeGroup is one theme with the parents it owns, in the shape consumed
// by the admin UI.
type ThemeGroup struct {
	ThemeUUID string       `json:"theme_uuid"`
	ThemeEn   string       `json:"theme_en"`
	ThemeFr   string       `json:"theme_fr"`
	Parents   []ParentInfo `json:"parents"`
}

type ParentInfo struct {
	ParentUUID string `json:"parent_uuid"`
	ParentEn   string `json:"parent_en"`
	ParentFr   string `json:"parent_fr"`
}

// GetParents lists every parent grouped into its owning theme. Themes
// appear in order of their first parent; parents keep the query order
// (English title).
func (r *Registry) GetParents() ([]ThemeGroup, error) {
	var rows []struct {
		ParentUUID string
		ParentEn   string
		ParentFr   string
		ThemeUUID  string
		ThemeEn    string
		ThemeFr    string
	}

	err := r.DB.Table("parents").
		Select(`parents.uuid AS parent_uuid,
			parents.title_en AS parent_en,
			parents.title_fr AS parent_fr,
			themes.uuid AS theme_uuid,
			themes.title_en AS theme_en,
			themes.title_fr AS theme_fr`).
		Joins("JOIN themes ON themes.uuid = parents.theme_uuid").
		Order("parents.title_en").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("cannot query parents: %w", err)
	}

	groups := make([]ThemeGroup, 0)
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.ThemeUUID]
		if !ok {
			i = len(groups)
			index[row.ThemeUUID] = i
			groups = append(groups, ThemeGroup{
				ThemeUUID: row.ThemeUUID,
				ThemeEn:   row.ThemeEn,
				ThemeFr:   row.ThemeFr,
				Parents:   []ParentInfo{},
			})
		}
		groups[i].Parents = append(groups[i].Parents, ParentInfo{
			ParentUUID: row.ParentUUID,
			ParentEn:   row.ParentEn,
			ParentFr:   row.ParentFr,
		})
	}
	return groups, nil
}

// ParentPayload is the body of PUT /api/parents.
type ParentPayload struct {
	ThemeUUID string `json:"theme_uuid"`
	TitleEn   string `json:"title_en"`
	TitleFr   string `json:"title_fr"`
}

func (r *Registry) AddParent(p ParentPayload) (string, error) {
	if p.ThemeUUID == "" || p.TitleEn == "" || p.TitleFr == "" {
		return "", usererr.ParametersInvalid()
	}

	parent := models.Parent{
		UUID:      uuid.NewString(),
		ThemeUUID: p.ThemeUUID,
		TitleEn:   p.TitleEn,
		TitleFr:   p.TitleFr,
	}
	if err := r.DB.Create(&parent).Error; err != nil {
		return "", fmt.Errorf("cannot create parent: %w", err)
	}
	return parent.UUID, nil
}

func (r *Registry) DeleteParent(parentUUID string) (bool, error) {
	result := r.DB.Where("uuid = ?", parentUUID).Delete(&models.Parent{})
	if result.Error != nil {
		return false, fmt.Errorf("cannot delete parent: %w", result.Error)
	}
	return result.RowsAffected >= 1, nil
}

// GetExtent computes the spatial extent of a remote table through the
// stored-procedure layer, using caller-supplied connection parameters.
func (r *Registry) GetExtent(ctx context.Context, schema, table string, outCRS int, creds RemoteDB) (map[string]interface{}, error) {
	required := []struct {
		field string
		value string
	}{
		{"db_host", creds.Host},
		{"db_port", creds.Port},
		{"db_name", creds.Name},
		{"db_user", creds.User},
		{"db_password", creds.Password},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, usererr.New(http.StatusBadRequest,
				fmt.Sprintf("The %s in the credentials is undefined.", f.field),
				fmt.Sprintf("Le %s dans les informations d'identification n'est pas défini.", f.field))
		}
	}

	extent, err := r.Store.Extent(ctx, schema, table, outCRS, creds)
	if err != nil {
		// The original cause is dropped on purpose; the caller only
		// learns the table couldn't be measured.
		return nil, usererr.New(http.StatusInternalServerError,
			fmt.Sprintf("Couldn't find extent for table %s.", table),
			fmt.Sprintf("Impossible de trouver l'étendue pour la table %s.", table))
	}
	return extent, nil
}

func parseTemporal(value, msg, msgFr string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return nil, usererr.Wrap(http.StatusInternalServerError, msg, msgFr, err)
	}
	return &t, nil
}

// rewrapProcError turns the distinguished raise_exception diagnostic from
// the stored procedures into a user-facing message carrying the database's
// own text. Any other database error propagates unchanged.
func rewrapProcError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCodeRaiseException {
		return usererr.Wrap(http.StatusBadRequest,
			"The database refused the operation: "+pgErr.Message,
			"La base de données a refusé l'opération : "+pgErr.Message,
			err)
	}
	return err
}

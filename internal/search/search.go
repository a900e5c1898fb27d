package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/clipzipship/czs-admin/internal/catalog"
)

// CollectionDoc is the search projection of a registered collection.
type CollectionDoc struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	ParentUUID    string `json:"parent_uuid"`
	TitleEn       string `json:"title_en"`
	TitleFr       string `json:"title_fr"`
	DescriptionEn string `json:"description_en"`
	DescriptionFr string `json:"description_fr"`
}

type Service struct {
	ES    *elasticsearch.Client
	Index string
}

// IndexCollection stores a copy of the collection for the admin UI search.
// The collection name is the document id, so re-registrations overwrite.
func (s *Service) IndexCollection(ctx context.Context, c catalog.Collection) error {
	doc := CollectionDoc{
		Name:          c.Name,
		Type:          c.Type,
		ParentUUID:    c.ParentUUID,
		TitleEn:       c.TitleEn,
		TitleFr:       c.TitleFr,
		DescriptionEn: c.DescriptionEn,
		DescriptionFr: c.DescriptionFr,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cannot marshal collection doc: %w", err)
	}

	res, err := s.ES.Index(
		s.Index,
		bytes.NewReader(body),
		s.ES.Index.WithDocumentID(c.Name),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("cannot index collection: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("cannot index collection: %s", res.Status())
	}
	return nil
}

func (s *Service) Search(ctx context.Context, query string, page, size int) (int64, []CollectionDoc, error) {
	from, size := window(page, size)
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "title_en", "title_fr", "description_en", "description_fr"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("cannot encode search query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search failed: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source CollectionDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]CollectionDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

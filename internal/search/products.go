package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storepanel/internal/models"
)

func NewClient(ctx context.Context, url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type ProductDocument struct {
	ID          uuid.UUID `json:"id"`
	Store       uuid.UUID `json:"store"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
}

// ProductIndex mirrors products into one Elasticsearch index. The database
// stays the source of truth; search only yields ids.
type ProductIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func (p *ProductIndex) Upsert(ctx context.Context, prod *models.Product) error {
	doc := ProductDocument{
		ID:    prod.ID,
		Store: prod.StoreID,
		Name:  prod.Name,
		Price: prod.Price.StringFixed(2),
	}
	if prod.Description != nil {
		doc.Description = *prod.Description
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := p.ES.Index(p.Index, bytes.NewReader(body),
		p.ES.Index.WithContext(ctx),
		p.ES.Index.WithDocumentID(prod.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product: %s", res.Status())
	}
	return nil
}

func (p *ProductIndex) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := p.ES.Delete(p.Index, id.String(), p.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("remove product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove product: %s", res.Status())
	}
	return nil
}

func (p *ProductIndex) Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(query, from, size)); err != nil {
		return 0, nil, fmt.Errorf("search body: %w", err)
	}

	res, err := p.ES.Search(
		p.ES.Search.WithContext(ctx),
		p.ES.Search.WithIndex(p.Index),
		p.ES.Search.WithBody(&buf),
		p.ES.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	return decodeHits(res.Body)
}

func searchBody(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from":    from,
		"size":    size,
		"_source": []string{"id"},
	}
}

func decodeHits(r io.Reader) (int64, []uuid.UUID, error) {
	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source ProductDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return 0, nil, fmt.Errorf("decode search: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return out.Hits.Total.Value, ids, nil
}

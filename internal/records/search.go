package records

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
)

// searchDoc is what gets indexed per record.
type searchDoc struct {
	Chat    string `json:"chat"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Ts      int64  `json:"ts"`
}

// SearchHit is one full-text match over stored records.
type SearchHit struct {
	ID      int64
	Chat    string
	Sender  string
	Content string
	Score   float64
}

// SearchIndex maintains a full-text index over record content.
type SearchIndex struct {
	index bleve.Index
}

// OpenSearchIndex opens the index at path, creating it on first use.
func OpenSearchIndex(path string) (*SearchIndex, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return &SearchIndex{index: index}, nil
}

// Close closes the underlying index.
func (s *SearchIndex) Close() error {
	return s.index.Close()
}

// Index adds or updates one record in the index. The record must already
// carry its store-assigned ID.
func (s *SearchIndex) Index(rec Record) error {
	if rec.ID == 0 {
		return fmt.Errorf("record has no id, store it first")
	}
	return s.index.Index(strconv.FormatInt(rec.ID, 10), searchDoc{
		Chat:    rec.Chat,
		Sender:  rec.Sender,
		Content: rec.Content,
		Ts:      rec.Timestamp.Unix(),
	})
}

// Search runs a match query against record content and returns up to limit
// hits, best first.
func (s *SearchIndex) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("content")

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"chat", "sender", "content"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, _ := strconv.ParseInt(h.ID, 10, 64)
		hit := SearchHit{ID: id, Score: h.Score}
		if v, ok := h.Fields["chat"].(string); ok {
			hit.Chat = v
		}
		if v, ok := h.Fields["sender"].(string); ok {
			hit.Sender = v
		}
		if v, ok := h.Fields["content"].(string); ok {
			hit.Content = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// IndexBatch indexes a batch of records in one operation.
func (s *SearchIndex) IndexBatch(recs []Record) error {
	batch := s.index.NewBatch()
	for _, rec := range recs {
		if rec.ID == 0 {
			return fmt.Errorf("record has no id, store it first")
		}
		if err := batch.Index(strconv.FormatInt(rec.ID, 10), searchDoc{
			Chat:    rec.Chat,
			Sender:  rec.Sender,
			Content: rec.Content,
			Ts:      rec.Timestamp.Unix(),
		}); err != nil {
			return fmt.Errorf("failed to batch record %d: %w", rec.ID, err)
		}
	}
	return s.index.Batch(batch)
}

package history

import (
	"fmt"
	"log"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"tellerdesk/internal/transcript"
)

// SearchResult is one archived turn matching a query.
type SearchResult struct {
	MessageID string
	SessionID string
	Sender    string
	Text      string
	Score     float64
}

// SearchIndex provides keyword search over archived conversation turns.
type SearchIndex struct {
	index bleve.Index
	path  string
}

// NewSearchIndex creates or opens the search index next to the archive DB.
// A corrupted index is deleted and recreated rather than failing startup.
func NewSearchIndex(dbPath string) (*SearchIndex, error) {
	indexPath := dbPath + ".bleve"

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create history index: %w", err)
		}
	} else if err != nil {
		log.Printf("history index appears corrupted (error: %v), recreating", err)
		if index != nil {
			index.Close()
		}
		if err := os.RemoveAll(indexPath); err != nil {
			log.Printf("failed to remove corrupted index directory: %v", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate history index: %w", err)
		}
	}

	return &SearchIndex{
		index: index,
		path:  indexPath,
	}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	turnMapping := bleve.NewDocumentMapping()

	sessionIDField := bleve.NewTextFieldMapping()
	sessionIDField.Analyzer = keyword.Name
	sessionIDField.Store = true
	sessionIDField.Index = true
	turnMapping.AddFieldMappingsAt("session_id", sessionIDField)

	senderField := bleve.NewTextFieldMapping()
	senderField.Analyzer = keyword.Name
	senderField.Store = true
	senderField.Index = true
	turnMapping.AddFieldMappingsAt("sender", senderField)

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = true
	textField.Index = true
	turnMapping.AddFieldMappingsAt("text", textField)

	indexMapping.DefaultMapping = turnMapping

	return indexMapping
}

// IndexTranscript adds every turn of an archived transcript to the index.
func (s *SearchIndex) IndexTranscript(sessionID string, msgs []transcript.Message) error {
	batch := s.index.NewBatch()
	for _, msg := range msgs {
		doc := map[string]interface{}{
			"session_id": sessionID,
			"sender":     string(msg.Sender),
			"text":       msg.Text,
		}
		if err := batch.Index(msg.ID, doc); err != nil {
			return fmt.Errorf("failed to index message %s: %w", msg.ID, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply index batch: %w", err)
	}
	return nil
}

// Search returns the top k archived turns matching the query text.
func (s *SearchIndex) Search(query string, k int) ([]SearchResult, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField("text")

	searchRequest := bleve.NewSearchRequest(q)
	searchRequest.Size = k
	searchRequest.Fields = []string{"session_id", "sender", "text"}

	searchResult, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("history search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		result := SearchResult{
			MessageID: hit.ID,
			Score:     hit.Score,
		}
		if sessionID, ok := hit.Fields["session_id"].(string); ok {
			result.SessionID = sessionID
		}
		if sender, ok := hit.Fields["sender"].(string); ok {
			result.Sender = sender
		}
		if text, ok := hit.Fields["text"].(string); ok {
			result.Text = text
		}
		results = append(results, result)
	}

	return results, nil
}

// Close closes the index.
func (s *SearchIndex) Close() error {
	return s.index.Close()
}

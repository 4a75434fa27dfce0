package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/college_portal/internal/models"
)

const DefaultIndex = "students"

var ErrEmptyQuery = errors.New("search: empty query")

type StudentDoc struct {
	ID         uint   `json:"id"`
	RollNo     string `json:"roll_no"`
	Name       string `json:"name"`
	FatherName string `json:"father_name,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Email      string `json:"email,omitempty"`
}

func DocFromStudent(s models.Student) StudentDoc {
	return StudentDoc{
		ID:         s.ID,
		RollNo:     s.RollNo,
		Name:       s.Name,
		FatherName: s.FatherName,
		Branch:     s.Branch,
		Email:      s.Email,
	}
}

type Students struct {
	ES    *elasticsearch.Client
	Index string
}

func NewStudents(es *elasticsearch.Client, index string) *Students {
	if index == "" {
		index = DefaultIndex
	}
	return &Students{ES: es, Index: index}
}

func (s *Students) Search(ctx context.Context, query string, from, size int) (int64, []StudentDoc, error) {
	if query == "" {
		return 0, nil, ErrEmptyQuery
	}
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"roll_no^3", "name^2", "father_name", "email", "branch"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search: %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source StudentDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode: %w", err)
	}

	docs := make([]StudentDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

// IndexStudents upserts the given students with one bulk request keyed by
// student id. It returns the number of documents the cluster accepted.
func (s *Students) IndexStudents(ctx context.Context, students []models.Student) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, st := range students {
		meta := map[string]any{"index": map[string]any{"_id": strconv.FormatUint(uint64(st.ID), 10)}}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("search: encode bulk meta: %w", err)
		}
		if err := enc.Encode(DocFromStudent(st)); err != nil {
			return 0, fmt.Errorf("search: encode bulk doc: %w", err)
		}
	}

	res, err := s.ES.Bulk(&buf,
		s.ES.Bulk.WithContext(ctx),
		s.ES.Bulk.WithIndex(s.Index),
	)
	if err != nil {
		return 0, fmt.Errorf("search: bulk: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("search: bulk: %s: %s", res.Status(), msg)
	}

	var r struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, fmt.Errorf("search: decode bulk: %w", err)
	}

	ok := 0
	for _, item := range r.Items {
		for _, op := range item {
			if op.Status >= 200 && op.Status < 300 {
				ok++
			}
		}
	}
	return ok, nil
}

package search

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/college_portal/internal/models"
)

func fakeES(t *testing.T, h http.HandlerFunc) *Students {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewStudents(client, "")
}

func TestSearchDecodesHits(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	s := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":2},"hits":[
			{"_source":{"id":1,"roll_no":"21CS001","name":"Asha"}},
			{"_source":{"id":2,"roll_no":"21CS002","name":"Ravi"}}]}}`)
	})

	total, docs, err := s.Search(context.Background(), "asha", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "/students/_search", gotPath)
	assert.EqualValues(t, 2, total)
	require.Len(t, docs, 2)
	assert.Equal(t, "21CS001", docs[0].RollNo)
	assert.EqualValues(t, 10, gotBody["size"])
}

func TestSearchEmptyQuery(t *testing.T) {
	s := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, _, err := s.Search(context.Background(), "", 0, 10)
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchClusterError(t *testing.T) {
	s := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"index_not_found_exception"}`)
	})
	_, _, err := s.Search(context.Background(), "x", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestIndexStudentsSendsBulk(t *testing.T) {
	var lines []string
	s := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students/_bulk", r.URL.Path)
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		_, _ = io.WriteString(w, `{"errors":true,"items":[
			{"index":{"status":201}},{"index":{"status":400}}]}`)
	})

	n, err := s.IndexStudents(context.Background(), []models.Student{
		{ID: 1, RollNo: "21CS001", Name: "Asha"},
		{ID: 2, RollNo: "21CS002", Name: "Ravi"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, lines, 4)
	assert.True(t, strings.Contains(lines[0], `"_id":"1"`))
	assert.True(t, strings.Contains(lines[1], `"roll_no":"21CS001"`))
}

func TestIndexStudentsNothingToDo(t *testing.T) {
	s := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	n, err := s.IndexStudents(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

package blevegen

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lytics/qlpredicate/generators/gentypes"
	"github.com/lytics/qlpredicate/predicate"
	"github.com/lytics/qlpredicate/schema"
	"github.com/lytics/qlpredicate/value"
)

var (
	name    = predicate.NewField("name", value.StringType)
	age     = predicate.NewField("age", value.IntType)
	active  = predicate.NewField("active", value.BoolType)
	created = predicate.NewField("created", value.TimeType)
	role    = predicate.NewField("role", value.StringType)
	zip     = predicate.NewField("zip", value.IntType)
)

var people = map[string]map[string]any{
	"p1": {"name": "Alice Smith", "age": 34, "active": true, "created": "2021-03-04T00:00:00Z", "role": "admin"},
	"p2": {"name": "Bob Jones", "age": 19, "active": false, "created": "2022-06-01T00:00:00Z", "role": "dev"},
	"p3": {"name": "Carol Smith", "age": 52, "active": true, "created": "2019-11-20T00:00:00Z", "role": "ops"},
	"p4": {"name": "Dan Brown", "age": 27, "active": true, "created": "2023-01-15T00:00:00Z", "role": "dev"},
}

func newIndex(t *testing.T) bleve.Index {
	t.Helper()
	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt("name", bleve.NewKeywordFieldMapping())
	dm.AddFieldMappingsAt("role", bleve.NewKeywordFieldMapping())
	dm.AddFieldMappingsAt("age", bleve.NewNumericFieldMapping())
	dm.AddFieldMappingsAt("active", bleve.NewBooleanFieldMapping())
	dm.AddFieldMappingsAt("created", bleve.NewDateTimeFieldMapping())
	im := bleve.NewIndexMapping()
	im.DefaultMapping = dm

	index, err := bleve.NewMemOnly(im)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	batch := index.NewBatch()
	for id, doc := range people {
		require.NoError(t, batch.Index(id, doc))
	}
	require.NoError(t, index.Batch(batch))
	return index
}

func search(t *testing.T, index bleve.Index, q query.Query) []string {
	t.Helper()
	req := bleve.NewSearchRequest(q)
	req.Size = 100
	res, err := index.Search(req)
	require.NoError(t, err)
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	sort.Strings(ids)
	return ids
}

func day(s string) value.Value {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return value.NewTimeValue(t)
}

func TestGenerateSearch(t *testing.T) {
	index := newIndex(t)
	g := NewGenerator(nil)

	str := value.NewStringValue
	i := func(v int64) value.Value { return value.NewIntValue(v) }

	tests := []struct {
		p    predicate.Predicate
		want []string
	}{
		{predicate.MatchAll, []string{"p1", "p2", "p3", "p4"}},
		{predicate.NewCompare(name, predicate.EQ, str("Bob Jones")), []string{"p2"}},
		{predicate.NewCompare(age, predicate.GE, i(34)), []string{"p1", "p3"}},
		{predicate.NewCompare(age, predicate.GT, i(34)), []string{"p3"}},
		{predicate.NewCompare(age, predicate.LT, i(27)), []string{"p2"}},
		{predicate.NewCompare(age, predicate.LE, i(27)), []string{"p2", "p4"}},
		{predicate.NewCompare(age, predicate.EQ, i(52)), []string{"p3"}},
		{predicate.NewBetween(age, i(19), i(34)), []string{"p1", "p2", "p4"}},
		{predicate.NewCompare(active, predicate.EQ, value.NewBoolValue(true)), []string{"p1", "p3", "p4"}},
		{predicate.NewIn(role, str("admin"), str("ops")), []string{"p1", "p3"}},
		{predicate.NewIn(age, i(19), i(27), i(99)), []string{"p2", "p4"}},
		{predicate.NewMatch(name, "%Smith"), []string{"p1", "p3"}},
		{predicate.NewMatch(name, "_an%"), []string{"p4"}},
		{predicate.NewCompare(created, predicate.LT, day("2021-01-01")), []string{"p3"}},
		{predicate.NewBetween(created, day("2021-01-01"), day("2022-12-31")), []string{"p1", "p2"}},
		{predicate.NewNot(predicate.NewIn(role, str("dev"))), []string{"p1", "p3"}},
		{predicate.NewOr(
			predicate.NewCompare(age, predicate.LT, i(20)),
			predicate.NewCompare(role, predicate.EQ, str("ops")),
		), []string{"p2", "p3"}},
		{predicate.NewAnd(
			predicate.NewCompare(active, predicate.EQ, value.NewBoolValue(true)),
			predicate.NewCompare(age, predicate.LT, i(30)),
		), []string{"p4"}},
	}
	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			payload, err := g.Generate(tt.p)
			require.NoError(t, err)
			q, ok := payload.Filter.(query.Query)
			require.True(t, ok)
			assert.Equal(t, tt.want, search(t, index, q))
		})
	}
}

func TestGenerateMissingField(t *testing.T) {
	index := newIndex(t)
	s := schema.MustNew("people",
		schema.NewField("name", value.StringType),
		schema.NewField("age", value.IntType),
	)
	g := NewGenerator(gentypes.SchemaMapper(s))

	payload, err := g.Generate(predicate.NewCompare(zip, predicate.EQ, value.NewIntValue(1)))
	require.NoError(t, err)
	assert.IsType(t, &query.MatchNoneQuery{}, payload.Filter)

	// a missing field is false, so the other side of an or still applies
	payload, err = g.Generate(predicate.NewOr(
		predicate.NewCompare(zip, predicate.EQ, value.NewIntValue(1)),
		predicate.NewCompare(name, predicate.EQ, value.NewStringValue("Bob Jones")),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, search(t, index, payload.Filter.(query.Query)))
}

func TestGenerateUnsupported(t *testing.T) {
	g := NewGenerator(nil)
	tests := []predicate.Predicate{
		predicate.NewFieldCompare(age, predicate.GT, zip),
		predicate.NewMatch(age, "1%"),
		predicate.NewCompare(active, predicate.GT, value.NewBoolValue(false)),
		predicate.NewAnd(predicate.MatchAll, predicate.NewFieldCompare(age, predicate.EQ, zip)),
	}
	for _, p := range tests {
		t.Run(p.String(), func(t *testing.T) {
			_, err := g.Generate(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, gentypes.ErrUnsupported))
		})
	}

	_, err := g.Generate(nil)
	assert.Error(t, err)
}

func TestGenerateMaxDepth(t *testing.T) {
	var p predicate.Predicate = predicate.NewCompare(age, predicate.EQ, value.NewIntValue(1))
	for i := 0; i <= gentypes.MaxDepth; i++ {
		p = predicate.NewNot(p)
	}
	_, err := NewGenerator(nil).Generate(p)
	assert.Equal(t, gentypes.ErrMaxDepth, err)
}

func TestWildcardLiterals(t *testing.T) {
	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt("title", bleve.NewKeywordFieldMapping())
	im := bleve.NewIndexMapping()
	im.DefaultMapping = dm
	index, err := bleve.NewMemOnly(im)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	for id, title := range map[string]string{"t1": "AC/DC the tour", "t2": "5*5 grid", "t3": "5x5 grid"} {
		require.NoError(t, index.Index(id, map[string]any{"title": title}))
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"%the%", []string{"t1"}},
		{"%/%", []string{"t1"}},
		{"5_5%", []string{"t2", "t3"}},
		{"5*5%", []string{"t2"}},
		{"5?5%", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, search(t, index, Wildcard("title", tt.pattern)))
		})
	}

	assert.IsType(t, &query.WildcardQuery{}, Wildcard("title", "5_5%"))
	assert.IsType(t, &query.RegexpQuery{}, Wildcard("title", "5*5%"))
}

package blevegen

import (
	"fmt"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/lytics/qlpredicate/predicate"
)

// Bleve's equivalent to match_all
func MatchAll() query.Query {
	return query.NewMatchAllQuery()
}

// Bleve's equivalent to match_none
func MatchNone() query.Query {
	return query.NewMatchNoneQuery()
}

// Term creates a new Bleve term query
func Term(fieldName string, value any) query.Query {
	termStr := fmt.Sprintf("%v", value)
	termQuery := query.NewTermQuery(termStr)
	termQuery.SetField(fieldName)
	return termQuery
}

// Equal creates the exact match query for a native scalar: a term for
// strings, a single point range for numbers and dates.
func Equal(fieldName string, value any) query.Query {
	t := true
	switch v := value.(type) {
	case string:
		return Term(fieldName, v)
	case bool:
		q := query.NewBoolFieldQuery(v)
		q.SetField(fieldName)
		return q
	case int64:
		f := float64(v)
		q := query.NewNumericRangeInclusiveQuery(&f, &f, &t, &t)
		q.SetField(fieldName)
		return q
	case float64:
		q := query.NewNumericRangeInclusiveQuery(&v, &v, &t, &t)
		q.SetField(fieldName)
		return q
	case time.Time:
		q := query.NewDateRangeInclusiveQuery(v, v, &t, &t)
		q.SetField(fieldName)
		return q
	}
	return Term(fieldName, value)
}

// In creates a new Bleve disjunction query (OR) of exact matches
func In(fieldName string, values []any) query.Query {
	disjQuery := query.NewDisjunctionQuery(nil)
	for _, val := range values {
		disjQuery.AddQuery(Equal(fieldName, val))
	}
	return disjQuery
}

// AndFilter creates a boolean query with multiple "must" clauses
func AndFilter(queries []query.Query) query.Query {
	boolQuery := query.NewBooleanQuery(nil, nil, nil)
	for _, q := range queries {
		boolQuery.AddMust(q)
	}
	return boolQuery
}

// OrFilter creates a boolean query with multiple "should" clauses
func OrFilter(queries []query.Query) query.Query {
	boolQuery := query.NewBooleanQuery(nil, nil, nil)
	for _, q := range queries {
		boolQuery.AddShould(q)
	}
	boolQuery.SetMinShould(1)
	return boolQuery
}

// NotFilter creates a boolean query with a "must not" clause
func NotFilter(q query.Query) query.Query {
	boolQuery := query.NewBooleanQuery(nil, nil, nil)
	boolQuery.AddMustNot(q)
	return boolQuery
}

// Wildcard creates a new Bleve wildcard query from a LIKE pattern. Bleve
// wildcards can't escape * or ?, patterns holding them literally become a
// regexp query.
func Wildcard(field, pattern string) query.Query {
	if strings.ContainsAny(pattern, "*?") {
		regexpQuery := query.NewRegexpQuery(predicate.LikeToRegexp(pattern))
		regexpQuery.SetField(field)
		return regexpQuery
	}
	wildcardQuery := query.NewWildcardQuery(likeWildcards.Replace(pattern))
	wildcardQuery.SetField(field)
	return wildcardQuery
}

var likeWildcards = strings.NewReplacer("%", "*", "_", "?")

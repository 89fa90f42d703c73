package esgen

import (
	"fmt"
	"strings"

	"github.com/lytics/qlpredicate/predicate"
)

/*
Native go data types that map to the Elasticsearch
Search DSL
*/

type BoolFilter struct {
	Occurs BoolOccurrence `json:"bool"`
}

type BoolOccurrence struct {
	Filter         []any `json:"filter,omitempty"`
	Should         []any `json:"should,omitempty"`
	MustNot        any   `json:"must_not,omitempty"`
	MinShouldMatch int   `json:"minimum_should_match,omitempty"`
}

func AndFilter(v []any) *BoolFilter { return &BoolFilter{Occurs: BoolOccurrence{Filter: v}} }
func OrFilter(v []any) *BoolFilter {
	return &BoolFilter{Occurs: BoolOccurrence{Should: v, MinShouldMatch: 1}}
}
func NotFilter(v any) *BoolFilter { return &BoolFilter{Occurs: BoolOccurrence{MustNot: v}} }

// Filter structs

type exists struct {
	Exists map[string]string `json:"exists"`
}

// Exists creates a new Elasticsearch filter {"exists": {"field": field}}
func Exists(field string) any {
	return &exists{map[string]string{"field": field}}
}

type in struct {
	Terms map[string][]any `json:"terms"`
}

// In creates a new Elasticsearch terms filter
//
// {"terms": {field: values}}
func In(field string, values []any) any {
	return &in{map[string][]any{field: values}}
}

type RangeQry struct {
	GTE any `json:"gte,omitempty"`
	LTE any `json:"lte,omitempty"`
	GT  any `json:"gt,omitempty"`
	LT  any `json:"lt,omitempty"`
}

type RangeFilter struct {
	Range map[string]RangeQry `json:"range"`
}

// Range creates a new Elasticsearch range filter for a single sided
// comparison {"range": {field: {op: value}}}
func Range(field string, op predicate.Op, val any) (*RangeFilter, error) {
	var r RangeQry
	switch op {
	case predicate.GE:
		r.GTE = val
	case predicate.GT:
		r.GT = val
	case predicate.LE:
		r.LTE = val
	case predicate.LT:
		r.LT = val
	default:
		return nil, fmt.Errorf("esgen: unsupported range operator %s", op)
	}
	return &RangeFilter{Range: map[string]RangeQry{field: r}}, nil
}

// Between is the closed range {"range": {field: {"gte": lower, "lte": upper}}}
func Between(field string, lower, upper any) *RangeFilter {
	return &RangeFilter{Range: map[string]RangeQry{field: {GTE: lower, LTE: upper}}}
}

type term struct {
	Term map[string]any `json:"term"`
}

// Term creates a new Elasticsearch term filter {"term": {field: value}}
func Term(fieldName string, value any) *term {
	return &term{map[string]any{fieldName: value}}
}

type matchall struct {
	MatchAll *struct{} `json:"match_all"`
}

// MatchAll maps to the Elasticsearch "match_all" filter
var MatchAll = &matchall{&struct{}{}}

// MatchNone matches no documents.
var MatchNone = NotFilter(MatchAll)

type wildcard struct {
	Wildcard map[string]string `json:"wildcard"`
}

// Wildcard creates a new Elasticsearch wildcard query from a LIKE pattern
//
//	{"wildcard": {field: value}}
func Wildcard(field, pattern string) *wildcard {
	return &wildcard{Wildcard: map[string]string{field: predicate.LikeToGlob(pattern)}}
}

type script struct {
	Script ScriptQry `json:"script"`
}

type ScriptQry struct {
	Script ScriptSource `json:"script"`
}

type ScriptSource struct {
	Source string `json:"source"`
	Lang   string `json:"lang"`
}

// FieldCompare creates a painless script filter comparing two fields of the
// same document.
//
//	{"script": {"script": {"source": "doc['a'].value > doc['b'].value", "lang": "painless"}}}
func FieldCompare(left string, op predicate.Op, right string) *script {
	src := fmt.Sprintf("%s %s %s", docValue(left), op, docValue(right))
	return &script{ScriptQry{ScriptSource{Source: src, Lang: "painless"}}}
}

func docValue(field string) string {
	return "doc['" + strings.ReplaceAll(field, "'", "\\'") + "'].value"
}

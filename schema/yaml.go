package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lytics/qlpredicate/value"
)

type (
	yamlSchema struct {
		Name   string      `yaml:"name"`
		Fields []yamlField `yaml:"fields"`
	}
	yamlField struct {
		Name   string   `yaml:"name"`
		Type   string   `yaml:"type"`
		Enum   []string `yaml:"enum"`
		Column string   `yaml:"column"`
		Source string   `yaml:"source"`
	}
)

// ParseYAML reads a schema definition:
//
//	name: performances
//	fields:
//	  - name: performance_name
//	    type: string
//	  - name: status
//	    type: enum
//	    enum: [DRAFT, LIVE]
//	  - name: city
//	    type: string
//	    source: venue.city
func ParseYAML(data []byte) (*Schema, error) {
	var ys yamlSchema
	if err := yaml.Unmarshal(data, &ys); err != nil {
		return nil, fmt.Errorf("schema: parse yaml: %w", err)
	}
	fields := make([]*Field, 0, len(ys.Fields))
	for _, yf := range ys.Fields {
		t := TypeFromString(yf.Type)
		if len(yf.Enum) > 0 && yf.Type == "" {
			t = value.StringType
		}
		fields = append(fields, &Field{
			Name:   yf.Name,
			Type:   t,
			Enum:   yf.Enum,
			Column: yf.Column,
			Source: yf.Source,
		})
	}
	return New(ys.Name, fields...)
}

// LoadYAML reads a schema definition file.
func LoadYAML(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

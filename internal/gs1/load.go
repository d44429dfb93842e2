package gs1

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type recordDoc struct {
	Prefix      string `yaml:"prefix"`
	PublisherID string `yaml:"publisher_id"`
	CompanyName string `yaml:"company_name"`
	BrandName   string `yaml:"brand_name"`
	Status      string `yaml:"status"`
	ValidFrom   string `yaml:"valid_from"`
	ValidTo     string `yaml:"valid_to"`
}

type document struct {
	Records []recordDoc `yaml:"records"`
}

// Load reads a YAML registry document.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gs1 registry: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from a YAML document. Records are appended in
// document order.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse gs1 registry: %w", err)
	}
	records := make([]Record, 0, len(doc.Records))
	for i, rd := range doc.Records {
		rec, err := rd.record()
		if err != nil {
			return nil, fmt.Errorf("gs1 registry record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return NewRegistry(records...)
}

func (rd recordDoc) record() (Record, error) {
	rec := Record{
		Prefix:      rd.Prefix,
		PublisherID: rd.PublisherID,
		CompanyName: rd.CompanyName,
		BrandName:   rd.BrandName,
		Status:      Status(rd.Status),
	}
	from, err := ParseDate(rd.ValidFrom)
	if err != nil {
		return rec, fmt.Errorf("valid_from: %w", err)
	}
	rec.ValidFrom = from
	if strings.TrimSpace(rd.ValidTo) != "" {
		to, err := ParseDate(rd.ValidTo)
		if err != nil {
			return rec, fmt.Errorf("valid_to: %w", err)
		}
		rec.ValidTo = &to
	}
	return rec, nil
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp. An empty value
// is the zero time, meaning valid since forever.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC 3339", value)
	}
	return t.UTC(), nil
}

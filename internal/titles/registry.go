package titles

import (
	"errors"

	"negativacao-sync/internal/domain"
)

// OriginSet is one configured group of title fields on a collection deal.
type OriginSet struct {
	Name   string
	Fields []string

	// TargetField receives the title text on a new negativation deal.
	TargetField string
}

func (s OriginSet) Target() string {
	if s.TargetField != "" {
		return s.TargetField
	}
	if len(s.Fields) > 0 {
		return s.Fields[0]
	}
	return ""
}

// Catalog is the ordered list of origin sets. Later sets win on duplicate ids.
type Catalog []OriginSet

type Registry map[string]domain.Title

// Build parses every non-empty title field of the deal. Sets are scanned in
// catalog order and fields in set order; a repeated id keeps the last one.
func (c Catalog) Build(deal domain.Deal) (Registry, error) {
	reg := Registry{}
	for _, set := range c {
		for _, field := range set.Fields {
			value := deal.String(field)
			if value == "" {
				continue
			}
			title, err := Parse(value, set.Name)
			if err != nil {
				var mte *domain.MalformedTitleError
				if errors.As(err, &mte) {
					mte.Field = field
				}
				return nil, err
			}
			reg[title.ID] = title
		}
	}
	return reg, nil
}

// Values returns the raw non-empty title texts of the deal in scan order.
func (c Catalog) Values(deal domain.Deal) []string {
	var out []string
	for _, set := range c {
		for _, field := range set.Fields {
			if v := deal.String(field); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// Targets lists the target field of every set, in catalog order.
func (c Catalog) Targets() []string {
	out := make([]string, 0, len(c))
	for _, set := range c {
		out = append(out, set.Target())
	}
	return out
}

func (c Catalog) Set(name string) (OriginSet, bool) {
	for _, set := range c {
		if set.Name == name {
			return set, true
		}
	}
	return OriginSet{}, false
}

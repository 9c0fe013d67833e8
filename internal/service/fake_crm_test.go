package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"negativacao-sync/internal/domain"
)

var errCRMDown = errors.New("crm unreachable")

type updateCall struct {
	ID     string
	Fields map[string]any
}

// fakeCRM is an in-memory deal store that understands the "=" and "!" filter
// prefixes the workflows use.
type fakeCRM struct {
	deals  map[string]domain.Deal
	nextID int

	updates []updateCall
	creates []map[string]any
	lists   []map[string]any

	failGet         bool
	failList        bool
	failUpdate      bool
	failCreateAfter int // creates allowed before failing; negative disables
}

func newFakeCRM(deals ...domain.Deal) *fakeCRM {
	f := &fakeCRM{deals: map[string]domain.Deal{}, nextID: 1000, failCreateAfter: -1}
	for _, d := range deals {
		f.deals[d.ID()] = d
	}
	return f
}

func (f *fakeCRM) GetDeal(_ context.Context, id string) (domain.Deal, error) {
	if f.failGet {
		return nil, errCRMDown
	}
	d, ok := f.deals[id]
	if !ok {
		return nil, errors.New("deal not found")
	}
	return copyDeal(d), nil
}

func (f *fakeCRM) UpdateDeal(_ context.Context, id string, fields map[string]any) error {
	if f.failUpdate {
		return errCRMDown
	}
	f.updates = append(f.updates, updateCall{ID: id, Fields: fields})
	d, ok := f.deals[id]
	if !ok {
		return errors.New("deal not found")
	}
	for k, v := range fields {
		d[k] = v
	}
	return nil
}

func (f *fakeCRM) CreateDeal(_ context.Context, fields map[string]any) (string, error) {
	if f.failCreateAfter >= 0 && len(f.creates) >= f.failCreateAfter {
		return "", errCRMDown
	}
	f.creates = append(f.creates, fields)
	id := strconv.Itoa(f.nextID)
	f.nextID++
	d := domain.Deal{domain.FieldID: id}
	for k, v := range fields {
		d[k] = v
	}
	f.deals[id] = d
	return id, nil
}

func (f *fakeCRM) ListDeals(_ context.Context, filter map[string]any, _ []string) ([]domain.Deal, error) {
	if f.failList {
		return nil, errCRMDown
	}
	f.lists = append(f.lists, filter)

	ids := make([]string, 0, len(f.deals))
	for id := range f.deals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []domain.Deal
	for _, id := range ids {
		d := f.deals[id]
		if matches(d, filter) {
			out = append(out, copyDeal(d))
		}
	}
	return out, nil
}

func (f *fakeCRM) mutations() int {
	return len(f.updates) + len(f.creates)
}

func matches(d domain.Deal, filter map[string]any) bool {
	for key, want := range filter {
		negate := strings.HasPrefix(key, "!")
		field := strings.TrimLeft(key, "=!")
		hit := valueIn(d.String(field), want)
		if hit == negate {
			return false
		}
	}
	return true
}

func valueIn(v string, want any) bool {
	switch w := want.(type) {
	case []string:
		for _, item := range w {
			if v == item {
				return true
			}
		}
		return false
	case string:
		return v == w
	default:
		return v == domain.Deal{"x": w}.String("x")
	}
}

func copyDeal(d domain.Deal) domain.Deal {
	c := make(domain.Deal, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

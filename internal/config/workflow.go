package config

import (
	"fmt"
	"os"

	"negativacao-sync/internal/titles"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// CollectionPipeline holds the stage tokens of the active-collection pipeline.
type CollectionPipeline struct {
	CategoryID           string `yaml:"category_id" validate:"required"`
	AwaitingNegativation string `yaml:"awaiting_negativation" validate:"required"`
	Blocked              string `yaml:"blocked" validate:"required"`
	Processing           string `yaml:"processing" validate:"required"`
	Won                  string `yaml:"won" validate:"required"`
}

// NegativationPipeline holds the stage tokens of the credit-bureau pipeline.
type NegativationPipeline struct {
	CategoryID                string `yaml:"category_id" validate:"required"`
	New                       string `yaml:"new" validate:"required"`
	Preparation               string `yaml:"preparation" validate:"required"`
	FinalInvoice              string `yaml:"final_invoice" validate:"required"`
	Lost                      string `yaml:"lost" validate:"required"`
	Executing                 string `yaml:"executing" validate:"required"`
	Won                       string `yaml:"won" validate:"required"`
	AwaitingSettlementInvoice string `yaml:"awaiting_settlement_invoice" validate:"required"`
	ClosedOut                 string `yaml:"closed_out" validate:"required"`
}

type Fields struct {
	ExternalID           string `yaml:"external_id" validate:"required"`
	TitlesToReport       string `yaml:"titles_to_report" validate:"required"`
	CorrespondenceStatus string `yaml:"correspondence_status" validate:"required"`
}

// StatusValues are the CRM list item ids of the correspondence status field.
type StatusValues struct {
	Requested string `yaml:"requested" validate:"required"`
	Reported  string `yaml:"reported" validate:"required"`
	Retracted string `yaml:"retracted" validate:"required"`
}

// Passthrough copies a collection deal field onto a new negativation deal.
type Passthrough struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to"`
}

func (p Passthrough) Target() string {
	if p.To != "" {
		return p.To
	}
	return p.From
}

type OriginSet struct {
	Name        string   `yaml:"name" validate:"required"`
	Fields      []string `yaml:"fields" validate:"required,min=1,dive,required"`
	TargetField string   `yaml:"target_field"`
}

type Workflow struct {
	Collection   CollectionPipeline   `yaml:"collection"`
	Negativation NegativationPipeline `yaml:"negativation"`
	Fields       Fields               `yaml:"fields"`
	Status       StatusValues         `yaml:"status"`
	Passthrough  []Passthrough        `yaml:"passthrough" validate:"dive"`
	OriginSets   []OriginSet          `yaml:"origin_sets" validate:"required,min=1,dive"`

	// StrictCollectionMatch rejects status syncs when more than one
	// collection deal shares the external id.
	StrictCollectionMatch bool `yaml:"strict_collection_match"`
}

// Catalog converts the configured origin sets, keeping their order.
func (w Workflow) Catalog() titles.Catalog {
	cat := make(titles.Catalog, 0, len(w.OriginSets))
	for _, s := range w.OriginSets {
		cat = append(cat, titles.OriginSet{
			Name:        s.Name,
			Fields:      append([]string(nil), s.Fields...),
			TargetField: s.TargetField,
		})
	}
	return cat
}

// LoadWorkflow overlays the YAML file at path on DefaultWorkflow and
// validates the result. An empty path returns the defaults.
func LoadWorkflow(path string) (Workflow, error) {
	wf := DefaultWorkflow()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Workflow{}, fmt.Errorf("read workflow config: %w", err)
		}
		if err := yaml.Unmarshal(data, &wf); err != nil {
			return Workflow{}, fmt.Errorf("parse workflow config %s: %w", path, err)
		}
	}
	if err := ValidateWorkflow(wf); err != nil {
		return Workflow{}, err
	}
	return wf, nil
}

func ValidateWorkflow(wf Workflow) error {
	if err := validator.New().Struct(wf); err != nil {
		return fmt.Errorf("invalid workflow config: %w", err)
	}

	seen := map[string]bool{}
	for _, s := range wf.OriginSets {
		if seen[s.Name] {
			return fmt.Errorf("invalid workflow config: duplicate origin set %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"cuentas/internal/core"
	"cuentas/internal/localstore"
	"cuentas/internal/log"
)

// fixedValuesFile is the on-disk seed format. Amounts are decimal strings
// ("40.00") so the file reads like the form the household fills in.
type fixedValuesFile struct {
	WaterDiscount       string `yaml:"water_discount"`
	InternetMonthlyCost string `yaml:"internet_monthly_cost"`
}

// LoadFixedValuesFile parses a YAML seed file.
func LoadFixedValuesFile(path string) (core.FixedValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.FixedValues{}, fmt.Errorf("read fixed values: %w", err)
	}
	var f fixedValuesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return core.FixedValues{}, fmt.Errorf("parse fixed values: %w", err)
	}

	fv := core.DefaultFixedValues()
	if f.WaterDiscount != "" {
		if fv.WaterDiscount, err = core.ParseDecimalToCents(f.WaterDiscount); err != nil {
			return core.FixedValues{}, fmt.Errorf("water_discount: %w", err)
		}
	}
	if f.InternetMonthlyCost != "" {
		if fv.InternetMonthlyCost, err = core.ParseDecimalToCents(f.InternetMonthlyCost); err != nil {
			return core.FixedValues{}, fmt.Errorf("internet_monthly_cost: %w", err)
		}
	}
	return fv, fv.Validate()
}

// FixedValuesService reads and writes the default discount and monthly cost.
// The first read creates the stored document if it does not exist yet.
type FixedValuesService struct {
	mu     sync.Mutex
	store  *localstore.Store
	seed   core.FixedValues
	logger *log.Logger
}

// NewFixedValuesService uses seedFile, when set, for the first-use document.
func NewFixedValuesService(store *localstore.Store, seedFile string, logger *log.Logger) (*FixedValuesService, error) {
	if logger == nil {
		logger = log.Discard()
	}
	seed := core.DefaultFixedValues()
	if seedFile != "" {
		fv, err := LoadFixedValuesFile(seedFile)
		if err != nil {
			return nil, err
		}
		seed = fv
	}
	return &FixedValuesService{store: store, seed: seed, logger: logger.WithComponent(log.ComponentLocal)}, nil
}

func (s *FixedValuesService) Get(ctx context.Context) (core.FixedValues, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fv, err := s.store.FixedValues(ctx)
	if err == nil {
		return fv, nil
	}
	if !errors.Is(err, localstore.ErrMissing) {
		return core.FixedValues{}, fmt.Errorf("load fixed values: %w", err)
	}

	if err := s.store.SaveFixedValues(ctx, s.seed); err != nil {
		return core.FixedValues{}, fmt.Errorf("create fixed values: %w", err)
	}
	s.logger.InfoContext(ctx, "Created fixed values",
		"water_discount", s.seed.WaterDiscount.String(),
		"internet_monthly_cost", s.seed.InternetMonthlyCost.String())
	return s.seed, nil
}

func (s *FixedValuesService) Update(ctx context.Context, fv core.FixedValues) error {
	if err := fv.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveFixedValues(ctx, fv); err != nil {
		return fmt.Errorf("save fixed values: %w", err)
	}
	s.logger.InfoContext(ctx, "Fixed values updated",
		"water_discount", fv.WaterDiscount.String(),
		"internet_monthly_cost", fv.InternetMonthlyCost.String())
	return nil
}

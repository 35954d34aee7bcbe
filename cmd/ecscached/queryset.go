package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vitaliisemenov/ecscache/internal/api"
	"github.com/vitaliisemenov/ecscache/internal/ecscache"
	"github.com/vitaliisemenov/ecscache/internal/ecsworld"
)

// querySetFile is the on-disk shape of a demo query set: a fixed
// component-name-to-id table, a handful of archetype tables to seed the
// world with, and the persistent queries to register a Cache for. It
// lets `serve` start up with something worth inspecting instead of an
// empty world and an empty cache registry.
type querySetFile struct {
	Components map[string]uint64 `yaml:"components"`
	Tables     []struct {
		Components []string `yaml:"components"`
	} `yaml:"tables"`
	Queries []struct {
		ID         string   `yaml:"id"`
		Components []string `yaml:"components"`
	} `yaml:"queries"`
}

// loadQuerySet reads and parses a query-set YAML file.
func loadQuerySet(path string) (*querySetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("queryset: read %s: %w", path, err)
	}
	var spec querySetFile
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("queryset: parse %s: %w", path, err)
	}
	return &spec, nil
}

// applyQuerySet seeds world with spec's tables and registers a trivial
// all-AND cache for each of spec's queries into reg. The seeded tables
// hold no entities, so each cache is built with MatchEmptyTables set.
func applyQuerySet(world *ecsworld.MemWorld, spec *querySetFile, reg *api.Registry) error {
	resolve := func(name string) (ecscache.ComponentID, error) {
		id, ok := spec.Components[name]
		if !ok {
			return 0, fmt.Errorf("queryset: undeclared component %q", name)
		}
		return ecscache.ComponentID(id), nil
	}

	for _, table := range spec.Tables {
		ids := make([]ecscache.ComponentID, 0, len(table.Components))
		for _, name := range table.Components {
			id, err := resolve(name)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		world.CreateTable(ids)
	}

	for _, q := range spec.Queries {
		terms := make([]ecscache.Term, 0, len(q.Components))
		for _, name := range q.Components {
			id, err := resolve(name)
			if err != nil {
				return err
			}
			terms = append(terms, ecscache.Term{
				ID: id, Src: ecscache.ThisRef, First: ecscache.ThisRef, Second: ecscache.ThisRef,
			})
		}

		c, err := ecscache.New(world, ecscache.QueryDescriptor{
			ID: q.ID, Terms: terms, Flags: ecscache.Flags{MatchEmptyTables: true},
		})
		if err != nil {
			return fmt.Errorf("queryset: register query %q: %w", q.ID, err)
		}
		reg.Put(c)
	}

	return nil
}

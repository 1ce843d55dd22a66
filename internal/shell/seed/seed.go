// Package seed loads demo fixtures into an empty store.
//
// Fixtures are plain records. Each one is replayed through an add-mode form
// session, so seeded data obeys the same rules as user input. Invalid
// fixtures are skipped and reported together.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/form"
	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/shell/store"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// SystemActor is the identity fixtures are created under.
var SystemActor = auth.Actor{
	UserID:        "system",
	Name:          "seed",
	Role:          domain.RoleAdmin,
	Authenticated: true,
}

// =============================================================================
// Fixtures
// =============================================================================

// Fixtures holds raw records per kind.
type Fixtures struct {
	Products  []domain.Record `yaml:"products"`
	Users     []domain.Record `yaml:"users"`
	Customers []domain.Record `yaml:"customers"`
}

// Parse decodes YAML fixtures.
func Parse(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &fx, nil
}

// LoadFile reads fixtures from path. An empty path yields the embedded defaults.
func LoadFile(path string) (*Fixtures, error) {
	if path == "" {
		return Parse(defaultFixtures)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(data)
}

// =============================================================================
// Seeder
// =============================================================================

// Result counts the records created per kind.
type Result struct {
	Products  int
	Users     int
	Customers int
}

// Seeder writes fixtures to a store.
type Seeder struct {
	store  store.Store
	policy rules.Policy
	logger *slog.Logger
}

// NewSeeder creates a seeder.
func NewSeeder(s store.Store, policy rules.Policy, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		store:  s,
		policy: policy,
		logger: logger.With("component", "seed"),
	}
}

// Seed creates every valid fixture of each kind whose table is empty.
// The returned error aggregates every rejected fixture and store failure;
// valid fixtures are created regardless.
func (s *Seeder) Seed(ctx context.Context, fx *Fixtures) (Result, error) {
	var res Result
	var errs error

	if empty, err := s.productsEmpty(ctx); err != nil {
		errs = multierr.Append(errs, err)
	} else if empty {
		for i, r := range fx.Products {
			err := s.apply(domain.KindProduct, r, func(rec domain.Record) error {
				p, err := domain.ProductFromRecord(rec)
				if err != nil {
					return err
				}
				return s.store.CreateProduct(ctx, &p)
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("products[%d]: %w", i, err))
				continue
			}
			res.Products++
		}
	}

	if empty, err := s.usersEmpty(ctx); err != nil {
		errs = multierr.Append(errs, err)
	} else if empty {
		for i, r := range fx.Users {
			err := s.apply(domain.KindUser, r, func(rec domain.Record) error {
				u, err := domain.UserFromRecord(rec)
				if err != nil {
					return err
				}
				return s.store.CreateUser(ctx, &u)
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("users[%d]: %w", i, err))
				continue
			}
			res.Users++
		}
	}

	if empty, err := s.customersEmpty(ctx); err != nil {
		errs = multierr.Append(errs, err)
	} else if empty {
		for i, r := range fx.Customers {
			err := s.apply(domain.KindCustomer, r, func(rec domain.Record) error {
				c, err := domain.CustomerFromRecord(rec)
				if err != nil {
					return err
				}
				return s.store.CreateCustomer(ctx, &c)
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("customers[%d]: %w", i, err))
				continue
			}
			res.Customers++
		}
	}

	s.logger.Info("fixtures seeded",
		"products", res.Products,
		"users", res.Users,
		"customers", res.Customers,
		"rejected", len(multierr.Errors(errs)),
	)
	return res, errs
}

// apply replays a fixture through an add-mode session and hands the
// accepted record to save.
func (s *Seeder) apply(kind domain.RecordKind, r domain.Record, save func(domain.Record) error) error {
	seed := domain.Record{}
	if id, ok := r[domain.FieldID]; ok {
		seed[domain.FieldID] = id
	}

	session, err := form.Open(kind, domain.ModeAdd, seed, SystemActor, form.WithPolicy(s.policy))
	if err != nil {
		return err
	}
	defer session.Close()

	for field, value := range r {
		if field == domain.FieldID {
			continue
		}
		if err := session.Change(field, value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	rec, fieldErrs := session.Submit()
	if !fieldErrs.Empty() {
		return &RejectedError{Errors: fieldErrs}
	}
	return save(rec)
}

func (s *Seeder) productsEmpty(ctx context.Context) (bool, error) {
	list, err := s.store.ListProducts(ctx, store.ListOptions{Limit: 1})
	return len(list) == 0, err
}

func (s *Seeder) usersEmpty(ctx context.Context) (bool, error) {
	list, err := s.store.ListUsers(ctx, store.ListOptions{Limit: 1})
	return len(list) == 0, err
}

func (s *Seeder) customersEmpty(ctx context.Context) (bool, error) {
	list, err := s.store.ListCustomers(ctx, store.ListOptions{Limit: 1})
	return len(list) == 0, err
}

// =============================================================================
// Errors
// =============================================================================

// RejectedError reports a fixture that failed the form rules.
type RejectedError struct {
	Errors domain.FieldErrors
}

func (e *RejectedError) Error() string {
	msg := "rejected:"
	for _, f := range e.Errors.Fields() {
		msg += " " + f + " (" + e.Errors[f] + ")"
	}
	return msg
}

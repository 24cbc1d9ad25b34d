package container

import (
	"fmt"
	"log"

	"gofit/adapters/solver"
	"gofit/domain/fitfunc"
	"gofit/internal/config"
	"gofit/internal/errors"
	"gofit/internal/fitting"
	"gofit/ports"
)

// Container holds the fitting dependencies built from one configuration
type Container struct {
	Config *config.Config

	Registry *fitfunc.Registry
	Solver   ports.Solver
	Engine   *fitting.Engine
}

// New creates a container using the process-wide fit function registry
func New(cfg *config.Config) (*Container, error) {
	return NewWithRegistry(cfg, fitfunc.Default())
}

// NewWithRegistry creates a container around an explicit registry
func NewWithRegistry(cfg *config.Config, registry *fitfunc.Registry) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}

	s, err := solver.New(cfg.Solver.Method, cfg.Solver.MaxIterations, cfg.Solver.GradientThreshold)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	log.Printf("[Container] solver %s (max iterations %d, gradient threshold %g), %d fit functions registered",
		cfg.Solver.Method, cfg.Solver.MaxIterations, cfg.Solver.GradientThreshold, registry.Len())

	return &Container{
		Config:   cfg,
		Registry: registry,
		Solver:   s,
		Engine:   fitting.NewEngine(s),
	}, nil
}

// LoadFunction loads a registered function, or a polynomial of the given degree when name is empty
func (c *Container) LoadFunction(name string, polynomial int) (*fitfunc.FitFunction, error) {
	switch {
	case name != "" && polynomial != 0:
		return nil, errors.InvalidInput("give either a function name or --polynomial, not both")
	case name != "":
		fn, err := c.Registry.Load(name)
		return fn, errors.Wrap(err, "cannot load fit function")
	case polynomial != 0:
		fn, err := c.Registry.Load("polynomial", polynomial)
		return fn, errors.Wrap(err, "cannot load fit function")
	}
	return nil, errors.InvalidInput("a function name or --polynomial is required")
}

package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Service defines a generic service.
type Service any

// RunnableService defines a service that can be run.
type RunnableService interface {
	Service

	Run()
	Shutdown(ctx context.Context) error
}

// Group is a container for managing a bunch of services.
type Group struct {
	list []Service
}

func (g *Group) Add(services ...Service) { g.list = append(g.list, services...) }

// AddIf adds the services only when the condition is true.
func (g *Group) AddIf(condition bool, services ...Service) {
	if condition {
		g.Add(services...)
	}
}

func (g *Group) Len() int { return len(g.list) }

// Start starts each service in the group in the order of addition.
func (g *Group) Start() {
	for _, s := range g.list {
		if v, ok := s.(RunnableService); ok {
			v.Run()
		}
	}
}

// Shutdown stops all the services of the group at once
// and returns the first failure if any.
func (g *Group) Shutdown(ctx context.Context) error {
	var eg errgroup.Group
	for _, s := range g.list {
		v, ok := s.(RunnableService)
		if !ok {
			continue
		}
		eg.Go(func() error {
			if err := v.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("failed to stop [%v]: %w", v, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

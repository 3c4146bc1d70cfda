package docker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
)

// ErrQuery is returned when the daemon cannot answer a container query
var ErrQuery = errors.New("runtime query failed")

// Unit is a running container that belongs to an environment
type Unit struct {
	ID    string
	Name  string
	State string
}

// apiClient is the subset of the Docker SDK used here
type apiClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	Close() error
}

// Client talks to the Docker daemon
type Client struct {
	api apiClient
}

// NewClient connects to the Docker daemon. host may be empty.
func NewClient(host string) (*Client, error) {
	cli, err := newAPIClient(host)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Client{api: cli}, nil
}

// Ping checks that the daemon is reachable
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	return nil
}

// ListRunningUnits returns the running containers whose name contains name.
// No match is an empty result, not an error.
func (c *Client) ListRunningUnits(ctx context.Context, name string) ([]Unit, error) {
	containers, err := c.api.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list containers for %s: %w", ErrQuery, name, err)
	}

	units := make([]Unit, 0, len(containers))
	for _, ctr := range containers {
		units = append(units, toUnit(ctr))
	}
	return units, nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.api.Close()
}

func toUnit(ctr types.Container) Unit {
	// Use the first name if available, remove slash
	name := ""
	if len(ctr.Names) > 0 {
		name = strings.TrimPrefix(ctr.Names[0], "/")
	}

	id := ctr.ID
	if len(id) > 12 {
		id = id[:12]
	}

	return Unit{ID: id, Name: name, State: ctr.State}
}

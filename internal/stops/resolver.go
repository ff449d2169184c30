package stops

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajespoo/RoutePlanner/internal/models"
)

// ErrStopNotFound is matched by every *NotFoundError
var ErrStopNotFound = errors.New("stop not found")

// NotFoundError reports a stop name with no candidates
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("stop not found: %s", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrStopNotFound
}

// Resolver maps a stop name to a coordinate
type Resolver interface {
	Resolve(ctx context.Context, name string) (models.Coordinate, error)
}

// Searcher lists stops matching a name
type Searcher interface {
	Search(ctx context.Context, name string) ([]models.Stop, error)
}

// Mode selects the resolver implementation for a process
type Mode string

const (
	ModeLive   Mode = "live"
	ModeStatic Mode = "static"
)

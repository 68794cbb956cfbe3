package commandbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/aims-commerce/internal"
)

// Command is a self-validating request for a state change. Commands carry
// data only; the bus routes them to whoever registered for their type.
type Command interface {
	CommandType() string
	Validate() error
}

type HandlerFunc func(ctx context.Context, cmd Command) (interface{}, error)

// Middleware hooks run around every dispatched command. Before can veto
// execution by returning an error.
type Middleware interface {
	Before(ctx context.Context, cmd Command) error
	After(ctx context.Context, cmd Command, result interface{})
	OnError(ctx context.Context, cmd Command, err error)
}

type registration struct {
	priority int
	handler  HandlerFunc
}

type Bus struct {
	handlers    map[string]registration
	middlewares []Middleware
	logger      *slog.Logger
	mu          sync.RWMutex
}

func New(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string]registration),
		logger:   logger,
	}
}

func (b *Bus) Use(m Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middlewares = append(b.middlewares, m)
}

// Register binds a handler to a command type. When several handlers claim
// the same type the highest priority wins; on a tie the handler registered
// first stays. The routing table is static once wiring completes, so Execute
// only ever takes the read lock.
func (b *Bus) Register(commandType string, priority int, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.handlers[commandType]; ok {
		if existing.priority >= priority {
			b.logger.Warn("handler already registered for command type",
				"command_type", commandType,
				"existing_priority", existing.priority,
				"rejected_priority", priority)
			return
		}
	}

	b.handlers[commandType] = registration{priority: priority, handler: handler}
	b.logger.Info("command handler registered",
		"command_type", commandType,
		"priority", priority)
}

func (b *Bus) Supports(commandType string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.handlers[commandType]
	return ok
}

// Execute validates the command, runs the middleware chain around the
// registered handler and returns the handler's result. Handler errors that
// are not already typed application errors get wrapped so callers never see
// a raw panic-adjacent failure.
func (b *Bus) Execute(ctx context.Context, cmd Command) (interface{}, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	reg, ok := b.handlers[cmd.CommandType()]
	middlewares := make([]Middleware, len(b.middlewares))
	copy(middlewares, b.middlewares)
	b.mu.RUnlock()

	for _, m := range middlewares {
		if err := m.Before(ctx, cmd); err != nil {
			return nil, err
		}
	}

	if !ok {
		err := internal.NewUnsupportedError(
			fmt.Sprintf("no handler registered for command: %s", cmd.CommandType()),
			internal.ErrCodeUnsupportedCommand)
		for _, m := range middlewares {
			m.OnError(ctx, cmd, err)
		}
		return nil, err
	}

	result, err := reg.handler(ctx, cmd)
	if err != nil {
		if _, isApp := internal.IsAppError(err); !isApp {
			err = internal.NewExecutionError(
				fmt.Sprintf("command %s failed", cmd.CommandType()), err)
		}
		for _, m := range middlewares {
			m.OnError(ctx, cmd, err)
		}
		return nil, err
	}

	for _, m := range middlewares {
		m.After(ctx, cmd, result)
	}

	return result, nil
}

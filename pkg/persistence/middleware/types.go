package middleware

import "github.com/aretw0/dona/pkg/ports"

// Middleware allows wrapping a TaskRepository to add behavior.
type Middleware func(ports.TaskRepository) ports.TaskRepository

// Chain applies the middlewares so that the first one listed is the outermost.
func Chain(repo ports.TaskRepository, mws ...Middleware) ports.TaskRepository {
	for i := len(mws) - 1; i >= 0; i-- {
		repo = mws[i](repo)
	}
	return repo
}

// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/aptosarb/arbitrage-bot/business/execution/app"
	"github.com/aptosarb/arbitrage-bot/internal/di"
)

// DI tokens for the execution module.
const (
	Executor = "execution.Executor"
)

// GetExecutor resolves the order/swap executor from the registry.
func GetExecutor(sr di.ServiceRegistry) *app.Executor {
	return di.MustGet[*app.Executor](sr, Executor)
}

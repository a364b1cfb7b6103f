// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/aptosarb/arbitrage-bot/business/arbitrage/app"
	"github.com/aptosarb/arbitrage-bot/internal/di"
)

// DI tokens for the arbitrage module.
const (
	Engine = "arbitrage.Engine"
)

// GetEngine resolves the detection engine from the registry.
func GetEngine(sr di.ServiceRegistry) *app.Engine {
	return di.MustGet[*app.Engine](sr, Engine)
}

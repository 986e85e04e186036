// Package autoload initializes the logger from the LOG-prefixed
// environment on blank import.
package autoload

import (
	configx "github.com/kittipos/clinic-concierge/pkg/config"
	logx "github.com/kittipos/clinic-concierge/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}

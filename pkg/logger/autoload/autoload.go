// Package autoload configures the global zerolog logger from LOG_* env vars on import.
package autoload

import (
	"github.com/rs/zerolog/log"

	configx "github.com/tanpawarit/chative-customer-service/pkg/config"
	logx "github.com/tanpawarit/chative-customer-service/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		log.Warn().Err(err).Msg("logger config invalid, using defaults")
		return
	}
	logx.Init(*conf)
}

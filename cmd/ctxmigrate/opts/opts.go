package opts

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/walteh/ctxmigrate/pkg/config"
	"github.com/walteh/ctxmigrate/pkg/log"
	"github.com/walteh/ctxmigrate/pkg/status"
)

// RootOpts is filled in by the root command before any subcommand runs
type RootOpts struct {
	Config    *config.Config
	StatusMgr *status.Manager
	Level     zerolog.Level
}

// Logger returns a console logger writing to w at the configured level
func (o *RootOpts) Logger(w io.Writer) *log.Logger {
	return log.New(w, o.Level)
}

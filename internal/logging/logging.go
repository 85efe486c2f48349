//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

// Package logging configures the structured logger shared by the core's
// internal tasks (provider decode loop, broker, publisher). It is a thin
// setup helper, not a facade — callers use logrus directly once they have
// a *logrus.Logger from here.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger configured for tradestream's internal
// components: text output to stderr (so it never interleaves with
// table/JSON output on stdout) at the given level.
func New(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return log
}

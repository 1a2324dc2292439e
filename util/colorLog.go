// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"github.com/bitmark-inc/logger"
)

// ANSI colour codes for highlighting network traffic in the log
const (
	CoReset   = "\x1b[0m"
	CoRed     = "\x1b[31m"
	CoGreen   = "\x1b[32m"
	CoYellow  = "\x1b[33m"
	CoBlue    = "\x1b[34m"
	CoMagenta = "\x1b[35m"
	CoCyan    = "\x1b[36m"
	CoWhite   = "\x1b[37m"

	CoLightRed    = "\x1b[91m"
	CoLightGreen  = "\x1b[92m"
	CoLightYellow = "\x1b[93m"
)

// LogDebug - print message in Debug level with assigned color
func LogDebug(log *logger.L, color string, message string) {
	log.Debugf("%s%s%s", color, message, CoReset)
}

// LogInfo - print message in Info level with assigned color
func LogInfo(log *logger.L, color string, message string) {
	log.Infof("%s%s%s", color, message, CoReset)
}

// LogWarn - print message in Warn level with assigned color
func LogWarn(log *logger.L, color string, message string) {
	log.Warnf("%s%s%s", color, message, CoReset)
}

// LogError - print message in Error level with assigned color
func LogError(log *logger.L, color string, message string) {
	log.Errorf("%s%s%s", color, message, CoReset)
}

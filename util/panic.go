// SPDX-FileCopyrightText: 2026 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// RecoverWithLog recovers from panic and logs the error and stack trace using the provided logger
func RecoverWithLog(logger *zap.SugaredLogger) {
	if p := recover(); p != nil {
		logger.Errorw("panic recovered", "error", p, "stack", string(debug.Stack()))
	}
}

// RunGuarded calls fn and keeps a panic inside it from unwinding the caller.
// It reports whether fn returned normally.
func RunGuarded(logger *zap.SugaredLogger, what string, fn func()) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			logger.Errorw("panic recovered", "while", what, "error", p, "stack", string(debug.Stack()))
			ok = false
		}
	}()
	fn()
	return true
}

package utils

import (
	"context"
	"log"
	"runtime"
	"strings"

	"github.com/UGZ6/in-shadow-trader/pkg/logger"
)

// GoSafe runs fn in a new goroutine and recovers from any panic, so one
// misbehaving job cannot take the process down.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Panic Recovered] %v", r)
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still live, logging the
// calling function when it is not. Loop bodies use it as an early-out.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}

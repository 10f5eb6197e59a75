package engine_test

import (
	"context"
	"testing"
)

func ctxOf(_ *testing.T) context.Context { return context.Background() }

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	defer New("NOOP")

	for _, level := range []string{"DEBUG", "info", "Warn", "error", "bogus", "NOOP", "noop"} {
		New(level)
		assert.NotNil(t, Sugar.SugaredLogger, level)
		named := Sugar.WithServiceName("test")
		assert.NotNil(t, named.SugaredLogger)
		named.Debugw("probe", "level", level)
	}

	OnExit()
}

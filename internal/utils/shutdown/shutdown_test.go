package shutdown

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopLogger struct{ errors int }

func (l *nopLogger) Infof(string, ...interface{}) {}
func (l *nopLogger) Warnf(string, ...interface{}) {}
func (l *nopLogger) Errorf(string, ...interface{}) { l.errors++ }

func TestShutdownRunsHooksInReverseOnce(t *testing.T) {
	l := &nopLogger{}
	Init(l)
	var order []string
	Register(func() error { order = append(order, "db"); return nil })
	Register(func() error { order = append(order, "cache"); return errors.New("flush failed") })
	Register(func() error { order = append(order, "server"); return nil })

	Shutdown()
	Shutdown()

	require.Equal(t, []string{"server", "cache", "db"}, order)
	require.Equal(t, 1, l.errors)
}

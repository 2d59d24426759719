package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartWithoutStoreIsNoop(t *testing.T) {
	s := New(nil, 10*time.Minute)

	assert.NoError(t, s.Start())
	s.Stop()
}

func TestStopBeforeStart(t *testing.T) {
	s := New(nil, time.Minute)
	s.Stop()
}

package cleanup_test

import (
	"errors"
	"testing"

	"github.com/limbo/lumi/pkg/cleanup"
	"github.com/stretchr/testify/assert"
)

func TestCleanUpRunsInReverseOnce(t *testing.T) {
	var order []string
	cleanup.Register(&cleanup.Job{Name: "pool", F: func() error { order = append(order, "pool"); return nil }})
	cleanup.Register(&cleanup.Job{Name: "log", F: func() error { order = append(order, "log"); return errors.New("busy") }})

	cleanup.CleanUp()
	cleanup.CleanUp()
	assert.Equal(t, []string{"log", "pool"}, order)
}

package procgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitProcessFillsPgidOnce(t *testing.T) {
	p := New(false, nil)
	assert.Equal(t, 0, p.Pgid())

	first := p.InitProcess(100)
	assert.Equal(t, 100, first)

	second := p.InitProcess(200)
	assert.Equal(t, 100, second, "pgid cell must not move once set")
	assert.Equal(t, 100, p.Pgid())
}

func TestSetForegroundFromParentNilTTYIsNoop(t *testing.T) {
	p := New(true, nil)
	assert.NoError(t, SetForegroundFromParent(p.TTY, 123))
}

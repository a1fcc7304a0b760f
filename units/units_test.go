package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "1.5A", Amps(1.5).String())
	assert.Equal(t, "-2V", Volts(-2).String())
	assert.Equal(t, "0.25T", Tesla(0.25).String())
	assert.Equal(t, "3H", Henries(3).String())
}

func TestAbs(t *testing.T) {
	assert.Equal(t, Amps(2), Amps(-2).Abs())
	assert.Equal(t, Amps(2), Amps(2).Abs())
	assert.Equal(t, Volts(2), Volts(-2).Abs())
	assert.Equal(t, Volts(0), Volts(0).Abs())
}

func TestMaxMinAmps(t *testing.T) {
	assert.Equal(t, Amps(5), MaxAmps(1, 5, -3))
	assert.Equal(t, Amps(-3), MinAmps(1, 5, -3))
	assert.Equal(t, Amps(0), MaxAmps())
	assert.Equal(t, Amps(7), MaxAmps(7))
}

package alert

import (
	"math/rand"
	"testing"

	"btc-price-alert/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_FirstMatch(t *testing.T) {
	levels := types.Levels{{Label: "A", Amount: 30000}, {Label: "B", Amount: 25000}}

	level, ok := Evaluate(20000, levels)
	assert.True(t, ok)
	assert.Equal(t, types.Level{Label: "A", Amount: 30000}, level)
}

func TestEvaluate_OrderMatters(t *testing.T) {
	levels := types.Levels{{Label: "B", Amount: 25000}, {Label: "A", Amount: 30000}}

	level, ok := Evaluate(27000, levels)
	assert.True(t, ok)
	assert.Equal(t, "A", level.Label)

	level, ok = Evaluate(20000, levels)
	assert.True(t, ok)
	assert.Equal(t, "B", level.Label)
}

func TestEvaluate_Boundary(t *testing.T) {
	levels := types.Levels{{Label: "A", Amount: 30000}}

	_, ok := Evaluate(30000, levels)
	assert.False(t, ok)

	level, ok := Evaluate(29999.99, levels)
	assert.True(t, ok)
	assert.Equal(t, "A", level.Label)
}

func TestEvaluate_NoMatch(t *testing.T) {
	_, ok := Evaluate(50000, types.Levels{{Label: "A", Amount: 30000}})
	assert.False(t, ok)

	_, ok = Evaluate(0, nil)
	assert.False(t, ok)
}

func TestEvaluate_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		var levels types.Levels
		count := r.Intn(6)
		for j := 0; j < count; j++ {
			levels = append(levels, types.Level{Label: string(rune('a' + j)), Amount: float64(r.Intn(50000))})
		}
		p := float64(r.Intn(50000))

		level, ok := Evaluate(p, levels)
		again, okAgain := Evaluate(p, levels)
		assert.Equal(t, level, again)
		assert.Equal(t, ok, okAgain)

		if !ok {
			for _, l := range levels {
				assert.LessOrEqual(t, l.Amount, p)
			}
			continue
		}

		assert.Greater(t, level.Amount, p)
		for _, l := range levels {
			if l.Label == level.Label {
				break
			}
			assert.LessOrEqual(t, l.Amount, p, "an earlier level should have matched")
		}
	}
}

func TestNotificationText(t *testing.T) {
	level := types.Level{Label: "30k", Amount: 30000}

	assert.Equal(t, "Price Alert: Bitcoin Price Below 30k Level", Subject(level))
	assert.Equal(t,
		"Bitcoin price has dropped below the set level for 30k. Current price: $29500.5. Alert Level: $30000.0.",
		Body(level, 29500.5))
	assert.Equal(t, "Alert for 30k level at 30000.0", Info(level))
}

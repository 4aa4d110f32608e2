package buffer

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeString(m *Machine, s string) string {
	var v string
	for _, c := range s {
		v = m.Apply(Char(c))
	}
	return v
}

func TestLimitedModeKeepsSuffix(t *testing.T) {
	m := New(nil)

	assert.Equal(t, "hello", typeString(m, "hello"))
	assert.Equal(t, "ellow", m.Apply(Char('w')))
	assert.Equal(t, Limited, m.Mode())
	assert.Equal(t, LimitedMax, m.Len())
}

func TestTriggerSwitchesToUnlimited(t *testing.T) {
	m := New(nil)

	typeString(m, "hello:wor")
	assert.Equal(t, "hello:wor", m.Value())
	assert.Equal(t, Unlimited, m.Mode())
}

func TestUnlimitedOverflowResets(t *testing.T) {
	m := New(nil)

	typeString(m, ":abcdefghijklmno")
	require.Equal(t, UnlimitedMax, m.Len())

	assert.Equal(t, "", m.Apply(Char('p')))
	assert.Equal(t, Limited, m.Mode())
}

func TestRemovingTriggerEmptiesBuffer(t *testing.T) {
	m := New(nil)

	typeString(m, "ab:")
	assert.Equal(t, "", m.Apply(Action{Kind: RemoveLast}))
	assert.Equal(t, Limited, m.Mode())

	typeString(m, "hey:s")
	m.Apply(Action{Kind: RemoveLast})
	assert.Equal(t, "hey:", m.Value())
	assert.Equal(t, "", m.Apply(Action{Kind: RemoveLast}))
}

func TestRemoveLastOnEmpty(t *testing.T) {
	m := New(nil)
	assert.NotPanics(t, func() {
		assert.Equal(t, "", m.Apply(Action{Kind: RemoveLast}))
	})
}

func TestSeparator(t *testing.T) {
	m := New(nil)
	typeString(m, "ab")
	assert.Equal(t, "ab ", m.Apply(Action{Kind: AppendSeparator}))
}

func TestResetIsIdempotent(t *testing.T) {
	var published []string
	m := New(func(s string) { published = append(published, s) })

	typeString(m, "x:y")
	assert.Equal(t, "", m.Apply(Action{Kind: Reset}))
	assert.Equal(t, "", m.Apply(Action{Kind: Reset}))
	assert.Equal(t, []string{"x", "x:", "x:y", "", ""}, published)
}

func TestTruncationIsPureFunctionOfContent(t *testing.T) {
	full := "abcdefghij"

	once := New(nil)
	want := typeString(once, full)

	// Rebuild the truncated buffer by typing its content again, then
	// keep going with the same tail.
	again := New(nil)
	typeString(again, "zz")
	typeString(again, want)
	got := typeString(again, "kl")

	ref := New(nil)
	assert.Equal(t, typeString(ref, full+"kl"), got)
}

func TestCapacityInvariantsHoldForRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("abc:_- 1")
	m := New(nil)

	for i := 0; i < 5000; i++ {
		switch rng.Intn(10) {
		case 0:
			m.Apply(Action{Kind: RemoveLast})
		case 1:
			m.Apply(Action{Kind: AppendSeparator})
		default:
			m.Apply(Char(alphabet[rng.Intn(len(alphabet))]))
		}

		v := m.Value()
		if strings.ContainsRune(v, Trigger) {
			require.Equal(t, Unlimited, m.Mode())
			require.LessOrEqual(t, m.Len(), UnlimitedMax, "buffer %q", v)
		} else {
			require.Equal(t, Limited, m.Mode())
			require.LessOrEqual(t, m.Len(), LimitedMax, "buffer %q", v)
		}
	}
}

func TestLast(t *testing.T) {
	m := New(nil)
	_, ok := m.Last()
	assert.False(t, ok)

	typeString(m, "a:")
	c, ok := m.Last()
	assert.True(t, ok)
	assert.Equal(t, Trigger, c)
}

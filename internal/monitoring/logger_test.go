package monitoring

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	var lines []string
	original := SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	defer SetLogger(original)

	Logf("sink %s failed", "sheets")
	assert.Equal(t, []string{"sink sheets failed"}, lines)

	// nil installs a no-op and hands back the logger it replaced
	prev := SetLogger(nil)
	assert.NotNil(t, prev)
	Logf("dropped")
	assert.Len(t, lines, 1)
}

func TestLogfConcurrentWithSetLogger(t *testing.T) {
	original := SetLogger(nil)
	defer SetLogger(original)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Logf("attempt %d", i)
		}()
		go func() {
			defer wg.Done()
			SetLogger(func(string, ...interface{}) {})
		}()
	}
	wg.Wait()
}

func TestLogfDefault(t *testing.T) {
	assert.NotPanics(t, func() { Logf("test message: %s", "value") })
}

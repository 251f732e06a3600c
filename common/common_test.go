package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEnabled(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Enabled", IsEnabled(true))
	assert.Equal(t, "Disabled", IsEnabled(false))
}

func TestTimeToMicroRoundTrip(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 7, 29, 12, 0, 0, 123000, time.UTC)
	us := TimeToMicro(now)
	assert.Equal(t, now.UnixMicro(), us)
	assert.True(t, MicroToTime(us).Equal(now))
}

func TestNowMicroIsSixteenDigits(t *testing.T) {
	t.Parallel()
	us := NowMicro()
	digits := 0
	for v := us; v > 0; v /= 10 {
		digits++
	}
	assert.Equal(t, 16, digits)
}

func TestMustNewUUIDIsUnique(t *testing.T) {
	t.Parallel()
	a := MustNewUUID()
	b := MustNewUUID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"  苏州市工业园区，星湖街328号 ", "苏州市工业园区,星湖街328号"},
		{"1901 W Madison St,  Phoenix", "1901 w madison st, phoenix"},
		{"上海市\t浦东新区\n 世纪大道", "上海市 浦东新区 世纪大道"},
		{"上海市　浦东新区", "上海市 浦东新区"},
	}

	for _, c := range cases {
		assert.Equal(t, NormalizeKey(c.a), NormalizeKey(c.b), "%q vs %q", c.a, c.b)
	}

	assert.Equal(t, "1901 W MADISON ST,PHOENIX", NormalizeKey(" 1901 w  Madison St，Phoenix "))
	assert.NotEqual(t, NormalizeKey("星湖街328号"), NormalizeKey("星湖街329号"))
}

func TestNormalizeKeyIsIdempotent(t *testing.T) {
	k := NormalizeKey("  江苏省 苏州市，吴中区  ")
	assert.Equal(t, k, NormalizeKey(k))
}

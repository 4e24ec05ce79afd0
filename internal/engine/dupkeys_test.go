package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateKeys(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []Duplicate
	}{
		{"none", `{"a":1,"b":{"a":2},"c":[{"a":1},{"a":2}]}`, nil},
		{"root", `{"a":1,"b":2,"a":3}`, []Duplicate{{Path: "", Key: "a"}}},
		{"nested", `{"x":{"y":{"k":1,"k":2}}}`, []Duplicate{{Path: "x.y", Key: "k"}}},
		{"array element", `{"items":[{"q":1},{"q":1,"q":2}]}`, []Duplicate{{Path: "items.1", Key: "q"}}},
		{"after containers", `{"a":[1,[2,3]],"b":{"c":{}},"a":0}`, []Duplicate{{Path: "", Key: "a"}}},
		{"string values are not keys", `{"a":"a","b":"a"}`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DuplicateKeys([]byte(tc.in), 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDuplicateKeys_Limit(t *testing.T) {
	got, err := DuplicateKeys([]byte(`{"a":1,"a":2,"b":1,"b":2}`), 1)
	require.NoError(t, err)
	assert.Equal(t, []Duplicate{{Key: "a"}}, got)
}

package repositories

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOrderFileListOrders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"orderNo":"SO-1","receiver":"张三","address":" 苏州市星湖街328号 ","weightKg":500,"pallets":2},
		{"orderNo":"SO-2","receiver":"李四","address":"上海市世纪大道100号","weightKg":120.5}
	]`), 0o600))

	orders, err := NewJSONOrderFile(path).ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "SO-1", orders[0].OrderNo)
	assert.Equal(t, "苏州市星湖街328号", orders[0].Address)
	assert.Equal(t, 2, orders[0].Pallets)
	assert.Equal(t, 1, orders[1].Pallets, "missing pallets default to 1")
	assert.False(t, orders[1].Geocoded())
}

func TestReadOrdersRejectsInvalidRecords(t *testing.T) {
	cases := map[string]string{
		"missing orderNo": `[{"address":"a","weightKg":1}]`,
		"zero weight":     `[{"orderNo":"A","address":"a","weightKg":0}]`,
		"negative pallet": `[{"orderNo":"A","address":"a","weightKg":1,"pallets":-1}]`,
		"empty address":   `[{"orderNo":"A","address":"  ","weightKg":1}]`,
		"duplicate":       `[{"orderNo":"A","address":"a","weightKg":1},{"orderNo":"A","address":"b","weightKg":1}]`,
		"not json":        `{`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadOrders(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestJSONOrderFileMissing(t *testing.T) {
	_, err := NewJSONOrderFile(filepath.Join(t.TempDir(), "nope.json")).ListOrders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}

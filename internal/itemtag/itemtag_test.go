package itemtag

import (
	"testing"

	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	tagger := New()

	item := tagger.Create(16)

	assert.Equal(t, core.MaterialTNT, item.Material)
	assert.Equal(t, 16, item.Amount)
	require.NotNil(t, item.Meta)
	assert.Equal(t, DisplayName, item.Meta.DisplayName)
	assert.Equal(t, Lore, item.Meta.Lore)
	assert.True(t, tagger.IsTagged(&item))
}

func TestTag_DoesNotMutateInput(t *testing.T) {
	tagger := New()
	plain := core.ItemStack{Material: core.MaterialTNT, Amount: 1, Meta: &core.ItemMeta{DisplayName: "plain"}}

	tagged := tagger.Tag(plain)

	assert.True(t, tagger.IsTagged(&tagged))
	assert.False(t, tagger.IsTagged(&plain))
	assert.Equal(t, "plain", plain.Meta.DisplayName)
}

func TestTag_KeepsOtherPersistentData(t *testing.T) {
	tagger := New()
	item := core.ItemStack{
		Material: core.MaterialTNT,
		Amount:   1,
		Meta:     &core.ItemMeta{PersistentData: map[string]byte{"otherplugin:marker": 7}},
	}

	tagged := tagger.Tag(item)

	assert.Equal(t, byte(7), tagged.Meta.PersistentData["otherplugin:marker"])
	assert.Equal(t, byte(1), tagged.Meta.PersistentData[Key])
}

func TestIsTagged(t *testing.T) {
	tagger := New()
	trap := tagger.Create(1)
	wrongMaterial := trap.Clone()
	wrongMaterial.Material = core.MaterialStone

	tests := []struct {
		name string
		item *core.ItemStack
		want bool
	}{
		{"nil item", nil, false},
		{"plain tnt", &core.ItemStack{Material: core.MaterialTNT, Amount: 1}, false},
		{"tnt with empty meta", &core.ItemStack{Material: core.MaterialTNT, Amount: 1, Meta: &core.ItemMeta{}}, false},
		{"renamed tnt", &core.ItemStack{Material: core.MaterialTNT, Amount: 1, Meta: &core.ItemMeta{DisplayName: DisplayName}}, false},
		{"foreign key", &core.ItemStack{Material: core.MaterialTNT, Amount: 1, Meta: &core.ItemMeta{PersistentData: map[string]byte{"other:trapped_tnt": 1}}}, false},
		{"tagged non-tnt", &wrongMaterial, false},
		{"trap item", &trap, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tagger.IsTagged(tt.item))
		})
	}
}

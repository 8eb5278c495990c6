// Package itemtag marks inventory stacks as trap items and recognises them again.
package itemtag

import (
	"github.com/sanscraft/trappedtnt/internal/util"
	"github.com/sanscraft/trappedtnt/pkg/core"
)

// Namespace prefixes every persistent key this plugin writes.
const Namespace = "trappedtnt"

// Key is the persistent data key carried by trap items.
const Key = Namespace + ":trapped_tnt"

// DisplayName is the item name shown to players.
const DisplayName = util.Red + util.Bold + "Trapped TNT"

// Lore lines shown under the item name.
var Lore = []string{
	util.Gray + "A dangerous explosive that triggers",
	util.Gray + "when players get too close!",
	util.DarkRed + util.Italic + "Handle with extreme care...",
}

// Tagger stamps and checks the trap attribute.
type Tagger struct {
	key string
}

// New returns a Tagger using the plugin's namespaced key.
func New() *Tagger {
	return &Tagger{key: Key}
}

// Key returns the persistent data key used for tagging.
func (t *Tagger) Key() string {
	return t.key
}

// Create returns a new stack of amount trap items.
func (t *Tagger) Create(amount int) core.ItemStack {
	return t.Tag(core.NewItemStack(core.MaterialTNT, amount))
}

// Tag returns a copy of item carrying the trap attribute and display text.
func (t *Tagger) Tag(item core.ItemStack) core.ItemStack {
	tagged := item.Clone()
	if tagged.Meta == nil {
		tagged.Meta = &core.ItemMeta{}
	}
	tagged.Meta.DisplayName = DisplayName
	tagged.Meta.Lore = append([]string(nil), Lore...)
	if tagged.Meta.PersistentData == nil {
		tagged.Meta.PersistentData = make(map[string]byte, 1)
	}
	tagged.Meta.PersistentData[t.key] = 1
	return tagged
}

// IsTagged reports whether item is a trap item.
// Only TNT stacks can be traps; nil items and stacks without metadata are not.
func (t *Tagger) IsTagged(item *core.ItemStack) bool {
	if item == nil || item.Material != core.MaterialTNT || item.Meta == nil {
		return false
	}
	_, ok := item.Meta.PersistentData[t.key]
	return ok
}

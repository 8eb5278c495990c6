package core

// Material identifies a block or item type.
type Material string

const (
	MaterialAir    Material = "AIR"
	MaterialTNT    Material = "TNT"
	MaterialShield Material = "SHIELD"
	MaterialStone  Material = "STONE"
)

// MaxStackSize is the largest amount a single item stack can hold.
const MaxStackSize = 64

// ItemMeta is the optional metadata attached to an item stack.
// PersistentData survives the host's own item save/load.
type ItemMeta struct {
	DisplayName    string
	Lore           []string
	PersistentData map[string]byte
}

// Clone returns a deep copy of m.
func (m *ItemMeta) Clone() *ItemMeta {
	if m == nil {
		return nil
	}
	c := &ItemMeta{
		DisplayName: m.DisplayName,
		Lore:        append([]string(nil), m.Lore...),
	}
	if m.PersistentData != nil {
		c.PersistentData = make(map[string]byte, len(m.PersistentData))
		for k, v := range m.PersistentData {
			c.PersistentData[k] = v
		}
	}
	return c
}

// ItemStack is an amount of one material with optional metadata.
type ItemStack struct {
	Material Material
	Amount   int
	Meta     *ItemMeta
}

// NewItemStack returns a plain stack without metadata.
func NewItemStack(material Material, amount int) ItemStack {
	return ItemStack{Material: material, Amount: amount}
}

// IsEmpty reports whether the stack holds nothing.
func (s ItemStack) IsEmpty() bool {
	return s.Material == "" || s.Material == MaterialAir || s.Amount <= 0
}

// Clone returns a deep copy of s.
func (s ItemStack) Clone() ItemStack {
	s.Meta = s.Meta.Clone()
	return s
}

package domain

import "strings"

// Category is the product category value stored on every product row.
type Category string

const (
	CategoryCake           Category = "cake"
	CategoryKoshat         Category = "koshat"
	CategoryMirr           Category = "mirr"
	CategoryOther          Category = "other"
	CategoryInvitations    Category = "invitations"
	CategoryFlowerBouquets Category = "flowerbouquets"
)

// Categories lists the fixed enumeration in display order.
var Categories = []Category{
	CategoryCake,
	CategoryKoshat,
	CategoryMirr,
	CategoryOther,
	CategoryInvitations,
	CategoryFlowerBouquets,
}

// Partition is a physical product table. Each category owns exactly one.
type Partition string

const DefaultPartition Partition = "products_other"

// legacy spellings still found in stored rows and links
var categoryAliases = map[string]Category{
	"mirror": CategoryMirr,
}

// ParseCategory canonicalises a category value, resolving aliases.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := categoryAliases[s]; ok {
		return c, true
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// PartitionFor maps a category value to its partition. The bool is false when
// the value is unknown, in which case DefaultPartition is returned.
func PartitionFor(category string) (Partition, bool) {
	c, ok := ParseCategory(category)
	if !ok {
		return DefaultPartition, false
	}
	return c.Partition(), true
}

func (c Category) Partition() Partition { return Partition("products_" + string(c)) }

// Category returns the category owning p.
func (p Partition) Category() Category {
	return Category(strings.TrimPrefix(string(p), "products_"))
}

// Valid reports whether p is one of the known partitions. Table names are
// interpolated into SQL, so repos refuse anything else.
func (p Partition) Valid() bool {
	for _, c := range Categories {
		if c.Partition() == p {
			return true
		}
	}
	return false
}

// HasColors reports whether the partition stores the colors column.
func (p Partition) HasColors() bool { return p == CategoryFlowerBouquets.Partition() }

// Partitions returns every partition in category order.
func Partitions() []Partition {
	out := make([]Partition, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, c.Partition())
	}
	return out
}

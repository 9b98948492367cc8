package domain

// DisplayItem is one entry of a display grid: either an AdItem or a
// ProductItem.
type DisplayItem interface {
	displayItem()
	Card(slot int) Card
}

// AdItem is an advertisement, optionally joined to the product it promotes.
type AdItem struct {
	Ad      Advertisement
	Product *Product
}

type ProductItem struct {
	Product Product
}

func (AdItem) displayItem()      {}
func (ProductItem) displayItem() {}

// Slot is a 1-based grid position holding one item.
type Slot struct {
	Position int
	Item     DisplayItem
}

func (s Slot) IsAd() bool {
	_, ok := s.Item.(AdItem)
	return ok
}

// Card is the rendering projection shared by both variants.
type Card struct {
	Slot        int        `json:"slot_position"`
	IsAd        bool       `json:"is_ad"`
	ID          string     `json:"id"`
	AdID        string     `json:"ad_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	ImageURL    string     `json:"image_url,omitempty"`
	ImageURLs   StringList `json:"image_urls,omitempty"`
	LinkURL     string     `json:"link_url,omitempty"`
	Category    Category   `json:"category,omitempty"`
	Governorate string     `json:"governorate,omitempty"`
	Cities      StringList `json:"cities,omitempty"`
	WhatsApp    string     `json:"whatsapp,omitempty"`
	Facebook    string     `json:"facebook,omitempty"`
	Instagram   string     `json:"instagram,omitempty"`
}

func (p ProductItem) Card(slot int) Card {
	return productCard(slot, p.Product)
}

func productCard(slot int, p Product) Card {
	return Card{
		Slot:        slot,
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.PrimaryImage(),
		ImageURLs:   p.ImageURLs,
		Category:    p.Category,
		Governorate: p.Governorate,
		Cities:      p.Cities,
		WhatsApp:    p.WhatsApp,
		Facebook:    p.Facebook,
		Instagram:   p.Instagram,
	}
}

// Card shows the linked product's listing with the ad's own creative taking
// precedence where it is set.
func (a AdItem) Card(slot int) Card {
	var c Card
	if a.Product != nil {
		c = productCard(slot, *a.Product)
	} else {
		c = Card{Slot: slot, ID: a.Ad.ID}
	}
	c.IsAd = true
	c.AdID = a.Ad.ID
	c.LinkURL = a.Ad.LinkURL
	if a.Ad.Title != "" {
		c.Title = a.Ad.Title
	}
	if a.Ad.Description != "" {
		c.Description = a.Ad.Description
	}
	if a.Ad.ImageURL != "" {
		c.ImageURL = a.Ad.ImageURL
	}
	return c
}

// Cards projects a slot sequence for rendering.
func Cards(slots []Slot) []Card {
	out := make([]Card, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Item.Card(s.Position))
	}
	return out
}

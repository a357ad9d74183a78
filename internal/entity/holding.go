package entity

// Holding is a copy of a work: a shelf item in a catalog or an online resource.
type Holding struct {
	CallNumber   string
	LocationName string
	CatalogID    string
	OnlineURL    string
	Loanable     bool
	Available    bool
}

func NewHolding(callNumber string) Holding {
	return Holding{CallNumber: callNumber, Loanable: true, Available: true}
}

// SetOnlineURL marks the holding as an online resource, which cannot be loaned.
func (h *Holding) SetOnlineURL(u string) {
	h.OnlineURL = u
	if u != "" {
		h.Loanable = false
	}
}

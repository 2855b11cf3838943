package listing

// Info is the public summary of a property.
type Info struct {
	ID     string
	Owner  string
	Name   string
	Price  uint64
	Type   PropertyType
	Status PropertyStatus
}

// Location is the position and postal address of a property.
type Location struct {
	Latitude  string
	Longitude string
	Address   string
}

// Details holds the physical and legal attributes of a property.
type Details struct {
	BuildingArea    uint64
	LandArea        uint64
	Certificate     Certificate
	CertificateNote string
	Document        string
}

func (p Property) Info() Info {
	return Info{
		ID:     p.ID,
		Owner:  p.Owner.String(),
		Name:   p.Name,
		Price:  p.Price,
		Type:   p.Type,
		Status: p.Status,
	}
}

func (p Property) Location() Location {
	return Location{Latitude: p.Latitude, Longitude: p.Longitude, Address: p.Address}
}

func (p Property) Details() Details {
	return Details{
		BuildingArea:    p.BuildingArea,
		LandArea:        p.LandArea,
		Certificate:     p.Certificate,
		CertificateNote: p.CertificateNote,
		Document:        p.Document,
	}
}

// ContactInfo returns the listing contact string.
func (p Property) ContactInfo() string {
	return p.Contact
}

// ImageList returns a copy of the image references.
func (p Property) ImageList() []string {
	return append([]string(nil), p.Images...)
}

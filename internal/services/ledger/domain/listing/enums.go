package listing

import (
	"strconv"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
)

// PropertyType is the closed set of building categories.
type PropertyType uint8

const (
	PropertyHouse PropertyType = iota
	PropertyApartment
	PropertyShop
	PropertyBoarding
	PropertyWarehouse
)

// PropertyStatus is the closed set of market statuses.
type PropertyStatus uint8

const (
	StatusForSale PropertyStatus = iota
	StatusForRent
)

// Certificate is the closed set of land title certificates. CertificateOther
// carries a freeform note on the property.
type Certificate uint8

const (
	// CertificateSHM is a freehold title (Sertifikat Hak Milik).
	CertificateSHM Certificate = iota
	// CertificateSHGB is a right-to-build title (Sertifikat Hak Guna Bangunan).
	CertificateSHGB
	CertificateOther
)

var (
	ErrInvalidPropertyType   = apperrors.New(apperrors.CodeInvalidPropertyType, "invalid property type")
	ErrInvalidPropertyStatus = apperrors.New(apperrors.CodeInvalidPropertyStatus, "invalid property status")
	ErrInvalidCertificate    = apperrors.New(apperrors.CodeInvalidCertificateType, "invalid certificate type")
)

// ParsePropertyType maps a wire code to a property type.
func ParsePropertyType(code int) (PropertyType, error) {
	switch code {
	case 0:
		return PropertyHouse, nil
	case 1:
		return PropertyApartment, nil
	case 2:
		return PropertyShop, nil
	case 3:
		return PropertyBoarding, nil
	case 4:
		return PropertyWarehouse, nil
	default:
		return 0, invalidCode(apperrors.CodeInvalidPropertyType, "invalid property type", code)
	}
}

// ParsePropertyStatus maps a wire code to a property status.
func ParsePropertyStatus(code int) (PropertyStatus, error) {
	switch code {
	case 0:
		return StatusForSale, nil
	case 1:
		return StatusForRent, nil
	default:
		return 0, invalidCode(apperrors.CodeInvalidPropertyStatus, "invalid property status", code)
	}
}

// ParseCertificate maps a wire code to a certificate type.
func ParseCertificate(code int) (Certificate, error) {
	switch code {
	case 0:
		return CertificateSHM, nil
	case 1:
		return CertificateSHGB, nil
	case 2:
		return CertificateOther, nil
	default:
		return 0, invalidCode(apperrors.CodeInvalidCertificateType, "invalid certificate type", code)
	}
}

func invalidCode(code apperrors.Code, message string, value int) error {
	return apperrors.WithMetadata(code, message, map[string]string{"Code": strconv.Itoa(value)})
}

func (t PropertyType) String() string {
	switch t {
	case PropertyHouse:
		return "House"
	case PropertyApartment:
		return "Apartment"
	case PropertyShop:
		return "Shop"
	case PropertyBoarding:
		return "Boarding"
	case PropertyWarehouse:
		return "Warehouse"
	default:
		return "PropertyType(" + strconv.Itoa(int(t)) + ")"
	}
}

func (s PropertyStatus) String() string {
	switch s {
	case StatusForSale:
		return "ForSale"
	case StatusForRent:
		return "ForRent"
	default:
		return "PropertyStatus(" + strconv.Itoa(int(s)) + ")"
	}
}

func (c Certificate) String() string {
	switch c {
	case CertificateSHM:
		return "SHM"
	case CertificateSHGB:
		return "SHGB"
	case CertificateOther:
		return "Other"
	default:
		return "Certificate(" + strconv.Itoa(int(c)) + ")"
	}
}

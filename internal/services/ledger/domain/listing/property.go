// Package listing implements the property registry: registration with
// categorical field coercion, and ownership-transferring sales.
package listing

import (
	"strconv"
	"time"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/transfer"
)

// MaxImages bounds the image references attached to one property.
const MaxImages = 10

var (
	ErrTooManyImages       = apperrors.New(apperrors.CodeTooManyImages, "too many images")
	ErrInsufficientPayment = apperrors.New(apperrors.CodeInsufficientPayment, "insufficient payment")
)

// Property is a permanent listing record. Only Owner changes after creation.
type Property struct {
	ID              string
	Owner           account.Address
	Latitude        string
	Longitude       string
	Name            string
	Address         string
	Contact         string
	Type            PropertyType
	Status          PropertyStatus
	Price           uint64
	BuildingArea    uint64
	LandArea        uint64
	Certificate     Certificate
	CertificateNote string
	Images          []string
	Document        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RegisterInput carries caller-supplied property fields with raw enum codes.
type RegisterInput struct {
	Latitude        string
	Longitude       string
	Name            string
	Address         string
	Contact         string
	TypeCode        int
	StatusCode      int
	Price           uint64
	BuildingArea    uint64
	LandArea        uint64
	CertificateCode int
	CertificateNote string
	Images          []string
	Document        string
}

// Register validates in and creates a property owned by owner.
//
// Checks run in a fixed order and the first failure wins: image count,
// property type, status, certificate. Prices, areas, and strings are not
// validated.
func Register(in RegisterInput, id string, owner account.Address, now time.Time) (Property, event.Event, error) {
	if !owner.Valid() {
		return Property{}, event.Event{}, account.ErrInvalidAddress
	}
	if len(in.Images) > MaxImages {
		return Property{}, event.Event{}, apperrors.WithMetadata(apperrors.CodeTooManyImages, "too many images", map[string]string{
			"Max":   strconv.Itoa(MaxImages),
			"Count": strconv.Itoa(len(in.Images)),
		})
	}
	propertyType, err := ParsePropertyType(in.TypeCode)
	if err != nil {
		return Property{}, event.Event{}, err
	}
	status, err := ParsePropertyStatus(in.StatusCode)
	if err != nil {
		return Property{}, event.Event{}, err
	}
	certificate, err := ParseCertificate(in.CertificateCode)
	if err != nil {
		return Property{}, event.Event{}, err
	}
	note := ""
	if certificate == CertificateOther {
		note = in.CertificateNote
	}

	now = now.UTC()
	p := Property{
		ID:              id,
		Owner:           owner,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		Name:            in.Name,
		Address:         in.Address,
		Contact:         in.Contact,
		Type:            propertyType,
		Status:          status,
		Price:           in.Price,
		BuildingArea:    in.BuildingArea,
		LandArea:        in.LandArea,
		Certificate:     certificate,
		CertificateNote: note,
		Images:          append([]string(nil), in.Images...),
		Document:        in.Document,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	evt := event.New(event.TypePropertyRegistered, owner.String(), event.EntityProperty, id, now, event.PropertyRegisteredPayload{
		PropertyID: id,
		Owner:      owner.String(),
		Name:       p.Name,
		Price:      p.Price,
	})
	return p, evt, nil
}

// Buy hands p to buyer against payment. The previous owner receives the full
// payment, overpayment included. The listed price never changes, so every
// resale requires at least the original price.
func Buy(p Property, buyer account.Address, payment uint64, now time.Time) (Property, []transfer.Movement, event.Event, error) {
	if !buyer.Valid() {
		return Property{}, nil, event.Event{}, account.ErrInvalidAddress
	}
	if payment < p.Price {
		return Property{}, nil, event.Event{}, apperrors.WithMetadata(apperrors.CodeInsufficientPayment, "insufficient payment", map[string]string{
			"Paid":  apperrors.Amount(payment),
			"Price": apperrors.Amount(p.Price),
		})
	}

	now = now.UTC()
	previous := p.Owner
	sold := p
	sold.Images = append([]string(nil), p.Images...)
	sold.Owner = buyer
	sold.UpdatedAt = now

	movements := []transfer.Movement{
		transfer.Collect(buyer, payment),
		transfer.Pay(previous, payment),
	}
	evt := event.New(event.TypePropertySold, buyer.String(), event.EntityProperty, p.ID, now, event.PropertySoldPayload{
		PropertyID:    p.ID,
		PreviousOwner: previous.String(),
		NewOwner:      buyer.String(),
		Price:         p.Price,
		Paid:          payment,
	})
	return sold, movements, evt, nil
}

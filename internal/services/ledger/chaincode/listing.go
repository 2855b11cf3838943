package chaincode

import (
	"encoding/json"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
)

func decodeArg(raw string, out any) error {
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return clientError(apperrors.Wrap(apperrors.CodeInvalidInput, "invalid JSON argument", err))
	}
	return nil
}

// RegisterProperty lists a property owned by the caller. propertyJSON is a
// PropertyInput document.
func (c *LedgerContract) RegisterProperty(ctx contractapi.TransactionContextInterface, propertyJSON string) (*PropertyInfo, error) {
	var in PropertyInput
	if err := decodeArg(propertyJSON, &in); err != nil {
		return nil, err
	}
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	p, err := inv.svc.RegisterProperty(background(), inv.caller, in.registerInput())
	if err != nil {
		return nil, clientError(err)
	}
	info := newPropertyInfo(p)
	return &info, nil
}

// BuyProperty pays the current owner of propertyID and transfers it to the
// caller.
func (c *LedgerContract) BuyProperty(ctx contractapi.TransactionContextInterface, propertyID string, payment uint64) (*PropertyInfo, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	p, err := inv.svc.BuyProperty(background(), inv.caller, propertyID, payment)
	if err != nil {
		return nil, clientError(err)
	}
	info := newPropertyInfo(p)
	return &info, nil
}

func (c *LedgerContract) property(ctx contractapi.TransactionContextInterface, propertyID string) (listing.Property, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return listing.Property{}, clientError(err)
	}
	p, err := inv.svc.Property(background(), propertyID)
	if err != nil {
		return listing.Property{}, clientError(err)
	}
	return p, nil
}

func (c *LedgerContract) GetPropertyInfo(ctx contractapi.TransactionContextInterface, propertyID string) (*PropertyInfo, error) {
	p, err := c.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	info := newPropertyInfo(p)
	return &info, nil
}

func (c *LedgerContract) GetPropertyLocation(ctx contractapi.TransactionContextInterface, propertyID string) (*PropertyLocation, error) {
	p, err := c.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	loc := p.Location()
	return &PropertyLocation{Latitude: loc.Latitude, Longitude: loc.Longitude, Address: loc.Address}, nil
}

func (c *LedgerContract) GetPropertyDetails(ctx contractapi.TransactionContextInterface, propertyID string) (*PropertyDetails, error) {
	p, err := c.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	details := p.Details()
	return &PropertyDetails{
		BuildingArea:    details.BuildingArea,
		LandArea:        details.LandArea,
		Certificate:     details.Certificate.String(),
		CertificateNote: details.CertificateNote,
		Document:        details.Document,
	}, nil
}

func (c *LedgerContract) GetPropertyContact(ctx contractapi.TransactionContextInterface, propertyID string) (string, error) {
	p, err := c.property(ctx, propertyID)
	if err != nil {
		return "", err
	}
	return p.ContactInfo(), nil
}

func (c *LedgerContract) GetPropertyImages(ctx contractapi.TransactionContextInterface, propertyID string) ([]string, error) {
	p, err := c.property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	images := p.ImageList()
	if images == nil {
		images = []string{}
	}
	return images, nil
}

// ListPropertiesByOwner returns up to pageSize properties held by owner
// after pageToken.
func (c *LedgerContract) ListPropertiesByOwner(ctx contractapi.TransactionContextInterface, owner string, pageSize int, pageToken string) ([]PropertyInfo, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	addr, err := parseAddress(owner)
	if err != nil {
		return nil, err
	}
	page, err := inv.svc.PropertiesByOwner(background(), addr, pageSize, pageToken)
	if err != nil {
		return nil, clientError(err)
	}
	out := make([]PropertyInfo, 0, len(page.Properties))
	for _, p := range page.Properties {
		out = append(out, newPropertyInfo(p))
	}
	return out, nil
}

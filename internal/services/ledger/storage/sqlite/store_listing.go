package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

const propertyColumns = `id, owner, latitude, longitude, name, address, contact,
	property_type, status, price, building_area, land_area,
	certificate, certificate_note, images_json, document, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (listing.Property, error) {
	var (
		p            listing.Property
		owner        string
		propertyType int
		status       int
		certificate  int
		price        int64
		buildingArea int64
		landArea     int64
		imagesJSON   string
		createdAt    int64
		updatedAt    int64
	)
	if err := row.Scan(
		&p.ID,
		&owner,
		&p.Latitude,
		&p.Longitude,
		&p.Name,
		&p.Address,
		&p.Contact,
		&propertyType,
		&status,
		&price,
		&buildingArea,
		&landArea,
		&certificate,
		&p.CertificateNote,
		&imagesJSON,
		&p.Document,
		&createdAt,
		&updatedAt,
	); err != nil {
		return listing.Property{}, err
	}
	var err error
	if p.Type, err = listing.ParsePropertyType(propertyType); err != nil {
		return listing.Property{}, fmt.Errorf("stored property %s: %w", p.ID, err)
	}
	if p.Status, err = listing.ParsePropertyStatus(status); err != nil {
		return listing.Property{}, fmt.Errorf("stored property %s: %w", p.ID, err)
	}
	if p.Certificate, err = listing.ParseCertificate(certificate); err != nil {
		return listing.Property{}, fmt.Errorf("stored property %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(imagesJSON), &p.Images); err != nil {
		return listing.Property{}, fmt.Errorf("decode images for property %s: %w", p.ID, err)
	}
	p.Owner = account.Address(owner)
	p.Price = fromAmount(price)
	p.BuildingArea = fromAmount(buildingArea)
	p.LandArea = fromAmount(landArea)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

// GetProperty returns one property by id.
func (q queries) GetProperty(ctx context.Context, id string) (listing.Property, error) {
	if err := ctx.Err(); err != nil {
		return listing.Property{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return listing.Property{}, fmt.Errorf("property id is required")
	}
	row := q.q.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return listing.Property{}, storage.ErrNotFound
		}
		return listing.Property{}, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

// ListPropertiesByOwner returns one page of properties held by owner, ordered by id.
func (q queries) ListPropertiesByOwner(ctx context.Context, owner account.Address, pageSize int, pageToken string) (storage.PropertyPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.PropertyPage{}, err
	}
	if pageSize <= 0 {
		return storage.PropertyPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	rows, err := q.q.QueryContext(
		ctx,
		`SELECT `+propertyColumns+`
		   FROM properties
		  WHERE owner = ? AND id > ?
		  ORDER BY id ASC
		  LIMIT ?`,
		owner.String(),
		pageToken,
		pageSize+1,
	)
	if err != nil {
		return storage.PropertyPage{}, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	page := storage.PropertyPage{Properties: make([]listing.Property, 0, pageSize)}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return storage.PropertyPage{}, fmt.Errorf("list properties: %w", err)
		}
		page.Properties = append(page.Properties, p)
	}
	if err := rows.Err(); err != nil {
		return storage.PropertyPage{}, fmt.Errorf("list properties: %w", err)
	}
	if len(page.Properties) > pageSize {
		page.NextPageToken = page.Properties[pageSize-1].ID
		page.Properties = page.Properties[:pageSize]
	}
	return page, nil
}

func propertyArgs(p listing.Property) ([]any, error) {
	price, err := toAmount("price", p.Price)
	if err != nil {
		return nil, err
	}
	buildingArea, err := toAmount("building_area", p.BuildingArea)
	if err != nil {
		return nil, err
	}
	landArea, err := toAmount("land_area", p.LandArea)
	if err != nil {
		return nil, err
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	return []any{
		p.ID,
		p.Owner.String(),
		p.Latitude,
		p.Longitude,
		p.Name,
		p.Address,
		p.Contact,
		int(p.Type),
		int(p.Status),
		price,
		buildingArea,
		landArea,
		int(p.Certificate),
		p.CertificateNote,
		string(imagesJSON),
		p.Document,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	}, nil
}

// CreateProperty inserts one property.
func (t *txStore) CreateProperty(ctx context.Context, p listing.Property) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("property id is required")
	}
	args, err := propertyArgs(p)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(
		ctx,
		`INSERT INTO properties (`+propertyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

// UpdateProperty rewrites the mutable columns of one property.
func (t *txStore) UpdateProperty(ctx context.Context, p listing.Property) error {
	result, err := t.tx.ExecContext(
		ctx,
		`UPDATE properties SET owner = ?, updated_at = ? WHERE id = ?`,
		p.Owner.String(),
		toMillis(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	return expectOneRow(result, "update property")
}

func expectOneRow(result sql.Result, operation string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	if affected != 1 {
		return fmt.Errorf("%s: expected 1 row, got %d", operation, affected)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

// GetPlatform returns one platform by id.
func (q queries) GetPlatform(ctx context.Context, id string) (tipping.Platform, error) {
	if err := ctx.Err(); err != nil {
		return tipping.Platform{}, err
	}
	var (
		p         tipping.Platform
		admin     string
		feeRate   int
		treasury  int64
		count     int64
		donated   int64
		createdAt int64
		updatedAt int64
	)
	err := q.q.QueryRowContext(
		ctx,
		`SELECT id, admin, fee_rate_bps, treasury, total_donation_count, total_donated_amount, created_at, updated_at
		   FROM platforms
		  WHERE id = ?`,
		strings.TrimSpace(id),
	).Scan(&p.ID, &admin, &feeRate, &treasury, &count, &donated, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tipping.Platform{}, storage.ErrNotFound
		}
		return tipping.Platform{}, fmt.Errorf("get platform: %w", err)
	}
	p.Admin = account.Address(admin)
	p.FeeRateBps = uint16(feeRate)
	p.Treasury = fromAmount(treasury)
	p.TotalDonationCount = fromAmount(count)
	p.TotalDonatedAmount = fromAmount(donated)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

func platformAmounts(p tipping.Platform) (treasury, count, donated int64, err error) {
	if treasury, err = toAmount("platform_treasury", p.Treasury); err != nil {
		return 0, 0, 0, err
	}
	if count, err = toAmount("total_donation_count", p.TotalDonationCount); err != nil {
		return 0, 0, 0, err
	}
	if donated, err = toAmount("total_donated_amount", p.TotalDonatedAmount); err != nil {
		return 0, 0, 0, err
	}
	return treasury, count, donated, nil
}

// CreatePlatform inserts one platform.
func (t *txStore) CreatePlatform(ctx context.Context, p tipping.Platform) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("platform id is required")
	}
	treasury, count, donated, err := platformAmounts(p)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(
		ctx,
		`INSERT INTO platforms (id, admin, fee_rate_bps, treasury, total_donation_count, total_donated_amount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Admin.String(),
		int(p.FeeRateBps),
		treasury,
		count,
		donated,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create platform: %w", err)
	}
	return nil
}

// UpdatePlatform rewrites the mutable columns of one platform.
func (t *txStore) UpdatePlatform(ctx context.Context, p tipping.Platform) error {
	treasury, count, donated, err := platformAmounts(p)
	if err != nil {
		return err
	}
	result, err := t.tx.ExecContext(
		ctx,
		`UPDATE platforms
		    SET fee_rate_bps = ?, treasury = ?, total_donation_count = ?, total_donated_amount = ?, updated_at = ?
		  WHERE id = ?`,
		int(p.FeeRateBps),
		treasury,
		count,
		donated,
		toMillis(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update platform: %w", err)
	}
	return expectOneRow(result, "update platform")
}

// GetCreator returns the profile registered at creator.
func (q queries) GetCreator(ctx context.Context, creator account.Address) (tipping.CreatorProfile, error) {
	if err := ctx.Err(); err != nil {
		return tipping.CreatorProfile{}, err
	}
	var (
		profile        tipping.CreatorProfile
		address        string
		linksJSON      string
		totalReceived  int64
		donationCount  int64
		isActive       bool
		treasury       int64
		createdAt      int64
		lastDonationAt int64
		updatedAt      int64
	)
	err := q.q.QueryRowContext(
		ctx,
		`SELECT creator, display_name, bio, avatar_url, social_links_json,
		        total_received, donation_count, is_active, treasury,
		        created_at, last_donation_at, updated_at
		   FROM creators
		  WHERE creator = ?`,
		creator.String(),
	).Scan(
		&address,
		&profile.DisplayName,
		&profile.Bio,
		&profile.AvatarURL,
		&linksJSON,
		&totalReceived,
		&donationCount,
		&isActive,
		&treasury,
		&createdAt,
		&lastDonationAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tipping.CreatorProfile{}, storage.ErrNotFound
		}
		return tipping.CreatorProfile{}, fmt.Errorf("get creator: %w", err)
	}
	if err := json.Unmarshal([]byte(linksJSON), &profile.SocialLinks); err != nil {
		return tipping.CreatorProfile{}, fmt.Errorf("decode social links: %w", err)
	}
	if len(profile.SocialLinks) == 0 {
		profile.SocialLinks = nil
	}
	profile.Creator = account.Address(address)
	profile.TotalReceived = fromAmount(totalReceived)
	profile.DonationCount = fromAmount(donationCount)
	profile.IsActive = isActive
	profile.Treasury = fromAmount(treasury)
	profile.CreatedAt = fromMillis(createdAt)
	profile.LastDonationAt = fromOptionalMillis(lastDonationAt)
	profile.UpdatedAt = fromMillis(updatedAt)
	return profile, nil
}

type creatorColumns struct {
	linksJSON     string
	totalReceived int64
	donationCount int64
	treasury      int64
}

func encodeCreator(profile tipping.CreatorProfile) (creatorColumns, error) {
	var (
		cols creatorColumns
		err  error
	)
	links := profile.SocialLinks
	if links == nil {
		links = []string{}
	}
	encoded, err := json.Marshal(links)
	if err != nil {
		return creatorColumns{}, fmt.Errorf("encode social links: %w", err)
	}
	cols.linksJSON = string(encoded)
	if cols.totalReceived, err = toAmount("total_received", profile.TotalReceived); err != nil {
		return creatorColumns{}, err
	}
	if cols.donationCount, err = toAmount("donation_count", profile.DonationCount); err != nil {
		return creatorColumns{}, err
	}
	if cols.treasury, err = toAmount("treasury", profile.Treasury); err != nil {
		return creatorColumns{}, err
	}
	return cols, nil
}

// CreateCreator inserts one profile; a second profile at the same address
// fails with storage.ErrAlreadyExists.
func (t *txStore) CreateCreator(ctx context.Context, profile tipping.CreatorProfile) error {
	cols, err := encodeCreator(profile)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(
		ctx,
		`INSERT INTO creators (
		   creator, display_name, bio, avatar_url, social_links_json,
		   total_received, donation_count, is_active, treasury,
		   created_at, last_donation_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.Creator.String(),
		profile.DisplayName,
		profile.Bio,
		profile.AvatarURL,
		cols.linksJSON,
		cols.totalReceived,
		cols.donationCount,
		profile.IsActive,
		cols.treasury,
		toMillis(profile.CreatedAt),
		optionalMillis(profile.LastDonationAt),
		toMillis(profile.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create creator: %w", err)
	}
	return nil
}

// UpdateCreator rewrites the mutable columns of one profile.
func (t *txStore) UpdateCreator(ctx context.Context, profile tipping.CreatorProfile) error {
	cols, err := encodeCreator(profile)
	if err != nil {
		return err
	}
	result, err := t.tx.ExecContext(
		ctx,
		`UPDATE creators
		    SET display_name = ?, bio = ?, avatar_url = ?, social_links_json = ?,
		        total_received = ?, donation_count = ?, is_active = ?, treasury = ?,
		        last_donation_at = ?, updated_at = ?
		  WHERE creator = ?`,
		profile.DisplayName,
		profile.Bio,
		profile.AvatarURL,
		cols.linksJSON,
		cols.totalReceived,
		cols.donationCount,
		profile.IsActive,
		cols.treasury,
		optionalMillis(profile.LastDonationAt),
		toMillis(profile.UpdatedAt),
		profile.Creator.String(),
	)
	if err != nil {
		return fmt.Errorf("update creator: %w", err)
	}
	return expectOneRow(result, "update creator")
}

const donationColumns = `seq, id, platform_id, donor, creator, amount, message, anonymous, media_kind, media_url, created_at`

func scanDonation(row rowScanner) (tipping.Donation, int64, error) {
	var (
		d         tipping.Donation
		seq       int64
		donor     string
		creator   string
		amount    int64
		mediaKind string
		mediaURL  string
		createdAt int64
	)
	if err := row.Scan(&seq, &d.ID, &d.PlatformID, &donor, &creator, &amount, &d.Message, &d.Anonymous, &mediaKind, &mediaURL, &createdAt); err != nil {
		return tipping.Donation{}, 0, err
	}
	media, err := tipping.ParseMedia(mediaKind, mediaURL)
	if err != nil {
		return tipping.Donation{}, 0, fmt.Errorf("stored donation %s: %w", d.ID, err)
	}
	d.Donor = account.Address(donor)
	d.Creator = account.Address(creator)
	d.Amount = fromAmount(amount)
	d.Media = media
	d.Timestamp = fromMillis(createdAt)
	return d, seq, nil
}

// GetDonation returns one donation by id.
func (q queries) GetDonation(ctx context.Context, id string) (tipping.Donation, error) {
	if err := ctx.Err(); err != nil {
		return tipping.Donation{}, err
	}
	row := q.q.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, strings.TrimSpace(id))
	d, _, err := scanDonation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tipping.Donation{}, storage.ErrNotFound
		}
		return tipping.Donation{}, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}

// ListDonationsByCreator returns one page of donations to creator, newest first.
func (q queries) ListDonationsByCreator(ctx context.Context, creator account.Address, pageSize int, pageToken string) (storage.DonationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.DonationPage{}, err
	}
	if pageSize <= 0 {
		return storage.DonationPage{}, fmt.Errorf("page size must be greater than zero")
	}
	var (
		rows *sql.Rows
		err  error
	)
	pageToken = strings.TrimSpace(pageToken)
	if pageToken == "" {
		rows, err = q.q.QueryContext(
			ctx,
			`SELECT `+donationColumns+`
			   FROM donations
			  WHERE creator = ?
			  ORDER BY seq DESC
			  LIMIT ?`,
			creator.String(),
			pageSize+1,
		)
	} else {
		before, parseErr := strconv.ParseInt(pageToken, 10, 64)
		if parseErr != nil || before <= 0 {
			return storage.DonationPage{}, fmt.Errorf("%w %q", storage.ErrInvalidPageToken, pageToken)
		}
		rows, err = q.q.QueryContext(
			ctx,
			`SELECT `+donationColumns+`
			   FROM donations
			  WHERE creator = ? AND seq < ?
			  ORDER BY seq DESC
			  LIMIT ?`,
			creator.String(),
			before,
			pageSize+1,
		)
	}
	if err != nil {
		return storage.DonationPage{}, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	page := storage.DonationPage{Donations: make([]tipping.Donation, 0, pageSize)}
	var seqs []int64
	for rows.Next() {
		d, seq, err := scanDonation(rows)
		if err != nil {
			return storage.DonationPage{}, fmt.Errorf("list donations: %w", err)
		}
		page.Donations = append(page.Donations, d)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return storage.DonationPage{}, fmt.Errorf("list donations: %w", err)
	}
	if len(page.Donations) > pageSize {
		page.NextPageToken = strconv.FormatInt(seqs[pageSize-1], 10)
		page.Donations = page.Donations[:pageSize]
	}
	return page, nil
}

// CreateDonation inserts one immutable donation record.
func (t *txStore) CreateDonation(ctx context.Context, d tipping.Donation) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("donation id is required")
	}
	amount, err := toAmount("amount", d.Amount)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(
		ctx,
		`INSERT INTO donations (id, platform_id, donor, creator, amount, message, anonymous, media_kind, media_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.PlatformID,
		d.Donor.String(),
		d.Creator.String(),
		amount,
		d.Message,
		d.Anonymous,
		string(d.Media.Kind()),
		d.Media.URL(),
		toMillis(d.Timestamp),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/platform/errors/i18n"
	"github.com/louisbranch/estateledger/internal/platform/money"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
)

// amountJSON carries an amount in smallest units and its decimal rendering.
type amountJSON struct {
	Units   string `json:"units"`
	Display string `json:"display"`
}

func (s *server) amount(value uint64) amountJSON {
	return amountJSON{
		Units:   strconv.FormatUint(value, 10),
		Display: money.Format(value, s.decimals),
	}
}

type propertyInfoJSON struct {
	ID     string     `json:"id"`
	Owner  string     `json:"owner"`
	Name   string     `json:"name"`
	Price  amountJSON `json:"price"`
	Type   string     `json:"type"`
	Status string     `json:"status"`
}

func (s *server) propertyInfo(info listing.Info) propertyInfoJSON {
	return propertyInfoJSON{
		ID:     info.ID,
		Owner:  info.Owner,
		Name:   info.Name,
		Price:  s.amount(info.Price),
		Type:   info.Type.String(),
		Status: info.Status.String(),
	}
}

type creatorJSON struct {
	Creator        string     `json:"creator"`
	DisplayName    string     `json:"display_name"`
	Bio            string     `json:"bio"`
	AvatarURL      string     `json:"avatar_url"`
	SocialLinks    []string   `json:"social_links"`
	TotalReceived  amountJSON `json:"total_received"`
	DonationCount  uint64     `json:"donation_count"`
	IsActive       bool       `json:"is_active"`
	Treasury       amountJSON `json:"treasury"`
	CreatedAt      time.Time  `json:"created_at"`
	LastDonationAt *time.Time `json:"last_donation_at,omitempty"`
}

func (s *server) creatorInfo(info tipping.CreatorInfo) creatorJSON {
	out := creatorJSON{
		Creator:       info.Creator,
		DisplayName:   info.DisplayName,
		Bio:           info.Bio,
		AvatarURL:     info.AvatarURL,
		SocialLinks:   info.SocialLinks,
		TotalReceived: s.amount(info.TotalReceived),
		DonationCount: info.DonationCount,
		IsActive:      info.IsActive,
		Treasury:      s.amount(info.Treasury),
		CreatedAt:     info.CreatedAt,
	}
	if out.SocialLinks == nil {
		out.SocialLinks = []string{}
	}
	if !info.LastDonationAt.IsZero() {
		last := info.LastDonationAt
		out.LastDonationAt = &last
	}
	return out
}

type donationJSON struct {
	ID        string     `json:"id"`
	Donor     string     `json:"donor,omitempty"`
	Creator   string     `json:"creator"`
	Amount    amountJSON `json:"amount"`
	Message   string     `json:"message"`
	Anonymous bool       `json:"anonymous"`
	Timestamp time.Time  `json:"timestamp"`
	MediaKind string     `json:"media_kind,omitempty"`
}

// donation hides the donor of anonymous donations.
func (s *server) donation(d tipping.Donation) donationJSON {
	info := d.Info()
	out := donationJSON{
		ID:        info.ID,
		Donor:     info.Donor,
		Creator:   info.Creator,
		Amount:    s.amount(info.Amount),
		Message:   info.Message,
		Anonymous: info.Anonymous,
		Timestamp: info.Timestamp,
		MediaKind: string(d.Media.Kind()),
	}
	if info.Anonymous {
		out.Donor = ""
	}
	return out
}

type errorJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Locale  string `json:"locale"`
}

// writeError renders err with the status of its code and a message localized
// from Accept-Language. Uncoded errors are logged and reported generically.
func writeError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := code.HTTPStatus()
	catalog := i18n.GetCatalog(i18n.ResolveLocale(c.GetHeader("Accept-Language")))

	var metadata map[string]string
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		metadata = domainErr.Metadata
	}
	message := catalog.Format(string(code), metadata)
	if status >= http.StatusInternalServerError {
		log.Printf("http %s %s: %v", c.Request.Method, c.FullPath(), err)
		message = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorJSON{
		Code:    string(code),
		Message: message,
		Locale:  catalog.Locale(),
	}})
}

package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/notify"
)

func (s *server) getProperty(c *gin.Context) {
	p, err := s.ledger.Property(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.propertyInfo(p.Info()))
}

func (s *server) getPropertyLocation(c *gin.Context) {
	p, err := s.ledger.Property(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	loc := p.Location()
	c.JSON(http.StatusOK, gin.H{
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
		"address":   loc.Address,
	})
}

func (s *server) getPropertyDetails(c *gin.Context) {
	p, err := s.ledger.Property(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	d := p.Details()
	c.JSON(http.StatusOK, gin.H{
		"building_area":    d.BuildingArea,
		"land_area":        d.LandArea,
		"certificate":      d.Certificate.String(),
		"certificate_note": d.CertificateNote,
		"document":         d.Document,
	})
}

func (s *server) getPropertyContact(c *gin.Context) {
	p, err := s.ledger.Property(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": p.ContactInfo()})
}

func (s *server) getPropertyImages(c *gin.Context) {
	p, err := s.ledger.Property(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	images := p.ImageList()
	if images == nil {
		images = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (s *server) listOwnerProperties(c *gin.Context) {
	owner, ok := addressParam(c)
	if !ok {
		return
	}
	pageSize, ok := pageSizeQuery(c)
	if !ok {
		return
	}
	page, err := s.ledger.PropertiesByOwner(c.Request.Context(), owner, pageSize, c.Query("page_token"))
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]propertyInfoJSON, 0, len(page.Properties))
	for _, p := range page.Properties {
		items = append(items, s.propertyInfo(p.Info()))
	}
	c.JSON(http.StatusOK, gin.H{"properties": items, "next_page_token": page.NextPageToken})
}

func (s *server) getCreator(c *gin.Context) {
	creator, ok := addressParam(c)
	if !ok {
		return
	}
	profile, err := s.ledger.Creator(c.Request.Context(), creator)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.creatorInfo(profile.Info()))
}

func (s *server) listCreatorDonations(c *gin.Context) {
	creator, ok := addressParam(c)
	if !ok {
		return
	}
	pageSize, ok := pageSizeQuery(c)
	if !ok {
		return
	}
	page, err := s.ledger.DonationsByCreator(c.Request.Context(), creator, pageSize, c.Query("page_token"))
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]donationJSON, 0, len(page.Donations))
	for _, d := range page.Donations {
		items = append(items, s.donation(d))
	}
	c.JSON(http.StatusOK, gin.H{"donations": items, "next_page_token": page.NextPageToken})
}

func (s *server) getDonation(c *gin.Context) {
	d, err := s.ledger.Donation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.donation(d))
}

func (s *server) getDonationVoice(c *gin.Context) {
	s.writeAttachment(c, func(m tipping.Media) (string, bool) { return m.Voice() })
}

func (s *server) getDonationVideo(c *gin.Context) {
	s.writeAttachment(c, func(m tipping.Media) (string, bool) { return m.Video() })
}

func (s *server) writeAttachment(c *gin.Context, pick func(tipping.Media) (string, bool)) {
	d, err := s.ledger.Donation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	url, ok := pick(d.Media)
	c.JSON(http.StatusOK, gin.H{"attached": ok, "url": url})
}

func (s *server) getPlatformStats(c *gin.Context) {
	p, err := s.ledger.Platform(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	stats := p.Stats()
	c.JSON(http.StatusOK, gin.H{
		"platform_id":          p.ID,
		"admin":                stats.Admin,
		"fee_rate_bps":         stats.FeeRateBps,
		"total_donation_count": stats.TotalDonationCount,
		"total_donated_amount": s.amount(stats.TotalDonatedAmount),
		"treasury":             s.amount(stats.Treasury),
	})
}

func (s *server) getWallet(c *gin.Context) {
	addr, ok := addressParam(c)
	if !ok {
		return
	}
	balance, err := s.ledger.Balance(c.Request.Context(), addr)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr.String(), "balance": s.amount(balance)})
}

func (s *server) listNotifications(c *gin.Context) {
	recent := s.feed.Recent()
	after, err := strconv.ParseUint(strings.TrimSpace(c.DefaultQuery("after_seq", "0")), 10, 64)
	if err != nil {
		writeError(c, apperrors.WithMetadata(apperrors.CodeInvalidInput, "invalid after_seq", map[string]string{"Field": "after_seq"}))
		return
	}
	out := make([]notify.Notification, 0, len(recent))
	for _, n := range recent {
		if n.Seq > after {
			out = append(out, n)
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

func addressParam(c *gin.Context) (account.Address, bool) {
	addr, err := account.ParseAddress(c.Param("address"))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return addr, true
}

func pageSizeQuery(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("page_size"))
	if raw == "" {
		return 0, true
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < 0 {
		writeError(c, apperrors.WithMetadata(apperrors.CodeInvalidInput, "invalid page_size", map[string]string{"Field": "page_size"}))
		return 0, false
	}
	return size, true
}

// Package httpapi serves the read-only ledger query API used by indexers and
// frontends.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/louisbranch/estateledger/internal/platform/money"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/notify"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

// Ledger is the read side the API serves.
type Ledger interface {
	Property(ctx context.Context, propertyID string) (listing.Property, error)
	PropertiesByOwner(ctx context.Context, owner account.Address, pageSize int, pageToken string) (storage.PropertyPage, error)
	Platform(ctx context.Context, platformID string) (tipping.Platform, error)
	Creator(ctx context.Context, creator account.Address) (tipping.CreatorProfile, error)
	Donation(ctx context.Context, donationID string) (tipping.Donation, error)
	DonationsByCreator(ctx context.Context, creator account.Address, pageSize int, pageToken string) (storage.DonationPage, error)
	Balance(ctx context.Context, addr account.Address) (uint64, error)
}

// Feed lists recently delivered notifications.
type Feed interface {
	Recent() []notify.Notification
}

// Options configures the API handler.
type Options struct {
	// Decimals sets the display precision of amounts.
	Decimals int32
	// AllowOrigins enables CORS for the listed origins.
	AllowOrigins []string
	// Feed exposes /v1/notifications when set.
	Feed Feed
}

type server struct {
	ledger   Ledger
	feed     Feed
	decimals int32
}

// NewHandler builds the gin engine serving the query API.
func NewHandler(ledger Ledger, opts Options) http.Handler {
	if opts.Decimals <= 0 {
		opts.Decimals = money.DefaultDecimals
	}
	s := &server{ledger: ledger, feed: opts.Feed, decimals: opts.Decimals}

	r := gin.New()
	r.Use(gin.Recovery())
	if len(opts.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Accept-Language"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	properties := v1.Group("/properties")
	{
		properties.GET("/:id", s.getProperty)
		properties.GET("/:id/location", s.getPropertyLocation)
		properties.GET("/:id/details", s.getPropertyDetails)
		properties.GET("/:id/contact", s.getPropertyContact)
		properties.GET("/:id/images", s.getPropertyImages)
	}
	v1.GET("/owners/:address/properties", s.listOwnerProperties)

	creators := v1.Group("/creators")
	{
		creators.GET("/:address", s.getCreator)
		creators.GET("/:address/donations", s.listCreatorDonations)
	}
	donations := v1.Group("/donations")
	{
		donations.GET("/:id", s.getDonation)
		donations.GET("/:id/voice", s.getDonationVoice)
		donations.GET("/:id/video", s.getDonationVideo)
	}
	v1.GET("/platforms/:id/stats", s.getPlatformStats)
	v1.GET("/wallets/:address", s.getWallet)
	if s.feed != nil {
		v1.GET("/notifications", s.listNotifications)
	}
	return r
}

package ledger

import (
	"github.com/spf13/cobra"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
)

func (c *cli) propertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Register, buy, and inspect property listings",
	}
	cmd.AddCommand(
		c.propertyRegisterCmd(),
		c.propertyBuyCmd(),
		c.propertyViewCmd("info", "Show the listing summary", func(p listing.Property) any { return c.propertyView(p) }),
		c.propertyViewCmd("location", "Show the listing location", func(p listing.Property) any {
			loc := p.Location()
			return map[string]string{"latitude": loc.Latitude, "longitude": loc.Longitude, "address": loc.Address}
		}),
		c.propertyViewCmd("details", "Show building, land, and certificate details", func(p listing.Property) any {
			details := p.Details()
			return map[string]any{
				"building_area":    details.BuildingArea,
				"land_area":        details.LandArea,
				"certificate":      details.Certificate.String(),
				"certificate_note": details.CertificateNote,
				"document":         details.Document,
			}
		}),
		c.propertyViewCmd("contact", "Show the listing contact", func(p listing.Property) any {
			return map[string]string{"contact": p.ContactInfo()}
		}),
		c.propertyViewCmd("images", "List the listing images", func(p listing.Property) any {
			images := p.ImageList()
			if images == nil {
				images = []string{}
			}
			return map[string][]string{"images": images}
		}),
		c.propertyListCmd(),
	)
	return cmd
}

func (c *cli) propertyRegisterCmd() *cobra.Command {
	var (
		in    listing.RegisterInput
		price string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "List a property owned by the caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			if in.Price, err = c.amount(price); err != nil {
				return err
			}
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			p, err := svc.RegisterProperty(cmd.Context(), caller, in)
			if err != nil {
				return err
			}
			return c.print(c.propertyView(p))
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "listing name")
	f.StringVar(&in.Latitude, "lat", "", "latitude")
	f.StringVar(&in.Longitude, "lng", "", "longitude")
	f.StringVar(&in.Address, "address", "", "street address")
	f.StringVar(&in.Contact, "contact", "", "contact details")
	f.IntVar(&in.TypeCode, "type", 0, "property type: 0 house, 1 apartment, 2 shop, 3 boarding, 4 warehouse")
	f.IntVar(&in.StatusCode, "status", 0, "listing status: 0 for sale, 1 for rent")
	f.StringVar(&price, "price", "0", "asking price in whole units")
	f.Uint64Var(&in.BuildingArea, "building-area", 0, "building area")
	f.Uint64Var(&in.LandArea, "land-area", 0, "land area")
	f.IntVar(&in.CertificateCode, "certificate", 0, "certificate: 0 SHM, 1 SHGB, 2 other")
	f.StringVar(&in.CertificateNote, "certificate-note", "", "certificate note")
	f.StringArrayVar(&in.Images, "image", nil, "image reference (repeatable)")
	f.StringVar(&in.Document, "document", "", "document reference")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) propertyBuyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <property-id> <payment>",
		Short: "Buy a property, paying its owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			payment, err := c.amount(args[1])
			if err != nil {
				return err
			}
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			p, err := svc.BuyProperty(cmd.Context(), caller, args[0], payment)
			if err != nil {
				return err
			}
			return c.print(c.propertyView(p))
		},
	}
}

func (c *cli) propertyViewCmd(use, short string, view func(listing.Property) any) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <property-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			p, err := svc.Property(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(view(p))
		},
	}
}

func (c *cli) propertyListCmd() *cobra.Command {
	var (
		pageSize  int
		pageToken string
	)
	cmd := &cobra.Command{
		Use:   "list <owner>",
		Short: "List properties held by an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := account.ParseAddress(args[0])
			if err != nil {
				return err
			}
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			page, err := svc.PropertiesByOwner(cmd.Context(), owner, pageSize, pageToken)
			if err != nil {
				return err
			}
			views := make([]propertyView, 0, len(page.Properties))
			for _, p := range page.Properties {
				views = append(views, c.propertyView(p))
			}
			return c.print(map[string]any{"properties": views, "next_page_token": page.NextPageToken})
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "maximum results")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "token from a previous page")
	return cmd
}

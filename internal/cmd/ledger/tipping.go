package ledger

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/service"
)

func (c *cli) platformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platform",
		Short: "Administer tipping platforms",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create a platform administered by the caller",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := c.caller()
				if err != nil {
					return err
				}
				svc, _, err := c.ledger()
				if err != nil {
					return err
				}
				platform, err := svc.InitPlatform(cmd.Context(), caller)
				if err != nil {
					return err
				}
				return c.print(c.platformView(platform))
			},
		},
		&cobra.Command{
			Use:   "set-fee <platform-id> <basis-points>",
			Short: "Change the platform fee rate",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := c.caller()
				if err != nil {
					return err
				}
				rate, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return apperrors.WithMetadata(apperrors.CodeInvalidInput, "fee rate must be a whole number of basis points", map[string]string{"Field": "fee_rate_bps"})
				}
				svc, _, err := c.ledger()
				if err != nil {
					return err
				}
				platform, err := svc.SetFeeRate(cmd.Context(), caller, args[0], rate)
				if err != nil {
					return err
				}
				return c.print(c.platformView(platform))
			},
		},
		&cobra.Command{
			Use:   "withdraw <platform-id> <amount>",
			Short: "Pay platform earnings to the admin",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := c.caller()
				if err != nil {
					return err
				}
				amount, err := c.amount(args[1])
				if err != nil {
					return err
				}
				svc, _, err := c.ledger()
				if err != nil {
					return err
				}
				platform, err := svc.WithdrawPlatformEarnings(cmd.Context(), caller, args[0], amount)
				if err != nil {
					return err
				}
				return c.print(c.platformView(platform))
			},
		},
		&cobra.Command{
			Use:   "stats <platform-id>",
			Short: "Show platform statistics",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, _, err := c.ledger()
				if err != nil {
					return err
				}
				platform, err := svc.Platform(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.print(c.platformView(platform))
			},
		},
	)
	return cmd
}

type profileFlags struct {
	displayName string
	bio         string
	avatarURL   string
	links       []string
}

func (p *profileFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.displayName, "display-name", "", "display name")
	f.StringVar(&p.bio, "bio", "", "short biography")
	f.StringVar(&p.avatarURL, "avatar", "", "avatar URL")
	f.StringArrayVar(&p.links, "link", nil, "social link (repeatable)")
}

// patch replaces only the flags given on the command line.
func (p *profileFlags) patch(cmd *cobra.Command) tipping.ProfilePatch {
	var patch tipping.ProfilePatch
	if cmd.Flags().Changed("display-name") {
		patch.DisplayName = tipping.Replace(p.displayName)
	}
	if cmd.Flags().Changed("bio") {
		patch.Bio = tipping.Replace(p.bio)
	}
	if cmd.Flags().Changed("avatar") {
		patch.AvatarURL = tipping.Replace(p.avatarURL)
	}
	if cmd.Flags().Changed("link") {
		links := make([]string, 0, len(p.links))
		for _, link := range p.links {
			if link != "" {
				links = append(links, link)
			}
		}
		patch.SocialLinks = tipping.Replace(links)
	}
	return patch
}

func (c *cli) creatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creator",
		Short: "Manage creator profiles and treasuries",
	}

	var register profileFlags
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create the caller's creator profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			profile, err := svc.RegisterCreator(cmd.Context(), caller, tipping.ProfileFields{
				DisplayName: register.displayName,
				Bio:         register.bio,
				AvatarURL:   register.avatarURL,
				SocialLinks: register.links,
			})
			if err != nil {
				return err
			}
			return c.print(c.creatorView(profile))
		},
	}
	register.bind(registerCmd)

	var update profileFlags
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Replace the given fields of the caller's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			profile, err := svc.UpdateProfile(cmd.Context(), caller, caller, update.patch(cmd))
			if err != nil {
				return err
			}
			return c.print(c.creatorView(profile))
		},
	}
	update.bind(updateCmd)

	cmd.AddCommand(
		registerCmd,
		updateCmd,
		c.creatorActionCmd("toggle", "Flip whether the caller accepts donations", func(cmd *cobra.Command, svc *service.Service, caller account.Address, args []string) (tipping.CreatorProfile, error) {
			return svc.ToggleActive(cmd.Context(), caller, caller)
		}, cobra.NoArgs),
		c.creatorActionCmd("withdraw <amount>", "Withdraw from the caller's treasury", func(cmd *cobra.Command, svc *service.Service, caller account.Address, args []string) (tipping.CreatorProfile, error) {
			amount, err := c.amount(args[0])
			if err != nil {
				return tipping.CreatorProfile{}, err
			}
			return svc.Withdraw(cmd.Context(), caller, caller, amount)
		}, cobra.ExactArgs(1)),
		c.creatorActionCmd("withdraw-all", "Withdraw the caller's whole treasury", func(cmd *cobra.Command, svc *service.Service, caller account.Address, args []string) (tipping.CreatorProfile, error) {
			return svc.WithdrawAll(cmd.Context(), caller, caller)
		}, cobra.NoArgs),
		&cobra.Command{
			Use:   "show <creator>",
			Short: "Show a creator profile",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				creator, err := account.ParseAddress(args[0])
				if err != nil {
					return err
				}
				svc, _, err := c.ledger()
				if err != nil {
					return err
				}
				profile, err := svc.Creator(cmd.Context(), creator)
				if err != nil {
					return err
				}
				return c.print(c.creatorView(profile))
			},
		},
		c.creatorDonationsCmd(),
	)
	return cmd
}

type creatorAction func(cmd *cobra.Command, svc *service.Service, caller account.Address, args []string) (tipping.CreatorProfile, error)

func (c *cli) creatorActionCmd(use, short string, action creatorAction, args cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			profile, err := action(cmd, svc, caller, args)
			if err != nil {
				return err
			}
			return c.print(c.creatorView(profile))
		},
	}
}

func (c *cli) creatorDonationsCmd() *cobra.Command {
	var (
		pageSize  int
		pageToken string
	)
	cmd := &cobra.Command{
		Use:   "donations <creator>",
		Short: "List donations to a creator, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creator, err := account.ParseAddress(args[0])
			if err != nil {
				return err
			}
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			page, err := svc.DonationsByCreator(cmd.Context(), creator, pageSize, pageToken)
			if err != nil {
				return err
			}
			views := make([]donationView, 0, len(page.Donations))
			for _, d := range page.Donations {
				views = append(views, c.donationView(d))
			}
			return c.print(map[string]any{"donations": views, "next_page_token": page.NextPageToken})
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "maximum results")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "token from a previous page")
	return cmd
}

func (c *cli) donateCmd() *cobra.Command {
	var (
		message   string
		anonymous bool
		voiceURL  string
		videoURL  string
	)
	cmd := &cobra.Command{
		Use:   "donate <platform-id> <creator> <amount>",
		Short: "Donate to a creator through a platform",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if voiceURL != "" && videoURL != "" {
				return errors.New("--voice and --video cannot be combined")
			}
			caller, err := c.caller()
			if err != nil {
				return err
			}
			creator, err := account.ParseAddress(args[1])
			if err != nil {
				return err
			}
			amount, err := c.amount(args[2])
			if err != nil {
				return err
			}
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			req := service.DonationRequest{
				PlatformID: args[0],
				Creator:    creator,
				Amount:     amount,
				Message:    message,
				Anonymous:  anonymous,
			}
			var outcome tipping.DonationOutcome
			switch {
			case cmd.Flags().Changed("voice"):
				outcome, err = svc.DonateWithVoice(cmd.Context(), caller, req, voiceURL)
			case cmd.Flags().Changed("video"):
				outcome, err = svc.DonateWithVideo(cmd.Context(), caller, req, videoURL)
			default:
				outcome, err = svc.Donate(cmd.Context(), caller, req)
			}
			if err != nil {
				return err
			}
			return c.print(map[string]any{
				"donation": c.donationView(outcome.Donation),
				"fee":      c.amountView(outcome.Fee),
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&message, "message", "m", "", "message to the creator")
	f.BoolVar(&anonymous, "anonymous", false, "hide the donor from public views")
	f.StringVar(&voiceURL, "voice", "", "attach a voice note URL")
	f.StringVar(&videoURL, "video", "", "attach a video URL")
	return cmd
}

func (c *cli) donationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donation",
		Short: "Inspect donations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <donation-id>",
		Short: "Show one donation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := c.ledger()
			if err != nil {
				return err
			}
			d, err := svc.Donation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(c.donationView(d))
		},
	})
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadforge/leadforge/internal/database"
)

var prospectCmd = &cobra.Command{
	Use:   "prospect",
	Short: "Manage prospects",
}

var prospectAddFlags struct {
	firstName       string
	messenger       string
	phone           string
	email           string
	bio             string
	posts           string
	comments        string
	activity        string
	employment      string
	personality     string
	referralSource  string
	referralQuality string
	temperature     string
	responseSpeed   int
	commentCount    int
	likeCount       int
	shareCount      int
}

var prospectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a prospect",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		f := prospectAddFlags
		if f.firstName == "" {
			return fmt.Errorf("--first-name is required")
		}

		p := &database.Prospect{
			UserID:               a.userID,
			FirstName:            f.firstName,
			MessengerHandle:      f.messenger,
			Phone:                f.phone,
			Email:                f.email,
			Bio:                  f.bio,
			Posts:                f.posts,
			CommentsText:         f.comments,
			RecentActivity:       f.activity,
			Employment:           f.employment,
			PersonalityType:      f.personality,
			ReferralSource:       f.referralSource,
			ReferralQuality:      database.ReferralQuality(f.referralQuality),
			Temperature:          database.Temperature(f.temperature),
			ResponseSpeedSeconds: f.responseSpeed,
			CommentCount:         f.commentCount,
			LikeCount:            f.likeCount,
			ShareCount:           f.shareCount,
		}

		if err := a.prospects.Create(cmd.Context(), p); err != nil {
			return err
		}
		cmd.Printf("Created prospect %s (%s)\n", p.ID, p.FirstName)
		return nil
	},
}

var prospectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prospects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		prospects, err := a.prospects.ListByUser(cmd.Context(), a.userID)
		if err != nil {
			return err
		}
		if len(prospects) == 0 {
			cmd.Println("No prospects yet. Add one with 'leadforge prospect add'.")
			return nil
		}

		for _, p := range prospects {
			temp := string(p.Temperature)
			if temp == "" {
				temp = "-"
			}
			cmd.Printf("%s  %-16s  temp=%s\n", p.ID, p.FirstName, temp)
		}
		return nil
	},
}

var prospectShowCmd = &cobra.Command{
	Use:   "show <prospect-id>",
	Short: "Show a prospect as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProspectID(args[0])
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.prospects.GetByID(cmd.Context(), id)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	},
}

func init() {
	f := prospectAddCmd.Flags()
	f.StringVar(&prospectAddFlags.firstName, "first-name", "", "Prospect first name (required)")
	f.StringVar(&prospectAddFlags.messenger, "messenger", "", "Messenger handle")
	f.StringVar(&prospectAddFlags.phone, "phone", "", "Phone number for SMS")
	f.StringVar(&prospectAddFlags.email, "email", "", "Email address")
	f.StringVar(&prospectAddFlags.bio, "bio", "", "Profile bio text")
	f.StringVar(&prospectAddFlags.posts, "posts", "", "Recent post text")
	f.StringVar(&prospectAddFlags.comments, "comments", "", "Recent comment text")
	f.StringVar(&prospectAddFlags.activity, "activity", "", "Recent activity text")
	f.StringVar(&prospectAddFlags.employment, "employment", "", "Employment description")
	f.StringVar(&prospectAddFlags.personality, "personality", "", "Social style (driver|analytical|amiable|expressive)")
	f.StringVar(&prospectAddFlags.referralSource, "referral-source", "", "Who referred this prospect")
	f.StringVar(&prospectAddFlags.referralQuality, "referral-quality", "", "Referral quality (hot|warm|cold)")
	f.StringVar(&prospectAddFlags.temperature, "temperature", "", "Temperature classification (hot|warm|cold)")
	f.IntVar(&prospectAddFlags.responseSpeed, "response-speed", 0, "Last reply latency in seconds")
	f.IntVar(&prospectAddFlags.commentCount, "comment-count", 0, "Comment interaction count")
	f.IntVar(&prospectAddFlags.likeCount, "like-count", 0, "Like interaction count")
	f.IntVar(&prospectAddFlags.shareCount, "share-count", 0, "Share interaction count")

	prospectCmd.AddCommand(prospectAddCmd)
	prospectCmd.AddCommand(prospectListCmd)
	prospectCmd.AddCommand(prospectShowCmd)
}

package scoring

import (
	"strings"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/types"
)

// Signals is the raw prospect signal bundle scoring reads. It is a value
// type so the calculator stays pure with respect to its inputs.
type Signals struct {
	ProspectID           types.ID
	UserID               types.ID
	Bio                  string
	Posts                string
	Comments             string
	RecentActivity       string
	Employment           string
	PersonalityType      string
	UserPersonalityType  string
	ReferralSource       string
	ReferralQuality      database.ReferralQuality
	ResponseSpeedSeconds int
	CommentCount         int
	LikeCount            int
	ShareCount           int
}

// SignalsFromProspect builds a signal bundle from a stored prospect.
// userPersonality is the owning user's declared personality type, used for
// the compatibility lookup.
func SignalsFromProspect(p *database.Prospect, userPersonality string) Signals {
	return Signals{
		ProspectID:           p.ID,
		UserID:               p.UserID,
		Bio:                  p.Bio,
		Posts:                p.Posts,
		Comments:             p.CommentsText,
		RecentActivity:       p.RecentActivity,
		Employment:           p.Employment,
		PersonalityType:      p.PersonalityType,
		UserPersonalityType:  userPersonality,
		ReferralSource:       p.ReferralSource,
		ReferralQuality:      p.ReferralQuality,
		ResponseSpeedSeconds: p.ResponseSpeedSeconds,
		CommentCount:         p.CommentCount,
		LikeCount:            p.LikeCount,
		ShareCount:           p.ShareCount,
	}
}

// FreeText concatenates the free-text fields keyword scoring runs over.
func (s Signals) FreeText() string {
	parts := []string{s.Bio, s.Posts, s.Comments, s.RecentActivity}
	return strings.ToLower(strings.Join(parts, " "))
}

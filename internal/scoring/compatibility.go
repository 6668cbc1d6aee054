package scoring

import "strings"

// Personality compatibility is a fixed lookup keyed by
// (user type, prospect type). Types follow the four social styles the
// CRM profile uses. Unknown types on either side score the neutral 50.
const neutralCompatibility = 50

var compatibilityMatrix = map[string]map[string]int{
	"driver": {
		"driver":     70,
		"analytical": 60,
		"amiable":    55,
		"expressive": 80,
	},
	"analytical": {
		"driver":     60,
		"analytical": 75,
		"amiable":    65,
		"expressive": 45,
	},
	"amiable": {
		"driver":     55,
		"analytical": 65,
		"amiable":    85,
		"expressive": 70,
	},
	"expressive": {
		"driver":     80,
		"analytical": 45,
		"amiable":    70,
		"expressive": 75,
	},
}

// personalityMatch looks up compatibility between the owning user's and
// the prospect's declared personality types.
func personalityMatch(userType, prospectType string) int {
	row, ok := compatibilityMatrix[strings.ToLower(strings.TrimSpace(userType))]
	if !ok {
		return neutralCompatibility
	}
	score, ok := row[strings.ToLower(strings.TrimSpace(prospectType))]
	if !ok {
		return neutralCompatibility
	}
	return score
}

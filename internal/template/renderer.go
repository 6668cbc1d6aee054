// Package template renders message bodies by literal placeholder
// substitution. Bodies are opaque text: there is no expression language,
// no conditionals, and rendering never fails.
package template

import (
	"sort"
	"strings"

	"github.com/leadforge/leadforge/internal/database"
)

// Placeholder keys recognized in message bodies as {{key}}.
const (
	VarFirstName   = "first_name"
	VarAgentName   = "agent_name"
	VarProductName = "product_name"
	VarBookingLink = "booking_link"
)

// defaults fill placeholders whose value is unknown so an outbound
// message never leaks a raw {{placeholder}}.
var defaults = map[string]string{
	VarFirstName:   "there",
	VarAgentName:   "our team",
	VarProductName: "our program",
	VarBookingLink: "(ask me for a schedule)",
}

// Vars holds substitution values for one render. Empty values fall back
// to the built-in defaults; keys outside the known set pass through.
type Vars map[string]string

// VarsForProspect builds render vars from a prospect and the sending
// user's identity.
func VarsForProspect(p *database.Prospect, agentName, productName, bookingLink string) Vars {
	return Vars{
		VarFirstName:   p.FirstName,
		VarAgentName:   agentName,
		VarProductName: productName,
		VarBookingLink: bookingLink,
	}
}

// Render substitutes {{key}} occurrences in body. Unknown placeholders
// are left verbatim; known placeholders with no value get their default.
func Render(body string, vars Vars) string {
	merged := make(map[string]string, len(defaults)+len(vars))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range vars {
		if v != "" {
			merged[k] = v
		}
	}

	// Deterministic replacer construction keeps renders reproducible
	// when custom vars overlap.
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(merged)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", merged[k])
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

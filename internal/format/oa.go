package format

// Open access statuses reported by OpenAlex.
const (
	OAClosed = "closed"
	OABronze = "bronze"
	OAGold   = "gold"
	OAGreen  = "green"
	OAHybrid = "hybrid"
)

// OAStatuses lists the statuses in display order.
var OAStatuses = []string{OAClosed, OABronze, OAGold, OAGreen, OAHybrid}

var oaColours = map[string]string{
	OAClosed: "b9b9b9",
	OABronze: "d48751",
	OAGold:   "fbdc69",
	OAGreen:  "6ba6ae",
	OAHybrid: "ffa659",
}

var oaTooltips = map[string]string{
	OAClosed: "Closed access works need a payment or subscription to read in full. " +
		"Access usually comes through an individual or institutional subscription.",
	OABronze: "Bronze works are free to read on the publisher's site but carry no " +
		"open licence, so the publisher may withdraw access at any time.",
	OAGold: "Gold works are published in a fully open access journal and are free " +
		"to read from the day of publication.",
	OAGreen: "Green works are paywalled at the publisher, but a copy is free to read " +
		"in a repository, often after an embargo.",
	OAHybrid: "Hybrid works are free to read under an open licence in a journal that " +
		"otherwise charges for access.",
}

// OAStatusColour returns the hex colour (without '#') for status, or the
// closed colour for an unknown status.
func OAStatusColour(status string) string {
	if c, ok := oaColours[status]; ok {
		return c
	}
	return oaColours[OAClosed]
}

// OAStatusTooltip returns a one-paragraph explanation of status, or "".
func OAStatusTooltip(status string) string {
	return oaTooltips[status]
}

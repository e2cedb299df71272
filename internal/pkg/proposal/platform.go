package proposal

// Platform is a freelance marketplace with its own proposal conventions.
type Platform struct {
	ID    string
	Label string
	Style string
}

// Platforms lists the supported marketplaces in form order.
var Platforms = []Platform{
	{
		ID:    "upwork",
		Label: "Upwork",
		Style: "Upwork cover letters are read in a list preview: open with a line that proves you read the job, keep it under 250 words and end with a clear question.",
	},
	{
		ID:    "fiverr",
		Label: "Fiverr",
		Style: "Fiverr buyer requests favour short, offer-style replies: state the deliverable, turnaround and what is included.",
	},
	{
		ID:    "freelancer",
		Label: "Freelancer.com",
		Style: "Freelancer.com bids compete on clarity: summarise the approach in steps and mention milestones.",
	},
	{
		ID:    "linkedin",
		Label: "LinkedIn",
		Style: "LinkedIn messages are personal and conversational: no headings in the proposal itself, at most 150 words.",
	},
	{
		ID:    "general",
		Label: "Other / direct client",
		Style: "Write a concise, professional proposal suitable for email.",
	},
}

// PlatformByID returns the platform with id.
func PlatformByID(id string) (Platform, bool) {
	for _, p := range Platforms {
		if p.ID == id {
			return p, true
		}
	}
	return Platform{}, false
}

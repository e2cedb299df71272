package proposal

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/resume"
)

// MaxResumeRunes bounds the resume text forwarded to the provider.
const MaxResumeRunes = 6000

const baseSystemPrompt = "You are an expert freelance proposal writer. Your goal is to help freelancers win more projects by creating compelling, personalized proposals that stand out."

// SystemPrompt returns the instructions for platform.
func SystemPrompt(p Platform) string {
	return baseSystemPrompt + "\n\n" + p.Style
}

// UserPrompt renders the request into the prompt text.
func UserPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("JOB POSTING:\n")
	b.WriteString(req.JobPosting)
	b.WriteString("\n\nFREELANCER INFORMATION:\n")
	fmt.Fprintf(&b, "- Relevant Skills: %s\n", req.Skills)
	fmt.Fprintf(&b, "- Unique Advantage: %s\n", req.Advantage)
	if req.Requirements != "" {
		fmt.Fprintf(&b, "- Key Requirements: %s\n", req.Requirements)
	}

	if req.ResumeText != "" {
		b.WriteString("\nRESUME:\n")
		b.WriteString(resume.Truncate(req.ResumeText, MaxResumeRunes))
		b.WriteString("\n")
	}

	b.WriteString(`
Please generate:
1. A COMPELLING PROPOSAL that addresses the client's needs and highlights the freelancer's specific qualifications
2. TWO FOLLOW-UP EMAIL templates (3-5 days after no response, 7-10 days after no response)
3. THREE PORTFOLIO BULLET SUGGESTIONS that would be most relevant to this client

Format the response clearly with headings for each section.

Make it personal, specific, and focused on client results.
`)
	return b.String()
}

package usecase

import (
	"strings"

	"github.com/user/profile-extractor/internal/entity"
)

const instructionHeader = `You extract structured profile data about an architecture or design firm from the text of its website.

Rules:
- Only extract facts that are explicitly stated in the text. Never guess or invent values.
- Omit any field you cannot find. Do not output null, empty strings or placeholder values.
- Years are plain integers (e.g. 2015). Team size is an integer.
- Project status is one of: "completed", "in-progress", "planned".
- Respond with a single JSON object only. No prose, no markdown fences.

JSON shape:
{
  "name": "string",
  "website": "string",
  "description": "string",
  "email": "string",
  "phone": "string",
  "address": "string",
  "city": "string",
  "country": "string",
  "founded": 2001,
  "specialties": ["string"],
  "services": ["string"],
  "certifications": ["string"],
  "socialMedia": {"instagram": "url", "linkedin": "url"}`

const teamFields = `,
  "teamSize": 12,
  "founders": ["string"]`

const projectFields = `,
  "projects": [{
    "name": "string (required)",
    "type": "string",
    "status": "completed | in-progress | planned",
    "year": 2020,
    "location": "string",
    "size": "string",
    "client": "string",
    "budget": "string",
    "description": "string",
    "sustainability": ["string"],
    "materials": ["string"],
    "designFeatures": ["string"]%s
  }]`

const projectImagesField = `,
    "images": ["absolute image url"]`

const awardFields = `,
  "awards": [{"name": "string (required)", "year": 2019, "organization": "string", "project": "string", "category": "string"}],
  "exhibitions": [{"name": "string (required)", "venue": "string", "year": 2018, "location": "string"}]`

const publicationFields = `,
  "publications": [{"title": "string (required)", "publisher": "string", "year": 2017, "url": "string", "type": "string"}],
  "pressMentions": [{"title": "string (required)", "outlet": "string", "date": "string", "url": "string"}]`

// BuildInstruction returns the fixed instruction template for the enabled
// sections. The same sections always produce the same text.
func BuildInstruction(sections entity.Sections) string {
	var sb strings.Builder
	sb.WriteString(instructionHeader)
	if sections.Team {
		sb.WriteString(teamFields)
	}
	if sections.Projects {
		images := ""
		if sections.Images {
			images = projectImagesField
		}
		sb.WriteString(strings.Replace(projectFields, "%s", images, 1))
	}
	if sections.Awards {
		sb.WriteString(awardFields)
	}
	if sections.Publications {
		sb.WriteString(publicationFields)
	}
	sb.WriteString("\n}\n")
	return sb.String()
}

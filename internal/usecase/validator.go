package usecase

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/user/profile-extractor/internal/entity"
)

// Validator turns a free-form extraction answer into a cleaned, scored
// ExtractionRecord. Cleaning is lenient: bad values and entities are
// dropped one by one, the response as a whole is only rejected when it
// contains no JSON object at all.
type Validator struct {
	sections entity.Sections
}

// NewValidator creates a validator that keeps only the enabled sections.
func NewValidator(sections entity.Sections) *Validator {
	return &Validator{sections: sections}
}

// Validate parses raw, cleans the record it contains and scores it.
func (v *Validator) Validate(raw string) (*entity.AnalysisOutcome, error) {
	obj, err := locateObject(raw)
	if err != nil {
		return nil, err
	}

	record := v.clean(obj)
	score := Score(record)

	return &entity.AnalysisOutcome{
		ExtractedData: record,
		Confidence:    score.Confidence,
		DataQuality:   score.Quality,
		MissingFields: score.MissingFields,
		Suggestions:   score.Suggestions,
	}, nil
}

// locateObject finds the JSON object in raw. It tries the whole text first,
// then the first balanced {...} span, then everything between the first
// '{' and the last '}'.
func locateObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &ParseError{Reason: "empty response"}
	}

	var direct any
	if err := json.Unmarshal([]byte(text), &direct); err == nil {
		obj, ok := direct.(map[string]any)
		if !ok {
			return nil, &ParseError{Reason: "response is JSON but not an object"}
		}
		return obj, nil
	}

	first := strings.IndexByte(text, '{')
	if first < 0 {
		return nil, &ParseError{Reason: "no JSON object found"}
	}

	if end := matchingBrace(text, first); end > first {
		if obj, ok := decodeObject(text[first : end+1]); ok {
			return obj, nil
		}
	}

	last := strings.LastIndexByte(text, '}')
	if last > first {
		var obj map[string]any
		err := json.Unmarshal([]byte(text[first:last+1]), &obj)
		if err == nil && obj != nil {
			return obj, nil
		}
		return nil, &ParseError{Reason: "no valid JSON object found", Err: err}
	}
	return nil, &ParseError{Reason: "unterminated JSON object"}
}

// matchingBrace returns the index of the '}' closing the '{' at start, or -1.
// Braces inside JSON strings are ignored.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func (v *Validator) clean(obj map[string]any) *entity.ExtractionRecord {
	rec := &entity.ExtractionRecord{
		Name:           str(obj, "name"),
		Website:        str(obj, "website"),
		Description:    str(obj, "description"),
		Email:          str(obj, "email"),
		Phone:          str(obj, "phone"),
		Address:        str(obj, "address"),
		City:           str(obj, "city"),
		Country:        str(obj, "country"),
		Founded:        year(obj, "founded"),
		Specialties:    strList(obj, "specialties"),
		Services:       strList(obj, "services"),
		Certifications: strList(obj, "certifications"),
		SocialMedia:    strMap(obj, "socialMedia"),
	}

	if v.sections.Team {
		rec.TeamSize = count(obj, "teamSize")
		rec.Founders = strList(obj, "founders")
	}
	if v.sections.Projects {
		rec.Projects = v.cleanProjects(objList(obj, "projects"))
	}
	if v.sections.Awards {
		rec.Awards = cleanAwards(objList(obj, "awards"))
		rec.Exhibitions = cleanExhibitions(objList(obj, "exhibitions"))
	}
	if v.sections.Publications {
		rec.Publications = cleanPublications(objList(obj, "publications"))
		rec.PressMentions = cleanPressMentions(objList(obj, "pressMentions"))
	}
	return rec
}

func (v *Validator) cleanProjects(items []map[string]any) []entity.Project {
	var out []entity.Project
	for _, m := range items {
		name := str(m, "name")
		if name == "" {
			continue
		}
		p := entity.Project{
			Name:           name,
			Type:           str(m, "type"),
			Status:         normalizeStatus(str(m, "status")),
			Year:           year(m, "year"),
			Location:       str(m, "location"),
			Size:           str(m, "size"),
			Client:         str(m, "client"),
			Budget:         str(m, "budget"),
			Description:    str(m, "description"),
			Sustainability: strList(m, "sustainability"),
			Materials:      strList(m, "materials"),
			DesignFeatures: strList(m, "designFeatures"),
		}
		if v.sections.Images {
			p.Images = strList(m, "images")
		}
		out = append(out, p)
	}
	return out
}

func cleanAwards(items []map[string]any) []entity.Award {
	var out []entity.Award
	for _, m := range items {
		name := str(m, "name")
		if name == "" {
			continue
		}
		out = append(out, entity.Award{
			Name:         name,
			Year:         year(m, "year"),
			Organization: str(m, "organization"),
			Project:      str(m, "project"),
			Category:     str(m, "category"),
		})
	}
	return out
}

func cleanPublications(items []map[string]any) []entity.Publication {
	var out []entity.Publication
	for _, m := range items {
		title := str(m, "title")
		if title == "" {
			continue
		}
		out = append(out, entity.Publication{
			Title:     title,
			Publisher: str(m, "publisher"),
			Year:      year(m, "year"),
			URL:       str(m, "url"),
			Type:      str(m, "type"),
		})
	}
	return out
}

func cleanExhibitions(items []map[string]any) []entity.Exhibition {
	var out []entity.Exhibition
	for _, m := range items {
		name := str(m, "name")
		if name == "" {
			continue
		}
		out = append(out, entity.Exhibition{
			Name:     name,
			Venue:    str(m, "venue"),
			Year:     year(m, "year"),
			Location: str(m, "location"),
		})
	}
	return out
}

func cleanPressMentions(items []map[string]any) []entity.PressMention {
	var out []entity.PressMention
	for _, m := range items {
		title := str(m, "title")
		if title == "" {
			continue
		}
		out = append(out, entity.PressMention{
			Title:  title,
			Outlet: str(m, "outlet"),
			Date:   str(m, "date"),
			URL:    str(m, "url"),
		})
	}
	return out
}

// normalizeStatus maps free-text project states onto the three accepted
// values. Anything unrecognized becomes "".
func normalizeStatus(s string) string {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "completed", "complete", "built", "finished", "realized", "realised":
		return entity.ProjectCompleted
	case "in-progress", "in progress", "ongoing", "under construction", "in construction", "in development":
		return entity.ProjectInProgress
	case "planned", "proposed", "concept", "competition", "unbuilt":
		return entity.ProjectPlanned
	default:
		return ""
	}
}

func str(m map[string]any, key string) string {
	s, ok := m[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// year accepts positive integral JSON numbers only.
func year(m map[string]any, key string) *int {
	f, ok := m[key].(float64)
	if !ok || f <= 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}

func count(m map[string]any, key string) *int {
	return year(m, key)
}

func strList(m map[string]any, key string) []string {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func strMap(m map[string]any, key string) map[string]string {
	raw, ok := m[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		s = strings.TrimSpace(s)
		if k != "" && s != "" {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func objList(m map[string]any, key string) []map[string]any {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

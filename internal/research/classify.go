package research

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/hackscout/hackscout/internal/search"
	"github.com/hackscout/hackscout/internal/types"
)

// Signal classifies the strongest success indicator found in a text.
type Signal string

const (
	SignalFunding     Signal = "funding"
	SignalTraction    Signal = "traction"
	SignalAcquisition Signal = "acquisition"
	SignalNone        Signal = ""
)

// Project categories used for query memory and planning.
const (
	CategoryAIML       = "ai-ml"
	CategoryBlockchain = "blockchain"
	CategoryMobile     = "mobile"
	CategoryHardware   = "hardware"
	CategoryGeneral    = "general"
)

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryAIML, []string{"ai", "ml", "machine learning", "artificial intelligence", "tensorflow", "pytorch", "neural", "llm"}},
	{CategoryBlockchain, []string{"blockchain", "web3", "crypto", "solidity", "ethereum", "smart contract"}},
	{CategoryMobile, []string{"mobile", "ios", "android", "swift", "kotlin", "flutter", "react native"}},
	{CategoryHardware, []string{"hardware", "iot", "arduino", "raspberry pi", "embedded", "sensor"}},
}

// Categorize maps a project onto one of the fixed categories by keyword
// matching over its technologies and description. First match wins, in
// ai-ml, blockchain, mobile, hardware order.
func Categorize(p *types.Project) string {
	blob := strings.ToLower(strings.Join(p.Technologies, " "))
	if p.Description != nil {
		blob += " " + strings.ToLower(*p.Description)
	}
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(blob, kw) {
				return c.category
			}
		}
	}
	return CategoryGeneral
}

// Keyword banks for the open-web discovery filters.
var (
	successKeywords = []string{
		"raised", "funding", "million", "seed round", "series a", "series b",
		"investment", "acquired", "acquisition", "partnership", "launched",
		"users", "traction", "went viral", "backed by", "secured funding",
	}

	// Phrases and hosts that mark a result as an article or announcement
	// rather than a page about one project.
	articleKeywords = []string{
		"announcing", "winners of", "here are the", "top seed startups",
		"these are the", "celebrating innovation", "hackathon rewind",
		"what happens after", "blog", "article", "news", "press release",
		"prnewswire", "techcrunch", "linkedin.com/posts", "linkedin.com/pulse",
	}

	projectKeywords = []string{
		"built at", "created at", "developed at", "won", "project", "app",
		"platform", "startup", "raised", "funding", "demo", "prototype",
	}
)

var (
	boilerplateRes = []*regexp.Regexp{
		regexp.MustCompile(`[-–|].*$`),
		regexp.MustCompile(`(?i)Devpost`),
		regexp.MustCompile(`(?i)Winner`),
		regexp.MustCompile(`(?i)Announcing`),
		regexp.MustCompile(`(?i)Here are the`),
		regexp.MustCompile(`(?i)These are the`),
		regexp.MustCompile(`(?i)Winners of`),
		regexp.MustCompile(`(?i)Celebrating Innovation:`),
		regexp.MustCompile(`(?i)\d{4} Hackathon Rewind:`),
		regexp.MustCompile(`(?i)What Happens After the Hackathon:`),
		regexp.MustCompile(`(?i)Turning Winning Ideas into`),
		regexp.MustCompile(`s$`),
	}

	hackathonRes = []*regexp.Regexp{
		regexp.MustCompile(`(?:at|from|during|won|built at|created at)\s+([A-Z][a-zA-Z0-9\s&-]+(?:Hackathon|Hack)(?:\s+[0-9]{4})?)`),
		regexp.MustCompile(`([A-Z][a-zA-Z0-9\s&-]+(?:Hackathon|Hack)(?:\s+[0-9]{4})?)`),
		regexp.MustCompile(`(?i)(?:hackathon|hack)\s+([A-Z][a-zA-Z0-9\s&-]+)`),
	}

	devpostURLRe = regexp.MustCompile(`(?i)https?://[^\s"]*devpost\.com[^\s"]*`)
	spacesRe     = regexp.MustCompile(`\s+`)
)

const (
	minNameLen = 5
	maxNameLen = 100

	unknownHackathon = "Unknown Hackathon"
)

// SanitizeName strips known boilerplate from a result title and returns
// the remaining project name, or "" when nothing usable is left. Names
// longer than the ceiling are headlines, not project names.
func SanitizeName(title string) string {
	cleaned := title
	for _, re := range boilerplateRes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > maxNameLen {
		return ""
	}
	return cleaned
}

// ExtractHackathonName finds a capitalized phrase ending in Hackathon or
// Hack, falling back to "Unknown Hackathon".
func ExtractHackathonName(text string) string {
	for _, re := range hackathonRes {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		name := spacesRe.ReplaceAllString(strings.TrimSpace(m[1]), " ")
		if len(name) > 5 && len(name) < 80 {
			return name
		}
	}
	return unknownHackathon
}

// HasSuccessSignal reports whether any success keyword appears in text.
func HasSuccessSignal(text string) bool {
	blob := strings.ToLower(text)
	for _, kw := range successKeywords {
		if strings.Contains(blob, kw) {
			return true
		}
	}
	return false
}

// DetectSignal returns the strongest success signal found in text.
// Acquisition outranks funding, funding outranks traction.
func DetectSignal(text string) Signal {
	blob := strings.ToLower(text)
	switch {
	case strings.Contains(blob, "acquired") || strings.Contains(blob, "acquisition"):
		return SignalAcquisition
	case strings.Contains(blob, "raised") || strings.Contains(blob, "funding") ||
		strings.Contains(blob, "investment") || strings.Contains(blob, "seed round") ||
		strings.Contains(blob, "series"):
		return SignalFunding
	case strings.Contains(blob, "users") || strings.Contains(blob, "traction") ||
		strings.Contains(blob, "launched"):
		return SignalTraction
	}
	return SignalNone
}

// IsProjectResult is the structural filter for open-web discovery: it
// rejects results that read like list articles, announcements or blog
// posts rather than pages about one specific project.
func IsProjectResult(r search.Result) bool {
	text := strings.ToLower(r.Title + " " + r.Text)
	u := strings.ToLower(r.URL)

	for _, kw := range articleKeywords {
		if strings.Contains(text, kw) || strings.Contains(u, kw) {
			return false
		}
	}
	if strings.Contains(u, "/blog/") || strings.Contains(u, "/posts/") || strings.Contains(u, "/pulse/") {
		return false
	}

	hasProject := false
	for _, kw := range projectKeywords {
		if strings.Contains(text, kw) {
			hasProject = true
			break
		}
	}
	hasHackathon := strings.Contains(text, "hackathon") ||
		strings.Contains(text, "built at") || strings.Contains(text, "won")
	return hasProject && hasHackathon
}

// FindDevpostURL extracts a devpost.com URL from the result URL or body.
func FindDevpostURL(r search.Result) string {
	if strings.Contains(r.URL, "devpost.com") {
		return r.URL
	}
	return devpostURLRe.FindString(r.Text)
}

// SanitizeSources normalizes and deduplicates source URLs, dropping
// anything that does not parse.
func SanitizeSources(sources []string) []string {
	seen := make(map[string]struct{})
	var cleaned []string
	for _, src := range sources {
		if src == "" {
			continue
		}
		u, err := url.Parse(src)
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		normalized := strings.TrimSuffix(u.String(), "/")
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		cleaned = append(cleaned, normalized)
	}
	return cleaned
}

// SourceDomain returns the hostname of a URL without a www prefix.
func SourceDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

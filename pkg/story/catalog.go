package story

// Style is a narration style a story can be told in.
type Style struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// Theme is the subject of a story.
type Theme struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// DefaultStyleSlug supplies prompt instructions for unknown styles.
const DefaultStyleSlug = "calm-bedtime"

// Catalog lists the available styles and themes.
type Catalog struct {
	Styles []Style `json:"styles"`
	Themes []Theme `json:"themes"`
}

// DefaultCatalog returns the built-in styles and themes.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Styles: []Style{
			{Name: "Whimsical Rhyme", Slug: "whimsical-rhyme", Description: "A bouncy, rhyming story full of wordplay and rhythm", Emoji: "✨"},
			{Name: "Calm Bedtime", Slug: "calm-bedtime", Description: "A soft, gentle story perfect for winding down", Emoji: "🌙"},
			{Name: "Silly & Goofy", Slug: "silly-goofy", Description: "A laugh-out-loud adventure with absurd surprises", Emoji: "🤪"},
		},
		Themes: []Theme{
			{Name: "Penguins", Slug: "penguins", Description: "Waddle into an icy adventure", Emoji: "🐧"},
			{Name: "Jungle", Slug: "jungle", Description: "Explore the wild leafy canopy", Emoji: "🌴"},
			{Name: "Space", Slug: "space", Description: "Blast off among the stars", Emoji: "🚀"},
			{Name: "Friendship", Slug: "friendship", Description: "A tale of making new friends", Emoji: "🤝"},
			{Name: "Farm", Slug: "farm", Description: "Visit the barnyard animals", Emoji: "🐄"},
			{Name: "Ocean", Slug: "ocean", Description: "Dive into the deep blue sea", Emoji: "🌊"},
		},
	}
}

// LookupStyle finds a style by slug.
func (c *Catalog) LookupStyle(slug string) (Style, bool) {
	for _, s := range c.Styles {
		if s.Slug == slug {
			return s, true
		}
	}
	return Style{}, false
}

// LookupTheme finds a theme by slug.
func (c *Catalog) LookupTheme(slug string) (Theme, bool) {
	for _, t := range c.Themes {
		if t.Slug == slug {
			return t, true
		}
	}
	return Theme{}, false
}

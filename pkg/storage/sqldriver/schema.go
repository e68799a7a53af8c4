package sqldriver

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	storiesTable = "stories"
	beatsTable   = "beats"

	// textSize maps string columns to an unbounded text type.
	textSize = 2147483647
)

var (
	storiesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "style_slug", Type: field.TypeString},
		{Name: "theme_slug", Type: field.TypeString},
		{Name: "current_beat", Type: field.TypeInt, Default: 0},
		{Name: "is_complete", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}

	// StoriesTable holds the schema information for the "stories" table.
	StoriesTable = &schema.Table{
		Name:       storiesTable,
		Columns:    storiesColumns,
		PrimaryKey: []*schema.Column{storiesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "story_created_at", Columns: []*schema.Column{storiesColumns[5]}},
		},
	}

	beatsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "story_id", Type: field.TypeString},
		{Name: "beat_number", Type: field.TypeInt},
		{Name: "segment", Type: field.TypeString, Size: textSize},
		{Name: "question", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "options", Type: field.TypeString, Size: textSize},
		{Name: "chosen_option", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "provider", Type: field.TypeString},
		{Name: "raw_json", Type: field.TypeString, Size: textSize},
		{Name: "created_at", Type: field.TypeTime},
	}

	// BeatsTable holds the schema information for the "beats" table.
	BeatsTable = &schema.Table{
		Name:       beatsTable,
		Columns:    beatsColumns,
		PrimaryKey: []*schema.Column{beatsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "beats_stories_beats",
				Columns:    []*schema.Column{beatsColumns[1]},
				RefColumns: []*schema.Column{storiesColumns[0]},
				RefTable:   StoriesTable,
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "beat_story_id_beat_number", Unique: true, Columns: []*schema.Column{beatsColumns[1], beatsColumns[2]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{StoriesTable, BeatsTable}
)

func columnNames(cols []*schema.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

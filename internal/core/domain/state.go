package domain

// TableStatus describes the table situation at the very bottom of a page.
type TableStatus string

const (
	// TableNone means no table is open at the page break.
	TableNone TableStatus = "no_table"
	// TableOpenWithHeaders means the table continues and the next page is
	// expected to repeat its header row.
	TableOpenWithHeaders TableStatus = "table_open_with_headers"
	// TableOpenHeadless means the table continues without a repeated header
	// row; the next page must reuse the inherited column names.
	TableOpenHeadless TableStatus = "table_open_headless"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableNone, TableOpenWithHeaders, TableOpenHeadless:
		return true
	}
	return false
}

// DefaultSection is the section assigned to line items before any section
// header has been seen in the document.
const DefaultSection = "General"

// PageState is the rolling extraction context carried from one page into the
// next. It is a value: consumers never mutate it in place, they produce a new
// state for the following page.
type PageState struct {
	TableStatus        TableStatus `json:"table_status"`
	ActiveColumns      []string    `json:"active_columns"`
	ActiveSectionTitle string      `json:"active_section_title"`
}

// InitialPageState is the state supplied to the first page of a document.
func InitialPageState() PageState {
	return PageState{
		TableStatus:        TableNone,
		ActiveColumns:      []string{},
		ActiveSectionTitle: DefaultSection,
	}
}

func (s PageState) Equal(other PageState) bool {
	if s.TableStatus != other.TableStatus || s.ActiveSectionTitle != other.ActiveSectionTitle {
		return false
	}
	if len(s.ActiveColumns) != len(other.ActiveColumns) {
		return false
	}
	for i := range s.ActiveColumns {
		if s.ActiveColumns[i] != other.ActiveColumns[i] {
			return false
		}
	}
	return true
}

// Page is one unit of parsed document text as produced by the document
// conversion collaborator.
type Page struct {
	Number int
	Text   string
}

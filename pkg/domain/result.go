package domain

// Member is a header member of a cube axis.
type Member struct {
	Caption   string   `json:"caption,omitempty"`
	Dimension string   `json:"dimension,omitempty"`
	Path      string   `json:"path,omitempty"`
	Children  []Member `json:"children,omitempty"`
}

// HasLeafMetadata reports whether the member identifies a dimension member,
// i.e. it bears a caption, a dimension name or a hierarchical path.
func (m Member) HasLeafMetadata() bool {
	return m.Caption != "" || m.Dimension != "" || m.Path != ""
}

// Info holds the layout metadata of a result.
type Info struct {
	CubeName                string `json:"cubeName,omitempty"`
	LeftHeaderColumnsNumber int    `json:"leftHeaderColumnsNumber"`
	TopHeaderRowsNumber     int    `json:"topHeaderRowsNumber"`
	RowCount                int    `json:"rowCount,omitempty"`
	ColCount                int    `json:"colCount,omitempty"`
}

// Result is the shape returned by a data source fetch.
// Dimensions[0] holds the column axis, Dimensions[1] the row axis.
type Result struct {
	Error      string     `json:"error,omitempty"`
	DataArray  []any      `json:"dataArray"`
	Dimensions [][]Member `json:"dimensions"`
	Info       *Info      `json:"info"`
	RawData    [][]any    `json:"rawData,omitempty"`
}

// LeafMember returns the first member of the row axis.
func (r *Result) LeafMember() (Member, bool) {
	if r == nil || len(r.Dimensions) < 2 || len(r.Dimensions[1]) == 0 {
		return Member{}, false
	}
	return r.Dimensions[1][0], true
}

// IsListing reports whether the result is a flat listing (no left header columns).
// A result without Info is never a listing.
func (r *Result) IsListing() bool {
	return r != nil && r.Info != nil && r.Info.LeftHeaderColumnsNumber == 0
}

// HeaderRows returns the number of raw rows occupied by the top header, at least one.
func (r *Result) HeaderRows() int {
	if r == nil || r.Info == nil || r.Info.TopHeaderRowsNumber < 1 {
		return 1
	}
	return r.Info.TopHeaderRowsNumber
}

// RawRow returns the raw grid row for a one-based data row index.
// Index 1 points to the first row below the header.
func (r *Result) RawRow(row int) ([]any, bool) {
	if r == nil {
		return nil, false
	}
	i := row - 1 + r.HeaderRows()
	if i < 0 || i >= len(r.RawData) {
		return nil, false
	}
	return r.RawData[i], true
}

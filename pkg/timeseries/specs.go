package timeseries

import "time"

// DataSource 数据源定义
type DataSource struct {
	Name      string
	Kind      string // GAUGE, COUNTER ...
	Heartbeat time.Duration
	Min       int64
	Max       int64
}

// Archive is one consolidated archive: Steps primary points folded into one
// row, Rows rows kept.
type Archive struct {
	CF    string
	XFF   float64
	Steps int
	Rows  int
}

// Schema describes a device series.
type Schema struct {
	Step        time.Duration
	DataSources []DataSource
	Archives    []Archive
}

// DataSourceName is the single data source every device series carries.
const DataSourceName = "CallsInProgress"

// DefaultSchema 每分钟一个点：1 天分钟级，1 周小时级，1 年天级
func DefaultSchema() Schema {
	return Schema{
		Step: time.Minute,
		DataSources: []DataSource{
			{Name: DataSourceName, Kind: "GAUGE", Heartbeat: 2 * time.Minute, Min: 0, Max: 5000},
		},
		Archives: []Archive{
			{CF: "AVERAGE", XFF: 0.5, Steps: 1, Rows: 1440},
			{CF: "AVERAGE", XFF: 0.5, Steps: 60, Rows: 168},
			{CF: "AVERAGE", XFF: 0.5, Steps: 1440, Rows: 365},
		},
	}
}

// RangeSpec is one graph time window.
type RangeSpec struct {
	// Name is the short tag used in image file names.
	Name string
	// Start is the engine's start expression, relative to the end of the graph.
	Start string
	// Title is appended to the graph title.
	Title string
}

// Ranges returns the fixed set of ranges rendered for every device, shortest first.
func Ranges() []RangeSpec {
	return []RangeSpec{
		{Name: "1D", Start: "end-12h", Title: "12 Hours"},
		{Name: "1W", Start: "end-1w", Title: "1 Week"},
		{Name: "1M", Start: "end-1m", Title: "1 Month"},
		{Name: "1Y", Start: "end-1y", Title: "1 Year"},
	}
}

// StyleSpec 图形样式
type StyleSpec struct {
	Title         string
	VerticalLabel string
	Width         int
	Height        int
	// TimeLayout formats the "Last update" comment. It must not contain ':'.
	TimeLayout string
}

// DefaultStyle returns the style used for all device graphs.
func DefaultStyle() StyleSpec {
	return StyleSpec{
		Title:         "Calls In Progress",
		VerticalLabel: "Calls",
		Width:         1200,
		Height:        400,
		TimeLayout:    "Mon, 02 Jan 2006 15.04.05 MST",
	}
}

// ImageName returns the file name of a device graph, e.g. "trunk01_1D.png".
func ImageName(device string, r RangeSpec) string {
	return device + "_" + r.Name + ".png"
}

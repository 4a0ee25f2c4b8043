package db

// Schema names the tables and columns the Store reads. The dataset is owned
// elsewhere; nothing here creates or alters it.
type Schema struct {
	ObservationTable string
	StationTable     string

	StationColumn       string // observation -> station foreign key
	DateColumn          string
	PrecipitationColumn string
	TemperatureColumn   string

	StationIDColumn string // primary key on the station table
}

// DefaultSchema matches the hawaii climate dataset layout.
var DefaultSchema = Schema{
	ObservationTable:    "measurement",
	StationTable:        "station",
	StationColumn:       "station",
	DateColumn:          "date",
	PrecipitationColumn: "prcp",
	TemperatureColumn:   "tobs",
	StationIDColumn:     "station",
}

// TemperatureStats holds MIN/AVG/MAX of temperature over a date range.
// Fields are nil when no observation matched.
type TemperatureStats struct {
	Min *float64 `json:"tmin"`
	Avg *float64 `json:"tavg"`
	Max *float64 `json:"tmax"`
}

// dateText reduces the date column to its YYYY-MM-DD prefix, so timestamps
// stored with a time part still compare as plain dates.
func (s Schema) dateText() string {
	return "SUBSTR(CAST(" + s.DateColumn + " AS TEXT), 1, 10)"
}

func (s Schema) temperatureReal() string {
	return "CAST(" + s.TemperatureColumn + " AS DOUBLE PRECISION)"
}

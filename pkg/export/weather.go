package export

import "strconv"

// WeatherDay is one day of forecast.
type WeatherDay struct {
	Date            string `json:"date"`
	Condition       string `json:"condition"`
	TempHighC       int    `json:"temp_high_c"`
	TempLowC        int    `json:"temp_low_c"`
	PrecipitationMM int    `json:"precip_mm"`
}

var mockWeather = []WeatherDay{
	{Date: "Sunday", Condition: "Clear", TempHighC: 11, TempLowC: 0, PrecipitationMM: 0},
	{Date: "Monday", Condition: "Windy", TempHighC: 9, TempLowC: 1, PrecipitationMM: 0},
	{Date: "Tuesday", Condition: "Sunny", TempHighC: 12, TempLowC: 3, PrecipitationMM: 0},
	{Date: "Wednesday", Condition: "Partly Cloudy", TempHighC: 10, TempLowC: 2, PrecipitationMM: 0},
	{Date: "Thursday", Condition: "Cloudy", TempHighC: 9, TempLowC: 1, PrecipitationMM: 0},
	{Date: "Friday", Condition: "Light Rain", TempHighC: 8, TempLowC: 2, PrecipitationMM: 3},
	{Date: "Saturday", Condition: "Rain", TempHighC: 7, TempLowC: 1, PrecipitationMM: 8},
}

// Forecast returns the week's forecast. The start date does not change the
// data, it only names the output file.
func Forecast(_ string) []WeatherDay {
	out := make([]WeatherDay, len(mockWeather))
	copy(out, mockWeather)
	return out
}

// FormatWeather renders forecast days in the order given.
func FormatWeather(days []WeatherDay, f Format) string {
	t := table{
		header:      []string{"Date", "Condition", "High (°C)", "Low (°C)", "Precipitation (mm)"},
		separator:   "|------|-----------|-----------|----------|--------------------|",
		placeholder: []string{"-", "No data available", "-", "-", "-"},
	}
	for _, d := range days {
		t.rows = append(t.rows, []string{
			d.Date,
			d.Condition,
			strconv.Itoa(d.TempHighC),
			strconv.Itoa(d.TempLowC),
			strconv.Itoa(d.PrecipitationMM),
		})
	}
	return t.render(f)
}

// ExportWeather writes the forecast starting at startDate to path. An empty
// path uses DefaultOutputPath. The written path is returned.
func ExportWeather(startDate string, f Format, path string) (string, error) {
	if path == "" {
		path = DefaultOutputPath("weather", startDate, f)
	}
	if err := WriteFile(path, FormatWeather(Forecast(startDate), f)); err != nil {
		return "", err
	}
	return path, nil
}

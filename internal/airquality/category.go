package airquality

// Category is an AQI health category label.
type Category string

const (
	CategoryGood            Category = "Good"
	CategoryModerate        Category = "Moderate"
	CategorySensitiveGroups Category = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy       Category = "Unhealthy"
	CategoryVeryUnhealthy   Category = "Very Unhealthy"
	CategoryHazardous       Category = "Hazardous"
)

// Breakpoint is an inclusive upper concentration bound for a category.
type Breakpoint struct {
	Upper    float64
	Category Category
}

// Breakpoints follow the EPA 24-hour PM2.5 table (µg/m³), ascending.
// Anything above the last bound is Hazardous.
var Breakpoints = []Breakpoint{
	{Upper: 12.0, Category: CategoryGood},
	{Upper: 35.4, Category: CategoryModerate},
	{Upper: 55.4, Category: CategorySensitiveGroups},
	{Upper: 150.4, Category: CategoryUnhealthy},
	{Upper: 250.4, Category: CategoryVeryUnhealthy},
}

// CategoryFor maps a PM2.5 concentration to its AQI category.
func CategoryFor(pm25 float64) Category {
	for _, bp := range Breakpoints {
		if pm25 <= bp.Upper {
			return bp.Category
		}
	}
	return CategoryHazardous
}

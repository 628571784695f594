package traffic

import "strings"

type coordinates struct {
	lat, lon float64
}

// cities maps lower-case city names (Russian and English) to their centres.
var cities = map[string]coordinates{
	"москва":           {55.7558, 37.6173},
	"moscow":           {55.7558, 37.6173},
	"санкт-петербург":  {59.9343, 30.3351},
	"saint petersburg": {59.9343, 30.3351},
	"новосибирск":      {55.0084, 82.9357},
	"novosibirsk":      {55.0084, 82.9357},
	"екатеринбург":     {56.8389, 60.6057},
	"yekaterinburg":    {56.8389, 60.6057},
	"казань":           {55.8304, 49.0661},
	"kazan":            {55.8304, 49.0661},
	"нижний новгород":  {56.3268, 44.0063},
	"nizhny novgorod":  {56.3268, 44.0063},
	"челябинск":        {55.1642, 61.4365},
	"chelyabinsk":      {55.1642, 61.4365},
	"самара":           {53.1952, 50.1055},
	"samara":           {53.1952, 50.1055},
	"омск":             {54.9886, 73.3242},
	"omsk":             {54.9886, 73.3242},
	"ростов-на-дону":   {47.2357, 39.7031},
	"rostov-on-don":    {47.2357, 39.7031},
	"краснодар":        {45.0395, 38.9491},
	"krasnodar":        {45.0395, 38.9491},
	"уфа":              {54.7386, 55.9722},
	"ufa":              {54.7386, 55.9722},
}

func lookupCity(name string) (coordinates, bool) {
	c, ok := cities[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

package wiki

type facts struct {
	YearBuilt string
	Location  string
}

var staticFacts = map[string]facts{
	"Taj Mahal":           {YearBuilt: "1632-1653", Location: "Agra, India"},
	"Eiffel Tower":        {YearBuilt: "1887-1889", Location: "Paris, France"},
	"Colosseum":           {YearBuilt: "70-80 AD", Location: "Rome, Italy"},
	"Great Wall of China": {YearBuilt: "7th century BC - 17th century AD", Location: "China"},
	"Machu Picchu":        {YearBuilt: "1450", Location: "Cusco Region, Peru"},
	"Pyramids of Giza":    {YearBuilt: "2580-2510 BC", Location: "Giza, Egypt"},
	"Statue of Liberty":   {YearBuilt: "1886", Location: "New York, USA"},
	"Big Ben":             {YearBuilt: "1859", Location: "London, UK"},
	"Christ the Redeemer": {YearBuilt: "1922-1931", Location: "Rio de Janeiro, Brazil"},
	"Sydney Opera House":  {YearBuilt: "1959-1973", Location: "Sydney, Australia"},
}

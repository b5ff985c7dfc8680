package landmark

// FallbackNames is the static landmark list served while the matcher runs
// without a model or catalog.
var FallbackNames = []string{
	"Taj Mahal", "Eiffel Tower", "Colosseum", "Great Wall of China",
	"Machu Picchu", "Pyramids of Giza", "Statue of Liberty", "Big Ben",
	"Christ the Redeemer", "Sydney Opera House", "Notre-Dame Cathedral",
	"Sagrada Familia", "Acropolis", "Stonehenge", "Angkor Wat",
}

package config

// DefaultDatabasePath is the default path for the catalogue database
const DefaultDatabasePath = "./db/bookies.db"

// DefaultGenres are seeded when CATALOGUE_GENRES is not set.
var DefaultGenres = []string{
	"Fantasy",
	"Science Fiction",
	"Mystery",
	"Thriller",
	"Romance",
	"Horror",
	"Historical Fiction",
	"Biography",
	"Non-Fiction",
	"Poetry",
}

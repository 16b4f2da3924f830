package config

// BandConfig describes the band for machine-readable summaries.  List
// values are comma-separated in the environment.
type BandConfig struct {
	Name         string
	Description  string
	Genres       []string
	BaseLocation string
	Influences   []string
}

func loadBand() BandConfig {
	return BandConfig{
		Name:         getenv("BAND_NAME", "The Band Project"),
		Description:  getenv("BAND_DESCRIPTION", "The Band Project NJ | Timeless Covers. Original Music. Always a Party."),
		Genres:       envList("BAND_GENRES", "Rock,Jazz,Blues"),
		BaseLocation: getenv("BAND_BASE_LOCATION", "United States"),
		Influences:   envList("BAND_INFLUENCES", "Pink Floyd,The Beatles,Miles Davis,John Coltrane,Led Zeppelin"),
	}
}

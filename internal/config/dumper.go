package config

type DumperConfig struct {
	PageSize int    // rows per page; the recorder serves at most 20 pages per job
	Filename string // the filename to save the raw XML to
	Gzip     bool   // gzip-compress the output file
}

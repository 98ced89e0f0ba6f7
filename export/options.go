package export

// Generator identification written into the exported files
const (
	GeneratedBy = "ms-ocr"
	Version     = "0.1.0"
)

// Options controls the rendering of every format.
type Options struct {
	// Frontmatter adds a YAML header to the Markdown export
	Frontmatter bool

	// PageMarkers adds an HTML comment before each page's content
	PageMarkers bool

	// GeneratedBy and Version identify the producer in metadata
	GeneratedBy string
	Version     string

	// MaxBullets splits longer lists over several slides
	MaxBullets int
}

// DefaultOptions returns the options used by the command-line tool
func DefaultOptions() Options {
	return Options{
		Frontmatter: true,
		PageMarkers: false,
		GeneratedBy: GeneratedBy,
		Version:     Version,
		MaxBullets:  8,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.GeneratedBy == "" {
		o.GeneratedBy = def.GeneratedBy
	}
	if o.Version == "" {
		o.Version = def.Version
	}
	if o.MaxBullets <= 0 {
		o.MaxBullets = def.MaxBullets
	}
	return o
}

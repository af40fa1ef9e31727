package entity

// Kind describes one record collection.
// A single lifecycle handler serves every kind; only this descriptor differs.
type Kind struct {
	// Name is the singular identifier, used in logs and error messages
	Name string

	// Collection is the record store collection
	Collection string

	// PathPrefix is the first segment of every generated blob path
	PathPrefix string

	// Fields are the text fields the kind accepts
	Fields []string

	// Required fields must be present and non-empty on create and update
	Required []string

	// TitleFromFileName defaults the title to the uploaded file name
	TitleFromFileName bool
}

var (
	Banner = Kind{
		Name:       "banner",
		Collection: "banners",
		PathPrefix: "banners",
	}

	GalleryItem = Kind{
		Name:              "gallery",
		Collection:        "gallery",
		PathPrefix:        "gallery",
		Fields:            []string{FieldTitle},
		TitleFromFileName: true,
	}

	Service = Kind{
		Name:       "service",
		Collection: "services",
		PathPrefix: "services",
		Fields:     []string{FieldTitle, FieldLocation},
		Required:   []string{FieldTitle, FieldLocation},
	}
)

// Kinds lists every kind served by the console
func Kinds() []Kind {
	return []Kind{Banner, Service, GalleryItem}
}

package content

var (
	title       = Field{Name: "title", Label: "Title", Required: true}
	description = Field{Name: "description", Label: "Description", Required: true, Multiline: true}

	singleImage = ImageRule{Field: "image", RequiredOnCreate: true, Message: "Image file is required"}
)

var Homepage = Kind{
	Name:   "homepage-details",
	Label:  "Homepage Details",
	Noun:   "homepage detail",
	Fields: []Field{title, description},
	Image:  singleImage,
}

var About = Kind{
	Name:   "about-details",
	Label:  "About Details",
	Noun:   "about detail",
	Fields: []Field{title, description},
	Image:  singleImage,
}

var Gallery = Kind{
	Name:   "gallery-details",
	Label:  "Gallery Details",
	Noun:   "gallery entry",
	Fields: []Field{title, description},
	Image:  ImageRule{Field: "images", Multiple: true, RequiredOnCreate: true, Message: "Select at least one image"},
}

var Ahval = Kind{
	Name:   "ahval-details",
	Label:  "Ahval Details",
	Noun:   "ahval detail",
	Fields: []Field{title, description},
	Image:  singleImage,
}

var Leader = Kind{
	Name:  "leader-details",
	Label: "Leader Details",
	Noun:  "leader details section",
	Fields: []Field{
		{Name: "name", Label: "Name", Required: true},
		description,
		{Name: "phone", Label: "Phone number", Required: true},
		{Name: "email", Label: "Email", Required: true},
	},
	Image: singleImage,
}

// Collections are the id-keyed kinds, in menu order.
var Collections = []Kind{Homepage, About, Gallery, Ahval}

// LeaderRole is a fixed role tag with at most one record.
type LeaderRole struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var LeaderRoles = []LeaderRole{
	{Key: "sarpanch", Label: "Sarpanch Details"},
	{Key: "upsarpanch", Label: "Upsarpanch Details"},
	{Key: "gramsevak", Label: "Gramsevak Details"},
}

func LookupLeaderRole(key string) (LeaderRole, bool) {
	for _, role := range LeaderRoles {
		if role.Key == key {
			return role, true
		}
	}
	return LeaderRole{}, false
}

func LookupCollection(name string) (Kind, bool) {
	for _, kind := range Collections {
		if kind.Name == name {
			return kind, true
		}
	}
	return Kind{}, false
}

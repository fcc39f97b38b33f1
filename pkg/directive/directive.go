package directive

// Kind identifies one viewer operation.
type Kind string

const (
	KindFlyTo  Kind = "flyto"
	KindSearch Kind = "search"
	KindTour   Kind = "tour"
	KindPlanet Kind = "planet"
)

// ViewKind selects the camera model used for a fly-to move.
type ViewKind string

const (
	ViewCamera ViewKind = "camera"
	ViewLookAt ViewKind = "lookat"
)

// Directive is one decoded viewer instruction. A directive is built fresh from
// one inbound message, serialized once, and discarded.
type Directive interface {
	Kind() Kind
}

// Location is a point above the globe. All three fields are required on the wire.
type Location struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// Orientation holds the optional camera angles of a fly-to move.
//
// Roll is only meaningful for camera views and Range only for lookat views;
// the serializer enforces that gating.
type Orientation struct {
	Heading *float64
	Tilt    *float64
	Roll    *float64
	Range   *float64
}

// FlyTo moves the viewer camera to a new position.
type FlyTo struct {
	View         ViewKind
	Location     Location
	Orientation  Orientation
	AltitudeMode string
	ViewerOption string
}

func (FlyTo) Kind() Kind { return KindFlyTo }

// Search runs a viewer search, either free-text or by coordinates with an
// optional placemark label. Query takes precedence when both forms are set.
type Search struct {
	Query     string
	Latitude  *float64
	Longitude *float64
	Label     string
}

func (Search) Kind() Kind { return KindSearch }

// Tour starts the named tour or exits the running one.
type Tour struct {
	Play     bool
	TourName string
}

func (Tour) Kind() Kind { return KindTour }

// Planet switches the viewer to another destination body.
type Planet struct {
	Destination string
}

func (Planet) Kind() Kind { return KindPlanet }

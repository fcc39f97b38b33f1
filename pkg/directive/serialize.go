package directive

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders a directive as one line of the viewer's textual query
// grammar. It is pure and deterministic; a directive that passed Decode always
// serializes without error.
func Serialize(d Directive) (string, error) {
	switch d := d.(type) {
	case FlyTo:
		return serializeFlyTo(d)
	case Search:
		return serializeSearch(d)
	case Tour:
		return serializeTour(d)
	case Planet:
		return serializePlanet(d)
	default:
		return "", fmt.Errorf("unsupported directive type %T", d)
	}
}

// serializeFlyTo emits the flytoview grammar. Tag order is fixed: location
// block, heading, tilt, roll or range, gx:altitudeMode, gx:viewerOption,
// closing tag. Roll is emitted only for camera views and range only for
// lookat views.
func serializeFlyTo(d FlyTo) (string, error) {
	var openTag, closeTag string
	switch d.View {
	case ViewCamera:
		openTag, closeTag = "<Camera>", "</Camera>"
	case ViewLookAt:
		openTag, closeTag = "<LookAt>", "</LookAt>"
	default:
		return "", fmt.Errorf("flyto has unknown view kind %q", d.View)
	}

	var query strings.Builder
	query.WriteString("flytoview=")
	query.WriteString(openTag)

	writeTag(&query, "latitude", formatFloat(d.Location.Latitude))
	writeTag(&query, "longitude", formatFloat(d.Location.Longitude))
	writeTag(&query, "altitude", formatFloat(d.Location.Altitude))

	if d.Orientation.Heading != nil {
		writeTag(&query, "heading", formatFloat(*d.Orientation.Heading))
	}
	if d.Orientation.Tilt != nil {
		writeTag(&query, "tilt", formatFloat(*d.Orientation.Tilt))
	}
	if d.View == ViewCamera && d.Orientation.Roll != nil {
		writeTag(&query, "roll", formatFloat(*d.Orientation.Roll))
	}
	if d.View == ViewLookAt && d.Orientation.Range != nil {
		writeTag(&query, "range", formatFloat(*d.Orientation.Range))
	}

	if d.AltitudeMode != "" {
		writeTag(&query, "gx:altitudeMode", d.AltitudeMode)
	}
	if d.ViewerOption != "" {
		writeTag(&query, "gx:viewerOption", d.ViewerOption)
	}

	query.WriteString(closeTag)

	return query.String(), nil
}

func serializeSearch(d Search) (string, error) {
	if d.Query != "" {
		return "search=" + d.Query, nil
	}

	if d.Latitude == nil || d.Longitude == nil {
		return "", fmt.Errorf("search has no query and no coordinates")
	}

	var query strings.Builder
	query.WriteString("search=")
	query.WriteString(formatFloat(*d.Latitude))
	query.WriteString(",")
	query.WriteString(formatFloat(*d.Longitude))

	if d.Label != "" {
		query.WriteString("(")
		query.WriteString(d.Label)
		query.WriteString(")")
	}

	return query.String(), nil
}

func serializeTour(d Tour) (string, error) {
	if !d.Play {
		return "exittour=true", nil
	}

	if d.TourName == "" {
		return "", fmt.Errorf("tour has no tour name")
	}

	return "playtour=" + d.TourName, nil
}

func serializePlanet(d Planet) (string, error) {
	if d.Destination == "" {
		return "", fmt.Errorf("planet has no destination")
	}

	return "planet=" + d.Destination, nil
}

func writeTag(query *strings.Builder, name string, value string) {
	query.WriteString("<")
	query.WriteString(name)
	query.WriteString(">")
	query.WriteString(value)
	query.WriteString("</")
	query.WriteString(name)
	query.WriteString(">")
}

// formatFloat renders values in a stable, locale-independent decimal form.
func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

package directive

import (
	"encoding/json"
	"fmt"
	"strings"
)

// envelope is the wire shape of one inbound directive message. The
// discriminator and the nested data block are always present; altitudeMode and
// viewerOption are fly-to extras that live next to the data block, not inside
// it. Field names are an external contract with the upstream transport.
type envelope struct {
	Type         string          `json:"type"`
	Data         json.RawMessage `json:"data"`
	AltitudeMode string          `json:"altitudeMode,omitempty"`
	ViewerOption string          `json:"viewerOption,omitempty"`
}

type flyToData struct {
	Type      string   `json:"type"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	Heading   *float64 `json:"heading"`
	Tilt      *float64 `json:"tilt"`
	Roll      *float64 `json:"roll"`
	Range     *float64 `json:"range"`
}

type searchData struct {
	Query     string   `json:"query"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Label     string   `json:"label"`
}

type tourData struct {
	Play     *bool  `json:"play"`
	TourName string `json:"tourName"`
}

type planetData struct {
	Destination string `json:"destination"`
}

// Decode parses one inbound message payload into a Directive.
//
// Any failure is a categorized DecodeError; the message is dropped by the
// caller and never reaches the serializer.
func Decode(payload []byte) (Directive, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, NewDecodeError(ErrorBadEnvelope, fmt.Sprintf("parse message: %v", err))
	}

	if len(env.Data) == 0 {
		return nil, NewDecodeError(ErrorMissingField, "message has no data block")
	}

	switch Kind(env.Type) {
	case KindFlyTo:
		return decodeFlyTo(env)
	case KindSearch:
		return decodeSearch(env.Data)
	case KindTour:
		return decodeTour(env.Data)
	case KindPlanet:
		return decodePlanet(env.Data)
	default:
		return nil, NewDecodeError(ErrorUnknownOperation, fmt.Sprintf("unknown operation %q", env.Type))
	}
}

func decodeFlyTo(env envelope) (Directive, error) {
	var data flyToData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, NewDecodeError(ErrorBadEnvelope, fmt.Sprintf("parse flyto data: %v", err))
	}

	view := ViewKind(data.Type)
	if view != ViewCamera && view != ViewLookAt {
		return nil, NewDecodeError(ErrorInvalidField, fmt.Sprintf("flyto had unknown type %q", data.Type))
	}

	if data.Latitude == nil || data.Longitude == nil || data.Altitude == nil {
		return nil, NewDecodeError(ErrorMissingField, "flyto requires latitude, longitude and altitude")
	}

	return FlyTo{
		View: view,
		Location: Location{
			Latitude:  *data.Latitude,
			Longitude: *data.Longitude,
			Altitude:  *data.Altitude,
		},
		Orientation: Orientation{
			Heading: data.Heading,
			Tilt:    data.Tilt,
			Roll:    data.Roll,
			Range:   data.Range,
		},
		AltitudeMode: strings.TrimSpace(env.AltitudeMode),
		ViewerOption: strings.TrimSpace(env.ViewerOption),
	}, nil
}

func decodeSearch(raw json.RawMessage) (Directive, error) {
	var data searchData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, NewDecodeError(ErrorBadEnvelope, fmt.Sprintf("parse search data: %v", err))
	}

	query := strings.TrimSpace(data.Query)
	if query != "" {
		return Search{Query: query}, nil
	}

	if data.Latitude == nil || data.Longitude == nil {
		return nil, NewDecodeError(ErrorMissingField, "search has no query and is missing latitude or longitude")
	}

	return Search{
		Latitude:  data.Latitude,
		Longitude: data.Longitude,
		Label:     strings.TrimSpace(data.Label),
	}, nil
}

func decodeTour(raw json.RawMessage) (Directive, error) {
	var data tourData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, NewDecodeError(ErrorBadEnvelope, fmt.Sprintf("parse tour data: %v", err))
	}

	if data.Play == nil {
		return nil, NewDecodeError(ErrorMissingField, "tour requires play")
	}

	if !*data.Play {
		return Tour{Play: false}, nil
	}

	tourName := strings.TrimSpace(data.TourName)
	if tourName == "" {
		return nil, NewDecodeError(ErrorMissingField, "tour has no tour name")
	}

	return Tour{Play: true, TourName: tourName}, nil
}

func decodePlanet(raw json.RawMessage) (Directive, error) {
	var data planetData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, NewDecodeError(ErrorBadEnvelope, fmt.Sprintf("parse planet data: %v", err))
	}

	destination := strings.TrimSpace(data.Destination)
	if destination == "" {
		return nil, NewDecodeError(ErrorMissingField, "planet has no destination")
	}

	return Planet{Destination: destination}, nil
}

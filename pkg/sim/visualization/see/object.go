package see

// Pos is a position in mm.
type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an area from its corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Object is a shape drawn by see, unset fields are omitted.
type Object struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	Origin *Pos    `json:"origin,omitempty"`
	Rect   *Rect   `json:"rect,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	// Rotate is the heading in degrees.
	Rotate float64 `json:"rotate,omitempty"`
	Points []Pos   `json:"points,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Style  string  `json:"style,omitempty"`
}

// Message is the message for see.
type Message struct {
	Action   string  `json:"action"`
	Object   *Object `json:"object,omitempty"`
	RemoveID string  `json:"id,omitempty"`
}

// Actions
const (
	ActionReset  = "reset"
	ActionObject = "object"
	ActionRemove = "remove"
)

func objectMessage(obj *Object) Message {
	return Message{Action: ActionObject, Object: obj}
}

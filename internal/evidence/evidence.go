// SPDX-License-Identifier: Apache-2.0

package evidence

// VisualLabel is one object-classification result from the upstream
// classifier: a label token plus the detector's confidence.
type VisualLabel struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Region     *Region `json:"region,omitempty"`
}

// Region is an optional bounding region attached to a visual label.
// The fusion engine carries it through but never inspects it.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageMeta identifies the image a bundle was produced from.
type ImageMeta struct {
	Key    string `json:"key"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Bundle is the combined evidence for one image: the classifier's visual
// labels and the text extractor's raw OCR output. A Bundle is immutable for
// the duration of a fusion pass and holds no state across requests.
type Bundle struct {
	Labels []VisualLabel
	Text   string
	Image  ImageMeta
}

// IdentifierKind names the recognized classes of structured identifiers.
type IdentifierKind string

const (
	KindFleet        IdentifierKind = "fleet"
	KindLicensePlate IdentifierKind = "license_plate"
	KindContainerID  IdentifierKind = "container_id"
	KindTailID       IdentifierKind = "tail_id"
	KindOtherID      IdentifierKind = "other_id"
)

// Identifier is a recognized textual token normalized to its kind's
// canonical form. Jurisdiction is only meaningful for license plates and is
// "unknown" when no hint was found near the plate.
type Identifier struct {
	Kind         IdentifierKind
	Value        string
	Jurisdiction string
}

// String renders the identifier in wire form: kind:value, or
// kind:jurisdiction:value for kinds that carry a jurisdiction.
func (id Identifier) String() string {
	if id.Jurisdiction != "" {
		return string(id.Kind) + ":" + id.Jurisdiction + ":" + id.Value
	}
	return string(id.Kind) + ":" + id.Value
}

// OperatorMatch is one operator candidate produced by the detector. Weight
// reflects match specificity (exact brand keyword > generic token). Order is
// the operator's registration index in the detector table and is the
// deterministic tie-break when weights are equal.
type OperatorMatch struct {
	Operator string
	Trigger  string
	Source   string // "text" or "label"
	Weight   float64
	Order    int
}

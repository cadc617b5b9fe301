package whatsapp

// Structural limits enforced by the Cloud API. Hard limits are the
// protocol's maximums; soft limits are readability targets that only
// produce a warning when exceeded.
const (
	TruncationMarker = "..."

	BodyHardLimit = 4096
	BodySoftLimit = 300

	HeaderLimit = 60
	FooterLimit = 60

	MaxButtons       = 3
	ButtonTitleLimit = 20

	ListButtonLimit     = 20
	MaxSections         = 10
	MaxRows             = 10
	SectionTitleLimit   = 24
	RowTitleLimit       = 24
	RowDescriptionLimit = 72

	CaptionLimit = 1024
)

package metrics

const (
	LabelResource = "resource"
)

const (
	ResourceUndefined     = "undefined"
	ResourceFinalizedRoot = "finalized_root"
)

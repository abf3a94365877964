package types

const (
	// DefaultTreeDepth is the depth of the note commitment tree used by the
	// shielded pool program.
	DefaultTreeDepth = 20
	// MaxTreeDepth bounds the depth accepted when importing tree snapshots.
	MaxTreeDepth = 32
	// TransferInputs is the number of notes consumed by a transfer.
	TransferInputs = 2
	// TransferOutputs is the number of notes created by a transfer.
	TransferOutputs = 2
)

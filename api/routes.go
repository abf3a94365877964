package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"

	// WalletEndpoint returns the public wallet information
	WalletEndpoint = "/wallet"
	// BalanceEndpoint returns the spendable balance, optionally filtered by
	// the token query parameter
	BalanceEndpoint = "/wallet/balance"
	// NotesEndpoint lists the spendable notes
	NotesEndpoint = "/wallet/notes"
	// ShieldEndpoint creates a deposit note
	ShieldEndpoint = "/wallet/shield"
	// ConfirmDepositEndpoint records the tree position of a deposit
	ConfirmDepositEndpoint = "/wallet/deposits/confirm"
	// ImportNoteEndpoint adopts a note received as a note string
	ImportNoteEndpoint = "/wallet/notes/import"
	// ScanNotesEndpoint scans encrypted notes for the wallet
	ScanNotesEndpoint = "/wallet/notes/scan"
	// TransferEndpoint proves and relays a private transfer
	TransferEndpoint = "/wallet/transfer"
	// TreeEndpoint exports the commitment tree mirror
	TreeEndpoint = "/tree"

	// RelayersEndpoint lists and registers relayers
	RelayersEndpoint = "/relayers"
	// RelayersStatusEndpoint returns the aggregated network status
	RelayersStatusEndpoint = "/relayers/status"
	// RelayersBestEndpoint returns the best relayer for the query filters
	RelayersBestEndpoint = "/relayers/best"
	// RelayerURLParam is the relayer id parameter name
	RelayerURLParam = "relayerId"
	// RelayerEndpoint returns or removes one relayer
	RelayerEndpoint = "/relayers/{" + RelayerURLParam + "}"

	// TokenQueryParam filters by token mint (decimal field element, or a
	// 0x prefixed 32 byte mint address)
	TokenQueryParam = "token"
	// AmountQueryParam filters relayers by accepted amount
	AmountQueryParam = "amount"
	// MaxFeeQueryParam filters relayers by maximum fee in basis points
	MaxFeeQueryParam = "maxFeeBps"
	// RegionQueryParam sets the preferred region of the selection
	RegionQueryParam = "region"
)

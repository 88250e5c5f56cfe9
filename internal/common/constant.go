package common

// Metadata keys persisted in the local metadata table.
const (
	MetaLastSync = "last_sync"
	MetaDeviceID = "device_id"

	MetaTokenSalt   = "token_salt"
	MetaTokenNonce  = "token_nonce"
	MetaTokenCipher = "token_cipher"
)

// DatasetVersion is written into Metadata.Version of every dataset produced
// by this client.
const DatasetVersion = "1"

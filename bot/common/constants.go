package common

// Embed colors
const (
	ColorSuccess = 0x2ECC71
	ColorError   = 0xE74C3C
	ColorInfo    = 0x3498DB
	ColorWarning = 0xF39C12
)

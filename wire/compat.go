package wire

import (
	"os"
)

// Config controls optional strictness behaviors. Defaults preserve the
// reference semantics: lenient bools, promotion on.
type Config struct {
	// StrictBool: when true, decoding a bool rejects BITS8 payloads other
	// than 0x00 and 0x01. When false (default), any non-zero byte reads
	// as true, as the reference implementation behaves.
	StrictBool bool

	// DisablePromotion: when true, a primitive wire type observed where a
	// tuple, message or union is expected fails with ErrUnexpectedWireType
	// instead of promoting into the first subtype. Default false keeps the
	// schema-evolution promotion rule on.
	DisablePromotion bool
}

var config = Config{}

// SetConfig replaces the wire configuration. Streams in flight keep whatever
// behavior they observe next; configure before decoding starts.
func SetConfig(c Config) { config = c }

// GetConfig returns the current wire configuration.
func GetConfig() Config { return config }

func init() {
	// Optional env toggles for test harnesses; defaults remain unchanged
	// if unset.
	if v := os.Getenv("EXTPROT_STRICT_BOOL"); v == "1" || v == "true" {
		config.StrictBool = true
	}
	if v := os.Getenv("EXTPROT_DISABLE_PROMOTION"); v == "1" || v == "true" {
		config.DisablePromotion = true
	}
}

package xrpl

import "fmt"

// maxCTIDLedgerIndex is the largest ledger index a CTID can encode (28 bits).
const maxCTIDLedgerIndex = 0x0FFFFFFF

// EncodeCTID builds the XLS-37 compact transaction identifier from a ledger
// index, the transaction's position within that ledger, and the network id.
// The layout is a 64-bit value: 0xC nibble, 28-bit ledger index, 16-bit
// transaction index, 16-bit network id, rendered as 16 uppercase hex chars.
func EncodeCTID(ledgerIndex uint32, txIndex uint16, networkID uint16) (string, error) {
	if ledgerIndex > maxCTIDLedgerIndex {
		return "", fmt.Errorf("ledger index %d exceeds CTID range", ledgerIndex)
	}

	value := uint64(0xC)<<60 |
		uint64(ledgerIndex)<<32 |
		uint64(txIndex)<<16 |
		uint64(networkID)

	return fmt.Sprintf("%016X", value), nil
}

package simulate

import (
	"crypto/sha256"
	"encoding/hex"

	"ammCore/internal/model"
)

// ScriptLine is a decoded request with its position in the script file.
type ScriptLine struct {
	Request  model.Request
	FileLine int
	raw      []byte
}

// stampRecord ties a journal record to its run and script position.
func stampRecord(record model.OperationRecord, runID string, seq uint64) model.OperationRecord {
	record.RunID = runID
	record.Seq = seq
	return record
}

// prefixDigest hashes the first n requests as written. Comments and blank lines do not count.
func prefixDigest(lines []ScriptLine, n uint64) string {
	h := sha256.New()
	for _, line := range lines[:n] {
		h.Write(line.raw)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

package simulate

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"

	"ammCore/internal/address"
)

// ReadScript loads a JSONL script of requests. Blank lines and lines starting with '#' are skipped
// and do not count as script positions.
func ReadScript(path string) ([]ScriptLine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var lines []ScriptLine
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var sl ScriptLine
		if err := json.Unmarshal(line, &sl.Request); err != nil {
			return nil, fmt.Errorf("decode script line %d: %w", lineNo, err)
		}
		sl.FileLine = lineNo
		sl.raw = append([]byte(nil), line...)
		lines = append(lines, sl)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan script: %w", err)
	}
	return lines, nil
}

// keyResolver resolves script references to keys, remembering labels already seen.
type keyResolver struct {
	cache map[string]solana.PublicKey
}

func newKeyResolver() *keyResolver {
	return &keyResolver{cache: make(map[string]solana.PublicKey)}
}

func (r *keyResolver) key(field, ref string) (solana.PublicKey, error) {
	if pk, ok := r.cache[ref]; ok {
		return pk, nil
	}
	pk, err := address.Resolve(ref)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s: %w", field, err)
	}
	r.cache[ref] = pk
	return pk, nil
}

package trace

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// VerifyResult is the outcome of verifying a trace file.
type VerifyResult struct {
	EventCount int
	Valid      bool
	BrokenAt   int // 1-based event number, -1 if the chain is intact
	ChainHash  string
	Error      string
}

// VerifyFile verifies the hash chain of a trace file.
func VerifyFile(path string) (*VerifyResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()
	return Verify(f)
}

// Verify checks that every event's prev_hash matches the SHA-256 of the line
// before it.
func Verify(r io.Reader) (*VerifyResult, error) {
	// Lines hold captured step output and have no length bound.
	br := bufio.NewReader(r)

	expectedPrevHash := genesisHash
	count := 0

	for {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("read trace: %w", readErr)
		}
		line = bytes.TrimSuffix(line, []byte("\n"))

		if len(line) > 0 {
			count++

			var evt Event
			if err := json.Unmarshal(line, &evt); err != nil {
				return broken(count, fmt.Sprintf("event %d: invalid JSON: %v", count, err)), nil
			}
			if evt.PrevHash != expectedPrevHash {
				return broken(count, fmt.Sprintf("event %d: prev_hash mismatch (expected %s, got %s)",
					count, short(expectedPrevHash), short(evt.PrevHash))), nil
			}

			h := sha256.Sum256(line)
			expectedPrevHash = hex.EncodeToString(h[:])
		}

		if readErr == io.EOF {
			break
		}
	}

	return &VerifyResult{
		EventCount: count,
		Valid:      true,
		BrokenAt:   -1,
		ChainHash:  expectedPrevHash,
	}, nil
}

func broken(at int, msg string) *VerifyResult {
	return &VerifyResult{EventCount: at, Valid: false, BrokenAt: at, Error: msg}
}

func short(h string) string {
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}

package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/harrisonrobin/organizer/pkg/store"
)

// Merge combines a remote document with the local one. The remote copy wins
// for every top-level key it carries; keys it lacks, holds as null or holds
// with the wrong shape are filled from local. An unparseable remote document
// is an error and the caller should keep local.
func Merge(local *store.AppState, remote []byte) (*store.AppState, error) {
	var remoteDoc map[string]json.RawMessage
	if err := json.Unmarshal(remote, &remoteDoc); err != nil {
		return nil, fmt.Errorf("failed to parse remote state: %w", err)
	}
	if remoteDoc == nil {
		return nil, fmt.Errorf("remote state is not an object")
	}

	localRaw, err := json.Marshal(local)
	if err != nil {
		return nil, fmt.Errorf("failed to encode local state: %w", err)
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(localRaw, &merged); err != nil {
		return nil, err
	}

	for key, value := range remoteDoc {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			continue
		}
		if !fitsKey(key, value) {
			log.Printf("Warning: ignoring remote %q with unexpected shape", key)
			continue
		}
		merged[key] = value
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	var st store.AppState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to decode merged state: %w", err)
	}
	st.Normalize()
	return &st, nil
}

// fitsKey reports whether value decodes into the AppState field named key.
// Keys the document does not know are carried through untouched.
func fitsKey(key string, value json.RawMessage) bool {
	doc, err := json.Marshal(map[string]json.RawMessage{key: value})
	if err != nil {
		return false
	}
	var st store.AppState
	return json.Unmarshal(doc, &st) == nil
}

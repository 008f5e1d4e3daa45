package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/souq-backend/pkg/types"
)

// NormalizeAttributes trims names and values and drops empty names.
func NormalizeAttributes(attrs types.Attributes) types.Attributes {
	out := make(types.Attributes, len(attrs))
	for name, value := range attrs {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}

// LineKey is the canonical identity of a cart line. Two additions with the
// same product, size, attributes, notes and offer merge into one line.
func LineKey(productID uuid.UUID, size int, attrs types.Attributes, notes string, offerID *uuid.UUID) string {
	// json.Marshal writes map keys sorted, which makes the encoding canonical.
	encodedAttrs, _ := json.Marshal(NormalizeAttributes(attrs))

	offer := ""
	if offerID != nil {
		offer = offerID.String()
	}

	var b strings.Builder
	b.WriteString(productID.String())
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(size))
	b.WriteByte('|')
	b.Write(encodedAttrs)
	b.WriteByte('|')
	b.WriteString(strings.TrimSpace(notes))
	b.WriteByte('|')
	b.WriteString(offer)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

package redis

import "strings"

const namespace = "souq"

// Key joins parts under the souq namespace, skipping blanks.
func Key(parts ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// IdempotencyKey namespaces a claim under scope, e.g. souq:idem:payment-success:<paymentId>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return Key("idem", scope, id)
}

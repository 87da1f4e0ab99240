package conversation

import "github.com/hugin/hugin/internal/schema"

// EstimateTokens approximates the token count of m as characters divided
// by charsPerToken, rounded up.
func EstimateTokens(m schema.Message, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	chars := 0
	for _, p := range m.Parts {
		switch p.Type {
		case schema.PartText:
			chars += len(p.Text)
		case schema.PartToolCall:
			if p.Call != nil {
				chars += len(p.Call.Name) + len(p.Call.ArgumentsJSON())
			}
		case schema.PartToolResult:
			if p.Result != nil {
				chars += len(p.Result.Content)
			}
		}
	}
	return (chars + charsPerToken - 1) / charsPerToken
}

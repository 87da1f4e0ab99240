package toolcall

// FindObject returns the first balanced JSON object span in text.
// Braces inside string literals are ignored. ok is false when no opening
// brace is closed.
func FindObject(text string) (span string, ok bool) {
	spans := FindObjects(text)
	if len(spans) == 0 {
		return "", false
	}
	return spans[0], true
}

// FindObjects returns every top-level balanced object span in text, in
// order. An unclosed brace is skipped and scanning resumes after it.
func FindObjects(text string) []string {
	var spans []string
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		if end := matchBrace(text, start); end > start {
			spans = append(spans, text[start:end+1])
			start = end
		}
	}
	return spans
}

// matchBrace returns the index of the brace closing text[open], or -1.
func matchBrace(text string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

package chat

import (
	"bytes"
	"os"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

const chromaStyleName = "monokai"

// HighlightCodeBlocks renders fenced code blocks in a message body with
// terminal colors. Bodies without fences pass through unchanged.
func HighlightCodeBlocks(body string) string {
	if body == "" || os.Getenv("NO_COLOR") != "" {
		return body
	}
	if !strings.Contains(body, "```") {
		return body
	}

	lines := strings.Split(body, "\n")
	var out strings.Builder

	inBlock := false
	lang := ""
	var code []string

	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				out.WriteString(highlightCode(strings.Join(code, "\n"), lang))
				out.WriteByte('\n')
				out.WriteString(line)
				inBlock = false
				code = nil
			} else {
				out.WriteString(line)
				lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
				inBlock = true
			}
			if i < len(lines)-1 {
				out.WriteByte('\n')
			}
			continue
		}
		if inBlock {
			code = append(code, line)
			continue
		}
		out.WriteString(line)
		if i < len(lines)-1 {
			out.WriteByte('\n')
		}
	}

	// Unterminated fence: emit the collected lines untouched.
	if inBlock {
		out.WriteString(strings.Join(code, "\n"))
	}

	return out.String()
}

func highlightCode(code, lang string) string {
	if code == "" {
		return ""
	}

	lexer := resolveLexer(code, lang)
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	style := styles.Get(chromaStyleName)
	if style == nil {
		style = styles.Fallback
	}

	var buf bytes.Buffer
	if err := formatters.TTY256.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func resolveLexer(code, lang string) chroma.Lexer {
	lang = strings.ToLower(strings.TrimSpace(lang))
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

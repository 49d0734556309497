package parser

import "github.com/sirupsen/logrus"

// Options configure the engine. The zero value parses with scripting off
// and reports coarse error messages.
type Options struct {
	// Scripting selects the scripting-enabled parsing rules for noscript.
	Scripting bool
	// ExactErrors makes tree construction errors name the token and the
	// insertion mode.
	ExactErrors bool
	// Logger receives debug tracing. Nil means logrus.StandardLogger().
	Logger logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

// debugEnabled reports whether log would emit debug entries, so hot paths
// can skip formatting.
func debugEnabled(log logrus.FieldLogger) bool {
	switch l := log.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return false
}

// Progress is what the tree constructor tells the tokenizer after each token.
type Progress struct {
	// ForeignContent is set when the adjusted current node is not an HTML
	// element, which enables CDATA sections.
	ForeignContent bool
	// TokenizerState, when set, switches the tokenizer before the next rune.
	TokenizerState *tokenizerState
}

// Parser is a streaming HTML parser driving sink. Input is pushed with Feed
// and finished with End.
type Parser[H any] struct {
	Tokenizer       *HTMLTokenizer
	TreeConstructor *HTMLTreeConstructor[H]
}

// NewParser creates a parser that builds into sink. The sink's document
// handle is acquired immediately.
func NewParser[H any](sink TreeSink[H], opts Options) *Parser[H] {
	treeConstructor := NewHTMLTreeConstructor(sink, opts)
	tokenizer := NewHTMLTokenizer(treeConstructor.ProcessToken, sink.ParseError, opts.logger())
	return &Parser[H]{
		Tokenizer:       tokenizer,
		TreeConstructor: treeConstructor,
	}
}

// Feed tokenizes s and runs tree construction for every complete token.
// Calls after End are ignored.
func (p *Parser[H]) Feed(s string) {
	p.Tokenizer.Feed(s)
}

// End finishes the input and releases every handle the parser holds.
func (p *Parser[H]) End() {
	p.Tokenizer.End()
	p.Close()
}

// Close releases the parser's handles without finishing the input. It is
// safe to call more than once.
func (p *Parser[H]) Close() {
	p.TreeConstructor.Close()
}

// QuirksMode returns the document mode decided so far.
func (p *Parser[H]) QuirksMode() QuirksMode {
	return p.TreeConstructor.QuirksMode()
}

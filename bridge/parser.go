package bridge

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heathj/html5bridge/parser"
)

type parserState uint8

const (
	stateReady parserState = iota
	stateFeeding
	stateEnded
	stateDestroyed
)

func (s parserState) String() string {
	switch s {
	case stateReady:
		return "ready"
	case stateFeeding:
		return "feeding"
	case stateEnded:
		return "ended"
	}
	return "destroyed"
}

type config struct {
	log         logrus.FieldLogger
	scripting   bool
	exactErrors bool
	encoding    string
}

// Option configures NewParser.
type Option func(*config)

// WithLogger sets the logger of the parser and its engine.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) { c.log = log }
}

// WithScripting selects the scripting-enabled rules for noscript.
func WithScripting(on bool) Option {
	return func(c *config) { c.scripting = on }
}

// WithExactErrors makes parse errors name the offending token.
func WithExactErrors(on bool) Option {
	return func(c *config) { c.exactErrors = on }
}

// WithEncoding decodes fed bytes with the named charset instead of UTF-8.
// Labels are resolved as in the WHATWG Encoding standard.
func WithEncoding(label string) Option {
	return func(c *config) { c.encoding = label }
}

var parserSeq uint64

// Parser is a streaming HTML parser that builds into a host tree through a
// CallbackTable. A Parser is not safe for concurrent use.
type Parser struct {
	engine   *parser.Parser[*NodeHandle]
	sink     *sink
	document *NodeHandle
	decoder  *streamDecoder
	state    parserState
	poisoned bool
	log      logrus.FieldLogger
}

// NewParser creates a parser building under root. On success the parser
// owns the root reference and releases it in Destroy.
func NewParser(table *CallbackTable, ud UserData, root NodeRef, opts ...Option) (p *Parser, err error) {
	cfg := config{log: defaultLogger()}
	for _, o := range opts {
		o(&cfg)
	}
	log := cfg.log.WithField("parser", atomic.AddUint64(&parserSeq, 1))
	defer recoverAt("new_parser", log, &err, nil)

	switch {
	case table == nil:
		return nil, errors.Wrap(ErrInvalidArgument, "nil callback table")
	case root == 0:
		return nil, errors.Wrap(ErrInvalidArgument, "null root node")
	}
	decoder, err := newStreamDecoder(cfg.encoding)
	if err != nil {
		return nil, err
	}

	document := wrap(table, ud, root)
	s := &sink{table: table, ud: ud, root: document, log: log}
	engine := parser.NewParser[*NodeHandle](s, parser.Options{
		Scripting:   cfg.scripting,
		ExactErrors: cfg.exactErrors,
		Logger:      log,
	})
	return &Parser{
		engine:   engine,
		sink:     s,
		document: document,
		decoder:  decoder,
		log:      log,
	}, nil
}

func (p *Parser) usable() error {
	switch {
	case p.state == stateDestroyed:
		return ErrParserDestroyed
	case p.poisoned:
		return ErrParserPoisoned
	case p.state == stateEnded:
		return ErrParserEnded
	}
	return nil
}

func (p *Parser) poison() {
	p.poisoned = true
}

// Feed parses the next chunk of input. Callbacks run before Feed returns.
func (p *Parser) Feed(chunk []byte) (err error) {
	if err := p.usable(); err != nil {
		return err
	}
	defer recoverAt("feed", p.log, &err, p.poison)

	p.state = stateFeeding
	if s := p.decoder.decode(chunk, false); s != "" {
		p.engine.Feed(s)
	}
	return nil
}

// End finishes the input. The tree is complete when End returns and the
// engine holds no more handles.
func (p *Parser) End() (err error) {
	if err := p.usable(); err != nil {
		return err
	}
	defer recoverAt("end", p.log, &err, p.poison)

	if s := p.decoder.decode(nil, true); s != "" {
		p.engine.Feed(s)
	}
	p.engine.End()
	p.state = stateEnded
	p.log.Debugf("parser ended in %s mode", p.sink.quirks)
	return nil
}

// Destroy releases everything the parser holds, including the root
// reference. It may be called in any state; a second call returns
// ErrParserDestroyed.
func (p *Parser) Destroy() (err error) {
	if p.state == stateDestroyed {
		return ErrParserDestroyed
	}
	p.state = stateDestroyed
	defer recoverAt("destroy", p.log, &err, p.poison)

	engine, document := p.engine, p.document
	p.engine, p.document = nil, nil
	if document != nil {
		defer document.Release()
	}
	if engine != nil {
		engine.Close()
	}
	return nil
}

// QuirksMode returns the document mode decided so far.
func (p *Parser) QuirksMode() parser.QuirksMode {
	return p.sink.quirks
}

package herring

// Lexer is the scanner state shared between dispatch calls: the span of
// the token being matched, the source, and user-defined extras threaded
// through callbacks. A Lexer is owned by whoever iterates it; there is no
// internal synchronization.
type Lexer[E any] struct {
	// Start is the offset where the current token begins.
	Start int
	// Offset is the scan position; it advances through dispatch and is
	// the end of the current token once a match commits.
	Offset int
	// Source is the input being scanned.
	Source Source
	// Extras is user state available to callbacks.
	Extras E
	// Ignore, when set, runs before every byte fetch and may advance
	// Offset (for example to swallow an escaped newline).
	Ignore func(*Lexer[E])
}

// NewLexer returns a lexer over source with zero-valued extras.
func NewLexer[E any](source Source) *Lexer[E] {
	return &Lexer[E]{Source: source}
}

// NewLexerWithExtras returns a lexer over source with the given extras.
func NewLexerWithExtras[E any](source Source, extras E) *Lexer[E] {
	return &Lexer[E]{Source: source, Extras: extras}
}

// NextByte runs the ignore hook, fetches the byte at Offset and advances
// Offset unconditionally. On end of input the dispatch rewinds the extra
// step itself; keeping the increment unconditional keeps the hot path
// branch-free.
func (l *Lexer[E]) NextByte() (byte, bool) {
	if l.Ignore != nil {
		l.Ignore(l)
	}
	offset := l.Offset
	l.Offset++
	return l.Source.GetByte(offset)
}

// Bump advances Offset by n bytes. Callbacks use it to consume input
// beyond the matched pattern.
func (l *Lexer[E]) Bump(n int) {
	l.Offset += n
}

// Remainder returns the unscanned rest of the source.
func (l *Lexer[E]) Remainder() []byte {
	return l.Source.Remainder(l.Offset)
}

// Slice returns the bytes of the current token.
func (l *Lexer[E]) Slice() []byte {
	return l.Source.Slice(l.Start, l.Offset)
}

// Span returns the byte range of the current token.
func (l *Lexer[E]) Span() Span {
	return Span{Start: l.Start, End: l.Offset}
}

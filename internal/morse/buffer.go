package morse

import "strings"

const (
	Dot       = '.'
	Dash      = '-'
	Separator = ' '
)

// Buffer accumulates dot/dash/separator tokens for the active question.
// It performs no validation; any token sequence is a candidate answer.
// Buffer is not safe for concurrent use.
type Buffer struct {
	b strings.Builder
}

func (b *Buffer) AppendDot()       { b.b.WriteByte(Dot) }
func (b *Buffer) AppendDash()      { b.b.WriteByte(Dash) }
func (b *Buffer) AppendSeparator() { b.b.WriteByte(Separator) }

func (b *Buffer) Clear() {
	b.b.Reset()
}

// Value returns the current candidate answer.
func (b *Buffer) Value() string {
	return b.b.String()
}
